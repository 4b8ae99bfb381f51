package orders

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxRatePercent is the fixed sales tax applied to every order.
const TaxRatePercent = 8

// Subtotal returns price + price * 8%, rounded to the cent. Computed once
// before persistence, never derived lazily at read time.
func Subtotal(price float64) float64 {
	p := decimal.NewFromFloat(price)
	rate := decimal.NewFromInt(TaxRatePercent).Div(decimal.NewFromInt(100))
	return p.Add(p.Mul(rate)).Round(2).InexactFloat64()
}

// SalesTaxLabel is the display form stored on the order record, e.g. "8%".
func SalesTaxLabel() string {
	return fmt.Sprintf("%d%%", TaxRatePercent)
}
