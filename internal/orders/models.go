package orders

type Partner string

const (
	Partner1 Partner = "Partner1"
	Partner2 Partner = "Partner2"
	Partner3 Partner = "Partner3"
)

func (p Partner) Valid() bool {
	switch p {
	case Partner1, Partner2, Partner3:
		return true
	}
	return false
}

type Category string

const (
	CategoryFootware Category = "Footware"
	CategoryApparel  Category = "Apparel"
	CategoryEyewear  Category = "Eyewear"
)

type Size string

const (
	SizeS Size = "S"
	SizeM Size = "M"
	SizeL Size = "L"
)

func (s Size) Valid() bool {
	switch s {
	case SizeS, SizeM, SizeL:
		return true
	}
	return false
}

type Color string

const (
	ColorBlack  Color = "Black"
	ColorWhite  Color = "White"
	ColorBlue   Color = "Blue"
	ColorRed    Color = "Red"
	ColorYellow Color = "Yellow"
	ColorPink   Color = "Pink"
	ColorOther  Color = "Other"
)

// PartnerInfo is immutable reference data seeded at bootstrap; the pipeline
// only ever reads it.
type PartnerInfo struct {
	PartnerID string   `json:"partnerId"`
	Name      Partner  `json:"name"`
	Category  Category `json:"category"`
	Webhook   string   `json:"webhook"`
	Image     string   `json:"image,omitempty"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Customer struct {
	Email   string   `json:"email"`
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type RequestedItem struct {
	ItemID      string  `json:"itemId"`
	Price       float64 `json:"price"`
	Size        Size    `json:"size"`
	Quantity    int     `json:"quantity"`
	SKU         string  `json:"sku"`
	Category    string  `json:"category,omitempty"`
	Partner     Partner `json:"partner"`
	PartnerID   string  `json:"partnerId"`
	Description string  `json:"description,omitempty"`
	Color       string  `json:"color,omitempty"`
}

// OrderRequest is the transient shape that travels API -> queue -> worker.
// It carries no identity of its own; the worker that dequeues it consumes it.
type OrderRequest struct {
	RequestedItem RequestedItem `json:"requestedItem"`
	Customer      Customer      `json:"customer"`
}

type Product struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	Size     Size   `json:"size"`
}

// Order is the durable record. OrderID originates downstream: the partner's
// fulfillment call assigns it, not this system.
type Order struct {
	OrderID           string     `json:"orderId"`
	PartnerID         string     `json:"partnerId"`
	Product           Product    `json:"product"`
	OrderDate         int64      `json:"orderDate"` // epoch millis, set at write time
	Price             float64    `json:"price"`
	Subtotal          float64    `json:"subtotal"`
	SalesTax          string     `json:"salestax"`
	OrderStatus       Status     `json:"orderStatus"`
	StatusDescription string     `json:"statusDescription,omitempty"`
	Partner           Partner    `json:"partner"`
	Subscribers       []Customer `json:"subscribers"`
	MessageID         string     `json:"messageId,omitempty"`
}

// Field is one entry of a partial update. Updates travel as an ordered list
// of name/value pairs; a value replaces the stored field wholesale, nested
// structures are never merged per subfield.
type Field struct {
	Name  string
	Value any
}
