// Package partnermock is the stand-in partner inventory service. Its
// acceptance policy is fixed: numeric item id below 100, a known partner,
// and a positive quantity.
package partnermock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/orders"
)

type Handler struct {
	// Token guards POST /inventory; empty disables the check.
	Token  string
	Logger *zap.Logger
}

func (h *Handler) Register(r *chi.Mux) {
	r.Get("/inventory", h.checkAvailability)
	r.Post("/inventory", h.placeOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Available is the mock acceptance policy.
func Available(itemID, partner string, quantity float64) bool {
	n, err := strconv.ParseFloat(itemID, 64)
	if err != nil {
		return false
	}
	return n < 100 && orders.Partner(partner).Valid() && quantity > 0
}

func (h *Handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID, partner, quantity := q.Get("itemId"), q.Get("partner"), q.Get("quantity")
	if itemID == "" || partner == "" || quantity == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "invalid request"})
		return
	}
	qty, _ := strconv.ParseFloat(quantity, 64)
	if !Available(itemID, partner, qty) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "available"})
}

type orderRequest struct {
	ItemID   string  `json:"itemId"`
	Partner  string  `json:"partner"`
	Quantity float64 `json:"quantity"`
}

type orderAck struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	OrderID    string `json:"orderId"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	if h.Token != "" && r.Header.Get("authorizationToken") != h.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "invalid body"})
		return
	}
	if req.ItemID == "" || req.Partner == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "invalid request"})
		return
	}
	if !Available(req.ItemID, req.Partner, req.Quantity) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"message": fmt.Sprintf("Order Failed for item - %s", req.ItemID),
		})
		return
	}

	orderID := uuid.NewString()
	h.Logger.Info("mock order placed",
		zap.String("order_id", orderID), zap.String("item_id", req.ItemID))
	writeJSON(w, http.StatusOK, orderAck{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("Order Placed for order id %s and reference item : %s", orderID, req.ItemID),
		OrderID:    orderID,
	})
}
