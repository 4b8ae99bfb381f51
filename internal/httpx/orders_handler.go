package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/queue"
)

const notFoundMessage = "Order Data not found"

type OrdersHandler struct {
	Store  *orders.Store
	Queue  queue.Publisher
	Logger *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.submitOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}", h.updateOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// submitOrder validates the request shape and enqueues the body verbatim.
// It answers before fulfillment runs: callers learn the outcome only by
// polling GET /orders/{id}.
func (h *OrdersHandler) submitOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	var req orders.OrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := validateRequest(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m := queue.Message{
		Key:  []byte(req.RequestedItem.PartnerID),
		Body: body,
	}
	if err := h.Queue.Publish(r.Context(), m); err != nil {
		h.Logger.Error("enqueue failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not accept order"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order request received"})
}

// validateRequest mirrors the fixed submission schema. Failures produce 400
// with no enqueue side effect.
func validateRequest(req orders.OrderRequest) error {
	item := req.RequestedItem
	switch {
	case item.ItemID == "":
		return errors.New("requestedItem.itemId is required")
	case len(item.ItemID) > 64:
		return errors.New("requestedItem.itemId exceeds 64 characters")
	case item.Price <= 0:
		return errors.New("requestedItem.price must be positive")
	case item.Quantity <= 0:
		return errors.New("requestedItem.quantity must be positive")
	case item.SKU == "":
		return errors.New("requestedItem.sku is required")
	case !item.Size.Valid():
		return errors.New("requestedItem.size must be one of S, M, L")
	case !item.Partner.Valid():
		return fmt.Errorf("requestedItem.partner %q is not a known partner", item.Partner)
	case item.PartnerID == "":
		return errors.New("requestedItem.partnerId is required")
	case req.Customer.Email == "":
		return errors.New("customer.email is required")
	}
	return nil
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "invalid request parameters"})
		return
	}

	o, err := h.Store.Get(r.Context(), orderID)
	if errors.Is(err, orders.ErrNotFound) {
		// absence is a normal answer here, not an error status
		writeJSON(w, http.StatusOK, map[string]string{"message": notFoundMessage})
		return
	}
	if err != nil {
		h.Logger.Error("get order failed", zap.String("order_id", orderID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": o})
}

// updateOrder applies every field present in the body, in document order.
// partnerId and orderStatus must be present for the request to be accepted
// at all; the update itself still carries all supplied fields.
func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "invalid request parameters"})
		return
	}

	fields, err := decodeFields(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(fields) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request, no arguments provided"})
		return
	}

	var partnerID, status string
	for _, f := range fields {
		switch f.Name {
		case "partnerId":
			partnerID, _ = f.Value.(string)
		case "orderStatus":
			status, _ = f.Value.(string)
		}
	}
	if partnerID == "" || status == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "invalid request parameters"})
		return
	}
	if !orders.Status(status).Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown orderStatus %q", status)})
		return
	}

	updated, err := h.Store.Update(r.Context(), orderID, fields)
	if errors.Is(err, orders.ErrInvalidArgument) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request, no arguments provided"})
		return
	}
	if errors.Is(err, orders.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]string{"message": notFoundMessage})
		return
	}
	if err != nil {
		h.Logger.Error("update order failed", zap.String("order_id", orderID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": updated})
}

// decodeFields reads the top-level object as an ordered field list, keeping
// the document's own ordering.
func decodeFields(body io.Reader) ([]orders.Field, error) {
	dec := json.NewDecoder(body)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("body must be a JSON object")
	}

	var fields []orders.Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("malformed object key")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, orders.Field{Name: key, Value: value})
	}
	return fields, nil
}
