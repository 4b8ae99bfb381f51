package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/endless-aisle/order-routing/internal/httpx"
	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/queue"
)

func setup(t *testing.T) (*orders.Store, *queue.Memory, http.Handler) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := orders.NewStore(orders.NewMemoryBackend(), logger)
	q := queue.NewMemory()

	router := httpx.NewRouter(logger)
	h := &httpx.OrdersHandler{Store: store, Queue: q, Logger: logger}
	h.Register(router)
	return store, q, router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

const validSubmission = `{
	"requestedItem":{"itemId":"42","price":100,"size":"M","quantity":2,"sku":"SKU1","partner":"Partner1","partnerId":"1"},
	"customer":{"email":"a@b.com"}
}`

func TestSubmitOrder_EnqueuesVerbatim(t *testing.T) {
	_, q, h := setup(t)

	w := do(t, h, http.MethodPost, "/orders", validSubmission)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, q.Len())

	m, err := q.Receive(t.Context())
	require.NoError(t, err)
	assert.JSONEq(t, validSubmission, string(m.Body), "body travels verbatim")
	assert.Equal(t, []byte("1"), m.Key)
}

func TestSubmitOrder_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"missing itemId", func(m map[string]any) { delete(item(m), "itemId") }},
		{"itemId too long", func(m map[string]any) { item(m)["itemId"] = strings.Repeat("x", 65) }},
		{"zero price", func(m map[string]any) { item(m)["price"] = 0 }},
		{"negative quantity", func(m map[string]any) { item(m)["quantity"] = -1 }},
		{"missing sku", func(m map[string]any) { delete(item(m), "sku") }},
		{"bad size", func(m map[string]any) { item(m)["size"] = "XXL" }},
		{"unknown partner", func(m map[string]any) { item(m)["partner"] = "Partner9" }},
		{"missing partnerId", func(m map[string]any) { delete(item(m), "partnerId") }},
		{"missing email", func(m map[string]any) { m["customer"] = map[string]any{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, q, h := setup(t)

			var body map[string]any
			require.NoError(t, json.Unmarshal([]byte(validSubmission), &body))
			tt.mutate(body)
			raw, err := json.Marshal(body)
			require.NoError(t, err)

			w := do(t, h, http.MethodPost, "/orders", string(raw))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, q.Len(), "schema failure must not enqueue")
		})
	}
}

func item(m map[string]any) map[string]any {
	return m["requestedItem"].(map[string]any)
}

func TestSubmitOrder_InvalidJSON(t *testing.T) {
	_, q, h := setup(t)

	w := do(t, h, http.MethodPost, "/orders", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, q.Len())
}

func TestGetOrder_Found(t *testing.T) {
	store, _, h := setup(t)

	o := orders.Order{
		OrderID:     "ord-1",
		PartnerID:   "1",
		OrderStatus: orders.StatusCompleted,
		Partner:     orders.Partner1,
		Subscribers: []orders.Customer{{Email: "a@b.com"}},
	}
	require.NoError(t, store.Put(t.Context(), o))

	w := do(t, h, http.MethodGet, "/orders/ord-1?partner=Partner1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message orders.Order `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, o, resp.Message)
}

func TestGetOrder_AbsentIsNormalAnswer(t *testing.T) {
	_, _, h := setup(t)

	w := do(t, h, http.MethodGet, "/orders/unknown", "")
	require.Equal(t, http.StatusOK, w.Code, "absence is a 200 with a message, not an error status")

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Order Data not found", resp["message"])
}

func TestUpdateOrder_AppliesAllBodyFields(t *testing.T) {
	store, _, h := setup(t)

	require.NoError(t, store.Put(t.Context(), orders.Order{
		OrderID: "ord-1", PartnerID: "1", OrderStatus: orders.StatusPending,
	}))

	body := `{"partnerId":"1","orderStatus":"Delivered","statusDescription":"left at door"}`
	w := do(t, h, http.MethodPatch, "/orders/ord-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := store.Get(t.Context(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, got.OrderStatus)
	assert.Equal(t, "left at door", got.StatusDescription, "non-required fields are applied too")
}

func TestUpdateOrder_RequiredFieldsMissing(t *testing.T) {
	_, _, h := setup(t)

	for name, body := range map[string]string{
		"no orderStatus": `{"partnerId":"1"}`,
		"no partnerId":   `{"orderStatus":"Failed"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPatch, "/orders/ord-1", body)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestUpdateOrder_EmptyBody(t *testing.T) {
	_, _, h := setup(t)

	w := do(t, h, http.MethodPatch, "/orders/ord-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrder_UnknownStatusValue(t *testing.T) {
	_, _, h := setup(t)

	w := do(t, h, http.MethodPatch, "/orders/ord-1", `{"partnerId":"1","orderStatus":"Teleported"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrder_UnknownOrder(t *testing.T) {
	_, _, h := setup(t)

	w := do(t, h, http.MethodPatch, "/orders/ghost", `{"partnerId":"1","orderStatus":"Failed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Order Data not found", resp["message"])
}
