package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/endless-aisle/order-routing/internal/fulfillment"
	"github.com/endless-aisle/order-routing/internal/httpx"
	kafkax "github.com/endless-aisle/order-routing/internal/kafka"
	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/params"
	"github.com/endless-aisle/order-routing/internal/partnermock"
	"github.com/endless-aisle/order-routing/internal/partners"
	"github.com/endless-aisle/order-routing/internal/queue"
	"github.com/endless-aisle/order-routing/internal/worker"
)

const testToken = "sekret"

type fakeRegistry map[string]orders.PartnerInfo

func (r fakeRegistry) Get(ctx context.Context, partnerID string) (orders.PartnerInfo, error) {
	p, ok := r[partnerID]
	if !ok {
		return orders.PartnerInfo{}, partners.ErrNotFound
	}
	return p, nil
}

type fakeParams map[string]string

func (p fakeParams) Get(ctx context.Context, path string) (string, error) {
	v, ok := p[path]
	if !ok {
		return params.NoData, nil
	}
	return v, nil
}

// failingBackend rejects writes so the persist step can be forced to fail
// after a successful partner call.
type failingBackend struct {
	orders.Backend
}

func (b *failingBackend) Put(ctx context.Context, o orders.Order) error {
	return errors.New("store unavailable")
}

// startPartnerMock serves the real mock handler over httptest.
func startPartnerMock(t *testing.T) *httptest.Server {
	t.Helper()
	router := httpx.NewRouter(zaptest.NewLogger(t))
	h := &partnermock.Handler{Token: testToken, Logger: zaptest.NewLogger(t)}
	h.Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, webhook string, backend orders.Backend) (*worker.Service, *orders.Store) {
	t.Helper()
	store := orders.NewStore(backend, zaptest.NewLogger(t))
	svc := &worker.Service{
		Registry: fakeRegistry{
			"1": {PartnerID: "1", Name: orders.Partner1, Category: orders.CategoryFootware, Webhook: webhook},
		},
		Params:    fakeParams{"/partners/token": testToken},
		Fulfiller: fulfillment.NewClient(),
		Store:     store,
		TokenPath: "/partners/token",
		Logger:    zaptest.NewLogger(t),
	}
	return svc, store
}

func requestMessage(t *testing.T, itemID string) queue.Message {
	t.Helper()
	req := orders.OrderRequest{
		RequestedItem: orders.RequestedItem{
			ItemID:    itemID,
			Price:     100,
			Size:      orders.SizeM,
			Quantity:  2,
			SKU:       "SKU1",
			Partner:   orders.Partner1,
			PartnerID: "1",
		},
		Customer: orders.Customer{Email: "a@b.com"},
	}
	return queue.Message{ID: "msg-1", Key: []byte("1"), Body: kafkax.MustMarshal(req), Attempts: 1}
}

func TestHandleMessage_CompletedOrder(t *testing.T) {
	srv := startPartnerMock(t)
	svc, store := newService(t, srv.URL+"/", orders.NewMemoryBackend())
	ctx := t.Context()

	var events []orders.ChangeEvent
	store.OnChange(func(ev orders.ChangeEvent) { events = append(events, ev) })

	require.NoError(t, svc.HandleMessage(ctx, requestMessage(t, "42")))

	require.Len(t, events, 1)
	o := events[0].NewImage
	assert.NotEmpty(t, o.OrderID)
	assert.False(t, strings.HasPrefix(o.OrderID, "failed-"))
	assert.Equal(t, orders.StatusCompleted, o.OrderStatus)
	assert.Equal(t, 108.0, o.Subtotal)
	assert.Equal(t, "8%", o.SalesTax)
	assert.Equal(t, 100.0, o.Price)
	assert.Equal(t, orders.Product{ItemID: "42", Quantity: 2, Size: orders.SizeM}, o.Product)
	assert.Equal(t, "msg-1", o.MessageID)
	require.Len(t, o.Subscribers, 1)
	assert.Equal(t, "a@b.com", o.Subscribers[0].Email)
	assert.Contains(t, o.StatusDescription, "Order Placed for order id "+o.OrderID)

	got, err := store.Get(ctx, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o, got)
}

func TestHandleMessage_PartnerRejection_RecordsFailedOrder(t *testing.T) {
	srv := startPartnerMock(t)
	svc, store := newService(t, srv.URL+"/", orders.NewMemoryBackend())
	ctx := t.Context()

	// itemId 150 violates the mock's <100 policy
	require.NoError(t, svc.HandleMessage(ctx, requestMessage(t, "150")))

	got, err := store.Get(ctx, "failed-msg-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusFailed, got.OrderStatus)
	assert.Contains(t, got.StatusDescription, "Order Failed for item - 150")
	assert.Equal(t, 108.0, got.Subtotal)
	assert.Equal(t, "msg-1", got.MessageID)
}

func TestHandleMessage_UnknownPartner(t *testing.T) {
	srv := startPartnerMock(t)
	svc, store := newService(t, srv.URL+"/", orders.NewMemoryBackend())

	m := requestMessage(t, "42")
	var req orders.OrderRequest
	require.NoError(t, json.Unmarshal(m.Body, &req))
	req.RequestedItem.PartnerID = "99"
	m.Body = kafkax.MustMarshal(req)

	err := svc.HandleMessage(t.Context(), m)
	require.ErrorIs(t, err, partners.ErrNotFound)

	_, err = store.Get(t.Context(), "failed-msg-1")
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestHandleMessage_MissingTokenPath(t *testing.T) {
	srv := startPartnerMock(t)
	svc, _ := newService(t, srv.URL+"/", orders.NewMemoryBackend())
	svc.TokenPath = ""

	err := svc.HandleMessage(t.Context(), requestMessage(t, "42"))
	require.ErrorIs(t, err, worker.ErrConfiguration)
}

func TestHandleMessage_NoCredentialData(t *testing.T) {
	srv := startPartnerMock(t)
	svc, _ := newService(t, srv.URL+"/", orders.NewMemoryBackend())
	svc.Params = fakeParams{} // path resolves to the "No Data" sentinel

	err := svc.HandleMessage(t.Context(), requestMessage(t, "42"))
	require.ErrorIs(t, err, worker.ErrConfiguration)
}

func TestHandleMessage_TransportFailure_NoWrite(t *testing.T) {
	srv := startPartnerMock(t)
	webhook := srv.URL + "/"
	srv.Close() // partner unreachable: retryable fault, no verdict

	svc, store := newService(t, webhook, orders.NewMemoryBackend())

	err := svc.HandleMessage(t.Context(), requestMessage(t, "42"))
	require.Error(t, err)
	require.NotErrorIs(t, err, worker.ErrConfiguration)

	_, err = store.Get(t.Context(), "failed-msg-1")
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestHandleMessage_StoreFailureAfterPartnerSuccess(t *testing.T) {
	srv := startPartnerMock(t)
	backend := &failingBackend{Backend: orders.NewMemoryBackend()}
	svc, store := newService(t, srv.URL+"/", backend)

	var events int
	store.OnChange(func(orders.ChangeEvent) { events++ })

	err := svc.HandleMessage(t.Context(), requestMessage(t, "42"))
	require.Error(t, err, "message must stay unacked when persistence fails")
	assert.Zero(t, events, "no change event for a write that did not happen")
}

func TestHandleMessage_MalformedBody(t *testing.T) {
	srv := startPartnerMock(t)
	svc, _ := newService(t, srv.URL+"/", orders.NewMemoryBackend())

	err := svc.HandleMessage(t.Context(), queue.Message{ID: "m", Body: []byte("{broken"), Attempts: 1})
	require.Error(t, err)
}
