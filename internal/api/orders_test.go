package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"shopstore/internal/checkout"
	"shopstore/internal/domain"
)

type stubDirectory struct {
	users map[uint]*domain.User
}

func (d *stubDirectory) Resolve(ctx context.Context, id checkout.Identity) (*domain.User, error) {
	u, ok := d.users[id.UserID]
	if !ok {
		return nil, checkout.ErrUnknownUser
	}
	return u, nil
}

// stubStore runs the checkout unit against a fixed stock table without any
// rollback bookkeeping; the handler tests only look at the HTTP mapping.
type stubStore struct {
	stock     map[uint]int
	createErr error
}

func (s *stubStore) Atomically(ctx context.Context, fn func(checkout.Ledger, checkout.OrderFactory) error) error {
	return fn(s, s)
}

func (s *stubStore) GetStock(ctx context.Context, ids []uint) (map[uint]int, error) {
	out := make(map[uint]int)
	for _, id := range ids {
		if n, ok := s.stock[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (s *stubStore) TryDecrement(ctx context.Context, productID uint, qty int) error {
	if s.stock[productID] < qty {
		return checkout.ErrStockConflict
	}
	s.stock[productID] -= qty
	return nil
}

func (s *stubStore) Create(ctx context.Context, userID uint, total decimal.Decimal, items []checkout.LineItem) (*domain.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Order{ID: 1, UserID: userID, TotalAmount: total, Status: domain.OrderStatusCompleted}, nil
}

func newCheckoutRouter(svc *checkout.Service, callerID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/checkout", func(c *gin.Context) {
		// Stand-in for the JWT middleware
		c.Set("userID", callerID)
		c.Next()
	}, CheckoutHandler(svc, nil))
	return r
}

func doCheckout(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newStubService(stock map[uint]int) (*checkout.Service, *stubStore) {
	store := &stubStore{stock: stock}
	users := &stubDirectory{users: map[uint]*domain.User{1: {ID: 1, Email: "alice@example.com"}}}
	return checkout.NewService(users, store), store
}

func TestCheckoutHandlerSuccess(t *testing.T) {
	svc, _ := newStubService(map[uint]int{10: 5})
	r := newCheckoutRouter(svc, 1)

	w := doCheckout(t, r, `{"items":[{"product_id":10,"quantity":3,"price":1000}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("body missing success flag: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"totalAmount":"3000"`) {
		t.Fatalf("body missing total: %s", w.Body.String())
	}
}

func TestCheckoutHandlerInvalidRequest(t *testing.T) {
	svc, _ := newStubService(map[uint]int{10: 5})
	r := newCheckoutRouter(svc, 1)

	for _, body := range []string{
		`{}`,
		`{"items":[]}`,
		`{"items":[{"product_id":10,"quantity":0,"price":1000}]}`,
	} {
		if w := doCheckout(t, r, body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestCheckoutHandlerUnauthenticated(t *testing.T) {
	svc, _ := newStubService(map[uint]int{10: 5})
	r := newCheckoutRouter(svc, 42) // Identity that resolves to no user

	w := doCheckout(t, r, `{"items":[{"product_id":10,"quantity":1,"price":1000}]}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCheckoutHandlerProductNotFound(t *testing.T) {
	svc, _ := newStubService(map[uint]int{10: 5})
	r := newCheckoutRouter(svc, 1)

	w := doCheckout(t, r, `{"items":[{"product_id":99,"quantity":1,"price":1000}]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "99") {
		t.Fatalf("body missing offending id: %s", w.Body.String())
	}
}

func TestCheckoutHandlerInsufficientStock(t *testing.T) {
	svc, _ := newStubService(map[uint]int{10: 2})
	r := newCheckoutRouter(svc, 1)

	w := doCheckout(t, r, `{"items":[{"product_id":10,"quantity":5,"price":1000}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"requested":5`) || !strings.Contains(body, `"available":2`) {
		t.Fatalf("body missing shortfall detail: %s", body)
	}
}

func TestCheckoutHandlerPersistenceFailure(t *testing.T) {
	svc, store := newStubService(map[uint]int{10: 5})
	store.createErr = errors.New("connection reset")
	r := newCheckoutRouter(svc, 1)

	w := doCheckout(t, r, `{"items":[{"product_id":10,"quantity":1,"price":1000}]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	// Infrastructure detail never leaks to the caller
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Fatalf("infrastructure detail leaked: %s", w.Body.String())
	}
}
