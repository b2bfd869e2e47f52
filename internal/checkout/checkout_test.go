package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"shopstore/internal/domain"
)

// memDirectory resolves identities from a fixed user set
type memDirectory struct {
	users map[uint]*domain.User
}

func (d *memDirectory) Resolve(ctx context.Context, id Identity) (*domain.User, error) {
	u, ok := d.users[id.UserID]
	if !ok {
		return nil, ErrUnknownUser
	}
	return u, nil
}

// memStore models the transactional database: a mutex serializes units, and
// a snapshot taken at unit start is restored when the unit returns an error.
type memStore struct {
	mu          sync.Mutex
	stock       map[uint]int
	orders      []domain.Order
	nextOrderID uint

	// stockReadOffset inflates what GetStock reports without touching the
	// real stock, simulating a pre-check that raced a concurrent decrement.
	stockReadOffset int
	// createErr makes the order factory fail, simulating an infra fault.
	createErr error
}

func newMemStore(stock map[uint]int) *memStore {
	s := &memStore{stock: make(map[uint]int, len(stock)), nextOrderID: 1}
	for id, n := range stock {
		s.stock[id] = n
	}
	return s
}

func (s *memStore) Atomically(ctx context.Context, fn func(Ledger, OrderFactory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotStock := make(map[uint]int, len(s.stock))
	for id, n := range s.stock {
		snapshotStock[id] = n
	}
	snapshotOrders := make([]domain.Order, len(s.orders))
	copy(snapshotOrders, s.orders)
	snapshotNext := s.nextOrderID

	if err := fn(&memLedger{s: s}, &memFactory{s: s}); err != nil {
		s.stock = snapshotStock
		s.orders = snapshotOrders
		s.nextOrderID = snapshotNext
		return err
	}
	return nil
}

type memLedger struct{ s *memStore }

func (l *memLedger) GetStock(ctx context.Context, ids []uint) (map[uint]int, error) {
	out := make(map[uint]int)
	for _, id := range ids {
		if n, ok := l.s.stock[id]; ok {
			out[id] = n + l.s.stockReadOffset
		}
	}
	return out, nil
}

func (l *memLedger) TryDecrement(ctx context.Context, productID uint, qty int) error {
	n, ok := l.s.stock[productID]
	if !ok || n < qty {
		return ErrStockConflict
	}
	l.s.stock[productID] = n - qty
	return nil
}

type memFactory struct{ s *memStore }

func (f *memFactory) Create(ctx context.Context, userID uint, total decimal.Decimal, items []LineItem) (*domain.Order, error) {
	if f.s.createErr != nil {
		return nil, f.s.createErr
	}
	order := domain.Order{
		ID:          f.s.nextOrderID,
		UserID:      userID,
		TotalAmount: total,
		Status:      domain.OrderStatusCompleted,
		Items:       make([]domain.OrderItem, len(items)),
	}
	for i, it := range items {
		order.Items[i] = domain.OrderItem{
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
		}
	}
	f.s.nextOrderID++
	f.s.orders = append(f.s.orders, order)
	return &order, nil
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newTestService(stock map[uint]int) (*Service, *memStore) {
	store := newMemStore(stock)
	users := &memDirectory{users: map[uint]*domain.User{
		1: {ID: 1, Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser},
	}}
	return NewService(users, store), store
}

func TestCheckoutSuccess(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 5})

	order, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 3, UnitPrice: price(1000)},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !order.TotalAmount.Equal(price(3000)) {
		t.Fatalf("total = %s, want 3000", order.TotalAmount)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Fatalf("status = %q, want completed", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].ProductID != 10 || order.Items[0].Quantity != 3 {
		t.Fatalf("unexpected items: %+v", order.Items)
	}
	if !order.Items[0].Price.Equal(price(1000)) {
		t.Fatalf("item price = %s, want 1000", order.Items[0].Price)
	}
	if store.stock[10] != 2 {
		t.Fatalf("stock = %d, want 2", store.stock[10])
	}
	if len(store.orders) != 1 {
		t.Fatalf("orders persisted = %d, want 1", len(store.orders))
	}
}

func TestCheckoutTotalSpansItems(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 5, 11: 4})

	order, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 2, UnitPrice: price(1000)},
		{ProductID: 11, Quantity: 1, UnitPrice: price(2500)},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !order.TotalAmount.Equal(price(4500)) {
		t.Fatalf("total = %s, want 4500", order.TotalAmount)
	}
	if store.stock[10] != 3 || store.stock[11] != 3 {
		t.Fatalf("stock = %v, want 10:3 11:3", store.stock)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 2})

	_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 5, UnitPrice: price(1000)},
	})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	want := Shortfall{ProductID: 10, Requested: 5, Available: 2}
	if len(insufficient.Shortfalls) != 1 || insufficient.Shortfalls[0] != want {
		t.Fatalf("shortfalls = %+v, want [%+v]", insufficient.Shortfalls, want)
	}
	if store.stock[10] != 2 {
		t.Fatalf("stock = %d, want unchanged 2", store.stock[10])
	}
	if len(store.orders) != 0 {
		t.Fatalf("orders persisted = %d, want 0", len(store.orders))
	}
}

func TestCheckoutCollectsAllShortfalls(t *testing.T) {
	svc, _ := newTestService(map[uint]int{10: 1, 11: 0, 12: 9})

	_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 3, UnitPrice: price(100)},
		{ProductID: 11, Quantity: 2, UnitPrice: price(200)},
		{ProductID: 12, Quantity: 4, UnitPrice: price(300)},
	})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if len(insufficient.Shortfalls) != 2 {
		t.Fatalf("shortfalls = %+v, want both 10 and 11", insufficient.Shortfalls)
	}
	if insufficient.Shortfalls[0].ProductID != 10 || insufficient.Shortfalls[1].ProductID != 11 {
		t.Fatalf("shortfalls = %+v, want ordered by product id", insufficient.Shortfalls)
	}
}

func TestCheckoutAggregatesDuplicateLines(t *testing.T) {
	svc, _ := newTestService(map[uint]int{10: 5})

	// Two lines for the same product must be validated as their sum
	_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 3, UnitPrice: price(1000)},
		{ProductID: 10, Quantity: 3, UnitPrice: price(1000)},
	})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	want := Shortfall{ProductID: 10, Requested: 6, Available: 5}
	if len(insufficient.Shortfalls) != 1 || insufficient.Shortfalls[0] != want {
		t.Fatalf("shortfalls = %+v, want [%+v]", insufficient.Shortfalls, want)
	}
}

func TestCheckoutInvalidRequest(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 5})

	cases := []struct {
		name  string
		items []LineItem
	}{
		{"empty", nil},
		{"zero quantity", []LineItem{{ProductID: 10, Quantity: 0, UnitPrice: price(1000)}}},
		{"negative quantity", []LineItem{{ProductID: 10, Quantity: -1, UnitPrice: price(1000)}}},
		{"negative price", []LineItem{{ProductID: 10, Quantity: 1, UnitPrice: price(-5)}}},
	}
	for _, tc := range cases {
		if _, err := svc.Checkout(context.Background(), Identity{UserID: 1}, tc.items); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%s: err = %v, want ErrInvalidRequest", tc.name, err)
		}
	}
	if store.stock[10] != 5 || len(store.orders) != 0 {
		t.Fatalf("state changed on invalid request: stock=%v orders=%d", store.stock, len(store.orders))
	}
}

func TestCheckoutProductNotFound(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 5})

	_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 1, UnitPrice: price(1000)},
		{ProductID: 99, Quantity: 1, UnitPrice: price(2000)},
	})
	var notFound *ProductNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want ProductNotFoundError", err)
	}
	if len(notFound.IDs) != 1 || notFound.IDs[0] != 99 {
		t.Fatalf("missing ids = %v, want [99]", notFound.IDs)
	}
	if store.stock[10] != 5 {
		t.Fatalf("stock = %d, want unchanged 5", store.stock[10])
	}
}

func TestCheckoutUnauthenticated(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 5})

	_, err := svc.Checkout(context.Background(), Identity{UserID: 42}, []LineItem{
		{ProductID: 10, Quantity: 1, UnitPrice: price(1000)},
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if store.stock[10] != 5 || len(store.orders) != 0 {
		t.Fatalf("side effects on unauthenticated call: stock=%v orders=%d", store.stock, len(store.orders))
	}
}

func TestCheckoutValidationIsIdempotent(t *testing.T) {
	svc, _ := newTestService(map[uint]int{10: 2})

	for i := 0; i < 2; i++ {
		_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
			{ProductID: 10, Quantity: 5, UnitPrice: price(1000)},
		})
		var insufficient *InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("call %d: err = %v, want InsufficientStockError", i+1, err)
		}
		if insufficient.Shortfalls[0].Available != 2 {
			t.Fatalf("call %d: available = %d, want 2", i+1, insufficient.Shortfalls[0].Available)
		}
	}
}

func TestCheckoutConcurrentModification(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 2})
	// Make the pre-check observe more stock than the ledger will grant, so
	// the decrement loses the simulated race after the order was created.
	store.stockReadOffset = 5

	_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 4, UnitPrice: price(1000)},
	})
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("err = %v, want ErrConcurrentModification", err)
	}
	// The whole unit must have rolled back: no order, stock untouched
	if len(store.orders) != 0 {
		t.Fatalf("orders persisted = %d, want 0", len(store.orders))
	}
	if store.stock[10] != 2 {
		t.Fatalf("stock = %d, want unchanged 2", store.stock[10])
	}
}

func TestCheckoutPersistenceFailureRollsBack(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 5})
	store.createErr = errors.New("connection reset")

	_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
		{ProductID: 10, Quantity: 1, UnitPrice: price(1000)},
	})
	var persistence *PersistenceError
	if !errors.As(err, &persistence) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if store.stock[10] != 5 || len(store.orders) != 0 {
		t.Fatalf("state changed on failed unit: stock=%v orders=%d", store.stock, len(store.orders))
	}
}

func TestCheckoutConcurrentLastUnits(t *testing.T) {
	svc, store := newTestService(map[uint]int{10: 5})

	// Two concurrent checkouts each want all 5 units: exactly one may win
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), Identity{UserID: 1}, []LineItem{
				{ProductID: 10, Quantity: 5, UnitPrice: price(1000)},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var insufficient *InsufficientStockError
			if !errors.As(err, &insufficient) && !errors.Is(err, ErrConcurrentModification) {
				t.Fatalf("loser got unexpected error: %v", err)
			}
			failures++
		}
	}
	if successes != 1 || failures != 1 {
		t.Fatalf("successes=%d failures=%d, want exactly one of each", successes, failures)
	}
	if store.stock[10] != 0 {
		t.Fatalf("stock = %d, want 0", store.stock[10])
	}
	if len(store.orders) != 1 {
		t.Fatalf("orders persisted = %d, want 1", len(store.orders))
	}
}
