package checkout

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"shopstore/internal/domain"
)

// LineItem is one (product, quantity, price) tuple submitted at checkout.
// The unit price is the price the customer saw in the catalog; it is trusted
// as-is so the price shown is the price charged, decoupled from concurrent
// catalog edits.
type LineItem struct {
	ProductID uint            `json:"product_id" binding:"required"`  // Referenced product
	Quantity  int             `json:"quantity" binding:"required"`    // Requested quantity, must be positive
	UnitPrice decimal.Decimal `json:"price"`                          // Unit price at the time the cart was assembled
}

// Identity is the opaque caller reference handed to the service. The HTTP
// layer fills it from the verified JWT; the service only trusts it after the
// UserDirectory resolves it.
type Identity struct {
	UserID uint
}

// UserDirectory resolves a caller identity to a persisted user.
// Implementations return ErrUnknownUser when no user matches.
type UserDirectory interface {
	Resolve(ctx context.Context, id Identity) (*domain.User, error)
}

// Ledger owns per-product stock inside one atomic unit.
type Ledger interface {
	// GetStock returns the current stock for the given product ids.
	// Ids with no matching product are simply absent from the map.
	GetStock(ctx context.Context, ids []uint) (map[uint]int, error)
	// TryDecrement conditionally subtracts qty from the product's stock.
	// It returns ErrStockConflict when the stock cannot cover qty.
	TryDecrement(ctx context.Context, productID uint, qty int) error
}

// OrderFactory persists an order aggregate. Pure persistence: all business
// validation happens in the orchestrator before it is called.
type OrderFactory interface {
	Create(ctx context.Context, userID uint, total decimal.Decimal, items []LineItem) (*domain.Order, error)
}

// Store runs a function inside one atomic unit and hands it a Ledger and an
// OrderFactory bound to that unit. Returning an error aborts the whole unit.
type Store interface {
	Atomically(ctx context.Context, fn func(Ledger, OrderFactory) error) error
}

// Service is the checkout orchestrator: it validates the submitted line
// items, checks stock, computes the total and creates the order while
// decrementing inventory, all inside a single atomic unit.
type Service struct {
	users UserDirectory
	store Store
}

// NewService builds a checkout service on the given collaborators
func NewService(users UserDirectory, store Store) *Service {
	return &Service{users: users, store: store}
}

// Checkout executes the full checkout flow for the given caller.
//
// On success the returned order owns one item per submitted line item and
// every affected product's stock has decreased by exactly the purchased
// quantity. On any failure nothing is persisted.
func (s *Service) Checkout(ctx context.Context, identity Identity, items []LineItem) (*domain.Order, error) {
	// Fail fast on a malformed request before touching any collaborator
	if len(items) == 0 {
		return nil, ErrInvalidRequest
	}
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			return nil, ErrInvalidRequest
		}
	}

	user, err := s.users.Resolve(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return nil, ErrUnauthenticated
		}
		return nil, &PersistenceError{Err: err}
	}

	// Aggregate requested quantities per product so that two line items for
	// the same product are validated against stock as a whole.
	requested := make(map[uint]int, len(items))
	total := decimal.Zero
	for _, it := range items {
		requested[it.ProductID] += it.Quantity
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	ids := make([]uint, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var order *domain.Order
	err = s.store.Atomically(ctx, func(ledger Ledger, factory OrderFactory) error {
		// The stock pre-check runs inside the same atomic unit as the
		// decrements, so validation and mutation share one isolation boundary.
		stock, err := ledger.GetStock(ctx, ids)
		if err != nil {
			return err
		}

		var missing []uint
		for _, id := range ids {
			if _, ok := stock[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return &ProductNotFoundError{IDs: missing}
		}

		// Collect every shortfall before failing so the caller gets the
		// complete remediation list in one response.
		var shortfalls []Shortfall
		for _, id := range ids {
			if stock[id] < requested[id] {
				shortfalls = append(shortfalls, Shortfall{
					ProductID: id,
					Requested: requested[id],
					Available: stock[id],
				})
			}
		}
		if len(shortfalls) > 0 {
			return &InsufficientStockError{Shortfalls: shortfalls}
		}

		o, err := factory.Create(ctx, user.ID, total, items)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := ledger.TryDecrement(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, ErrStockConflict) {
					// A concurrent checkout won the race since the pre-check;
					// abort the whole unit, the caller may retry.
					return ErrConcurrentModification
				}
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		var notFound *ProductNotFoundError
		var insufficient *InsufficientStockError
		switch {
		case errors.As(err, &notFound), errors.As(err, &insufficient), errors.Is(err, ErrConcurrentModification):
			return nil, err
		default:
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,
				"items":   len(items),
				"error":   err.Error(),
			}).Error("Checkout transaction failed")
			return nil, &PersistenceError{Err: err}
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"order_id": order.ID,
		"total":    order.TotalAmount.String(),
		"items":    len(items),
	}).Info("Checkout completed")
	return order, nil
}
