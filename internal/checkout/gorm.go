package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shopstore/internal/domain"
)

// GormStore runs checkout units as database transactions
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle as a checkout Store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Atomically runs fn inside one database transaction. The ledger and factory
// handed to fn operate on the transaction handle, so the stock pre-check, the
// order insert and every decrement commit or roll back together.
func (s *GormStore) Atomically(ctx context.Context, fn func(Ledger, OrderFactory) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedger{tx: tx}, &gormFactory{tx: tx})
	})
}

type gormLedger struct {
	tx *gorm.DB
}

func (l *gormLedger) GetStock(ctx context.Context, ids []uint) (map[uint]int, error) {
	var products []domain.Product
	if err := l.tx.Select("id", "stock").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	stock := make(map[uint]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.Stock
	}
	return stock, nil
}

func (l *gormLedger) TryDecrement(ctx context.Context, productID uint, qty int) error {
	// Conditional decrement: the stock >= qty guard makes concurrent
	// checkouts linearize at the database row, keeping stock non-negative.
	res := l.tx.Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

type gormFactory struct {
	tx *gorm.DB
}

func (f *gormFactory) Create(ctx context.Context, userID uint, total decimal.Decimal, items []LineItem) (*domain.Order, error) {
	order := domain.Order{
		UserID:      userID,
		TotalAmount: total,
		Status:      domain.OrderStatusCompleted,
		Items:       make([]domain.OrderItem, len(items)),
	}
	for i, it := range items {
		order.Items[i] = domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
		}
	}
	// Header and line items are inserted as one aggregate
	if err := f.tx.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GormDirectory resolves caller identities against the users table
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory wraps a gorm handle as a UserDirectory
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) Resolve(ctx context.Context, id Identity) (*domain.User, error) {
	var user domain.User
	if err := d.db.WithContext(ctx).First(&user, id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return &user, nil
}
