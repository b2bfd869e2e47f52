package authz

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shopstore/internal/domain"
)

// ErrNoSuchUser is returned by a RoleSource when the user does not exist
var ErrNoSuchUser = errors.New("no such user")

// RoleSource reports the current role of a user
type RoleSource interface {
	RoleOf(ctx context.Context, userID uint) (string, error)
}

// Authorizer is the single place administrative capability is decided.
// Handlers never compare roles inline; they ask the authorizer once.
type Authorizer struct {
	roles RoleSource
}

// New builds an Authorizer on the given role source
func New(roles RoleSource) *Authorizer {
	return &Authorizer{roles: roles}
}

// CanAdminister reports whether the user may perform administrative
// operations. An unknown user simply cannot.
func (a *Authorizer) CanAdminister(ctx context.Context, userID uint) (bool, error) {
	role, err := a.roles.RoleOf(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoSuchUser) {
			return false, nil
		}
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

// GormRoles reads roles from the users table, so a role change by an
// administrator takes effect on the next request.
type GormRoles struct {
	db *gorm.DB
}

// NewGormRoles wraps a gorm handle as a RoleSource
func NewGormRoles(db *gorm.DB) *GormRoles {
	return &GormRoles{db: db}
}

func (r *GormRoles) RoleOf(ctx context.Context, userID uint) (string, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Select("role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoSuchUser
		}
		return "", err
	}
	return user.Role, nil
}
