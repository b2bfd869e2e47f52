package authz

import (
	"context"
	"errors"
	"testing"
)

type mapRoles map[uint]string

func (m mapRoles) RoleOf(ctx context.Context, userID uint) (string, error) {
	role, ok := m[userID]
	if !ok {
		return "", ErrNoSuchUser
	}
	return role, nil
}

func TestCanAdminister(t *testing.T) {
	a := New(mapRoles{1: "admin", 2: "user", 3: ""})

	cases := []struct {
		userID uint
		want   bool
	}{
		{1, true},  // admin role
		{2, false}, // plain user
		{3, false}, // empty role
		{9, false}, // unknown user
	}
	for _, tc := range cases {
		got, err := a.CanAdminister(context.Background(), tc.userID)
		if err != nil {
			t.Fatalf("user %d: %v", tc.userID, err)
		}
		if got != tc.want {
			t.Fatalf("user %d: CanAdminister = %v, want %v", tc.userID, got, tc.want)
		}
	}
}

type failingRoles struct{}

func (failingRoles) RoleOf(ctx context.Context, userID uint) (string, error) {
	return "", errors.New("db down")
}

func TestCanAdministerPropagatesInfraErrors(t *testing.T) {
	a := New(failingRoles{})
	if _, err := a.CanAdminister(context.Background(), 1); err == nil {
		t.Fatal("expected error from failing role source")
	}
}
