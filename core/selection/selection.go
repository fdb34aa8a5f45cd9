package selection

import (
	"context"
	"errors"
	"fmt"
)

// Kind names one of the two independent selections a visitor keeps.
type Kind string

const (
	Cart     Kind = "cart"
	Favorite Kind = "favorites"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Cart:
		return Cart, nil
	case Favorite:
		return Favorite, nil
	}
	return "", fmt.Errorf("unknown selection kind %q", s)
}

// BoxCapacity is the number of garments in one rental box. The cart is a
// single box, so it can never hold more than this.
const BoxCapacity = 5

// ErrCapacityExceeded rejects an add against a full cart.
var ErrCapacityExceeded = errors.New("the box is full: it holds exactly 5 garments")

// UnavailableError wraps a backing-store failure. The selection the caller
// saw before the operation is unchanged.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "selection store unavailable: " + e.Err.Error() }

func (e *UnavailableError) Unwrap() error { return e.Err }

// Store is the closed variant behind the reconciler: the anonymous session
// store or the authenticated user's rows. Exactly one is authoritative for a
// given request.
type Store interface {
	List(ctx context.Context, kind Kind) ([]string, error)
	Add(ctx context.Context, kind Kind, slug string) error
	Remove(ctx context.Context, kind Kind, slug string) error
	Clear(ctx context.Context, kind Kind) error
}

// ItemNew is the add-item request body.
type ItemNew struct {
	Slug string `json:"slug" validate:"required"`
}
