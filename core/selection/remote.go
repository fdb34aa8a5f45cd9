package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sproutbox/api/core/claims"
)

func tableFor(kind Kind) string {
	if kind == Cart {
		return "cart_items"
	}
	return "favorite_items"
}

// remoteStore is the authenticated selection: one row per (user, slug) in
// Postgres, user taken from the request claims. Row uniqueness makes
// concurrent duplicate adds from two tabs collapse into one; beyond that the
// stores follow last-write-wins with no cross-tab freshness guarantee.
type remoteStore struct {
	db sqlx.ExtContext
}

func NewRemoteStore(db sqlx.ExtContext) Store {
	return &remoteStore{db: db}
}

func (s *remoteStore) user(ctx context.Context) (string, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return "", errors.New("remote selection requires an authenticated session")
	}
	return clm.UserID, nil
}

func (s *remoteStore) List(ctx context.Context, kind Kind) ([]string, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT slug FROM %s WHERE user_id = $1 ORDER BY created_at, slug`, tableFor(kind))

	var slugs []string
	if err := sqlx.SelectContext(ctx, s.db, &slugs, q, userID); err != nil {
		return nil, fmt.Errorf("selecting %s items: %w", kind, err)
	}
	return slugs, nil
}

func (s *remoteStore) Add(ctx context.Context, kind Kind, slug string) error {
	userID, err := s.user(ctx)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`
	INSERT INTO %s (user_id, slug, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT DO NOTHING`, tableFor(kind))

	if _, err := s.db.ExecContext(ctx, q, userID, slug, time.Now().UTC()); err != nil {
		return fmt.Errorf("inserting %s item[%s]: %w", kind, slug, err)
	}
	return nil
}

func (s *remoteStore) Remove(ctx context.Context, kind Kind, slug string) error {
	userID, err := s.user(ctx)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND slug = $2`, tableFor(kind))

	if _, err := s.db.ExecContext(ctx, q, userID, slug); err != nil {
		return fmt.Errorf("deleting %s item[%s]: %w", kind, slug, err)
	}
	return nil
}

func (s *remoteStore) Clear(ctx context.Context, kind Kind) error {
	userID, err := s.user(ctx)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, tableFor(kind))

	if _, err := s.db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("clearing %s items: %w", kind, err)
	}
	return nil
}

// ClearCart empties a user's cart rows inside an existing transaction; the
// checkout fulfilment uses it alongside the order status update.
func ClearCart(ctx context.Context, tx sqlx.ExtContext, userID string) error {
	ctx = claims.Set(ctx, claims.Claims{UserID: userID})
	return (&remoteStore{db: tx}).Clear(ctx, Cart)
}
