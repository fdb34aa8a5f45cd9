package selection

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/sproutbox/api/core/claims"
)

// Reconciler presents one selection API over the two backing stores and
// decides which of them is authoritative for the request at hand.
type Reconciler struct {
	local          Store
	remote         Store
	waitlist       bool
	migrateOnLogin bool
	log            logrus.FieldLogger
}

func NewReconciler(local, remote Store, waitlist, migrateOnLogin bool, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		local:          local,
		remote:         remote,
		waitlist:       waitlist,
		migrateOnLogin: migrateOnLogin,
		log:            log,
	}
}

// storeFor picks the authoritative store: the session while the visitor is
// anonymous or the storefront is in waitlist mode, the user's rows
// otherwise. The stores are never consulted together outside the sign-in
// migration, so a slug can't be double counted.
func (r *Reconciler) storeFor(ctx context.Context) Store {
	if r.waitlist {
		return r.local
	}

	if _, err := claims.Get(ctx); err != nil {
		return r.local
	}
	return r.remote
}

// List returns the current slugs. It never fails: a store outage is logged
// and produces an empty selection, which the UI treats as nothing selected.
func (r *Reconciler) List(ctx context.Context, kind Kind) []string {
	slugs, err := r.storeFor(ctx).List(ctx, kind)
	if err != nil {
		r.log.WithField("kind", kind).Warnf("listing selection: %v", err)
		return nil
	}
	return slugs
}

// Add puts slug into the selection. Adding a slug that is already present is
// a no-op success. A cart add against a full box fails with
// ErrCapacityExceeded and changes nothing.
func (r *Reconciler) Add(ctx context.Context, kind Kind, slug string) error {
	st := r.storeFor(ctx)

	current, err := st.List(ctx, kind)
	if err != nil {
		return &UnavailableError{Err: err}
	}

	for _, cur := range current {
		if cur == slug {
			return nil
		}
	}

	if kind == Cart && len(current) >= BoxCapacity {
		return ErrCapacityExceeded
	}

	if err := st.Add(ctx, kind, slug); err != nil {
		return &UnavailableError{Err: err}
	}
	return nil
}

// Remove takes slug out of the selection. Removing an absent slug succeeds.
func (r *Reconciler) Remove(ctx context.Context, kind Kind, slug string) error {
	if err := r.storeFor(ctx).Remove(ctx, kind, slug); err != nil {
		return &UnavailableError{Err: err}
	}
	return nil
}

func (r *Reconciler) Count(ctx context.Context, kind Kind) int {
	return len(r.List(ctx, kind))
}

// Migrate runs the one-time pass at sign-in that hands the anonymous session
// selection over to the user's rows. Favorites always carry over; cart slugs
// carry over while box capacity remains and extras are discarded. With the
// policy off everything local is simply dropped. The session copy is emptied
// optimistically and restored if the remote writes fail, so the pass can be
// rerun on the next login without losing the visitor's picks.
func (r *Reconciler) Migrate(ctx context.Context, userID string) error {
	if r.waitlist {
		return nil
	}

	ctx = claims.Set(ctx, claims.Claims{UserID: userID})

	for _, kind := range []Kind{Favorite, Cart} {
		kind := kind

		slugs, err := r.local.List(ctx, kind)
		if err != nil || len(slugs) == 0 {
			continue
		}

		apply := func(state []string) {
			_ = r.local.Clear(ctx, kind)
			for _, slug := range state {
				_ = r.local.Add(ctx, kind, slug)
			}
		}

		if !r.migrateOnLogin {
			apply(nil)
			continue
		}

		keep := slugs
		if kind == Cart {
			current, err := r.remote.List(ctx, kind)
			if err != nil {
				return &UnavailableError{Err: err}
			}

			room := BoxCapacity - len(current)
			if room < 0 {
				room = 0
			}
			if len(keep) > room {
				keep = keep[:room]
			}
		}

		err = optimistic(apply, slugs, nil, func() error {
			for _, slug := range keep {
				if err := r.remote.Add(ctx, kind, slug); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return &UnavailableError{Err: err}
		}
	}

	return nil
}
