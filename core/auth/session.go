package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/api/weberr"
	"github.com/sproutbox/api/core/claims"
)

const (
	sessionUserID = "auth:user_id"
	sessionRole   = "auth:role"
)

// LoadAndSave adapts the scs middleware to the handler chain. Every request
// goes through it so anonymous visitors get a session to keep their
// selection in.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			wrapped := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			wrapped.ServeHTTP(w, r.WithContext(ctx))

			return err
		}
		return h
	}
	return m
}

// Claims lifts a signed-in session into context claims without requiring
// one, so handlers serving both anonymous and signed-in visitors can ask.
func Claims(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if userID := sm.GetString(ctx, sessionUserID); userID != "" {
				ctx = claims.Set(ctx, claims.Claims{
					UserID: userID,
					Role:   sm.GetString(ctx, sessionRole),
				})
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func Authenticate(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := sm.GetString(ctx, sessionUserID)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID: userID,
				Role:   sm.GetString(ctx, sessionRole),
			})
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func Admin(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := sm.GetString(ctx, sessionUserID)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			role := sm.GetString(ctx, sessionRole)
			if role != claims.RoleAdmin {
				return weberr.NotAuthorized(errors.New("admin role required"))
			}

			ctx = claims.Set(ctx, claims.Claims{UserID: userID, Role: role})
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Waitlist refuses gated actions while the storefront is in pre-launch mode.
func Waitlist(enabled bool) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if enabled {
				err := errors.New("the storefront has not launched yet, join the waitlist")
				return weberr.NewError(err, err.Error(), http.StatusForbidden)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
