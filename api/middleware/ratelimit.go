package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/api/weberr"
	"github.com/sproutbox/api/rate"
)

// RateLimit gates a handler on a per-client token bucket keyed by remote host.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
