package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/sproutbox/api/api/background"
	"github.com/sproutbox/api/api/middleware"
	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/config"
	"github.com/sproutbox/api/core/auth"
	"github.com/sproutbox/api/core/catalog"
	"github.com/sproutbox/api/core/checkout"
	"github.com/sproutbox/api/core/selection"
	"github.com/sproutbox/api/core/token"
	"github.com/sproutbox/api/core/user"
	"github.com/sproutbox/api/rate"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin         string
	Log                logrus.FieldLogger
	DB                 *sqlx.DB
	Session            *scs.SessionManager
	Mailer             token.Mailer
	TokenTimeout       time.Duration
	Background         *background.Background
	Paypal             *paypal.Client
	Stripe             *stripecl.API
	StripeCfg          config.Stripe
	Providers          map[string]auth.Provider
	LoginRedirectURL   string
	ActivationRequired bool
	Catalog            *catalog.Catalog
	Waitlist           bool
	MigrateOnLogin     bool
	LoginLimiter       *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, auth.Claims(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	local := selection.NewSessionStore(cfg.Session)
	remote := selection.NewRemoteStore(cfg.DB)
	rec := selection.NewReconciler(local, remote, cfg.Waitlist, cfg.MigrateOnLogin, cfg.Log)

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	limited := middleware.RateLimit(cfg.LoginLimiter)
	gated := auth.Waitlist(cfg.Waitlist)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session, cfg.ActivationRequired), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session, rec, cfg.Log), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL, rec, cfg.Log))

	a.Handle(http.MethodPost, "/tokens", token.HandleToken(cfg.DB, cfg.Mailer, cfg.TokenTimeout, cfg.Background))
	a.Handle(http.MethodPost, "/tokens/activate", token.HandleActivation(cfg.DB))
	a.Handle(http.MethodPost, "/tokens/recover", token.HandleRecovery(cfg.DB))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), authen)

	a.Handle(http.MethodGet, "/products/{slug}", catalog.HandleShowProduct(cfg.Catalog))
	a.Handle(http.MethodGet, "/products", catalog.HandleListProducts(cfg.Catalog))
	a.Handle(http.MethodGet, "/brands", catalog.HandleListBrands(cfg.Catalog))
	a.Handle(http.MethodGet, "/settings", catalog.HandleShowSettings(cfg.Catalog))

	a.Handle(http.MethodGet, "/selection/{kind}/count", selection.HandleCount(rec))
	a.Handle(http.MethodGet, "/selection/{kind}", selection.HandleShow(rec, cfg.Catalog))
	a.Handle(http.MethodPut, "/selection/{kind}/items", selection.HandleCreateItem(rec))
	a.Handle(http.MethodDelete, "/selection/{kind}/items/{slug}", selection.HandleDeleteItem(rec))

	a.Handle(http.MethodGet, "/orders", checkout.HandleList(cfg.DB), admin)
	a.Handle(http.MethodPost, "/checkout/paypal", checkout.HandlePaypalCheckout(cfg.DB, cfg.Paypal, cfg.Catalog), authen, gated)
	a.Handle(http.MethodPost, "/checkout/paypal/{id}/capture", checkout.HandlePaypalCapture(cfg.DB, cfg.Paypal))
	a.Handle(http.MethodPost, "/checkout/stripe", checkout.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg, cfg.Catalog), authen, gated)
	a.Handle(http.MethodPost, "/checkout/stripe/capture", checkout.HandleStripeCapture(cfg.DB, cfg.StripeCfg))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
