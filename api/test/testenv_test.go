package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/sproutbox/api/api"
	"github.com/sproutbox/api/api/background"
	"github.com/sproutbox/api/config"
	"github.com/sproutbox/api/core/auth"
	"github.com/sproutbox/api/core/catalog"
	"github.com/sproutbox/api/database"
	"github.com/sproutbox/api/rate"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

var boxProducts = []catalog.Product{
	{Slug: "stripy-romper", Name: "Stripy Romper", PriceCents: 900, InStock: true},
	{Slug: "linen-overalls", Name: "Linen Overalls", PriceCents: 1200, InStock: true},
	{Slug: "knit-beanie", Name: "Knit Beanie", PriceCents: 600, InStock: true},
	{Slug: "wool-cardigan", Name: "Wool Cardigan", PriceCents: 1500, InStock: true},
	{Slug: "cord-dungarees", Name: "Cord Dungarees", PriceCents: 1100, InStock: true},
	{Slug: "rain-jacket", Name: "Rain Jacket", PriceCents: 1400, InStock: true},
}

type nopMailer struct{}

func (nopMailer) SendActivationToken(token, to string) error { return nil }
func (nopMailer) SendRecoveryToken(token, to string) error   { return nil }

type TestEnv struct {
	URL           string
	DB            *sqlx.DB
	UserEmail     string
	UserPass      string
	WebhookSecret string
	Stripe        *mockStripe
	Paypal        *mockPaypal

	client *http.Client
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	admin, err := sqlx.Connect("postgres", adminDSN("postgres"))
	if err != nil {
		return nil, fmt.Errorf("connecting to admin db: %w", err)
	}
	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		admin.Close()
		return nil, fmt.Errorf("creating test database: %w", err)
	}
	admin.Close()

	db, err := database.Open(config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       pgHost,
		Name:       name,
		DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening test database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	stripeMock := &mockStripe{}
	stripeSrv := httptest.NewServer(stripeMock.handle())
	strp := &stripecl.API{}
	strp.Init("sk_test_123", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(stripeSrv.URL),
		}),
	})

	paypalMock := &mockPaypal{}
	paypalSrv := httptest.NewServer(paypalMock.handle())
	pp, err := paypal.NewClient("test-client", "test-secret", paypalSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}

	cmsSrv := httptest.NewServer((&mockCMS{products: boxProducts}).handle())
	cms := catalog.NewClient(config.Catalog{URL: cmsSrv.URL, Dataset: "test"})
	cat := catalog.New(cms, nil, 0, logger)

	sessionManager := scs.New()
	sessionManager.Lifetime = time.Hour

	const webhookSecret = "whsec_test"

	mux := api.APIMux(api.APIConfig{
		Log:            logger,
		DB:             db,
		Session:        sessionManager,
		Mailer:         nopMailer{},
		TokenTimeout:   time.Minute,
		Background:     background.New(logger),
		Paypal:         pp,
		Stripe:         strp,
		StripeCfg:      config.Stripe{WebhookSecret: webhookSecret, SuccessURL: "http://test/ok", CancelURL: "http://test/no", Currency: "usd"},
		Providers:      map[string]auth.Provider{},
		Catalog:        cat,
		MigrateOnLogin: true,
		LoginLimiter:   rate.NewLimiter(1000, 100, rate.Every(time.Microsecond)),
	})

	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		stripeSrv.Close()
		paypalSrv.Close()
		cmsSrv.Close()
		db.Close()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	env := &TestEnv{
		URL:           srv.URL,
		DB:            db,
		UserEmail:     "jo@sproutbox.test",
		UserPass:      "hunter2hunter2",
		WebhookSecret: webhookSecret,
		Stripe:        stripeMock,
		Paypal:        paypalMock,
		client:        &http.Client{Jar: jar},
	}

	if err := env.signup(env.UserEmail, env.UserPass); err != nil {
		return nil, err
	}

	return env, nil
}

func (e *TestEnv) Client() *http.Client { return e.client }

func (e *TestEnv) do(method, path string, body interface{}) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		return nil, err
	}

	return e.client.Do(r)
}

func (e *TestEnv) signup(email, pass string) error {
	body := map[string]string{
		"name":     "Jo Bloom",
		"email":    email,
		"password": pass,
	}

	w, err := e.do(http.MethodPost, "/auth/signup", body)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusCreated {
		return fmt.Errorf("signup answered status %s", w.Status)
	}
	return nil
}

func (e *TestEnv) Login() error {
	body := map[string]string{
		"email":    e.UserEmail,
		"password": e.UserPass,
	}

	w, err := e.do(http.MethodPost, "/auth/login", body)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login answered status %s", w.Status)
	}
	return nil
}

func (e *TestEnv) Logout() error {
	w, err := e.do(http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout answered status %s", w.Status)
	}
	return nil
}
