package config

import "time"

// Config is the aggregate of all service configuration, parsed from the
// environment under the SPROUT prefix.
type Config struct {
	Web       Web
	DB        DB
	Cors      Cors
	Email     Email
	Oauth     Oauth
	Stripe    Stripe
	Paypal    Paypal
	Catalog   Catalog
	Redis     Redis
	Auth      Auth
	Selection Selection
	Rate      Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:sprout"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Email struct {
	Address       string        `conf:"default:noreply@sproutbox.test"`
	Password      string        `conf:"default:,mask"`
	Host          string        `conf:"default:localhost"`
	Port          string        `conf:"default:25"`
	ActivationURL string        `conf:"default:http://localhost:3000/activate"`
	RecoveryURL   string        `conf:"default:http://localhost:3000/recover"`
	TokenTimeout  time.Duration `conf:"default:15m"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string `conf:"default:"`
	Secret      string `conf:"default:,mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Stripe struct {
	APISecret     string `conf:"default:,mask"`
	WebhookSecret string `conf:"default:,mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/checkout/canceled"`
	Currency      string `conf:"default:usd"`
}

type Paypal struct {
	ClientID string `conf:"default:"`
	Secret   string `conf:"default:,mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

// Catalog points at the hosted CMS query endpoint the storefront content
// (products, brands, settings) is served from.
type Catalog struct {
	URL         string        `conf:"default:http://localhost:3333"`
	Dataset     string        `conf:"default:production"`
	Token       string        `conf:"default:,mask"`
	SnapshotTTL time.Duration `conf:"default:60s"`
}

type Redis struct {
	Address  string `conf:"default:localhost:6379"`
	Password string `conf:"default:,mask"`
	DB       int    `conf:"default:0"`
}

type Auth struct {
	ActivationRequired bool `conf:"default:false"`

	// Waitlist keeps the storefront in pre-launch mode: the session store
	// stays authoritative for everyone and checkout is refused.
	Waitlist bool `conf:"default:false"`
}

type Selection struct {
	// MigrateOnLogin controls whether an anonymous session selection is
	// carried into the remote store at sign-in or discarded.
	MigrateOnLogin bool `conf:"default:true"`
}

type Rate struct {
	LoginBurst    int           `conf:"default:5"`
	LoginInterval time.Duration `conf:"default:3s"`
	LoginExpiry   int           `conf:"default:60"`
}
