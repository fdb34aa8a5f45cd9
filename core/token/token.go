package token

import "time"

const (
	ScopeActivation = "activation"
	ScopeRecovery   = "recovery"
)

type Token struct {
	Hash   []byte    `db:"hash"`
	UserID string    `db:"user_id"`
	Scope  string    `db:"scope"`
	Expiry time.Time `db:"expiry"`
}

type TokenNew struct {
	Email string `json:"email" validate:"required,email"`
	Scope string `json:"scope" validate:"required,oneof=activation recovery"`
}

type Activation struct {
	Token string `json:"token" validate:"required"`
}

type Recovery struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Mailer delivers token mail; satisfied by the email package and faked in
// tests.
type Mailer interface {
	SendActivationToken(token string, to string) error
	SendRecoveryToken(token string, to string) error
}
