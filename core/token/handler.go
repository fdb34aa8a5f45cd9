package token

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sproutbox/api/api/background"
	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/api/weberr"
	"github.com/sproutbox/api/core/user"
	"github.com/sproutbox/api/database"
	"github.com/sproutbox/api/random"
	"github.com/sproutbox/api/validate"
	"golang.org/x/crypto/bcrypt"
)

// HandleToken issues an activation or recovery token and mails it in the
// background. It answers 204 whether or not the address exists, so the
// endpoint can't be used to probe for accounts.
func HandleToken(db *sqlx.DB, mailer Mailer, timeout time.Duration, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var tn TokenNew
		if err := web.Decode(w, r, &tn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(tn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByEmail(ctx, db, tn.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return err
		}

		plaintext, err := random.StringSecure(26)
		if err != nil {
			return err
		}

		tok := Token{
			Hash:   HashOf(plaintext),
			UserID: usr.ID,
			Scope:  tn.Scope,
			Expiry: time.Now().UTC().Add(timeout),
		}

		if err := Create(ctx, db, tok); err != nil {
			return err
		}

		bg.Add("token-mail", func() error {
			if tn.Scope == ScopeActivation {
				return mailer.SendActivationToken(plaintext, usr.Email)
			}
			return mailer.SendRecoveryToken(plaintext, usr.Email)
		})

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleActivation(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var act Activation
		if err := web.Decode(w, r, &act); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(act); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		tok, err := Fetch(ctx, db, HashOf(act.Token), ScopeActivation)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := user.Activate(ctx, tx, tok.UserID); err != nil {
				return err
			}
			return DeleteForUser(ctx, tx, tok.UserID, ScopeActivation)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleRecovery(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var rec Recovery
		if err := web.Decode(w, r, &rec); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(rec); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		tok, err := Fetch(ctx, db, HashOf(rec.Token), ScopeRecovery)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(rec.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := user.UpdatePassword(ctx, tx, tok.UserID, hash); err != nil {
				return err
			}
			return DeleteForUser(ctx, tx, tok.UserID, ScopeRecovery)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
