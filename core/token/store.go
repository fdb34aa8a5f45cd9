package token

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("token not found or expired")

func HashOf(plaintext string) []byte {
	h := sha256.Sum256([]byte(plaintext))
	return h[:]
}

func Create(ctx context.Context, db sqlx.ExtContext, tok Token) error {
	const q = `
	INSERT INTO tokens
		(hash, user_id, scope, expiry)
	VALUES
		(:hash, :user_id, :scope, :expiry)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, tok); err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, hash []byte, scope string) (Token, error) {
	const q = `SELECT * FROM tokens WHERE hash = $1 AND scope = $2 AND expiry > $3`

	var tok Token
	if err := sqlx.GetContext(ctx, db, &tok, q, hash, scope, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Token{}, ErrNotFound
		}
		return Token{}, fmt.Errorf("selecting token: %w", err)
	}
	return tok, nil
}

func DeleteForUser(ctx context.Context, db sqlx.ExtContext, userID string, scope string) error {
	const q = `DELETE FROM tokens WHERE user_id = $1 AND scope = $2`

	if _, err := db.ExecContext(ctx, q, userID, scope); err != nil {
		return fmt.Errorf("deleting %s tokens for user[%s]: %w", scope, userID, err)
	}
	return nil
}
