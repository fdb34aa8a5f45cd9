package selection

import (
	"context"
	"encoding/gob"

	"github.com/alexedwards/scs/v2"
)

func init() {
	// The scs codec gob-encodes session values on commit.
	gob.Register([]string{})
}

func sessionKey(kind Kind) string {
	return "selection:" + string(kind)
}

// sessionStore keeps a visitor's selection in the scs session, so anonymous
// and waitlisted visitors get a working cart without any account. Mutations
// are synchronous read-modify-write against the session data; the cookie
// commit happens in the LoadAndSave middleware.
type sessionStore struct {
	sm *scs.SessionManager
}

func NewSessionStore(sm *scs.SessionManager) Store {
	return &sessionStore{sm: sm}
}

func (s *sessionStore) List(ctx context.Context, kind Kind) ([]string, error) {
	slugs, _ := s.sm.Get(ctx, sessionKey(kind)).([]string)
	return slugs, nil
}

func (s *sessionStore) Add(ctx context.Context, kind Kind, slug string) error {
	slugs, _ := s.List(ctx, kind)
	for _, cur := range slugs {
		if cur == slug {
			return nil
		}
	}

	next := make([]string, 0, len(slugs)+1)
	next = append(next, slugs...)
	next = append(next, slug)
	s.sm.Put(ctx, sessionKey(kind), next)
	return nil
}

func (s *sessionStore) Remove(ctx context.Context, kind Kind, slug string) error {
	slugs, _ := s.List(ctx, kind)

	next := make([]string, 0, len(slugs))
	for _, cur := range slugs {
		if cur != slug {
			next = append(next, cur)
		}
	}

	if len(next) == len(slugs) {
		return nil
	}
	s.sm.Put(ctx, sessionKey(kind), next)
	return nil
}

func (s *sessionStore) Clear(ctx context.Context, kind Kind) error {
	s.sm.Remove(ctx, sessionKey(kind))
	return nil
}
