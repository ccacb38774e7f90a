// Package session carries the authenticated user through a request.
//
// The bot's access middleware resolves the Telegram sender into a Session and
// attaches it to the handler context; everything downstream reads the owner
// from there instead of from shared state.
package session

import (
	"context"
	"errors"
)

// ErrNoSession is returned when a context carries no authenticated user.
var ErrNoSession = errors.New("no authenticated session")

// Session identifies the user a request acts for.
type Session struct {
	UserID    int64
	Username  string
	FirstName string
}

type contextKey struct{}

// WithSession returns a copy of ctx that carries s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok || s.UserID == 0 {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Provider supplies the current user at record-creation time.
type Provider interface {
	Current(ctx context.Context) (Session, error)
}

// ContextProvider reads the session placed on the context by the middleware.
type ContextProvider struct{}

// Current implements Provider.
func (ContextProvider) Current(ctx context.Context) (Session, error) {
	return FromContext(ctx)
}
