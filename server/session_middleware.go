package server

import (
	"context"
	"net/http"

	interr "github.com/sfviewer/go-schema-server/internal/errors"
	"github.com/sfviewer/go-schema-server/sessions"
)

// sessionCookieName matches the cookie set by the OAuth callback.
const sessionCookieName = "session_id"

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession rejects requests without a live session cookie and makes
// the session available to the handler via the request context.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessionFromRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) sessionFromRequest(r *http.Request) (sessions.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return sessions.Session{}, interr.ErrSessionNotFound
	}
	session, ok := s.sessions.Get(cookie.Value)
	if !ok {
		return sessions.Session{}, interr.ErrSessionNotFound
	}
	return session, nil
}

func sessionFromContext(ctx context.Context) sessions.Session {
	session, _ := ctx.Value(sessionContextKey).(sessions.Session)
	return session
}
