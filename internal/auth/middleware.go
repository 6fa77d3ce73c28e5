package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/conorfennell/lingodeck/internal/domain"
	"github.com/conorfennell/lingodeck/internal/web/respond"
)

// CookieName is the cookie carrying the session token.
const CookieName = "lingodeck_session"

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by the middleware. The zero
// Identity is returned when there is none.
func IdentityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}

// TokenFrom extracts the session token from the cookie or, failing that,
// from an "Authorization: Bearer <token>" header.
func TokenFrom(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Middleware rejects requests without a valid session and stores the
// caller's identity in the request context for the rest.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.Authenticate(r.Context(), TokenFrom(r))
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				respond.Error(w, r, err)
				return
			}
			respond.Message(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
