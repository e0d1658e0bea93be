package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clipfeed/clipfeed/internal/ctxkeys"
	"github.com/clipfeed/clipfeed/internal/handler"
	"github.com/clipfeed/clipfeed/internal/service"
)

// Auth resolves an "Authorization: Bearer" token and adds the user to the
// context. Requests without a valid token continue anonymously.
func Auth(identity service.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := identity.VerifyToken(r.Context(), token)
			if err != nil {
				slog.Debug("ignoring invalid bearer token", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RejectBanned stops banned callers on routes that change state.
func RejectBanned(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user != nil && user.Banned {
			slog.Warn("banned user blocked", "user_id", user.ID, "path", r.URL.Path)
			handler.WriteError(w, http.StatusForbidden, handler.CodeBanned, service.ErrBanned.Error())
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
