package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/clipfeed/clipfeed/internal/handler"
)

// Recover turns a handler panic into a 500 JSON error.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			slog.Error("panic serving request",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			handler.WriteError(w, http.StatusInternalServerError, handler.CodeInternal, "internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
