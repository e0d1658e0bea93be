package middleware

import (
	"net/http"
	"slices"
)

// Chain wraps h so the first middleware listed is the outermost one and
// sees each request first:
//
//	Chain(mux, Recover, ClientIP(true), RequestLogging)
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for _, mw := range slices.Backward(mws) {
		h = mw(h)
	}
	return h
}
