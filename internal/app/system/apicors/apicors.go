// Package apicors provides CORS middleware for the bearer-token API.
//
// The console authenticates with an Authorization header, never cookies, so
// credentials are not allowed and any origin may be trusted when configured.
package apicors

import (
	"net/http"
	"strings"
)

const (
	allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, Accept"
	exposeHeader = "Content-Disposition"
	maxAge       = "86400" // 24 hours
)

// FromList picks the middleware for a configured origin list: "*" allows
// any origin, anything else is an exact allow-list. An empty list returns nil.
func FromList(origins []string) func(http.Handler) http.Handler {
	var cleaned []string
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			if o == "*" {
				return Middleware()
			}
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return MiddlewareWithOrigins(cleaned...)
}

// Middleware allows any origin.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			writeCommon(w)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MiddlewareWithOrigins echoes the Origin header back only for the listed
// origins. Others get no CORS headers and the browser blocks them.
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := originSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			writeCommon(w)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeCommon(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Expose-Headers", exposeHeader)
	h.Set("Access-Control-Max-Age", maxAge)
}
