// Package dihttp opens a nasc scope for every HTTP request.
//
//	r := chi.NewRouter()
//	r.Use(dihttp.Middleware(container))
//	r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
//	    users, err := dihttp.Resolve[UserService](r)
//	    ...
//	})
package dihttp

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

type scopeKey struct{}

// WithScope returns a copy of ctx carrying scope.
func WithScope(ctx context.Context, scope *nasc.Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the scope carried by ctx.
func ScopeFrom(ctx context.Context) (*nasc.Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(*nasc.Scope)
	return scope, ok
}

// Middleware creates a scope per request, stores it in the request context
// and closes it once the handler returns.
func Middleware(container *nasc.Nasc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := container.CreateScope()
			defer func() {
				if err := scope.Close(); err != nil {
					container.Logger().Warn("closing request scope failed",
						zap.String("scope", scope.ID()),
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
				}
			}()

			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

// Resolve resolves T from the request's scope.
func Resolve[T any](r *http.Request) (T, error) {
	return ResolveNamed[T](r, "")
}

// ResolveNamed resolves T registered under name from the request's scope.
func ResolveNamed[T any](r *http.Request, name string) (T, error) {
	scope, ok := ScopeFrom(r.Context())
	if !ok {
		var zero T
		return zero, ErrNoScope
	}
	return nasc.GetNamed[T](scope, name)
}
