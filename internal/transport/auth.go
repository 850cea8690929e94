package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type callerKey struct{}

// CallerResolver resolves a caller identity from a bearer token.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (string, error)
}

// CallerFromContext returns the caller identity from context, if present.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	return caller, ok
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			caller, err := resolver.ResolveCaller(r.Context(), token)
			if err != nil || caller == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaticCallerMiddleware assigns the same caller to every request.
// Used when authentication is disabled.
func StaticCallerMiddleware(caller string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaticResolver maps a fixed set of tokens to callers.
type StaticResolver map[string]string

// ResolveCaller implements CallerResolver.
func (s StaticResolver) ResolveCaller(_ context.Context, token string) (string, error) {
	caller, ok := s[token]
	if !ok || caller == "" {
		return "", ErrUnauthorized
	}
	return caller, nil
}

// ChainResolver tries each resolver in order and returns the first match.
type ChainResolver []CallerResolver

// ResolveCaller implements CallerResolver.
func (c ChainResolver) ResolveCaller(ctx context.Context, token string) (string, error) {
	for _, resolver := range c {
		caller, err := resolver.ResolveCaller(ctx, token)
		if err == nil && caller != "" {
			return caller, nil
		}
	}
	return "", ErrUnauthorized
}
