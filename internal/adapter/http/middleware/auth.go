package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/metrics"
)

type principalKey struct{}

// TokenResolver turns a bearer token into the caller principal.
type TokenResolver interface {
	Resolve(token string) (domain.Principal, error)
}

// WithPrincipal attaches the authenticated caller to ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the authenticated caller from ctx.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok && p != nil
}

// Authenticate creates an authentication middleware. Requests without a
// valid bearer token are rejected with 401.
func Authenticate(resolver TokenResolver, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r)
			if reason != "" {
				rejectUnauthorized(w, r, m, reason, "missing or malformed authorization header")
				return
			}

			principal, err := resolver.Resolve(token)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, domain.ErrExpiredToken) {
					reason = "expired"
				}
				rejectUnauthorized(w, r, m, reason, "invalid or expired token")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("caller_id", principal.Subject()).Str("caller_role", string(principal.Role()))
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "malformed"
	}

	return strings.TrimSpace(parts[1]), ""
}

func rejectUnauthorized(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, reason, message string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
	zerolog.Ctx(r.Context()).Debug().Str("reason", reason).Msg("authentication failed")

	writeProblem(w, http.StatusUnauthorized, domain.KindUnauthorized, message)
}

type problem struct {
	Error   domain.ErrorKind `json:"error"`
	Message string           `json:"message,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Error: kind, Message: message})
}
