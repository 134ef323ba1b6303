package http

import (
	"context"
	"net/http"

	"github.com/fraudshield/screening/internal/application"
	"github.com/fraudshield/screening/internal/ports"
)

// bypassPaths are matched exactly; no prefix or normalization.
var bypassPaths = map[string]struct{}{
	"/api/auth/register": {},
	"/api/auth/login":    {},
}

type tokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (ports.TokenIdentity, error)
}

// trustGate admits bypass paths untouched and requires a verified bearer token everywhere else.
// Every rejection is the same 401 so callers cannot tell a missing token from a forged one.
func trustGate(verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := bypassPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				writeMissingBearerError(r.Context(), w, "trust_gate")
				return
			}
			identity, err := verifier.VerifyToken(r.Context(), raw)
			if err != nil {
				writeMappedError(r.Context(), w, "trust_gate", err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyActor, application.NewActor(identity))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
