package middleware

import (
	"net/http"

	"github.com/baechuer/nippou-service/internal/application/auth"
	"github.com/baechuer/nippou-service/internal/infrastructure/security"
)

type WriteErrFunc func(w http.ResponseWriter, r *http.Request, err error)

type SessionVerifier interface {
	VerifySessionToken(token string) (auth.TokenClaims, error)
}

// Session attaches the cookie's user to the request context when the cookie
// holds a valid token. It never rejects: endpoints decide whether a session
// is required.
func Session(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := security.ReadAuthToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifySessionToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
