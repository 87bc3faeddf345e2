package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"autolease/pkg/logger"
)

const HolderIDKey contextKey = "holder_id"

// Identity validates a Bearer access token and injects the token subject into
// the request context as the holder ID. Token issuance lives in the identity
// service; this service only needs a stable holder identifier.
func Identity(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				writeUnauthorized(w, "invalid token")
				return
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				writeUnauthorized(w, "invalid claims")
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				writeUnauthorized(w, "token has no subject")
				return
			}

			ctx := context.WithValue(r.Context(), HolderIDKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HolderID returns the authenticated holder ID stored by Identity, or ""
// when the request was not authenticated.
func HolderID(ctx context.Context) string {
	if v := ctx.Value(HolderIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
