package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/tenancy"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// OwnerTokenIssuer must match the issuer used when owners log in.
const OwnerTokenIssuer = "luxuryleads"

var errMissingBearer = errors.New("missing authorization header")

// parseBearer validates an HS256 bearer token from the request.
func parseBearer(r *http.Request, secret string, opts ...jwt.ParserOption) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return claims, errMissingBearer
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return claims, err
	}
	if !token.Valid {
		return claims, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// AdminJWT enforces an HMAC-signed JWT for platform operator endpoints.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			claims, err := parseBearer(r, secret)
			if errors.Is(err, errMissingBearer) {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}

// OwnerJWT authenticates an agency owner. The token subject must equal the
// agency in the route, so one owner can never read another agency's leads.
// The agency id is placed in the request context for downstream handlers.
func OwnerJWT(secret, agencyParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "owner auth disabled", http.StatusUnauthorized)
				return
			}
			claims, err := parseBearer(r, secret, jwt.WithIssuer(OwnerTokenIssuer))
			if errors.Is(err, errMissingBearer) {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			if err != nil || claims.Subject == "" {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if routeID := chi.URLParam(r, agencyParam); routeID != "" && routeID != claims.Subject {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithAgencyID(r.Context(), claims.Subject)))
		})
	}
}
