package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/tenancy"
)

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(5 * time.Minute))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAdminJWT(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		status int
	}{
		{"auth disabled", "", "", http.StatusUnauthorized},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"wrong secret", "secret", "Bearer " + signToken(t, "wrong", jwt.RegisteredClaims{Subject: "ops"}), http.StatusUnauthorized},
		{"expired", "secret", "Bearer " + signToken(t, "secret", jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}), http.StatusUnauthorized},
		{"valid", "secret", "Bearer " + signToken(t, "secret", jwt.RegisteredClaims{Subject: "ops"}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/agencies", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AdminJWT(tt.secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims, ok := AdminClaimsFromContext(r.Context())
				if !ok || claims.Subject != "ops" {
					t.Fatalf("expected admin claims in context")
				}
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func ownerRouter(secret string) http.Handler {
	r := chi.NewRouter()
	r.With(OwnerJWT(secret, "agencyID")).Get("/agencies/{agencyID}/leads", func(w http.ResponseWriter, r *http.Request) {
		id, ok := tenancy.AgencyIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(id))
	})
	return r
}

func TestOwnerJWT(t *testing.T) {
	owned := signToken(t, "owner-secret", jwt.RegisteredClaims{Issuer: OwnerTokenIssuer, Subject: "agency-1"})
	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"own agency", "/agencies/agency-1/leads", owned, http.StatusOK},
		{"other agency", "/agencies/agency-2/leads", owned, http.StatusForbidden},
		{"missing token", "/agencies/agency-1/leads", "", http.StatusUnauthorized},
		{"wrong issuer", "/agencies/agency-1/leads", signToken(t, "owner-secret", jwt.RegisteredClaims{Issuer: "someone", Subject: "agency-1"}), http.StatusUnauthorized},
		{"admin secret", "/agencies/agency-1/leads", signToken(t, "admin-secret", jwt.RegisteredClaims{Issuer: OwnerTokenIssuer, Subject: "agency-1"}), http.StatusUnauthorized},
		{"no subject", "/agencies/agency-1/leads", signToken(t, "owner-secret", jwt.RegisteredClaims{Issuer: OwnerTokenIssuer}), http.StatusUnauthorized},
	}
	router := ownerRouter("owner-secret")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusOK && rec.Body.String() != "agency-1" {
				t.Fatalf("expected tenant in context, got %q", rec.Body.String())
			}
		})
	}
}

func TestOwnerJWTRejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{Issuer: OwnerTokenIssuer, Subject: "agency-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/agencies/agency-1/leads", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	rec := httptest.NewRecorder()
	ownerRouter("owner-secret").ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
