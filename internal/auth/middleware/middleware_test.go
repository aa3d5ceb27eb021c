package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/mindengage-results/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("0123456789abcdef")
	tok, err := a.IssueJWT("u1", rbac.RoleStaff, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Sub != "u1" || c.Role != rbac.RoleStaff || c.Issuer != issuer {
		t.Fatalf("claims = %+v", c)
	}

	if _, err := NewAuthService("another-secret-000").Parse(tok); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
	fallback, _ := a.IssueJWT("u1", rbac.RoleStaff, -time.Minute)
	if _, err := a.Parse(fallback); err != nil {
		t.Fatalf("non-positive ttl should fall back to the default: %v", err)
	}
}

func TestParseRejectsForeignClaims(t *testing.T) {
	a := NewAuthService("0123456789abcdef")
	sign := func(c jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("0123456789abcdef"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	cases := map[string]string{
		"wrong issuer": sign(&Claims{Sub: "u1", Role: "staff", RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", ExpiresAt: exp}}),
		"no role": sign(&Claims{Sub: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: exp}}),
		"expired": sign(&Claims{Sub: "u1", Role: "staff", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}}),
	}
	for name, tok := range cases {
		if _, err := a.Parse(tok); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("0123456789abcdef")
	var got rbac.Actor
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = rbac.ActorFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d", rec.Code)
	}

	tok, _ := a.IssueJWT("u9", rbac.RoleAdmin, time.Minute)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got.ID != "u9" || got.Role != rbac.RoleAdmin {
		t.Fatalf("code=%d actor=%+v", rec.Code, got)
	}
}
