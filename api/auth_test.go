package api

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"

	"kanban-board/domain"
)

func TestBearerTokenFromString(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "ok", raw: "Bearer header.payload.signature", want: "header.payload.signature"},
		{name: "lowercase scheme", raw: "  bearer a.b.c ", want: "a.b.c"},
		{name: "empty", raw: "   ", wantErr: errMissingAuthorization},
		{name: "basic scheme", raw: "Basic a.b.c", wantErr: errBadAuthorization},
		{name: "not a jws", raw: "Bearer token", wantErr: errBadAuthorization},
		{name: "many periods", raw: "Bearer " + strings.Repeat(".", 1000), wantErr: errBadAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bearerTokenFromString(tt.raw)
			if err != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if string(got) != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIssueAndVerifyHS256(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour, "kanban", "https://issuer/")
	token, err := auth.IssueToken(domain.User{ID: "user-123", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := auth.UserIDFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["userId"] != "user-123" || claims["email"] != "u@example.com" {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour, "kanban", "")
	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()
	tests := map[string]string{
		"expired":      sign(jwt.MapClaims{"sub": "u", "aud": "kanban", "exp": time.Now().Add(-time.Hour).Unix()}, "test-secret"),
		"no exp":       sign(jwt.MapClaims{"sub": "u", "aud": "kanban"}, "test-secret"),
		"wrong secret": sign(jwt.MapClaims{"sub": "u", "aud": "kanban", "exp": exp}, "other"),
		"wrong aud":    sign(jwt.MapClaims{"sub": "u", "aud": "elsewhere", "exp": exp}, "test-secret"),
		"missing sub":  sign(jwt.MapClaims{"aud": "kanban", "exp": exp}, "test-secret"),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := auth.UserIDFromBearer([]byte(token)); err == nil {
				t.Fatal("expected verification error")
			}
		})
	}
}

func TestVerifyAcceptsLegacyUserIDClaim(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour, "", "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "legacy",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if id, err := auth.UserIDFromBearer([]byte(token)); err != nil || id != "legacy" {
		t.Fatalf("expected legacy id, got %q %v", id, err)
	}
}

func TestJWKSAuthVerifiesRS256AndCachesKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksBody, err := sonic.Marshal(map[string]any{"keys": []map[string]string{{
		"kty": "RSA",
		"kid": "k1",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}})
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwksBody)
	}))
	defer srv.Close()

	jwks, err := keyfunc.Get(srv.URL, keyfunc.Options{})
	if err != nil {
		t.Fatalf("jwks: %v", err)
	}
	defer jwks.EndBackground()

	auth := NewJWKSAuth(jwks, "api://kanban", "https://idp/")
	if auth.CanIssue() {
		t.Fatal("jwks auth must not issue tokens")
	}
	if _, err := auth.IssueToken(domain.User{ID: "x"}); err == nil {
		t.Fatal("expected issue to fail")
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "idp-user",
		"aud": "api://kanban",
		"iss": "https://idp/",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	id, err := auth.UserIDFromAuthHeader("Bearer " + signed)
	if err != nil || id != "idp-user" {
		t.Fatalf("verify rs256: id=%q err=%v", id, err)
	}
	if _, ok := auth.keyCache.Load("k1"); !ok {
		t.Fatal("expected key to be cached")
	}

	hs, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte("k"))
	if _, err := auth.UserIDFromBearer([]byte(hs)); err == nil {
		t.Fatal("jwks auth must reject HS256 tokens")
	}
}
