package integration

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testKeyID    = "test-key-1"
	testIssuer   = "https://auth.test.artline.dev"
	testAudience = "artline-engine-test"
)

// TestClaims holds the configurable claims for generating test JWT tokens.
type TestClaims struct {
	SubjectID string
	Email     string
	Tier      string
	Roles     []string
	Extra     map[string]any
}

// tokenIssuer signs RS256 tokens and serves the matching JWKS document
// over httptest, so the authenticator under test verifies against a
// real key-discovery round trip.
type tokenIssuer struct {
	key  *rsa.PrivateKey
	jwks *httptest.Server
}

func newTokenIssuer(t *testing.T) *tokenIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	ti := &tokenIssuer{key: key}

	doc, err := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kid": testKeyID,
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	})
	if err != nil {
		t.Fatalf("marshal JWKS: %v", err)
	}
	ti.jwks = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	}))
	t.Cleanup(ti.jwks.Close)

	return ti
}

func (ti *tokenIssuer) sign(claims TestClaims, issuedAt, expiry time.Time) string {
	payload := jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"iat":   jwt.NewNumericDate(issuedAt),
		"exp":   jwt.NewNumericDate(expiry),
		"sub":   claims.SubjectID,
		"email": claims.Email,
		"tier":  claims.Tier,
	}
	if len(claims.Roles) > 0 {
		// []any matches what json decoding of a verified token yields.
		roles := make([]any, len(claims.Roles))
		for i, r := range claims.Roles {
			roles[i] = r
		}
		payload["roles"] = roles
	}
	for k, v := range claims.Extra {
		payload[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, payload)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(ti.key)
	if err != nil {
		panic("sign JWT: " + err.Error())
	}
	return signed
}

// GenerateToken creates a valid signed token that expires in an hour.
func (ti *tokenIssuer) GenerateToken(claims TestClaims) string {
	now := time.Now()
	return ti.sign(claims, now, now.Add(1*time.Hour))
}

// GenerateExpiredToken creates a correctly signed token whose expiry is
// already in the past.
func (ti *tokenIssuer) GenerateExpiredToken(claims TestClaims) string {
	now := time.Now()
	return ti.sign(claims, now.Add(-2*time.Hour), now.Add(-1*time.Hour))
}

// JWKSURL returns the URL of the JWKS endpoint served by this issuer.
func (ti *tokenIssuer) JWKSURL() string {
	return ti.jwks.URL
}

// Issuer returns the expected token issuer claim.
func (ti *tokenIssuer) Issuer() string {
	return testIssuer
}

// Audience returns the expected token audience claim.
func (ti *tokenIssuer) Audience() string {
	return testAudience
}
