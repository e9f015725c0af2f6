package transport

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Azzot88/artline-sub000/internal/config"
	"github.com/Azzot88/artline-sub000/model"
)

// jwkRecord is the subset of RFC 7517 fields needed to rebuild a
// verification key.
type jwkRecord struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// JWKSClient fetches signing keys from an identity provider's JWKS
// endpoint and caches them. A failed refresh falls back to the last
// good key set so transient IdP outages do not reject every request.
type JWKSClient struct {
	url    string
	ttl    time.Duration
	client *http.Client
	logger *zap.Logger

	mu      sync.RWMutex
	keys    map[string]crypto.PublicKey
	fetched time.Time
}

// jwksMinRefreshInterval bounds how often a cache miss may hit the
// endpoint, so a flood of tokens with unknown kids cannot hammer the IdP.
const jwksMinRefreshInterval = 5 * time.Minute

// NewJWKSClient creates a JWKS client for the given endpoint. Keys are
// re-fetched once the cache is older than ttl.
func NewJWKSClient(url string, ttl time.Duration) *JWKSClient {
	return &JWKSClient{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: zap.L(),
		keys:   map[string]crypto.PublicKey{},
	}
}

// GetKey returns the verification key for a key ID, refreshing the
// cache when the ID is unknown or the cache has expired.
func (c *JWKSClient) GetKey(kid string) (crypto.PublicKey, error) {
	if key, ok := c.cached(kid); ok {
		return key, nil
	}

	if err := c.refresh(); err != nil {
		// Stale keys beat no keys while the endpoint is down.
		c.mu.RLock()
		key, ok := c.keys[kid]
		c.mu.RUnlock()
		if ok {
			c.logger.Warn("jwks refresh failed, serving cached key",
				zap.String("kid", kid), zap.Error(err))
			return key, nil
		}
		return nil, fmt.Errorf("jwks: fetch failed: %w", err)
	}

	c.mu.RLock()
	key, ok := c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("jwks: unknown signing key %q", kid)
	}
	return key, nil
}

func (c *JWKSClient) cached(kid string) (crypto.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[kid]
	if !ok || time.Since(c.fetched) > c.ttl {
		return nil, false
	}
	return key, true
}

func (c *JWKSClient) refresh() error {
	c.mu.RLock()
	recent := time.Since(c.fetched) < jwksMinRefreshInterval && len(c.keys) > 0
	c.mu.RUnlock()
	if recent {
		return nil
	}

	resp, err := c.client.Get(c.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks: endpoint returned %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwkRecord `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("jwks: decode: %w", err)
	}

	fresh := make(map[string]crypto.PublicKey, len(doc.Keys))
	for _, rec := range doc.Keys {
		if rec.Kid == "" {
			continue
		}
		key, err := rec.publicKey()
		if err != nil {
			c.logger.Warn("jwks key skipped",
				zap.String("kid", rec.Kid), zap.Error(err))
			continue
		}
		fresh[rec.Kid] = key
	}

	c.mu.Lock()
	c.keys = fresh
	c.fetched = time.Now()
	c.mu.Unlock()
	return nil
}

func (r jwkRecord) publicKey() (crypto.PublicKey, error) {
	switch r.Kty {
	case "RSA":
		n, err := decodeBigInt(r.N, "n")
		if err != nil {
			return nil, err
		}
		e, err := decodeBigInt(r.E, "e")
		if err != nil {
			return nil, err
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
	case "EC":
		curve, err := curveByName(r.Crv)
		if err != nil {
			return nil, err
		}
		x, err := decodeBigInt(r.X, "x")
		if err != nil {
			return nil, err
		}
		y, err := decodeBigInt(r.Y, "y")
		if err != nil {
			return nil, err
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", r.Kty)
	}
}

func decodeBigInt(s, field string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("missing %s", field)
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}
	return new(big.Int).SetBytes(b), nil
}

func curveByName(name string) (elliptic.Curve, error) {
	switch name {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("unsupported curve %q", name)
	}
}

// JWTAuthenticator returns middleware that verifies a bearer token
// against the identity configuration and stores the verified claims in
// the request context. Verification enforces issuer, audience, the
// configured algorithm allow-list, and a required expiry with 30s of
// clock leeway.
func JWTAuthenticator(cfg config.IdentityConfig, jwks *JWKSClient) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header missing kid")
		}
		return jwks.GetKey(kid)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(cfg.Algorithms),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithExpirationRequired(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, envErr := bearerToken(r)
			if envErr != nil {
				WriteError(w, envErr)
				return
			}

			token, err := jwt.Parse(raw, keyFunc, opts...)
			if err != nil {
				WriteError(w, model.NewUnauthorizedError(rejectionReason(err)))
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				WriteError(w, model.NewUnauthorizedError("Invalid token"))
				return
			}

			ctx := WithClaims(r.Context(), map[string]any(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, *model.ErrorEnvelope) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", model.NewUnauthorizedError("Missing authorization header")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", model.NewUnauthorizedError("Invalid authorization header format")
	}
	return header[len(prefix):], nil
}

// rejectionReason maps jwt parse failures onto the stable messages the
// API returns. The message never echoes token contents.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "Invalid token issuer"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "Invalid token audience"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "Token not yet valid"
	case strings.Contains(err.Error(), "signing method"):
		return "Disallowed signing algorithm"
	case strings.Contains(err.Error(), "kid"), strings.Contains(err.Error(), "signing key"):
		return "Unknown signing key"
	default:
		return "Invalid token"
	}
}
