package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var b64 = base64.RawURLEncoding

// SignHS256 creates a compact HS256 token. Production tokens come from the
// identity provider; this is used by dev tooling and tests.
func SignHS256(claims map[string]any, secret []byte) (string, error) {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	h, err := json.Marshal(header)
	if err != nil { return "", err }
	c, err := json.Marshal(claims)
	if err != nil { return "", err }
	unsigned := b64.EncodeToString(h) + "." + b64.EncodeToString(c)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(unsigned))
	sig := mac.Sum(nil)
	return unsigned + "." + b64.EncodeToString(sig), nil
}

// ParseAndVerifyHS256 verifies the token signature and returns its claims.
func ParseAndVerifyHS256(token string, secret []byte) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 { return nil, errors.New("invalid token format") }
	unsigned := parts[0] + "." + parts[1]
	sigBytes, err := b64.DecodeString(parts[2])
	if err != nil { return nil, errors.New("invalid signature encoding") }
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(unsigned))
	if !hmac.Equal(sigBytes, mac.Sum(nil)) { return nil, errors.New("signature mismatch") }
	payload, err := b64.DecodeString(parts[1])
	if err != nil { return nil, errors.New("invalid payload encoding") }
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil { return nil, errors.New("invalid claims json") }
	return claims, nil
}

// TokenVerifier resolves identities from provider-issued session tokens.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier builds a verifier for the shared session secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Resolve verifies the token and extracts the stable identity id. Expired or
// malformed tokens resolve to ErrNoSession rather than a distinct failure,
// matching the router's "session errors mean NoSession" rule.
func (v *TokenVerifier) Resolve(token string) (Identity, error) {
	claims, err := ParseAndVerifyHS256(token, v.secret)
	if err != nil {
		return Identity{}, ErrNoSession
	}
	if expFloat, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() >= int64(expFloat) {
			return Identity{}, ErrNoSession
		}
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrNoSession
	}
	name, _ := claims["name"].(string)
	return Identity{ID: sub, Name: name}, nil
}
