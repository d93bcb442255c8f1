package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultUsernameClaim = "preferred_username"

// JWTVerifierConfig configures JWTVerifier. At least one key is required.
type JWTVerifierConfig struct {
	HMACSecret    string
	RSAPublicKey  string // PEM
	Issuer        string
	UsernameClaim string
}

// JWTVerifier validates identity-provider access tokens. Roles are read from
// the Keycloak-style realm_access.roles claim and from a flat roles claim.
type JWTVerifier struct {
	hmacSecret    []byte
	rsaKey        *rsa.PublicKey
	issuer        string
	usernameClaim string
	methods       []string
}

func NewJWTVerifier(cfg JWTVerifierConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{
		issuer:        cfg.Issuer,
		usernameClaim: cfg.UsernameClaim,
	}
	if v.usernameClaim == "" {
		v.usernameClaim = DefaultUsernameClaim
	}

	if cfg.HMACSecret != "" {
		v.hmacSecret = []byte(cfg.HMACSecret)
		v.methods = append(v.methods, jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg())
	}
	if cfg.RSAPublicKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.RSAPublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		v.rsaKey = key
		v.methods = append(v.methods, jwt.SigningMethodRS256.Alg(), jwt.SigningMethodRS384.Alg(), jwt.SigningMethodRS512.Alg())
	}
	if len(v.methods) == 0 {
		return nil, errors.New("jwt verifier: no verification key configured")
	}
	return v, nil
}

func (v *JWTVerifier) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.hmacSecret != nil {
			return v.hmacSecret, nil
		}
	case *jwt.SigningMethodRSA:
		if v.rsaKey != nil {
			return v.rsaKey, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
}

// Verify parses and validates token. Every parse or claim failure wraps
// ErrInvalidToken.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	principal := &Principal{
		Roles: NormalizeRoles(rolesFromClaims(claims)),
	}
	if sub, err := claims.GetSubject(); err == nil {
		principal.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		principal.ExpiresAt = exp.Time
	}
	if name, ok := claims[v.usernameClaim].(string); ok {
		principal.Username = strings.TrimSpace(name)
	}

	return principal, nil
}

func rolesFromClaims(claims jwt.MapClaims) []string {
	var roles []string
	if realm, ok := claims["realm_access"].(map[string]any); ok {
		roles = append(roles, stringSlice(realm["roles"])...)
	}
	roles = append(roles, stringSlice(claims["roles"])...)
	return roles
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
