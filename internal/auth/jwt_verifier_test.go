package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(username string, roles ...string) jwt.MapClaims {
	rs := make([]any, len(roles))
	for i, r := range roles {
		rs[i] = r
	}
	return jwt.MapClaims{
		"sub":                "user-123",
		"preferred_username": username,
		"exp":                time.Now().Add(time.Hour).Unix(),
		"realm_access":       map[string]any{"roles": rs},
	}
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	v, err := NewJWTVerifier(JWTVerifierConfig{HMACSecret: testSecret})
	require.NoError(t, err)

	token := signHS256(t, testSecret, validClaims("alice", "admin", "employee", "Admin"))

	p, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "user-123", p.Subject)
	assert.Equal(t, []string{"ADMIN", "EMPLOYEE"}, p.Roles)
	assert.True(t, p.IsAdmin())
	assert.False(t, p.ExpiresAt.IsZero())
}

func TestJWTVerifier_FlatRolesAndCustomClaim(t *testing.T) {
	v, err := NewJWTVerifier(JWTVerifierConfig{HMACSecret: testSecret, UsernameClaim: "upn"})
	require.NoError(t, err)

	token := signHS256(t, testSecret, jwt.MapClaims{
		"upn":   "bob",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"roles": []any{"manager"},
	})

	p, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Username)
	assert.True(t, p.HasRole(RoleManager))
}

func TestJWTVerifier_Rejections(t *testing.T) {
	v, err := NewJWTVerifier(JWTVerifierConfig{HMACSecret: testSecret, Issuer: "https://idp.example"})
	require.NoError(t, err)

	expired := validClaims("alice")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	expired["iss"] = "https://idp.example"

	noExp := validClaims("alice")
	delete(noExp, "exp")
	noExp["iss"] = "https://idp.example"

	wrongIssuer := validClaims("alice")
	wrongIssuer["iss"] = "https://other.example"

	goodIssuer := validClaims("alice")
	goodIssuer["iss"] = "https://idp.example"

	cases := map[string]string{
		"empty":          "",
		"malformed":      "not-a-jwt",
		"bad signature":  signHS256(t, "other-secret", goodIssuer),
		"expired":        signHS256(t, testSecret, expired),
		"missing expiry": signHS256(t, testSecret, noExp),
		"wrong issuer":   signHS256(t, testSecret, wrongIssuer),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = v.Verify(context.Background(), signHS256(t, testSecret, goodIssuer))
	assert.NoError(t, err)
}

func TestJWTVerifier_RSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewJWTVerifier(JWTVerifierConfig{RSAPublicKey: string(pemKey)})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims("carol", "employee")).SignedString(key)
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "carol", p.Username)

	// An HMAC token must not be accepted by an RSA-only verifier.
	_, err = v.Verify(context.Background(), signHS256(t, testSecret, validClaims("carol")))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifier_RequiresKey(t *testing.T) {
	_, err := NewJWTVerifier(JWTVerifierConfig{})
	assert.Error(t, err)
}

func TestPrincipal_Roles(t *testing.T) {
	p := NewPrincipal(" dave ", "employee", "", "EMPLOYEE", "manager")
	assert.Equal(t, "dave", p.Username)
	assert.Equal(t, []string{"EMPLOYEE", "MANAGER"}, p.Roles)
	assert.True(t, p.HasAnyRole(RoleAdmin, RoleManager))
	assert.False(t, p.IsAdmin())
	assert.Equal(t, RoleManager, p.PrimaryRole())
}
