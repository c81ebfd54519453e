package middleware

import (
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

func testKeyPair(t *testing.T, pkcs1 bool) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{Type: "PUBLIC KEY"}
	if pkcs1 {
		block.Type = "RSA PUBLIC KEY"
		block.Bytes = x509.MarshalPKCS1PublicKey(&key.PublicKey)
	} else {
		block.Bytes, err = x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err)
	}
	return key, string(pem.EncodeToMemory(block))
}

func TestNewAuthenticator_InvalidKey(t *testing.T) {
	_, err := NewAuthenticator(AuthConfig{JWTPublicKey: "not a pem"})
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	key, publicPEM := testKeyPair(t, false)
	otherKey, _ := testKeyPair(t, false)

	sign := func(k *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k)
		require.NoError(t, err)
		return token
	}
	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name        string
		config      AuthConfig
		header      string
		wantType    string
		wantSubject string
		wantErr     bool
	}{
		{
			name:     "api key",
			config:   AuthConfig{APIKeys: []string{"k1", "k2"}},
			header:   "ApiKey k2",
			wantType: AUTH_TYPE_APIKEY,
		},
		{
			name:    "unknown api key",
			config:  AuthConfig{APIKeys: []string{"k1"}},
			header:  "ApiKey k3",
			wantErr: true,
		},
		{
			name:    "no api keys configured",
			config:  AuthConfig{APIKeys: []string{""}},
			header:  "ApiKey ",
			wantErr: true,
		},
		{
			name:        "valid jwt",
			config:      AuthConfig{JWTPublicKey: publicPEM},
			header:      "Bearer " + sign(key, jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}),
			wantType:    AUTH_TYPE_JWT,
			wantSubject: "ops",
		},
		{
			name:    "jwt signed by another key",
			config:  AuthConfig{JWTPublicKey: publicPEM},
			header:  "Bearer " + sign(otherKey, jwt.RegisteredClaims{}),
			wantErr: true,
		},
		{
			name:    "jwt not yet valid",
			config:  AuthConfig{JWTPublicKey: publicPEM},
			header:  "Bearer " + sign(key, jwt.RegisteredClaims{NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour))}),
			wantErr: true,
		},
		{
			name:    "hmac jwt",
			config:  AuthConfig{JWTPublicKey: publicPEM},
			header:  "Bearer " + hmacToken,
			wantErr: true,
		},
		{
			name:    "jwt without key configured",
			config:  AuthConfig{APIKeys: []string{"k1"}},
			header:  "Bearer " + sign(key, jwt.RegisteredClaims{}),
			wantErr: true,
		},
		{
			name:    "missing header",
			config:  AuthConfig{APIKeys: []string{"k1"}},
			header:  "",
			wantErr: true,
		},
		{
			name:    "malformed header",
			config:  AuthConfig{APIKeys: []string{"k1"}},
			header:  "k1",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			config:  AuthConfig{APIKeys: []string{"k1"}},
			header:  "Basic azE6",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAuthenticator(tt.config)
			require.NoError(t, err)

			authType, subject, err := a.Authenticate(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, authType)
			assert.Equal(t, tt.wantSubject, subject)
		})
	}
}

func TestParseRSAPublicKey_PKCS1(t *testing.T) {
	key, publicPEM := testKeyPair(t, true)

	parsed, err := parseRSAPublicKey(publicPEM)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, parsed.N)
}
