package jwt

import (
	"crypto/rand"
	"crypto/rsa"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/ssogate/errors"
)

// GenerateRSA creates a fresh 2048-bit RS256 key pair.
func GenerateRSA(kid string) (*RSAKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return NewRSA(RS256, kid, priv)
}

// ParseRSAPrivateKeyPEM parses a PKCS #1 or PKCS #8 PEM private key.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	key, err := gojwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, errors.InvalidInput("invalid RSA private key").WithCause(err)
	}
	return key, nil
}

// ParseRSAPublicKeyPEM parses a PKIX, PKCS #1 or certificate PEM public key.
func ParseRSAPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	key, err := gojwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, errors.InvalidInput("invalid RSA public key").WithCause(err)
	}
	return key, nil
}
