package jwt

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/kbukum/ssogate/errors"
)

// JWK is a JSON Web Key. Only RSA signing keys are modelled.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// JWKS is a published key set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK exports the public key for publishing to relying parties.
func (v *RSAVerifier) JWK() JWK {
	return JWK{
		Kty: "RSA",
		Kid: v.kid,
		Alg: v.alg,
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(v.key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(v.key.E)).Bytes()),
	}
}

// LoadJWKSVerifiers imports the signing keys of a key set. Keys whose use is
// not "sig" are skipped. Any other algorithm than RS256/384/512 fails the
// whole import; symmetric keys are never accepted from a key set.
func LoadJWKSVerifiers(keys []JWK) ([]Verifier, error) {
	verifiers := make([]Verifier, 0, len(keys))
	for _, k := range keys {
		if k.Use != "sig" {
			continue
		}
		if rsaMethods[k.Alg] == nil {
			return nil, errors.UnsupportedAlgorithm(k.Alg).WithDetail("kid", k.Kid)
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			return nil, errors.InvalidInput("invalid JWK").WithDetail("kid", k.Kid).WithCause(err)
		}
		v, err := NewRSAVerifier(k.Alg, k.Kid, pub)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, v)
	}
	return verifiers, nil
}

func (k *JWK) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("key type %q is not RSA", k.Kty)
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode RSA N: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode RSA E: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, fmt.Errorf("RSA N and E are required")
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("RSA exponent out of range")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(e.Int64())}, nil
}
