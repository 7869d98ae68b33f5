package jwt

import (
	"crypto/rsa"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/ssogate/errors"
)

// Algorithm identifiers.
const (
	AlgNone = "none"
	HS256   = "HS256"
	HS384   = "HS384"
	HS512   = "HS512"
	RS256   = "RS256"
	RS384   = "RS384"
	RS512   = "RS512"
)

// Signer produces signatures for one algorithm and optional key id.
type Signer interface {
	Alg() string
	KeyID() string
	Sign(data string) ([]byte, error)
}

// Verifier checks signatures for one algorithm and optional key id.
type Verifier interface {
	Alg() string
	KeyID() string
	Verify(data string, sig []byte) bool
}

// SignerVerifier both signs and verifies.
type SignerVerifier interface {
	Signer
	Verifier
}

type keyed struct {
	alg string
	kid string
}

func (k keyed) Alg() string   { return k.alg }
func (k keyed) KeyID() string { return k.kid }

// --- none ---

type none struct{ keyed }

// None signs with an empty signature and verifies only empty signatures.
// Decode never accepts it when keys are supplied.
var None SignerVerifier = none{keyed{alg: AlgNone}}

func (none) Sign(string) ([]byte, error)      { return []byte{}, nil }
func (none) Verify(_ string, sig []byte) bool { return len(sig) == 0 }

// --- HMAC ---

var hmacMethods = map[string]*gojwt.SigningMethodHMAC{
	HS256: gojwt.SigningMethodHS256,
	HS384: gojwt.SigningMethodHS384,
	HS512: gojwt.SigningMethodHS512,
}

type hmacKey struct {
	keyed
	method *gojwt.SigningMethodHMAC
	secret []byte
}

// NewHMAC builds a symmetric signer/verifier for HS256, HS384 or HS512.
func NewHMAC(alg, kid string, secret []byte) (SignerVerifier, error) {
	method, ok := hmacMethods[alg]
	if !ok {
		return nil, errors.UnsupportedAlgorithm(alg)
	}
	if len(secret) == 0 {
		return nil, errors.InvalidInput("hmac secret must not be empty")
	}
	return &hmacKey{keyed: keyed{alg, kid}, method: method, secret: append([]byte(nil), secret...)}, nil
}

func (h *hmacKey) Sign(data string) ([]byte, error) {
	return h.method.Sign(data, h.secret)
}

func (h *hmacKey) Verify(data string, sig []byte) bool {
	return h.method.Verify(data, sig, h.secret) == nil
}

// --- RSA ---

var rsaMethods = map[string]*gojwt.SigningMethodRSA{
	RS256: gojwt.SigningMethodRS256,
	RS384: gojwt.SigningMethodRS384,
	RS512: gojwt.SigningMethodRS512,
}

// RSASigner signs with an RSA private key (PKCS #1 v1.5).
type RSASigner struct {
	keyed
	method *gojwt.SigningMethodRSA
	key    *rsa.PrivateKey
}

// NewRSASigner builds a signer for RS256, RS384 or RS512.
func NewRSASigner(alg, kid string, key *rsa.PrivateKey) (*RSASigner, error) {
	method, ok := rsaMethods[alg]
	if !ok {
		return nil, errors.UnsupportedAlgorithm(alg)
	}
	if key == nil {
		return nil, errors.InvalidInput("rsa private key is required")
	}
	return &RSASigner{keyed: keyed{alg, kid}, method: method, key: key}, nil
}

func (s *RSASigner) Sign(data string) ([]byte, error) {
	return s.method.Sign(data, s.key)
}

// RSAVerifier verifies with an RSA public key and can publish it as a JWK.
type RSAVerifier struct {
	keyed
	method *gojwt.SigningMethodRSA
	key    *rsa.PublicKey
}

// NewRSAVerifier builds a verifier for RS256, RS384 or RS512.
func NewRSAVerifier(alg, kid string, key *rsa.PublicKey) (*RSAVerifier, error) {
	method, ok := rsaMethods[alg]
	if !ok {
		return nil, errors.UnsupportedAlgorithm(alg)
	}
	if key == nil {
		return nil, errors.InvalidInput("rsa public key is required")
	}
	return &RSAVerifier{keyed: keyed{alg, kid}, method: method, key: key}, nil
}

func (v *RSAVerifier) Verify(data string, sig []byte) bool {
	return v.method.Verify(data, sig, v.key) == nil
}

// PublicKey returns the verification key.
func (v *RSAVerifier) PublicKey() *rsa.PublicKey { return v.key }

// RSAKey pairs a signer with the matching verifier.
type RSAKey struct {
	*RSASigner
	verifier *RSAVerifier
}

// NewRSA builds a signer/verifier pair from a private key.
func NewRSA(alg, kid string, key *rsa.PrivateKey) (*RSAKey, error) {
	s, err := NewRSASigner(alg, kid, key)
	if err != nil {
		return nil, err
	}
	v, err := NewRSAVerifier(alg, kid, &key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &RSAKey{RSASigner: s, verifier: v}, nil
}

func (k *RSAKey) Verify(data string, sig []byte) bool { return k.verifier.Verify(data, sig) }

// Verifier returns the public half.
func (k *RSAKey) Verifier() *RSAVerifier { return k.verifier }

// JWK exports the public half.
func (k *RSAKey) JWK() JWK { return k.verifier.JWK() }

// NewVerifier builds a verifier for any supported algorithm. key must be a
// []byte secret for HS*, an *rsa.PublicKey for RS*, and nil for none.
func NewVerifier(alg, kid string, key any) (Verifier, error) {
	switch {
	case alg == AlgNone:
		return None, nil
	case hmacMethods[alg] != nil:
		secret, ok := key.([]byte)
		if !ok {
			return nil, errors.InvalidInput(alg + " requires a []byte secret")
		}
		return NewHMAC(alg, kid, secret)
	case rsaMethods[alg] != nil:
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, errors.InvalidInput(alg + " requires an *rsa.PublicKey")
		}
		return NewRSAVerifier(alg, kid, pub)
	default:
		return nil, errors.UnsupportedAlgorithm(alg)
	}
}
