package jwt

import (
	"crypto/x509"
	"encoding/pem"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/ssogate/errors"
)

var (
	testKeyOnce sync.Once
	testKey     *RSAKey
)

func rsaKey(t *testing.T) *RSAKey {
	t.Helper()
	testKeyOnce.Do(func() {
		k, err := GenerateRSA("k1")
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

func hmacKey256(t *testing.T, kid string) SignerVerifier {
	t.Helper()
	k, err := NewHMAC(HS256, kid, []byte("secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return k
}

func mustEncode(t *testing.T, s Signer, payload any, extra map[string]any) string {
	t.Helper()
	tok, err := Encode(s, payload, extra)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tok
}

func expectCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if !errors.Is(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	payload := map[string]any{
		"sub":    "u1",
		"nested": map[string]any{"a": []any{"x", float64(1), true}},
		"n":      float64(42),
		"html":   "<a&b>",
	}
	signers := map[string]Signer{
		"none":  None,
		"hs256": hmacKey256(t, ""),
		"rs256": rsaKey(t),
	}
	for name, s := range signers {
		t.Run(name, func(t *testing.T) {
			tok, err := Decode(mustEncode(t, s, payload, nil))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(payload, tok.Payload); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
			if tok.Header["alg"] != s.Alg() || tok.Header["typ"] != "JWT" {
				t.Errorf("unexpected header %v", tok.Header)
			}
		})
	}
}

func TestEncode_HeaderLayout(t *testing.T) {
	tests := []struct {
		name   string
		signer Signer
		extra  map[string]any
		want   string
	}{
		{"with kid", hmacKey256(t, "k1"), nil, `{"typ":"JWT","kid":"k1","alg":"HS256"}`},
		{"without kid", hmacKey256(t, ""), nil, `{"typ":"JWT","alg":"HS256"}`},
		{"extra fields sorted", None, map[string]any{"x5t": "b", "cty": "a"}, `{"typ":"JWT","alg":"none","cty":"a","x5t":"b"}`},
		{"extra overrides typ", None, map[string]any{"typ": "at+jwt"}, `{"typ":"at+jwt","alg":"none"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := mustEncode(t, tc.signer, map[string]any{}, tc.extra)
			seg, _, _ := strings.Cut(tok, ".")
			raw, err := b64.DecodeString(seg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(raw) != tc.want {
				t.Errorf("expected header %s, got %s", tc.want, raw)
			}
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	payload := map[string]any{"b": 1, "a": 2}
	for _, s := range []Signer{hmacKey256(t, "k"), rsaKey(t)} {
		if mustEncode(t, s, payload, nil) != mustEncode(t, s, payload, nil) {
			t.Errorf("%s encoding not deterministic", s.Alg())
		}
	}
}

func TestEncode_NoPadding(t *testing.T) {
	tok := mustEncode(t, rsaKey(t), map[string]any{"sub": "u"}, nil)
	if strings.ContainsAny(tok, "=+/") {
		t.Errorf("token should be unpadded base64url: %s", tok)
	}
}

func TestDecode_Malformed(t *testing.T) {
	obj := b64.EncodeToString([]byte(`{}`))
	tests := map[string]string{
		"empty":             "",
		"two segments":      obj + "." + obj,
		"four segments":     obj + "." + obj + ".." + obj,
		"bad characters":    obj + ".a+b." + obj,
		"padding":           obj + "=." + obj + ".",
		"empty header":      "." + obj + ".",
		"invalid base64":    "a." + obj + ".",
		"header not json":   b64.EncodeToString([]byte("nope")) + "." + obj + ".",
		"header array":      b64.EncodeToString([]byte(`[1]`)) + "." + obj + ".",
		"payload null":      obj + "." + b64.EncodeToString([]byte(`null`)) + ".",
		"payload scalar":    obj + "." + b64.EncodeToString([]byte(`"str"`)) + ".",
		"payload trailing":  obj + "." + b64.EncodeToString([]byte(`{} {}`)) + ".",
		"bad signature b64": obj + "." + obj + ".a",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tok)
			expectCode(t, err, errors.ErrCodeMalformedToken)
		})
	}
}

func TestDecode_NoneNeverVerifies(t *testing.T) {
	tok := mustEncode(t, None, map[string]any{"sub": "u1"}, nil)

	if _, err := Decode(tok); err != nil {
		t.Fatalf("decode without verification should pass: %v", err)
	}
	_, err := Decode(tok, WithKeys(None))
	expectCode(t, err, errors.ErrCodeUnknownKey)

	_, err = Decode(tok, WithKeys(None, hmacKey256(t, "")))
	expectCode(t, err, errors.ErrCodeUnknownKey)
}

func TestDecode_NoneVerifierAlone(t *testing.T) {
	if !None.Verify("data", nil) {
		t.Error("none should accept an empty signature")
	}
	if None.Verify("data", []byte{1}) {
		t.Error("none should reject a non-empty signature")
	}
	sig, err := None.Sign("data")
	if err != nil || len(sig) != 0 {
		t.Errorf("none should sign empty, got %v %v", sig, err)
	}
}

func TestDecode_KeyIDRules(t *testing.T) {
	secret := []byte("shared")
	withKid := func(kid string) SignerVerifier {
		k, err := NewHMAC(HS256, kid, secret)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return k
	}

	tests := []struct {
		name      string
		headerKid string
		extra     map[string]any
		verifier  Verifier
		wantCode  errors.ErrorCode
	}{
		{"same kid", "K", nil, withKid("K"), ""},
		{"other kid", "other", nil, withKid("K"), errors.ErrCodeUnknownKey},
		{"verifier without kid", "anything", nil, withKid(""), ""},
		{"header without kid", "", nil, withKid("K"), ""},
		{"numeric kid against keyed verifier", "", map[string]any{"kid": 5}, withKid("K"), errors.ErrCodeUnknownKey},
		{"numeric kid against verifier without kid", "", map[string]any{"kid": 5}, withKid(""), ""},
		{"null kid", "", map[string]any{"kid": nil}, withKid("K"), ""},
		{"zero kid", "", map[string]any{"kid": 0}, withKid("K"), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := mustEncode(t, withKid(tc.headerKid), map[string]any{"sub": "u"}, tc.extra)
			_, err := Decode(tok, WithKeys(tc.verifier))
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			expectCode(t, err, tc.wantCode)
		})
	}
}

func TestDecode_AlgorithmMustMatch(t *testing.T) {
	tok := mustEncode(t, hmacKey256(t, ""), map[string]any{}, nil)
	hs384, _ := NewHMAC(HS384, "", []byte("secret"))
	_, err := Decode(tok, WithKeys(hs384))
	expectCode(t, err, errors.ErrCodeUnknownKey)

	_, err = Decode(tok, WithKeys())
	expectCode(t, err, errors.ErrCodeUnknownKey)
}

func TestDecode_SignatureMismatch(t *testing.T) {
	key := rsaKey(t)
	tok := mustEncode(t, key, map[string]any{"sub": "u1"}, nil)

	dot := strings.LastIndex(tok, ".")
	sig, _ := b64.DecodeString(tok[dot+1:])
	sig[0] ^= 0xff
	flipped := tok[:dot+1] + b64.EncodeToString(sig)

	if _, err := Decode(tok, WithKeys(key.Verifier())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := Decode(flipped, WithKeys(key.Verifier()))
	expectCode(t, err, errors.ErrCodeSignatureMismatch)

	wrongSecret, _ := NewHMAC(HS256, "", []byte("other"))
	_, err = Decode(mustEncode(t, hmacKey256(t, ""), map[string]any{}, nil), WithKeys(wrongSecret))
	expectCode(t, err, errors.ErrCodeSignatureMismatch)
}

func TestDecode_AnyMatchingVerifierSucceeds(t *testing.T) {
	good := hmacKey256(t, "")
	bad, _ := NewHMAC(HS256, "", []byte("other"))
	tok := mustEncode(t, good, map[string]any{}, nil)
	if _, err := Decode(tok, WithKeys(bad, good)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecode_Issuer(t *testing.T) {
	s := hmacKey256(t, "")
	tok := mustEncode(t, s, map[string]any{"iss": "accounts.google.com"}, nil)

	if _, err := Decode(tok, WithIssuer("https://accounts.google.com", "accounts.google.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := Decode(tok, WithIssuer("https://accounts.google.com"))
	expectCode(t, err, errors.ErrCodeIssuerMismatch)

	_, err = Decode(mustEncode(t, s, map[string]any{}, nil), WithIssuer("x"))
	expectCode(t, err, errors.ErrCodeIssuerMismatch)
}

func TestDecode_Audience(t *testing.T) {
	s := hmacKey256(t, "")
	tests := []struct {
		name string
		aud  any
		ok   bool
	}{
		{"list intersects", []string{"x", "y"}, true},
		{"list disjoint", []string{"y", "z"}, false},
		{"scalar match", "x", true},
		{"scalar mismatch", "other", false},
		{"empty list", []string{}, false},
		{"absent", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := map[string]any{}
			if tc.aud != nil {
				payload["aud"] = tc.aud
			}
			tok, err := Decode(mustEncode(t, s, payload, nil), WithAudience("x"))
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			expectCode(t, err, errors.ErrCodeAudienceMismatch)
			if tok != nil {
				t.Error("no token should be returned on failure")
			}
		})
	}
}

func TestDecode_Active(t *testing.T) {
	s := hmacKey256(t, "")
	ref := time.Unix(1_700_000_000, 0)
	at := func(d time.Duration) float64 { return float64(ref.Add(d).Unix()) }

	tests := []struct {
		name     string
		payload  map[string]any
		wantCode errors.ErrorCode
	}{
		{"inside window", map[string]any{"nbf": at(-time.Minute), "exp": at(time.Minute)}, ""},
		{"before nbf", map[string]any{"nbf": at(time.Second)}, errors.ErrCodeNotYetValid},
		{"at nbf", map[string]any{"nbf": at(0)}, ""},
		{"at exp", map[string]any{"exp": at(0)}, errors.ErrCodeExpired},
		{"after exp", map[string]any{"exp": at(-time.Second)}, errors.ErrCodeExpired},
		{"zero exp ignored", map[string]any{"exp": 0}, ""},
		{"numeric string exp", map[string]any{"exp": "1"}, errors.ErrCodeExpired},
		{"numeric string nbf", map[string]any{"nbf": "4000000000"}, errors.ErrCodeNotYetValid},
		{"numeric string inside window", map[string]any{"exp": " 4000000000 "}, ""},
		{"text exp", map[string]any{"exp": "soon"}, errors.ErrCodeMalformedToken},
		{"object nbf", map[string]any{"nbf": map[string]any{"t": 1}}, errors.ErrCodeMalformedToken},
		{"true exp", map[string]any{"exp": true}, errors.ErrCodeMalformedToken},
		{"empty string exp", map[string]any{"exp": ""}, ""},
		{"null exp", map[string]any{"exp": nil}, ""},
		{"no claims", map[string]any{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(mustEncode(t, s, tc.payload, nil), WithActiveAt(ref))
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			expectCode(t, err, tc.wantCode)
		})
	}
}

func TestDecode_ActiveNow(t *testing.T) {
	s := hmacKey256(t, "")
	expired := mustEncode(t, s, map[string]any{"exp": time.Now().Add(-time.Hour).Unix()}, nil)
	_, err := Decode(expired, WithActive())
	expectCode(t, err, errors.ErrCodeExpired)

	valid := mustEncode(t, s, map[string]any{"exp": time.Now().Add(time.Hour).Unix()}, nil)
	if _, err := Decode(valid, WithActive()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToken_Accessors(t *testing.T) {
	tok, err := Decode(mustEncode(t, None, map[string]any{"sub": "u1", "aud": []string{"a", "b"}, "n": 1}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Subject() != "u1" {
		t.Errorf("expected sub u1, got %q", tok.Subject())
	}
	if diff := cmp.Diff([]string{"a", "b"}, tok.Audience()); diff != "" {
		t.Errorf("audience mismatch (-want +got):\n%s", diff)
	}
	if tok.Claim("n") != "" {
		t.Error("non-string claim should read as empty")
	}
}

func TestNewHMAC_Errors(t *testing.T) {
	_, err := NewHMAC("HS999", "", []byte("s"))
	expectCode(t, err, errors.ErrCodeUnsupportedAlgorithm)
	_, err = NewHMAC(HS512, "", nil)
	expectCode(t, err, errors.ErrCodeInvalidInput)

	for _, alg := range []string{HS256, HS384, HS512} {
		k, err := NewHMAC(alg, "kid", []byte("s"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sig, err := k.Sign("data")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !k.Verify("data", sig) || k.Verify("other", sig) {
			t.Errorf("%s sign/verify mismatch", alg)
		}
	}
}

func TestRSA_AllAlgorithms(t *testing.T) {
	priv := rsaKey(t).key
	for _, alg := range []string{RS256, RS384, RS512} {
		k, err := NewRSA(alg, "k", priv)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tok := mustEncode(t, k, map[string]any{"sub": "x"}, nil)
		if _, err := Decode(tok, WithKeys(k.Verifier())); err != nil {
			t.Errorf("%s: unexpected error: %v", alg, err)
		}
	}
	_, err := NewRSASigner("PS256", "", priv)
	expectCode(t, err, errors.ErrCodeUnsupportedAlgorithm)
	_, err = NewRSAVerifier(RS256, "", nil)
	expectCode(t, err, errors.ErrCodeInvalidInput)
}

func TestJWK_ExportImport(t *testing.T) {
	key := rsaKey(t)
	jwk := key.JWK()
	if jwk.Kty != "RSA" || jwk.Use != "sig" || jwk.Alg != RS256 || jwk.Kid != "k1" {
		t.Errorf("unexpected JWK %+v", jwk)
	}
	if jwk.E != "AQAB" {
		t.Errorf("expected exponent AQAB, got %q", jwk.E)
	}

	verifiers, err := LoadJWKSVerifiers([]JWK{jwk, {Kty: "RSA", Use: "enc", Alg: "RSA-OAEP"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verifiers) != 1 {
		t.Fatalf("expected encryption key to be skipped, got %d verifiers", len(verifiers))
	}
	tok := mustEncode(t, key, map[string]any{"sub": "u1"}, nil)
	if _, err := Decode(tok, WithKeys(verifiers...)); err != nil {
		t.Fatalf("imported verifier should accept token: %v", err)
	}
}

func TestLoadJWKSVerifiers_Rejects(t *testing.T) {
	good := rsaKey(t).JWK()
	tests := []struct {
		name string
		key  JWK
		code errors.ErrorCode
	}{
		{"symmetric", JWK{Kty: "oct", Use: "sig", Alg: HS256}, errors.ErrCodeUnsupportedAlgorithm},
		{"ecdsa", JWK{Kty: "EC", Use: "sig", Alg: "ES256"}, errors.ErrCodeUnsupportedAlgorithm},
		{"missing alg", JWK{Kty: "RSA", Use: "sig", N: good.N, E: good.E}, errors.ErrCodeUnsupportedAlgorithm},
		{"bad modulus", JWK{Kty: "RSA", Use: "sig", Alg: RS256, N: "***", E: good.E}, errors.ErrCodeInvalidInput},
		{"wrong kty", JWK{Kty: "EC", Use: "sig", Alg: RS256, N: good.N, E: good.E}, errors.ErrCodeInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadJWKSVerifiers([]JWK{good, tc.key})
			expectCode(t, err, tc.code)
		})
	}
}

func TestNewVerifier(t *testing.T) {
	pub := &rsaKey(t).key.PublicKey
	tests := []struct {
		alg  string
		key  any
		code errors.ErrorCode
	}{
		{AlgNone, nil, ""},
		{HS384, []byte("s"), ""},
		{RS512, pub, ""},
		{HS256, pub, errors.ErrCodeInvalidInput},
		{RS256, []byte("s"), errors.ErrCodeInvalidInput},
		{"ES256", nil, errors.ErrCodeUnsupportedAlgorithm},
	}
	for _, tc := range tests {
		t.Run(tc.alg, func(t *testing.T) {
			v, err := NewVerifier(tc.alg, "kid", tc.key)
			if tc.code != "" {
				expectCode(t, err, tc.code)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Alg() != tc.alg {
				t.Errorf("expected alg %s, got %s", tc.alg, v.Alg())
			}
		})
	}
}

func TestParsePEM(t *testing.T) {
	priv := rsaKey(t).key
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	gotPriv, err := ParseRSAPrivateKeyPEM(privPEM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotPriv.Equal(priv) {
		t.Error("parsed private key differs")
	}
	gotPub, err := ParseRSAPublicKeyPEM(pubPEM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotPub.Equal(&priv.PublicKey) {
		t.Error("parsed public key differs")
	}

	_, err = ParseRSAPrivateKeyPEM([]byte("garbage"))
	expectCode(t, err, errors.ErrCodeInvalidInput)
	_, err = ParseRSAPublicKeyPEM([]byte("garbage"))
	expectCode(t, err, errors.ErrCodeInvalidInput)
}
