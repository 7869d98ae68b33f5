package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/ssogate/errors"
)

var compactPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`)

var b64 = base64.RawURLEncoding

// Token is a decoded JWT. Claims are kept loosely typed since providers
// define their own.
type Token struct {
	Header  map[string]any
	Payload map[string]any
}

// Claim returns a string claim, or "" when absent or not a string.
func (t *Token) Claim(name string) string {
	s, _ := t.Payload[name].(string)
	return s
}

// Subject returns the sub claim.
func (t *Token) Subject() string { return t.Claim("sub") }

// Audience returns the aud claim as a list, accepting a scalar or an array.
func (t *Token) Audience() []string { return stringList(t.Payload["aud"]) }

// Encode signs payload and returns the compact serialization. The header is
// {typ, kid (when the signer has one), alg} followed by extraHeader fields in
// key order; extra fields may override the defaults.
func Encode(s Signer, payload any, extraHeader map[string]any) (string, error) {
	header, err := encodeHeader(s, extraHeader)
	if err != nil {
		return "", errors.InvalidInput("encode header").WithCause(err)
	}
	body, err := marshalJSON(payload)
	if err != nil {
		return "", errors.InvalidInput("encode payload").WithCause(err)
	}

	data := b64.EncodeToString(header) + "." + b64.EncodeToString(body)
	sig, err := s.Sign(data)
	if err != nil {
		return "", errors.InvalidInput("sign token").WithCause(err)
	}
	return data + "." + b64.EncodeToString(sig), nil
}

func encodeHeader(s Signer, extra map[string]any) ([]byte, error) {
	keys := []string{"typ"}
	values := map[string]any{"typ": "JWT"}
	if kid := s.KeyID(); kid != "" {
		keys = append(keys, "kid")
		values["kid"] = kid
	}
	keys = append(keys, "alg")
	values["alg"] = s.Alg()

	extraKeys := make([]string, 0, len(extra))
	for k := range extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if _, ok := values[k]; !ok {
			keys = append(keys, k)
		}
		values[k] = extra[k]
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := marshalJSON(k)
		if err != nil {
			return nil, err
		}
		value, err := marshalJSON(values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses a compact token and runs the checks selected by opts.
// Without options nothing beyond the structure is verified.
func Decode(token string, opts ...DecodeOption) (*Token, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !compactPattern.MatchString(token) {
		return nil, errors.MalformedToken("token is not three base64url segments")
	}
	headerSeg, rest, _ := strings.Cut(token, ".")
	payloadSeg, sigSeg, _ := strings.Cut(rest, ".")

	header, err := decodeSegment(headerSeg)
	if err != nil {
		return nil, errors.MalformedToken("header: " + err.Error())
	}
	payload, err := decodeSegment(payloadSeg)
	if err != nil {
		return nil, errors.MalformedToken("payload: " + err.Error())
	}
	sig, err := b64.DecodeString(sigSeg)
	if err != nil {
		return nil, errors.MalformedToken("signature: invalid base64url")
	}

	tok := &Token{Header: header, Payload: payload}

	if o.verifyKeys {
		if err := verifySignature(headerSeg+"."+payloadSeg, header, sig, o.keys); err != nil {
			return nil, err
		}
	}
	if o.verifyIssuer {
		iss, ok := payload["iss"].(string)
		if !ok || !slices.Contains(o.issuers, iss) {
			return nil, errors.IssuerMismatch()
		}
	}
	if o.verifyAudience && hasAudience(payload["aud"]) {
		if !intersects(stringList(payload["aud"]), o.audiences) {
			return nil, errors.AudienceMismatch()
		}
	}
	if o.verifyActive {
		if err := checkActive(payload, o.referenceSeconds()); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

type segmentError string

func (e segmentError) Error() string { return string(e) }

func decodeSegment(seg string) (map[string]any, error) {
	raw, err := b64.DecodeString(seg)
	if err != nil {
		return nil, segmentError("invalid base64url")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, segmentError("not a JSON object")
	}
	return m, nil
}

// verifySignature accepts the token when any eligible verifier accepts the
// signature. A verifier is eligible when its alg equals the header alg and
// either side has no kid or both kids are equal. none is never eligible.
func verifySignature(data string, header map[string]any, sig []byte, keys []Verifier) error {
	alg, _ := header["alg"].(string)
	kid, hasKid := headerKeyID(header["kid"])

	found := false
	for _, v := range keys {
		if v == nil || v.Alg() == AlgNone || v.Alg() != alg {
			continue
		}
		if hasKid && v.KeyID() != "" && v.KeyID() != kid {
			continue
		}
		found = true
		if v.Verify(data, sig) {
			return nil
		}
	}
	if found {
		return errors.SignatureMismatch()
	}
	return errors.UnknownKey()
}

// headerKeyID reports the header kid. nil, "", 0 and false count as absent.
// A kid of any other type is present with an empty value, so only verifiers
// without a key id stay eligible.
func headerKeyID(v any) (string, bool) {
	switch k := v.(type) {
	case nil:
		return "", false
	case string:
		return k, k != ""
	case float64:
		if k == 0 {
			return "", false
		}
	case bool:
		if !k {
			return "", false
		}
	}
	return "", true
}

func checkActive(payload map[string]any, ref float64) error {
	nbf, ok, err := numericClaim("nbf", payload["nbf"])
	if err != nil {
		return err
	}
	if ok && ref < nbf {
		return errors.NotYetValid()
	}
	exp, ok, err := numericClaim("exp", payload["exp"])
	if err != nil {
		return err
	}
	if ok && ref >= exp {
		return errors.Expired()
	}
	return nil
}

// numericClaim reads a time claim. nil, 0, "" and false are absent; numeric
// strings are coerced; any other value is malformed.
func numericClaim(name string, v any) (float64, bool, error) {
	switch c := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return c, c != 0, nil
	case bool:
		if !c {
			return 0, false, nil
		}
	case string:
		if c == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true, nil
		}
	}
	return 0, false, errors.MalformedToken(name + " is not a number")
}

func hasAudience(v any) bool {
	switch a := v.(type) {
	case nil:
		return false
	case string:
		return a != ""
	default:
		return true
	}
}

func stringList(v any) []string {
	switch a := v.(type) {
	case string:
		if a == "" {
			return nil
		}
		return []string{a}
	case []any:
		out := make([]string, 0, len(a))
		for _, item := range a {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return a
	default:
		return nil
	}
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
