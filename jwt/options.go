package jwt

import "time"

// DecodeOption selects a check for Decode.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	verifyKeys bool
	keys       []Verifier

	verifyIssuer bool
	issuers      []string

	verifyAudience bool
	audiences      []string

	verifyActive bool
	at           time.Time
}

// WithKeys requires a valid signature from one of the given verifiers.
// Passing no verifiers makes every token fail with an unknown-key error.
func WithKeys(keys ...Verifier) DecodeOption {
	return func(o *decodeOptions) {
		o.verifyKeys = true
		o.keys = append(o.keys, keys...)
	}
}

// WithIssuer requires the iss claim to be one of issuers.
func WithIssuer(issuers ...string) DecodeOption {
	return func(o *decodeOptions) {
		o.verifyIssuer = true
		o.issuers = append(o.issuers, issuers...)
	}
}

// WithAudience requires the aud claim, when present, to share a value with
// audiences.
func WithAudience(audiences ...string) DecodeOption {
	return func(o *decodeOptions) {
		o.verifyAudience = true
		o.audiences = append(o.audiences, audiences...)
	}
}

// WithActive checks nbf and exp against the current time.
func WithActive() DecodeOption {
	return func(o *decodeOptions) {
		o.verifyActive = true
		o.at = time.Time{}
	}
}

// WithActiveAt checks nbf and exp against t.
func WithActiveAt(t time.Time) DecodeOption {
	return func(o *decodeOptions) {
		o.verifyActive = true
		o.at = t
	}
}

func (o *decodeOptions) referenceSeconds() float64 {
	at := o.at
	if at.IsZero() {
		at = time.Now()
	}
	return float64(at.UnixMilli()) / 1000
}
