package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/ssogate/jwt"
)

// sessionClaims is the payload of an issued session token.
type sessionClaims struct {
	Subject    string `json:"sub"`
	Issuer     string `json:"iss"`
	IssuedAt   int64  `json:"iat"`
	Expires    int64  `json:"exp"`
	ID         string `json:"jti"`
	Service    string `json:"service"`
	ExternalID string `json:"external_id"`
}

// hmacGranter issues HS256 session tokens for authenticated users.
type hmacGranter struct {
	signer jwt.Signer
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func newHMACGranter(cfg TokenConfig) (*hmacGranter, error) {
	signer, err := jwt.NewHMAC(jwt.HS256, "", []byte(cfg.Secret))
	if err != nil {
		return nil, err
	}
	return &hmacGranter{signer: signer, issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}, nil
}

// Grant implements server.TokenGranter.
func (g *hmacGranter) Grant(_ context.Context, userID, service, externalID string) (string, error) {
	now := g.now()
	return jwt.Encode(g.signer, sessionClaims{
		Subject:    userID,
		Issuer:     g.issuer,
		IssuedAt:   now.Unix(),
		Expires:    now.Add(g.ttl).Unix(),
		ID:         uuid.NewString(),
		Service:    service,
		ExternalID: externalID,
	}, nil)
}
