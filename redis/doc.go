// Package redis wraps go-redis for the shared key-set tier.
//
// KeySetStore implements jwks.Store so several ssogate instances reuse one
// fetched provider key set until its max-age runs out:
//
//	client, err := redis.New(cfg.JWKS.Redis, log)
//	keys := jwks.New(httpClient, jwks.WithStore(redis.NewKeySetStore(client, "")))
package redis
