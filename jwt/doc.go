// Package jwt implements the JWT compact codec and the signing-algorithm
// registry used to verify provider id tokens.
//
// Supported algorithms are none, HS256/384/512 and RS256/384/512; the
// cryptographic primitives come from golang-jwt. Key sets fetched from a
// provider are imported with LoadJWKSVerifiers, which accepts RSA signing
// keys only.
//
//	v, _ := jwt.NewRSAVerifier(jwt.RS256, "k1", pub)
//	tok, err := jwt.Decode(raw,
//	    jwt.WithKeys(v),
//	    jwt.WithIssuer("https://accounts.google.com"),
//	    jwt.WithAudience(clientID),
//	    jwt.WithActive(),
//	)
package jwt
