// Package auth binds configured identity providers to the sso extractors
// and resolves a provider name plus caller input to an external user id.
//
// Only providers with a client id are bound, always in the order google,
// github, gitlab. The configuration composes one optional sub-config per
// provider:
//
//	auth:
//	  google:
//	    client_id: "1234.apps.googleusercontent.com"
//	  gitlab:
//	    client_id: "abcd"
//	    access_token_url: "https://gitlab.com/oauth/token"
//
// ApplyDefaults fills the public provider endpoints, so a client id is
// usually all that is needed.
package auth
