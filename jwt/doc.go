// Package jwt wraps github.com/golang-jwt/jwt/v5 behind the small
// sign/verify capability the token lifecycle manager consumes. Tokens are
// stateless and self-verifying; revocation is layered on top by the core's
// blacklist, not here.
package jwt
