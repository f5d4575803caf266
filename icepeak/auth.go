package icepeak

import (
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims is the decoded form of a bearer token: a set of path prefixes
// the token grants access to. This is the whole of the authorization
// model: no roles, no per-verb scoping, just "bearer token grants a
// path prefix".
type Claims struct {
	Paths []Path
}

// ParseClaimsUnverified decodes a bearer token's claims without
// checking its signature. Used by icepeak-token's `inspect`
// subcommand, which has no secret to verify against.
func ParseClaimsUnverified(token string) (*Claims, error) {
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	claims, ok := parsed.Claims.(gojwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return claimsFromMap(claims), nil
}

// ParseClaimsVerified decodes and verifies a bearer token signed with
// HS256 against secret, returning ErrAuth on any failure (bad
// signature, expired, malformed).
func ParseClaimsVerified(token string, secret []byte) (*Claims, error) {
	parsed, err := gojwt.Parse(token, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrAuth, err.Error())
	}
	claims, ok := parsed.Claims.(gojwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.Wrap(ErrAuth, "invalid claims")
	}
	return claimsFromMap(claims), nil
}

func claimsFromMap(claims gojwt.MapClaims) *Claims {
	result := &Claims{}
	rawPaths, ok := claims["paths"]
	if !ok {
		return result
	}
	list, ok := rawPaths.([]any)
	if !ok {
		return result
	}
	for _, rawPath := range list {
		s, ok := rawPath.(string)
		if !ok {
			continue
		}
		result.Paths = append(result.Paths, SplitPath(s))
	}
	return result
}

// Grants reports whether the claims cover path: some granted prefix
// must be a prefix of (or equal to) path.
func (self *Claims) Grants(path Path) bool {
	for _, prefix := range self.Paths {
		if path.HasPrefix(prefix) {
			return true
		}
	}
	return false
}

// MintHS256 signs a new token granting the given path prefixes, valid
// for ttl. Used by icepeak-token's `mint` subcommand.
func MintHS256(secret []byte, paths []Path, ttl int64) (string, error) {
	pathStrs := make([]string, len(paths))
	for i, p := range paths {
		pathStrs[i] = p.String()
	}
	claims := gojwt.MapClaims{
		"paths": pathStrs,
	}
	if ttl > 0 {
		claims["exp"] = nowUnix() + ttl
	}
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
