package icepeak

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/go-playground/assert/v2"
)

func TestMintAndParseClaimsVerifiedRoundTrip(t *testing.T) {
	secret := []byte("topsecret")
	token, err := MintHS256(secret, []Path{{"users", "42"}}, 0)
	assert.Equal(t, nil, err)

	claims, err := ParseClaimsVerified(token, secret)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, claims.Grants(Path{"users", "42", "profile"}))
	assert.Equal(t, false, claims.Grants(Path{"users", "43"}))
}

func TestParseClaimsVerifiedRejectsWrongSecret(t *testing.T) {
	token, err := MintHS256([]byte("correct"), []Path{{"a"}}, 0)
	assert.Equal(t, nil, err)

	_, err = ParseClaimsVerified(token, []byte("wrong"))
	assert.NotEqual(t, nil, err)
}

func TestParseClaimsVerifiedRejectsExpiredToken(t *testing.T) {
	secret := []byte("topsecret")
	claims := gojwt.MapClaims{
		"paths": []string{"/a"},
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(secret)
	assert.Equal(t, nil, err)

	_, err = ParseClaimsVerified(token, secret)
	assert.NotEqual(t, nil, err)
}

func TestMintHS256WithZeroTTLNeverExpires(t *testing.T) {
	secret := []byte("topsecret")
	token, err := MintHS256(secret, []Path{{"a"}}, 0)
	assert.Equal(t, nil, err)

	claims, err := ParseClaimsVerified(token, secret)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, claims.Grants(Path{"a"}))
}

func TestParseClaimsUnverifiedDoesNotRequireSecret(t *testing.T) {
	token, err := MintHS256([]byte("whatever"), []Path{{"a", "b"}}, int64(time.Hour.Seconds()))
	assert.Equal(t, nil, err)

	claims, err := ParseClaimsUnverified(token)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, claims.Grants(Path{"a", "b"}))
}

func TestClaimsGrantsRequiresPrefixMatch(t *testing.T) {
	claims := &Claims{Paths: []Path{{"a", "b"}}}
	assert.Equal(t, true, claims.Grants(Path{"a", "b"}))
	assert.Equal(t, true, claims.Grants(Path{"a", "b", "c"}))
	assert.Equal(t, false, claims.Grants(Path{"a"}))
	assert.Equal(t, false, claims.Grants(Path{"a", "x"}))
}
