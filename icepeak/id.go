package icepeak

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Id identifies a subscriber registration. It is backed by a ULID
// rather than a bare counter: ids are sortable by creation time, safe
// to log, and collision-free across concurrently-registering
// connection handlers without any coordination.
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func IdFromBytes(idBytes []byte) (Id, error) {
	if len(idBytes) != 16 {
		return Id{}, errors.New("id must be 16 bytes")
	}
	var id Id
	copy(id[:], idBytes)
	return id, nil
}

func (self Id) Bytes() []byte {
	return self[0:16]
}

func (self Id) String() string {
	return ulid.ULID(self).String()
}

func (self Id) LessThan(other Id) bool {
	return bytes.Compare(self[:], other[:]) < 0
}

func (self Id) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", self.String())), nil
}

func (self *Id) UnmarshalJSON(src []byte) error {
	var s string
	unquoted, err := unquoteJSONString(src)
	if err != nil {
		return err
	}
	s = unquoted
	parsed, err := ulid.ParseStrict(s)
	if err != nil {
		return err
	}
	*self = Id(parsed)
	return nil
}

func unquoteJSONString(src []byte) (string, error) {
	if len(src) < 2 || src[0] != '"' || src[len(src)-1] != '"' {
		return "", errors.New("id must be a JSON string")
	}
	return string(src[1 : len(src)-1]), nil
}

// Hex returns the id's raw hex encoding, for callers that log a raw id
// outside a JSON context.
func (self Id) Hex() string {
	return hex.EncodeToString(self.Bytes())
}
