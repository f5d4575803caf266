package icepeak

import (
	"encoding/json"
	"flag"
	"testing"

	"github.com/go-playground/assert/v2"
)

func init() {
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
	flag.Set("v", "0")
}

func TestIdJSONRoundTrip(t *testing.T) {
	id := NewId()

	encoded, err := json.Marshal(id)
	assert.Equal(t, nil, err)

	var decoded Id
	err = json.Unmarshal(encoded, &decoded)
	assert.Equal(t, nil, err)
	assert.Equal(t, id, decoded)
}

func TestIdsAreUnique(t *testing.T) {
	a := NewId()
	b := NewId()
	assert.NotEqual(t, a, b)
}

func TestIdFromBytesRejectsWrongLength(t *testing.T) {
	_, err := IdFromBytes([]byte{1, 2, 3})
	assert.NotEqual(t, nil, err)
}

func TestIdFromBytesRoundTrip(t *testing.T) {
	id := NewId()
	decoded, err := IdFromBytes(id.Bytes())
	assert.Equal(t, nil, err)
	assert.Equal(t, id, decoded)
}
