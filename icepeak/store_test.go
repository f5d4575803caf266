package icepeak

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestApplyDispatchesPutAndDelete(t *testing.T) {
	var v Value
	v = Apply(v, NewPut(Path{"a", "b"}, "x"))

	got, ok := Get(v, Path{"a", "b"})
	assert.Equal(t, true, ok)
	assert.Equal(t, "x", got)

	v = Apply(v, NewDelete(Path{"a", "b"}))
	_, ok = Get(v, Path{"a", "b"})
	assert.Equal(t, false, ok)
}

func TestJournalLineRoundTripsPut(t *testing.T) {
	mod := NewPut(Path{"a", "b"}, "hello")

	line, err := MarshalJournalLine(mod)
	assert.Equal(t, nil, err)

	decoded, err := UnmarshalJournalLine(line)
	assert.Equal(t, nil, err)
	assert.Equal(t, OpPut, decoded.Op)
	assert.Equal(t, Path{"a", "b"}, decoded.Path)
	assert.Equal(t, "hello", decoded.Value)
}

func TestJournalLineRoundTripsDelete(t *testing.T) {
	mod := NewDelete(Path{"a", "b"})

	line, err := MarshalJournalLine(mod)
	assert.Equal(t, nil, err)

	decoded, err := UnmarshalJournalLine(line)
	assert.Equal(t, nil, err)
	assert.Equal(t, OpDelete, decoded.Op)
	assert.Equal(t, Path{"a", "b"}, decoded.Path)
}

func TestUnmarshalJournalLineRejectsUnknownOp(t *testing.T) {
	_, err := UnmarshalJournalLine([]byte(`{"op":"frobnicate","path":[]}`))
	assert.NotEqual(t, nil, err)
}

func TestReplayingJournalMatchesDirectApplication(t *testing.T) {
	mods := []Modification{
		NewPut(Path{"a"}, "1"),
		NewPut(Path{"a", "b"}, "2"),
		NewPut(Path{"c"}, "3"),
		NewDelete(Path{"a", "b"}),
	}

	var direct Value
	for _, mod := range mods {
		direct = Apply(direct, mod)
	}

	var replayed Value
	for _, mod := range mods {
		line, err := MarshalJournalLine(mod)
		assert.Equal(t, nil, err)
		decoded, err := UnmarshalJournalLine(line)
		assert.Equal(t, nil, err)
		replayed = Apply(replayed, decoded)
	}

	directEncoded, _ := MarshalValue(direct)
	replayedEncoded, _ := MarshalValue(replayed)
	assert.Equal(t, string(directEncoded), string(replayedEncoded))
}
