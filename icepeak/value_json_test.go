package icepeak

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestUnmarshalValuePreservesKeyOrderOnMarshal(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"z":1,"a":2,"m":3}`))
	assert.Equal(t, nil, err)

	out, err := MarshalValue(v)
	assert.Equal(t, nil, err)
	assert.Equal(t, `{"z":1,"a":2,"m":3}`, string(out))
}

func TestUnmarshalValueUsesJSONNumber(t *testing.T) {
	v, err := UnmarshalValue([]byte(`9223372036854775807`))
	assert.Equal(t, nil, err)

	n, ok := v.(json.Number)
	assert.Equal(t, true, ok)
	assert.Equal(t, "9223372036854775807", n.String())
}

func TestUnmarshalValueNestedObjectsAndArrays(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"a":[1,{"b":"c"},null],"d":true}`))
	assert.Equal(t, nil, err)

	a, ok := Get(v, Path{"a"})
	assert.Equal(t, true, ok)
	arr, ok := a.([]any)
	assert.Equal(t, true, ok)
	assert.Equal(t, 3, len(arr))

	b, ok := Get(v, Path{"d"})
	assert.Equal(t, true, ok)
	assert.Equal(t, true, b)
}
