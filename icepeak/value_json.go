package icepeak

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes self's keys in insertion order, matching the data
// model's requirement that object key order is observable.
func (self *Object) MarshalJSON() ([]byte, error) {
	if self == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range self.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valueBytes, err := MarshalValue(self.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue encodes a Value, recursing through *Object so that
// nested key order is preserved the same way self.MarshalJSON does.
func MarshalValue(v Value) ([]byte, error) {
	switch t := v.(type) {
	case *Object:
		return t.MarshalJSON()
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemBytes, err := MarshalValue(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v)
	}
}

// UnmarshalValue decodes JSON bytes into a Value, using json.Number for
// numbers (so a value like 1e10 or a 64-bit integer round-trips
// exactly rather than losing precision through float64) and *Object
// for objects so that key order round-trips.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := decodeValue(dec, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// decodeValue reads exactly one JSON value from dec into dst, building
// *Object for `{...}` rather than the stdlib's unordered map[string]any.
func decodeValue(dec *json.Decoder, dst *any) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	v, err := decodeToken(dec, tok)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				valueTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				value, err := decodeToken(dec, valueTok)
				if err != nil {
					return nil, err
				}
				obj = obj.withSet(key, value)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				itemTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				item, err := decodeToken(dec, itemTok)
				if err != nil {
					return nil, err
				}
				arr = append(arr, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
	}
	return tok, nil
}
