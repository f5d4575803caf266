package icepeak

// the document is the recursive JSON algebraic type described in the
// store's data model: null, bool, number, string, array, or an
// ordered object. numbers are decoded with json.Number so a
// snapshot/journal round trip never rounds a value (see UnmarshalValue
// in value_json.go).

// Value is a JSON document value. The concrete Go representation is:
//
//	nil             -> JSON null
//	bool            -> JSON bool
//	json.Number     -> JSON number
//	string          -> JSON string
//	[]any           -> JSON array (opaque, not navigable by Path)
//	*Object         -> JSON object (navigable by Path, insertion order preserved)
type Value = any

// Path is an ordered sequence of object-key segments. The empty path
// denotes the document root.
type Path []string

// Child returns the path extended by one more segment, without
// mutating self.
func (self Path) Child(segment string) Path {
	next := make(Path, len(self)+1)
	copy(next, self)
	next[len(self)] = segment
	return next
}

// HasPrefix reports whether other is a prefix of self (or equal to it).
func (self Path) HasPrefix(other Path) bool {
	if len(other) > len(self) {
		return false
	}
	for i, segment := range other {
		if self[i] != segment {
			return false
		}
	}
	return true
}

func (self Path) String() string {
	s := "/"
	for i, segment := range self {
		if i > 0 {
			s += "/"
		}
		s += segment
	}
	return s
}

// Object is an ordered mapping from text keys to Value. Order is the
// order keys were first inserted; it is observable on serialization
// (MarshalJSON), matching the data model's "insertion order observable
// on serialization" requirement.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{
		values: map[string]Value{},
	}
}

func (self *Object) Get(key string) (Value, bool) {
	v, ok := self.values[key]
	return v, ok
}

func (self *Object) Len() int {
	return len(self.keys)
}

// Keys returns the object's keys in insertion order. The caller must
// not mutate the returned slice.
func (self *Object) Keys() []string {
	return self.keys
}

// clone returns a shallow copy: the key order and top-level key set are
// copied, but child values are shared with self. Callers that replace
// a single key's value must not mutate the clone's values map in
// place for keys they did not intend to change.
func (self *Object) clone() *Object {
	next := &Object{
		keys:   make([]string, len(self.keys)),
		values: make(map[string]Value, len(self.values)),
	}
	copy(next.keys, self.keys)
	for k, v := range self.values {
		next.values[k] = v
	}
	return next
}

// withSet returns a new Object with key set to value, sharing every
// other key's value with self.
func (self *Object) withSet(key string, value Value) *Object {
	next := self.clone()
	if _, exists := next.values[key]; !exists {
		next.keys = append(next.keys, key)
	}
	next.values[key] = value
	return next
}

// withDeleted returns a new Object with key removed, sharing every
// other key's value with self. If key is absent, self is returned
// unchanged (not cloned), per the no-op-when-absent invariant.
func (self *Object) withDeleted(key string) *Object {
	if _, exists := self.values[key]; !exists {
		return self
	}
	next := self.clone()
	delete(next.values, key)
	for i, k := range next.keys {
		if k == key {
			next.keys = append(next.keys[:i], next.keys[i+1:]...)
			break
		}
	}
	return next
}

// Get descends Object keys along path. The empty path returns the
// whole value. On non-Object or missing key, ok is false.
func Get(v Value, path Path) (Value, bool) {
	cur := v
	for _, segment := range path {
		obj, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		next, ok := obj.Get(segment)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Put places value at path, creating missing intermediate Objects as
// needed. If an intermediate segment exists but is non-Object, it is
// overwritten by a fresh Object containing the remainder. Put does not
// mutate v; it returns a new Value sharing unaffected structure.
func Put(v Value, path Path, value Value) Value {
	if len(path) == 0 {
		return value
	}

	obj, ok := v.(*Object)
	if !ok {
		obj = NewObject()
	}

	segment := path[0]
	child, _ := obj.Get(segment)
	return obj.withSet(segment, Put(child, path[1:], value))
}

// Delete removes the key at the final segment if the parent is an
// Object; no-op otherwise. Deleting root replaces the document with
// nil (JSON null).
func Delete(v Value, path Path) Value {
	if len(path) == 0 {
		return nil
	}

	obj, ok := v.(*Object)
	if !ok {
		return v
	}

	if len(path) == 1 {
		return obj.withDeleted(path[0])
	}

	segment := path[0]
	child, ok := obj.Get(segment)
	if !ok {
		return v
	}
	return obj.withSet(segment, Delete(child, path[1:]))
}
