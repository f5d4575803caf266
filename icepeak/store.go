package icepeak

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ModificationOp tags a Modification's variant.
type ModificationOp string

const (
	OpPut    ModificationOp = "put"
	OpDelete ModificationOp = "delete"
)

// Modification is a tagged Put/Delete operation on a path — the only
// two ways the document changes. It is what flows through the
// Coordinator's queue, the journal, and the broadcast-target
// computation.
type Modification struct {
	Op    ModificationOp
	Path  Path
	Value Value // only meaningful when Op == OpPut
}

func NewPut(path Path, value Value) Modification {
	return Modification{Op: OpPut, Path: path, Value: value}
}

func NewDelete(path Path) Modification {
	return Modification{Op: OpDelete, Path: path}
}

// Apply dispatches on m's variant. It is the single call site both
// Persistence.Load (replay) and Persistence.Apply (runtime) use, so
// recovery and live application never diverge.
func Apply(v Value, m Modification) Value {
	switch m.Op {
	case OpPut:
		return Put(v, m.Path, m.Value)
	case OpDelete:
		return Delete(v, m.Path)
	default:
		return v
	}
}

// jsonModification is the canonical on-disk encoding of a
// Modification:
//
//	{"op":"put","path":["a","b"],"value":<JSON>}
//	{"op":"delete","path":["a","b"]}
type jsonModification struct {
	Op    ModificationOp  `json:"op"`
	Path  []string        `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJournalLine encodes m as a single journal line, without the
// trailing newline (the caller appends it; see persistence.go).
func MarshalJournalLine(m Modification) ([]byte, error) {
	jm := jsonModification{
		Op:   m.Op,
		Path: []string(m.Path),
	}
	if m.Op == OpPut {
		valueBytes, err := MarshalValue(m.Value)
		if err != nil {
			return nil, errors.Wrap(err, "marshal modification value")
		}
		jm.Value = valueBytes
	}
	return json.Marshal(jm)
}

// UnmarshalJournalLine decodes a single journal line into a
// Modification. Malformed lines return an error; callers (Load) log
// and skip rather than abort recovery.
func UnmarshalJournalLine(line []byte) (Modification, error) {
	var jm jsonModification
	if err := json.Unmarshal(line, &jm); err != nil {
		return Modification{}, errors.Wrap(err, "decode journal line")
	}
	switch jm.Op {
	case OpPut:
		if len(jm.Value) == 0 {
			return Modification{}, errors.New("put entry missing value")
		}
		value, err := UnmarshalValue(jm.Value)
		if err != nil {
			return Modification{}, errors.Wrap(err, "decode modification value")
		}
		return NewPut(Path(jm.Path), value), nil
	case OpDelete:
		return NewDelete(Path(jm.Path)), nil
	default:
		return Modification{}, errors.Errorf("unknown op %q", jm.Op)
	}
}

// ChangedPath is the path a Modification affects, used to compute
// broadcast targets.
func (self Modification) ChangedPath() Path {
	return self.Path
}
