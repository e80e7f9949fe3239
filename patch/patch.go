// Package patch implements RFC 6902 JSON Patch over map[string]any
// documents for state synchronization.
//
// The default entry points Apply and ApplyMutable are LENIENT: a failed
// operation (bad path, missing from, failed test) is recorded in its
// Result and processing continues with the remaining operations. This
// deliberately relaxes RFC 6902, which aborts the whole patch on the
// first failure; agent state deltas are best-effort and a single stale
// test must not discard the rest of the update. Callers that need
// RFC-conformant semantics use ApplyStrict.
//
// Operations addressing the document root are rejected for add, remove
// and replace: the document root is a map owned by the caller and
// whole-document replacement arrives as a state snapshot, not a patch.
// test against the root and copy from the root are allowed.
package patch

import (
	"encoding/json"
	"fmt"
)

// Operation names per RFC 6902.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
	OpMove    = "move"
	OpCopy    = "copy"
	OpTest    = "test"
)

// Op is one patch operation. Value distinguishes "explicit null" from
// "absent" when decoded from JSON; use the constructors when building
// operations in code.
type Op struct {
	Op    string
	Path  string
	Value any
	From  string

	valueSet bool
}

// Add creates an add operation.
func Add(path string, value any) Op {
	return Op{Op: OpAdd, Path: path, Value: value, valueSet: true}
}

// Remove creates a remove operation.
func Remove(path string) Op {
	return Op{Op: OpRemove, Path: path}
}

// Replace creates a replace operation.
func Replace(path string, value any) Op {
	return Op{Op: OpReplace, Path: path, Value: value, valueSet: true}
}

// Move creates a move operation.
func Move(from, path string) Op {
	return Op{Op: OpMove, Path: path, From: from}
}

// Copy creates a copy operation.
func Copy(from, path string) Op {
	return Op{Op: OpCopy, Path: path, From: from}
}

// Test creates a test operation comparing deep equality at path.
func Test(path string, value any) Op {
	return Op{Op: OpTest, Path: path, Value: value, valueSet: true}
}

func (o Op) hasValue() bool {
	return o.valueSet || o.Value != nil
}

type opWire struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
	From  string          `json:"from,omitempty"`
}

// UnmarshalJSON decodes an operation, tracking whether value was present
// so that an explicit null survives.
func (o *Op) UnmarshalJSON(data []byte) error {
	var wire opWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	o.Op = wire.Op
	o.Path = wire.Path
	o.From = wire.From
	o.Value = nil
	o.valueSet = wire.Value != nil
	if o.valueSet {
		if err := json.Unmarshal(wire.Value, &o.Value); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON emits the RFC 6902 wire form.
func (o Op) MarshalJSON() ([]byte, error) {
	wire := opWire{Op: o.Op, Path: o.Path, From: o.From}
	if o.hasValue() {
		raw, err := json.Marshal(o.Value)
		if err != nil {
			return nil, err
		}
		wire.Value = raw
	}
	return json.Marshal(wire)
}

// Result records the outcome of one operation within an apply call.
type Result struct {
	Index int
	Op    Op
	Err   error
}

// FirstError returns the first failed result's error, or nil when every
// operation succeeded.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("op %d (%s %s): %w", r.Index, r.Op.Op, r.Op.Path, r.Err)
		}
	}
	return nil
}

// Apply applies ops to a deep copy of doc and returns the new document
// plus one Result per operation. The input document is never mutated.
func Apply(doc map[string]any, ops []Op) (map[string]any, []Result) {
	return ApplyMutable(cloneMap(doc), ops)
}

// ApplyMutable applies ops to doc in place and returns the same
// reference. Failed operations are recorded and skipped.
func ApplyMutable(doc map[string]any, ops []Op) (map[string]any, []Result) {
	results := make([]Result, 0, len(ops))
	for i, op := range ops {
		err := applyOne(doc, op)
		results = append(results, Result{Index: i, Op: op, Err: err})
	}
	return doc, results
}

// ApplyStrict applies ops to a deep copy of doc, aborting on the first
// failed operation per RFC 6902.
func ApplyStrict(doc map[string]any, ops []Op) (map[string]any, error) {
	out := cloneMap(doc)
	for i, op := range ops {
		if err := applyOne(out, op); err != nil {
			return nil, fmt.Errorf("op %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	return out, nil
}

// Validate reports whether every element is a well-formed operation:
// a known op name, a syntactically valid path, from where move/copy
// require it and value where add/replace/test require it. Nothing is
// executed against a document.
func Validate(ops []Op) bool {
	for _, op := range ops {
		if err := op.wellFormed(); err != nil {
			return false
		}
	}
	return true
}

func (o Op) wellFormed() error {
	if _, err := parsePointer(o.Path); err != nil {
		return err
	}
	switch o.Op {
	case OpAdd, OpReplace, OpTest:
		if !o.hasValue() {
			return fmt.Errorf("%s requires a value", o.Op)
		}
	case OpRemove:
	case OpMove, OpCopy:
		if _, err := parsePointer(o.From); err != nil {
			return fmt.Errorf("%s from: %w", o.Op, err)
		}
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	return nil
}

func applyOne(doc map[string]any, op Op) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	if err := op.wellFormed(); err != nil {
		return err
	}
	segs, _ := parsePointer(op.Path)

	switch op.Op {
	case OpAdd:
		if len(segs) == 0 {
			return fmt.Errorf("cannot add at document root")
		}
		_, err := addAt(doc, segs, op.Value)
		return err

	case OpRemove:
		if len(segs) == 0 {
			return fmt.Errorf("cannot remove document root")
		}
		_, err := removeAt(doc, segs)
		return err

	case OpReplace:
		if len(segs) == 0 {
			return fmt.Errorf("cannot replace document root")
		}
		if _, err := removeAt(doc, segs); err != nil {
			return err
		}
		_, err := addAt(doc, segs, op.Value)
		return err

	case OpMove:
		fromSegs, _ := parsePointer(op.From)
		if len(fromSegs) == 0 {
			return fmt.Errorf("cannot move document root")
		}
		if len(segs) == 0 {
			return fmt.Errorf("cannot move to document root")
		}
		value, err := getAt(doc, fromSegs)
		if err != nil {
			return err
		}
		if _, err := removeAt(doc, fromSegs); err != nil {
			return err
		}
		_, err = addAt(doc, segs, value)
		return err

	case OpCopy:
		fromSegs, _ := parsePointer(op.From)
		if len(segs) == 0 {
			return fmt.Errorf("cannot copy to document root")
		}
		value, err := getAt(doc, fromSegs)
		if err != nil {
			return err
		}
		_, err = addAt(doc, segs, clone(value))
		return err

	case OpTest:
		value, err := getAt(doc, segs)
		if err != nil {
			return err
		}
		if !deepEqual(value, op.Value) {
			return fmt.Errorf("test failed at %q", op.Path)
		}
		return nil
	}
	return fmt.Errorf("unknown op %q", op.Op)
}
