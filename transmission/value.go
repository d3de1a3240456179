package transmission

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind tags the shape held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindRecord
	KindSequence
)

// Value is a sanitized JSON value coming back from the daemon. Records and
// sequences are kept apart explicitly because the daemon sometimes encodes
// arrays as objects with numeric keys.
type Value struct {
	kind   Kind
	scalar any
	record map[string]Value
	seq    []Value
}

// Null is the zero Value.
var Null = Value{}

func Scalar(v any) Value { return Value{kind: KindScalar, scalar: v} }
func Record(m map[string]Value) Value { return Value{kind: KindRecord, record: m} }
func Sequence(s []Value) Value { return Value{kind: KindSequence, seq: s} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsRecord() bool { return v.kind == KindRecord }

// Get returns the member of a record, or Null.
func (v Value) Get(key string) Value {
	if v.kind != KindRecord {
		return Null
	}
	return v.record[key]
}

// Has reports whether a record carries key.
func (v Value) Has(key string) bool {
	if v.kind != KindRecord {
		return false
	}
	_, ok := v.record[key]
	return ok
}

// Keys returns the member names of a record in no particular order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.record))
	for k := range v.record {
		keys = append(keys, k)
	}
	return keys
}

// Items returns the elements of a sequence.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Len is the number of members or elements; scalars and Null have length 0.
func (v Value) Len() int {
	switch v.kind {
	case KindRecord:
		return len(v.record)
	case KindSequence:
		return len(v.seq)
	}
	return 0
}

func (v Value) String() string {
	switch s := v.scalar.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	}
	return ""
}

func (v Value) Float() float64 {
	switch n := v.scalar.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

func (v Value) Int() int64 {
	switch n := v.scalar.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return int64(f)
	case int64:
		return n
	case int:
		return int64(n)
	}
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

func (v Value) Bool() bool {
	switch b := v.scalar.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return v.Float() != 0
		}
		return parsed
	}
	return v.Float() != 0
}

// Interface converts the Value back into plain Go values as produced by
// encoding/json.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindRecord:
		m := make(map[string]any, len(v.record))
		for k, child := range v.record {
			m[k] = child.Interface()
		}
		return m
	case KindSequence:
		s := make([]any, len(v.seq))
		for i, child := range v.seq {
			s[i] = child.Interface()
		}
		return s
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := decodeJSON(data, &raw); err != nil {
		return err
	}
	*v = CleanIncoming(raw)
	return nil
}
