package transmission

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// CleanOutgoing strips empty fields from request arguments before they are
// sent. Nested maps are cleaned first and dropped if nothing is left in them.
// Numbers are never dropped, so an explicit 0 reaches the daemon. Returns nil
// when there is nothing to send.
func CleanOutgoing(args map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		v = cleanOutgoingValue(v)
		if isEmpty(v) && !isNumber(v) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanOutgoingValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CleanOutgoing(t)
	case []any:
		// elements are never removed from lists, only maps inside them cleaned
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cleanOutgoingValue(item)
		}
		return out
	}
	return v
}

// CleanIncoming converts a decoded JSON document into a Value. Hyphens in
// member names become underscores, records with any all-digit member name
// turn into sequences, and empty members are removed from records after
// their children were cleaned. Inside sequences an empty element is kept as
// Null, since the position often is the file index. Unlike CleanOutgoing,
// numeric zero counts as empty here.
func CleanIncoming(v any) Value {
	switch t := v.(type) {
	case map[string]any:
		return cleanIncomingRecord(t)
	case []any:
		// empty elements become Null so the rest keep their index
		return Sequence(lo.Map(t, func(item any, _ int) Value {
			cleaned := CleanIncoming(item)
			if cleaned.isEmpty() {
				return Null
			}
			return cleaned
		}))
	case nil:
		return Null
	}
	return Scalar(v)
}

// maxSequenceIndex bounds how far a digit key may stretch a sequence.
const maxSequenceIndex = 1 << 16

func cleanIncomingRecord(m map[string]any) Value {
	record := make(map[string]Value, len(m))
	asSequence := false
	length := 0
	for k, raw := range m {
		key := strings.ReplaceAll(k, "-", "_")
		if isDigits(key) {
			asSequence = true
			if idx, ok := sequenceIndex(key); ok && idx >= length {
				length = idx + 1
			}
		}
		cleaned := CleanIncoming(raw)
		if cleaned.isEmpty() {
			continue
		}
		record[key] = cleaned
	}
	if !asSequence {
		return Record(record)
	}

	// digit keys keep their position, gaps read as Null; any other members
	// follow in key order
	seq := make([]Value, length)
	var rest []string
	for k, v := range record {
		if idx, ok := sequenceIndex(k); ok {
			seq[idx] = v
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return Sequence(append(seq, lo.Map(rest, func(k string, _ int) Value { return record[k] })...))
}

func sequenceIndex(key string) (int, bool) {
	if !isDigits(key) {
		return 0, false
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx >= maxSequenceIndex {
		return 0, false
	}
	return idx, true
}

func (v Value) isEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindRecord:
		return len(v.record) == 0
	case KindSequence:
		return lo.EveryBy(v.seq, Value.IsNull)
	}
	return isEmpty(v.scalar)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isEmpty reports whether v is nil, false, "", zero or an empty container.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}

func isNumber(v any) bool {
	if _, ok := v.(json.Number); ok {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func decodeJSON(data []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(dest)
}
