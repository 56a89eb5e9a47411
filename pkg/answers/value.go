package answers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the dynamic type of an answer value. The wire format at the store
// boundary is a flat JSON object of string | number | boolean | string array,
// so the engine models exactly those four shapes instead of an untyped map.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStringList:
		return "stringList"
	}
	return "unknown"
}

// Value is a single field answer.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
}

// String wraps a string answer.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric answer.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps a boolean answer.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// StringList wraps a multi-select answer.
func StringList(items ...string) Value {
	return Value{kind: KindStringList, list: append([]string(nil), items...)}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload; ok is false for other kinds.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload; ok is false for other kinds.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload; ok is false for other kinds.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsStringList returns a copy of the list payload; ok is false for other kinds.
func (v Value) AsStringList() ([]string, bool) {
	if v.kind != KindStringList {
		return nil, false
	}
	return append([]string(nil), v.list...), true
}

// IsEmptyString reports whether the value is a string holding "". This is the
// only in-band emptiness the required-field check recognises: empty lists and
// false booleans deliberately do not count as missing.
func (v Value) IsEmptyString() bool {
	return v.kind == KindString && v.str == ""
}

// Display renders the value for labels and log lines.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStringList:
		return fmt.Sprintf("%v", v.list)
	}
	return ""
}

// MarshalJSON emits the bare scalar or array.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringList:
		if v.list == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.list)
	}
	return nil, fmt.Errorf("answers: cannot marshal value of kind %d", v.kind)
}

// UnmarshalJSON accepts string, number, boolean, or string-array payloads.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("answers: empty value payload")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("answers: decode string: %w", err)
		}
		*v = String(s)
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("answers: decode string list: %w", err)
		}
		*v = StringList(list...)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("answers: decode bool: %w", err)
		}
		*v = Bool(b)
		return nil
	case 'n':
		if !bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("answers: decode value: invalid payload %q", trimmed)
		}
		// Null answers count as missing: decode to the empty string so the
		// required-field check recognises them.
		*v = String("")
		return nil
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return fmt.Errorf("answers: decode number: %w", err)
		}
		*v = Number(f)
		return nil
	}
}

// Equal reports deep equality. Exported so go-cmp can compare values despite
// the unexported payload fields.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindStringList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	}
	return false
}
