package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the scalar held by a Value.
type ValueKind uint8

// Supported scalar kinds.
const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a tagged scalar used for free-form construct properties and
// tabular cells. The zero Value is absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	// raw keeps the source text of parsed numbers and booleans so identifiers
	// such as "007" survive a round trip unchanged.
	raw string
}

// Absent returns the empty value.
func Absent() Value { return Value{} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// NumberValue wraps f.
func NumberValue(f float64) Value { return Value{kind: ValueNumber, num: f} }

// IntValue wraps i as a number.
func IntValue(i int) Value { return Value{kind: ValueNumber, num: float64(i)} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// ParseValue infers a scalar from untyped cell text, ignoring surrounding
// whitespace: empty text is absent, true/false (any case) are booleans,
// decimal numbers are numbers and everything else stays a string.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Absent()
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return Value{kind: ValueBool, b: true, raw: trimmed}
	case "false":
		return Value{kind: ValueBool, b: false, raw: trimmed}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Value{kind: ValueNumber, num: f, raw: trimmed}
	}
	return StringValue(trimmed)
}

// Kind reports the tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether v carries no information.
func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.kind != ValueString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != ValueNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.kind != ValueBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns an integral number, also accepting strings holding one.
func (v Value) AsInt() (int, bool) {
	switch v.kind {
	case ValueNumber:
		if v.num != math.Trunc(v.num) || math.Abs(v.num) > math.MaxInt32 {
			return 0, false
		}
		return int(v.num), true
	case ValueString:
		i, err := strconv.Atoi(strings.TrimSpace(v.str))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// String renders the value the way it should appear in a table cell.
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		if v.raw != "" {
			return v.raw
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		if v.raw != "" {
			return v.raw
		}
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Interface returns the payload as a plain Go value (nil when absent).
func (v Value) Interface() any {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return v.num
	case ValueBool:
		return v.b
	default:
		return nil
	}
}

// Equal compares kind and payload, ignoring source text.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == other.str
	case ValueNumber:
		return v.num == other.num
	case ValueBool:
		return v.b == other.b
	default:
		return true
	}
}

// MarshalJSON encodes the payload natively; absent becomes null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes null, strings, numbers and booleans.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = Absent()
		return nil
	}
	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return err
	}
	converted, err := ValueOf(payload)
	if err != nil {
		return err
	}
	*v = converted
	return nil
}

// MarshalYAML encodes the payload natively for yaml.v3.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

// ValueOf converts a plain Go scalar into a Value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Absent(), nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(t), nil
	case int64:
		return NumberValue(float64(t)), nil
	case float32:
		return NumberValue(float64(t)), nil
	case float64:
		return NumberValue(t), nil
	default:
		return Absent(), fmt.Errorf("unsupported scalar %T", x)
	}
}
