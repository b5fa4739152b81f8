package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind identifies which variant a Value holds
type ValueKind int

const (
	// KindInvalid is the zero Value, produced when a default is absent or null.
	KindInvalid ValueKind = iota
	KindNumber
	KindString
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	default:
		return "invalid"
	}
}

// Value is a parameter default: exactly one of a number, a string or a boolean.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	b    bool
}

// NumberValue returns a numeric Value
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// StringValue returns a string Value
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// BoolValue returns a boolean Value
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the variant held
func (v Value) Kind() ValueKind { return v.kind }

// Number returns the numeric value and whether v is a number
func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }

// Bool returns the boolean value and whether v is a boolean
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// String renders the value the way pages display it.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. null leaves the Value invalid so
// validation can report it; objects and arrays are rejected outright.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty parameter default")
	}

	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case '{', '[':
		return fmt.Errorf("parameter default must be a number, string or boolean")
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = NumberValue(f)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler using the resolved scalar tag, so
// an unquoted 0.1 is a number and a quoted "0.1" is a string.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: parameter default must be a number, string or boolean", node.Line)
	}

	switch node.ShortTag() {
	case "!!null":
		*v = Value{}
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = NumberValue(f)
	case "!!str":
		*v = StringValue(node.Value)
	default:
		return fmt.Errorf("line %d: unsupported parameter default type %s", node.Line, node.ShortTag())
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindString:
		return v.str, nil
	case KindBool:
		return v.b, nil
	default:
		return nil, nil
	}
}
