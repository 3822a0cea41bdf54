package object

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type tag of an attribute.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindUint
	KindString
	KindColor
	// KindComputedInt and KindComputedString are produced by a getter on
	// every read. They are never parsed into storage.
	KindComputedInt
	KindComputedString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt, KindComputedInt:
		return "int"
	case KindUint:
		return "uint"
	case KindString, KindComputedString:
		return "string"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Indicator is the one letter type code shown in listings.
func (k Kind) Indicator() byte {
	switch k {
	case KindBool:
		return 'b'
	case KindInt, KindComputedInt:
		return 'i'
	case KindUint:
		return 'u'
	case KindColor:
		return 'c'
	default:
		return 's'
	}
}

func (k Kind) Computed() bool {
	return k == KindComputedInt || k == KindComputedString
}

// Integral reports whether values of this kind order numerically.
func (k Kind) Integral() bool {
	return k == KindInt || k == KindUint || k == KindComputedInt
}

// ParseKind maps a user facing type name to a storable kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "bool":
		return KindBool, nil
	case "int":
		return KindInt, nil
	case "uint":
		return KindUint, nil
	case "string":
		return KindString, nil
	case "color":
		return KindColor, nil
	}
	return 0, fmt.Errorf("unknown type %q", name)
}

// Value is the closed set of attribute payloads.
type Value interface {
	Kind() Kind
	String() string
	Equal(other Value) bool
	isValue()
}

type BoolValue bool

func (BoolValue) Kind() Kind { return KindBool }
func (v BoolValue) String() string {
	if v {
		return "true"
	}
	return "false"
}
func (v BoolValue) Equal(o Value) bool { w, ok := o.(BoolValue); return ok && v == w }
func (BoolValue) isValue()             {}

type IntValue int64

func (IntValue) Kind() Kind           { return KindInt }
func (v IntValue) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v IntValue) Equal(o Value) bool { w, ok := o.(IntValue); return ok && v == w }
func (IntValue) isValue()             {}

type UintValue uint64

func (UintValue) Kind() Kind           { return KindUint }
func (v UintValue) String() string     { return strconv.FormatUint(uint64(v), 10) }
func (v UintValue) Equal(o Value) bool { w, ok := o.(UintValue); return ok && v == w }
func (UintValue) isValue()             {}

type StringValue string

func (StringValue) Kind() Kind           { return KindString }
func (v StringValue) String() string     { return string(v) }
func (v StringValue) Equal(o Value) bool { w, ok := o.(StringValue); return ok && v == w }
func (StringValue) isValue()             {}

// Parse converts s into a value of kind k. current is the value being
// replaced; only the bool keyword "toggle" consults it.
func Parse(k Kind, s string, current Value) (Value, error) {
	switch k {
	case KindBool:
		old, _ := current.(BoolValue)
		b, err := parseBool(s, bool(old))
		if err != nil {
			return nil, &ParseError{Kind: k, Input: s}
		}
		return BoolValue(b), nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &ParseError{Kind: k, Input: s}
		}
		return IntValue(n), nil
	case KindUint:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, &ParseError{Kind: k, Input: s}
		}
		return UintValue(n), nil
	case KindString:
		return StringValue(s), nil
	case KindColor:
		c, err := ParseColor(s)
		if err != nil {
			return nil, &ParseError{Kind: k, Input: s, Err: err}
		}
		return c, nil
	default:
		return nil, &ParseError{Kind: k, Input: s, Err: fmt.Errorf("%s values are computed", k)}
	}
}

func parseBool(s string, old bool) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "on", "1", "yes":
		return true, nil
	case "false", "off", "0", "no":
		return false, nil
	case "toggle":
		return !old, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ParseBool accepts the same spellings as a bool attribute write.
func ParseBool(s string, old bool) (bool, error) { return parseBool(s, old) }

// Zero is the initial value of a freshly created user attribute.
func Zero(k Kind) Value {
	switch k {
	case KindBool:
		return BoolValue(false)
	case KindInt:
		return IntValue(0)
	case KindUint:
		return UintValue(0)
	case KindColor:
		c, _ := ParseColor("#000000")
		return c
	default:
		return StringValue("")
	}
}
