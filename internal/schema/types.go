package schema

import "fmt"

// WireType classifies the backend's typed value envelope for a field. It
// drives both the condition compiler's value-shape expectations and the
// default form control.
type WireType int

const (
	WireDouble WireType = iota
	WireFloat
	WireInt64
	WireUInt64
	WireInt32
	WireUInt32
	WireBool
	WireString
	WireDate
	WireDateTime
	WireSimpleArray
	WireSimpleMap
	WireObjectArray
	WireObjectMap
)

var wireTypeNames = [...]string{
	WireDouble:      "DoubleValue",
	WireFloat:       "FloatValue",
	WireInt64:       "Int64Value",
	WireUInt64:      "UInt64Value",
	WireInt32:       "Int32Value",
	WireUInt32:      "UInt32Value",
	WireBool:        "BoolValue",
	WireString:      "StringValue",
	WireDate:        "Date",
	WireDateTime:    "DateTime",
	WireSimpleArray: "SimpleArray",
	WireSimpleMap:   "SimpleMap",
	WireObjectArray: "ObjectArray",
	WireObjectMap:   "ObjectMap",
}

// String returns the declaration name of the wire type.
func (wt WireType) String() string {
	if wt >= 0 && int(wt) < len(wireTypeNames) {
		return wireTypeNames[wt]
	}
	return "unknown"
}

// ParseWireType resolves a declaration name such as "Int32Value" or "Date".
func ParseWireType(name string) (WireType, error) {
	for i, n := range wireTypeNames {
		if n == name {
			return WireType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown wire type %q", name)
}

// Numeric reports whether values of this type are JSON numbers.
func (wt WireType) Numeric() bool {
	switch wt {
	case WireDouble, WireFloat, WireInt64, WireUInt64, WireInt32, WireUInt32:
		return true
	default:
		return false
	}
}

// Temporal reports whether the type is a calendar date or an instant.
func (wt WireType) Temporal() bool {
	return wt == WireDate || wt == WireDateTime
}

// Structured reports whether the type holds nested values (arrays, maps,
// nested records). Structured fields are displayed and edited but never
// searched.
func (wt WireType) Structured() bool {
	switch wt {
	case WireSimpleArray, WireSimpleMap, WireObjectArray, WireObjectMap:
		return true
	default:
		return false
	}
}

// Operator is the comparison applied by single-value conditions.
type Operator string

const (
	OpEQ      Operator = "EQ"
	OpNE      Operator = "NE"
	OpGT      Operator = "GT"
	OpGTE     Operator = "GTE"
	OpLT      Operator = "LT"
	OpLTE     Operator = "LTE"
	OpLike    Operator = "Like"
	OpNotLike Operator = "NotLike"
	OpNull    Operator = "Null"
	OpNotNull Operator = "NotNull"
)

// Valid reports whether op is one of the declared operators.
func (op Operator) Valid() bool {
	switch op {
	case OpEQ, OpNE, OpGT, OpGTE, OpLT, OpLTE, OpLike, OpNotLike, OpNull, OpNotNull:
		return true
	default:
		return false
	}
}

// Multi is the multiplicity of a search condition.
type Multi string

const (
	NoMulti    Multi = "NoMulti"
	Between    Multi = "Between"
	NotBetween Multi = "NotBetween"
	In         Multi = "In"
	NotIn      Multi = "NotIn"
)

// Valid reports whether m is one of the declared multiplicities.
func (m Multi) Valid() bool {
	switch m {
	case NoMulti, Between, NotBetween, In, NotIn:
		return true
	default:
		return false
	}
}

// Wildcard controls how a Like/NotLike value is anchored by the backend.
type Wildcard string

const (
	NoWildcard Wildcard = "NoWildcard"
	Contains   Wildcard = "Contains"
	StartsWith Wildcard = "StartsWith"
	EndsWith   Wildcard = "EndsWith"
)

// Valid reports whether w is one of the declared wildcard modes.
func (w Wildcard) Valid() bool {
	switch w {
	case NoWildcard, Contains, StartsWith, EndsWith:
		return true
	default:
		return false
	}
}

// ControlType is the form control used to edit or search a field.
type ControlType int

const (
	ControlText ControlType = iota
	ControlTextDigit
	ControlTextPassword
	ControlTextArea
	ControlSelect
	ControlDateRangePicker
	ControlDateTimeRangePicker
	ControlFormSet
	ControlFormList
)

var controlTypeNames = [...]string{
	ControlText:                "text",
	ControlTextDigit:           "digit",
	ControlTextPassword:        "password",
	ControlTextArea:            "textarea",
	ControlSelect:              "select",
	ControlDateRangePicker:     "dateRange",
	ControlDateTimeRangePicker: "dateTimeRange",
	ControlFormSet:             "formSet",
	ControlFormList:            "formList",
}

func (ct ControlType) String() string {
	if ct >= 0 && int(ct) < len(controlTypeNames) {
		return controlTypeNames[ct]
	}
	return "unknown"
}

// ParseControlType resolves a control name such as "textarea".
func ParseControlType(name string) (ControlType, error) {
	for i, n := range controlTypeNames {
		if n == name {
			return ControlType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown control type %q", name)
}

// DefaultControl returns the control a field of type wt gets when no hint
// is declared.
func DefaultControl(wt WireType) ControlType {
	switch wt {
	case WireDouble, WireFloat, WireInt32, WireUInt32, WireInt64, WireUInt64:
		return ControlTextDigit
	case WireBool:
		return ControlSelect
	case WireDate:
		return ControlDateRangePicker
	case WireDateTime:
		return ControlDateTimeRangePicker
	case WireSimpleArray:
		return ControlFormSet
	case WireSimpleMap, WireObjectArray, WireObjectMap:
		return ControlFormList
	default:
		return ControlText
	}
}
