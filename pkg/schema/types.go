package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for checking the kind of a decoded value.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType accepts string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return mismatch(t, value)
	}
	return nil
}

// NonEmptyStringType accepts strings that are not blank after trimming.
type NonEmptyStringType struct{}

func (t *NonEmptyStringType) Name() string { return "string" }

func (t *NonEmptyStringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return mismatch(t, value)
	}
	if strings.TrimSpace(s) == "" {
		return errEmpty
	}
	return nil
}

// NumberType accepts any integer or floating-point value.
// yaml.v3 decodes whole numbers as int, encoding/json as float64.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return mismatch(t, value)
	}
}

// ArrayType accepts slices.
type ArrayType struct{}

func (t *ArrayType) Name() string { return "array" }

func (t *ArrayType) Validate(value any) error {
	if value == nil {
		return mismatch(t, value)
	}
	if k := reflect.TypeOf(value).Kind(); k != reflect.Slice && k != reflect.Array {
		return mismatch(t, value)
	}
	return nil
}

// ObjectType accepts string-keyed maps.
type ObjectType struct{}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return mismatch(t, value)
	}
	return nil
}

// --- Factory Functions ---

// String creates a string type check.
func String() Type { return &StringType{} }

// NonEmptyString creates a check for strings with visible content.
func NonEmptyString() Type { return &NonEmptyStringType{} }

// Number creates a numeric type check.
func Number() Type { return &NumberType{} }

// Array creates an array type check.
func Array() Type { return &ArrayType{} }

// Object creates an object type check.
func Object() Type { return &ObjectType{} }

// kindMismatch is returned by the built-in types when the value has the wrong kind.
type kindMismatch struct {
	expected string
	received string
}

func (e *kindMismatch) Error() string {
	return fmt.Sprintf("Expected %s, received %s", e.expected, e.received)
}

var (
	errEmpty    = errors.New("Must be a non-empty string")
	errRequired = errors.New("Required")
)

func mismatch(t Type, value any) error {
	return &kindMismatch{expected: t.Name(), received: kindOf(value)}
}

// kindOf names the JSON kind of a decoded value.
func kindOf(value any) string {
	if value == nil {
		return "null"
	}
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "number"
	default:
		return reflect.TypeOf(value).String()
	}
}
