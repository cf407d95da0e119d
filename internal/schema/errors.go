package schema

import "fmt"

// SchemaNotFoundError is returned by Get for a record type that was never
// registered.
type SchemaNotFoundError struct {
	Type RecordType
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("schema: record type %q is not registered", e.Type)
}

// TableMissingError is returned by Register when a definition carries no
// table metadata.
type TableMissingError struct {
	Type RecordType
}

func (e *TableMissingError) Error() string {
	return fmt.Sprintf("schema: record type %q has no table metadata", e.Type)
}

// FieldsMissingError is returned by Register when a definition declares no
// fields.
type FieldsMissingError struct {
	Type RecordType
}

func (e *FieldsMissingError) Error() string {
	return fmt.Sprintf("schema: record type %q declares no fields", e.Type)
}

// InvalidFieldError reports a malformed field declaration.
type InvalidFieldError struct {
	Type   RecordType
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("schema: %s.%s: %s", e.Type, e.Field, e.Reason)
}

// UnknownVisibilityError reports an unrecognised context name.
type UnknownVisibilityError struct {
	Name string
}

func (e *UnknownVisibilityError) Error() string {
	return fmt.Sprintf("schema: unknown visibility %q", e.Name)
}
