package validate

import (
	"errors"
	"fmt"
)

// ErrValidation marks a failed validation pass.
var ErrValidation = errors.New("validation failed")

// Field names reported in SchemaViolationError.
const (
	FieldName                 = "name"
	FieldType                 = "type"
	FieldFiles                = "files"
	FieldSourcePath           = "sourcePath"
	FieldFileType             = "files.type"
	FieldTargetPath           = "targetPath"
	FieldDependencies         = "dependencies"
	FieldRegistryDependencies = "registryDependencies"
)

// SchemaViolationError describes one rule an item breaks.
type SchemaViolationError struct {
	Item   string // item name as declared, possibly invalid
	Field  string // one of the Field* constants
	Index  int    // position within a list field, -1 for scalar fields
	Value  string // offending value
	Reason string
}

func (e *SchemaViolationError) Error() string {
	field := e.Field
	if e.Index >= 0 {
		field = fmt.Sprintf("%s[%d]", e.Field, e.Index)
	}
	if e.Value != "" {
		return fmt.Sprintf("item %q: %s %q: %s", e.Item, field, e.Value, e.Reason)
	}
	return fmt.Sprintf("item %q: %s: %s", e.Item, field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any violation.
func (e *SchemaViolationError) Is(target error) bool {
	return target == ErrValidation
}
