package csvstream

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/shapestone/streamcsv/internal/rawbuf"
)

// ColumnType represents the expected type of a column.
type ColumnType string

const (
	ColumnTypeString   ColumnType = "string"
	ColumnTypeInt      ColumnType = "int"
	ColumnTypeFloat    ColumnType = "float"
	ColumnTypeBool     ColumnType = "bool"
	ColumnTypeDate     ColumnType = "date"
	ColumnTypeTime     ColumnType = "time"
	ColumnTypeDateTime ColumnType = "datetime"
	ColumnTypeAny      ColumnType = "any"
)

// ColumnDefinition defines the schema for a single column.
type ColumnDefinition struct {
	// Name is the column header name.
	Name string
	// Type is the expected data type.
	Type ColumnType
	// Required indicates if the column must have a value.
	Required bool
	// Default is the default value for empty fields.
	Default string
	// Validator is an optional custom validation function.
	Validator func(value string) error
	// AllowedValues restricts values to a specific set.
	AllowedValues []string
	// MinLength is the minimum string length (0 = no minimum).
	MinLength int
	// MaxLength is the maximum string length (0 = no maximum).
	MaxLength int
}

// Schema defines the expected structure of CSV data.
type Schema struct {
	// Columns defines the expected columns in order.
	Columns []ColumnDefinition
	// AllowExtraColumns permits columns not defined in schema.
	AllowExtraColumns bool
	// AllowMissingColumns permits missing columns from schema.
	AllowMissingColumns bool
	// HeaderRequired indicates if CSV must have a header row.
	HeaderRequired bool
}

// NewSchema creates a new empty schema.
func NewSchema() *Schema {
	return &Schema{
		Columns:         make([]ColumnDefinition, 0),
		HeaderRequired:  true,
		AllowExtraColumns: false,
		AllowMissingColumns: false,
	}
}

// AddColumn adds a column definition to the schema.
func (s *Schema) AddColumn(col ColumnDefinition) *Schema {
	s.Columns = append(s.Columns, col)
	return s
}

// AddSimpleColumn adds a column with just name and type.
func (s *Schema) AddSimpleColumn(name string, colType ColumnType) *Schema {
	return s.AddColumn(ColumnDefinition{
		Name: name,
		Type: colType,
	})
}

// AddRequiredColumn adds a required column with name and type.
func (s *Schema) AddRequiredColumn(name string, colType ColumnType) *Schema {
	return s.AddColumn(ColumnDefinition{
		Name:     name,
		Type:     colType,
		Required: true,
	})
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	// Row is the data row number (1-indexed, -1 for header).
	Row int
	// Column is the column name or index.
	Column string
	// Value is the invalid value.
	Value string
	// Message describes the validation failure.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("header validation error for column %q: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("row %d, column %q: %s (value: %q)", e.Row, e.Column, e.Message, e.Value)
}

// ValidationResult contains all validation errors.
type ValidationResult struct {
	// Valid indicates if validation passed.
	Valid bool
	// Errors contains all validation errors.
	Errors []ValidationError
}

// AddError adds an error to the result.
func (r *ValidationResult) AddError(err ValidationError) {
	r.Errors = append(r.Errors, err)
	r.Valid = false
}

// Error returns the first error message or empty string if valid.
func (r *ValidationResult) Error() string {
	if r.Valid || len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Error()
}

// AllErrors returns all error messages joined by newlines.
func (r *ValidationResult) AllErrors() string {
	if r.Valid || len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateSchema drains r against schema, checking header columns via
// r.ColumnNames() and then every data row via r.Next(), validating each
// column's rawbuf.Field directly with ValidateField instead of materializing
// the row as []string first. When r has no header, ValidateSchema returns
// after the header check without reading any rows; otherwise r is exhausted
// by the time ValidateSchema returns (EOF or the first read error, whichever
// comes first); callers
// that also want the rows should use ReadAll/Next on a separate Reader.
func ValidateSchema(r *Reader, schema *Schema) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}

	header := r.ColumnNames()
	if header == nil {
		if schema.HeaderRequired {
			result.AddError(ValidationError{
				Row:     -1,
				Message: "CSV data has no header row, header required",
			})
		}
		return result, nil
	}

	columnIndex := make(map[string]int, len(header))
	for i, name := range header {
		columnIndex[name] = i
	}

	for _, col := range schema.Columns {
		if _, exists := columnIndex[col.Name]; !exists && !schema.AllowMissingColumns {
			result.AddError(ValidationError{
				Row:     -1,
				Column:  col.Name,
				Message: "required column not found in header",
			})
		}
	}

	if !schema.AllowExtraColumns {
		schemaColumns := make(map[string]bool, len(schema.Columns))
		for _, col := range schema.Columns {
			schemaColumns[col.Name] = true
		}
		for _, name := range header {
			if !schemaColumns[name] {
				result.AddError(ValidationError{
					Row:     -1,
					Column:  name,
					Message: "unexpected column not in schema",
				})
			}
		}
	}

	rowIdx := 0
	for {
		row, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, err
		}
		rowIdx++

		for _, col := range schema.Columns {
			colIdx, exists := columnIndex[col.Name]
			if !exists {
				continue // Already reported as missing
			}

			var value string
			var field rawbuf.Field
			haveField := false
			if colIdx < row.Len() {
				field, _ = row.Get(colIdx)
				value = field.String()
				haveField = true
			}

			if value == "" && col.Default != "" {
				value = col.Default
				haveField = false
			}

			if col.Required && value == "" {
				result.AddError(ValidationError{
					Row:     rowIdx,
					Column:  col.Name,
					Value:   value,
					Message: "required field is empty",
				})
				continue
			}

			if value == "" {
				continue
			}

			var typeErr error
			if haveField {
				typeErr = ValidateField(field, col.Type)
			} else {
				typeErr = validateTypeString(value, col.Type)
			}
			if typeErr != nil {
				result.AddError(ValidationError{
					Row:     rowIdx,
					Column:  col.Name,
					Value:   value,
					Message: typeErr.Error(),
				})
			}

			if len(col.AllowedValues) > 0 {
				found := false
				for _, allowed := range col.AllowedValues {
					if value == allowed {
						found = true
						break
					}
				}
				if !found {
					result.AddError(ValidationError{
						Row:     rowIdx,
						Column:  col.Name,
						Value:   value,
						Message: fmt.Sprintf("value not in allowed set: %v", col.AllowedValues),
					})
				}
			}

			if col.MinLength > 0 && len(value) < col.MinLength {
				result.AddError(ValidationError{
					Row:     rowIdx,
					Column:  col.Name,
					Value:   value,
					Message: fmt.Sprintf("value length %d is less than minimum %d", len(value), col.MinLength),
				})
			}
			if col.MaxLength > 0 && len(value) > col.MaxLength {
				result.AddError(ValidationError{
					Row:     rowIdx,
					Column:  col.Name,
					Value:   value,
					Message: fmt.Sprintf("value length %d exceeds maximum %d", len(value), col.MaxLength),
				})
			}

			if col.Validator != nil {
				if err := col.Validator(value); err != nil {
					result.AddError(ValidationError{
						Row:     rowIdx,
						Column:  col.Name,
						Value:   value,
						Message: err.Error(),
					})
				}
			}
		}
	}
}

// SchemaFromStruct creates a schema from a struct type using csv tags.
func SchemaFromStruct(v interface{}) (*Schema, error) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("SchemaFromStruct requires a struct type, got %s", t.Kind())
	}

	schema := NewSchema()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("csv")
		if tag == "-" {
			continue
		}

		name := field.Name
		parts := strings.Split(tag, ",")
		if len(parts) > 0 && parts[0] != "" {
			name = parts[0]
		}

		col := ColumnDefinition{
			Name: name,
			Type: goTypeToColumnType(field.Type),
		}

		// Parse tag options
		for _, part := range parts[1:] {
			if part == "required" {
				col.Required = true
			}
		}

		schema.AddColumn(col)
	}

	return schema, nil
}

// goTypeToColumnType maps Go types to column types.
func goTypeToColumnType(t reflect.Type) ColumnType {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ColumnTypeInt
	case reflect.Float32, reflect.Float64:
		return ColumnTypeFloat
	case reflect.Bool:
		return ColumnTypeBool
	case reflect.String:
		return ColumnTypeString
	default:
		// Check for time.Time
		if t.String() == "time.Time" {
			return ColumnTypeDateTime
		}
		return ColumnTypeAny
	}
}
