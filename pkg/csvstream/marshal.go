package csvstream

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
)

var marshalBufferPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

func getMarshalBuffer() *bytes.Buffer {
	buf := marshalBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putMarshalBuffer(buf *bytes.Buffer) {
	if buf.Cap() < 64*1024 {
		marshalBufferPool.Put(buf)
	}
}

// Marshal returns the CSV encoding of v, the inverse of Unmarshal's struct
// path. v must be a slice of structs (or pointers to structs); fields are
// named via the same csv tag getFieldInfo resolves for Unmarshal, and the
// header row is sorted alphabetically for deterministic output. Marshal
// writes with DefaultWriterOptions; use MarshalWithOptions to control the
// delimiter or line ending, or MarshalWithAdvancedOptions to also apply an
// AdvancedOptions escape mode.
func Marshal(v interface{}) ([]byte, error) {
	return marshal(v, DefaultWriterOptions(), nil)
}

// MarshalWithOptions is Marshal with an explicit WriterOptions dialect.
func MarshalWithOptions(v interface{}, opts WriterOptions) ([]byte, error) {
	return marshal(v, opts, nil)
}

// MarshalWithAdvancedOptions is Marshal with both an explicit WriterOptions
// dialect and AdvancedOptions: every string-kind field is passed through
// EscapeForOutput before quoting, so EscapeModeBackslash output round-trips
// through UnmarshalWithOptions/ApplyEscapeMode.
func MarshalWithAdvancedOptions(v interface{}, wopts WriterOptions, aopts AdvancedOptions) ([]byte, error) {
	return marshal(v, wopts, &aopts)
}

func marshal(v interface{}, opts WriterOptions, aopts *AdvancedOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || v == nil {
		return nil, fmt.Errorf("csvstream: Marshal(nil)")
	}
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csvstream: Marshal expects a slice, got %s", rv.Type())
	}
	if rv.Len() == 0 {
		return []byte{}, nil
	}

	elemType := rv.Type().Elem()
	structType := elemType
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("csvstream: Marshal expects a slice of structs, got slice of %s", structType)
	}

	type fieldEntry struct {
		name      string
		index     int
		omitEmpty bool
	}
	var fields []fieldEntry
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.PkgPath != "" {
			continue
		}
		info := getFieldInfo(field)
		if info.skip {
			continue
		}
		fields = append(fields, fieldEntry{name: info.name, index: i, omitEmpty: info.omitEmpty})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })

	buf := getMarshalBuffer()
	defer putMarshalBuffer(buf)

	newline := "\n"
	if opts.UseCRLF {
		newline = "\r\n"
	}
	comma := byte(opts.Comma)

	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(comma)
		}
		writeMarshalField(buf, f.name, comma)
	}
	buf.WriteString(newline)

	for rowIdx := 0; rowIdx < rv.Len(); rowIdx++ {
		row := rv.Index(rowIdx)
		if row.Kind() == reflect.Ptr {
			if row.IsNil() {
				continue
			}
			row = row.Elem()
		}
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(comma)
			}
			fieldVal := row.Field(f.index)
			if f.omitEmpty && fieldVal.Kind() != reflect.Invalid && isZero(fieldVal) {
				continue
			}
			s, err := marshalFieldValue(fieldVal)
			if err != nil {
				return nil, fmt.Errorf("csvstream: field %s: %w", f.name, err)
			}
			if aopts != nil && fieldVal.Kind() == reflect.String {
				s = EscapeForOutput(s, *aopts)
			}
			writeMarshalField(buf, s, comma)
		}
		buf.WriteString(newline)
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func marshalFieldValue(rv reflect.Value) (string, error) {
	if !rv.IsValid() {
		return "", nil
	}
	if rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", nil
		}
		return marshalFieldValue(rv.Elem())
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.String {
			strs := make([]string, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				strs[i] = rv.Index(i).String()
			}
			return JoinField(strs, MultiValueSeparator), nil
		}
		return "", fmt.Errorf("unsupported type %s", rv.Type())
	default:
		return "", fmt.Errorf("unsupported type %s", rv.Type())
	}
}

func isZero(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

// writeMarshalField writes one CSV field, quoting it when it contains comma,
// quote, or a line ending.
func writeMarshalField(buf *bytes.Buffer, value string, comma byte) {
	needsQuoting := false
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case comma, '"', '\n', '\r':
			needsQuoting = true
		}
	}
	if !needsQuoting {
		buf.WriteString(value)
		return
	}
	buf.WriteByte('"')
	for i := 0; i < len(value); i++ {
		if value[i] == '"' {
			buf.WriteString(`""`)
		} else {
			buf.WriteByte(value[i])
		}
	}
	buf.WriteByte('"')
}
