package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names of T's "db" tags in field order.
// Embedded structs are flattened. Call it once at repository construction.
//
// Usage:
//
//	columns := ExtractDBColumns[annotation.Annotation]()
//	// Returns: ["id", "document_id", "page_number", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	meta := typeMetadataOf(t)
	if meta == nil {
		return nil
	}
	var cols []string
	for _, f := range meta.fields {
		if f.embedded {
			cols = append(cols, columnsOf(f.typ)...)
			continue
		}
		cols = append(cols, f.column)
	}
	return cols
}

// fieldInfo describes one tagged or embedded struct field.
type fieldInfo struct {
	index    int
	column   string
	embedded bool
	typ      reflect.Type
}

type typeMetadata struct {
	fields []fieldInfo
}

// typeCache maps reflect.Type to *typeMetadata.
var typeCache sync.Map

// typeMetadataOf returns the cached field layout of t, or nil for non-structs.
func typeMetadataOf(t reflect.Type) *typeMetadata {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			meta.fields = append(meta.fields, fieldInfo{index: i, embedded: true, typ: field.Type})
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: i, column: tag, typ: field.Type})
	}

	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

// StructToMap converts a struct (or pointer to struct) to a column map using
// its "db" tags. Untagged and "-" fields are skipped; embedded structs are
// flattened.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	meta := typeMetadataOf(rv.Type())
	if meta == nil {
		return nil
	}

	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		fv := rv.Field(f.index)
		if !f.embedded {
			res[f.column] = fv.Interface()
			continue
		}
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			continue
		}
		for k, v := range StructToMap(fv.Interface()) {
			res[k] = v
		}
	}
	return res
}
