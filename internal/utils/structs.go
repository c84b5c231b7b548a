package utils

import (
	"reflect"
	"slices"
	"strings"
)

var ColumnTag = "db"

// StructTagValues lists the column names of input's exported, tagged fields in declaration
// order, skipping any named in omit.
func StructTagValues(input any, omit ...string) []string {
	result := make([]string, 0)
	eachColumn(input, omit, func(column string, _ reflect.Value) {
		result = append(result, column)
	})
	return result
}

// StructToMap maps column names to field values, ready for squirrel's SetMap.
func StructToMap(input any, omit ...string) map[string]any {
	result := make(map[string]any)
	eachColumn(input, omit, func(column string, value reflect.Value) {
		result[column] = value.Interface()
	})
	return result
}

// ExcludedSet renders the SET list of an ON CONFLICT DO UPDATE clause that takes every
// column from the rejected row.
func ExcludedSet(columns ...string) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, c+" = EXCLUDED."+c)
	}
	return strings.Join(parts, ", ")
}

func eachColumn(input any, omit []string, fn func(column string, value reflect.Value)) {
	value := reflect.ValueOf(input)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	typ := value.Type()
	for i := 0; i < value.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get(ColumnTag)
		if column == "" || column == "-" || slices.Contains(omit, column) {
			continue
		}

		fn(column, value.Field(i))
	}
}
