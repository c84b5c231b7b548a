package render

import (
	"fmt"
	"strconv"
	"strings"

	"admissions/pkg/types"
)

// Value is what a user entered for one field. Only one of the members is meaningful,
// depending on the field type.
type Value struct {
	Text   string   `json:"text,omitempty"`
	List   []string `json:"list,omitempty"`
	Rating int      `json:"rating,omitempty"`
}

// Values maps field name to the entered value.
type Values map[string]Value

// FileUpload is a picked file held until the application is submitted.
type FileUpload struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Files maps field name to a picked file.
type Files map[string]FileUpload

// ExistingFile is a file already stored for the record being edited.
type ExistingFile struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

type ExistingFiles map[string]ExistingFile

// String flattens the value for display and emptiness checks.
func (v Value) String() string {
	switch {
	case len(v.List) > 0:
		return strings.Join(v.List, ", ")
	case v.Rating > 0:
		return strconv.Itoa(v.Rating)
	default:
		return v.Text
	}
}

func (v Value) IsEmpty() bool {
	return strings.TrimSpace(v.String()) == ""
}

// Has reports whether option is the value or part of it.
func (v Value) Has(option string) bool {
	if v.Text == option {
		return true
	}
	for _, item := range v.List {
		if item == option {
			return true
		}
	}
	return false
}

// Payload returns the JSON value sent to the backend for a field.
func (v Value) Payload(fieldType types.FieldType) any {
	switch {
	case fieldType == types.FieldTypeRating:
		if v.Rating == 0 {
			return ""
		}
		return v.Rating
	case v.List != nil:
		return append([]string(nil), v.List...)
	default:
		return v.Text
	}
}

// FromData converts stored application data back into renderer values. File fields are
// returned separately with the stored filename.
func FromData(fields []types.FieldSchema, data map[string]any) (Values, ExistingFiles) {
	values := make(Values, len(fields))
	existing := make(ExistingFiles)

	for _, f := range fields {
		raw, ok := data[f.FieldName]
		if !ok || raw == nil {
			continue
		}

		if f.FieldType == types.FieldTypeFile {
			if name := fmt.Sprint(raw); strings.TrimSpace(name) != "" {
				existing[f.FieldName] = ExistingFile{FileName: name}
			}
			continue
		}

		switch typed := raw.(type) {
		case string:
			if f.FieldType == types.FieldTypeRating {
				n, _ := strconv.Atoi(typed)
				values[f.FieldName] = Value{Rating: n}
				continue
			}
			values[f.FieldName] = Value{Text: typed}
		case float64:
			if f.FieldType == types.FieldTypeRating {
				values[f.FieldName] = Value{Rating: int(typed)}
				continue
			}
			values[f.FieldName] = Value{Text: strconv.FormatFloat(typed, 'f', -1, 64)}
		case int:
			values[f.FieldName] = Value{Rating: typed}
		case []string:
			values[f.FieldName] = Value{List: append([]string(nil), typed...)}
		case []any:
			list := make([]string, 0, len(typed))
			for _, item := range typed {
				list = append(list, fmt.Sprint(item))
			}
			values[f.FieldName] = Value{List: list}
		case bool:
			values[f.FieldName] = Value{Text: strconv.FormatBool(typed)}
		default:
			values[f.FieldName] = Value{Text: fmt.Sprint(typed)}
		}
	}

	return values, existing
}
