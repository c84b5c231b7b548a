package render

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"

	"admissions/pkg/types"
)

// CheckboxMode decides how a checkbox group's posted options become the field value.
type CheckboxMode int

const (
	// CheckboxLastWins keeps only the last checked option as a plain string, which is the
	// shape existing application records carry.
	CheckboxLastWins CheckboxMode = iota
	// CheckboxAccumulate keeps every checked option as a list.
	CheckboxAccumulate
)

type ReadOptions struct {
	Checkbox     CheckboxMode
	MaxFileBytes int64
}

// ReadForm reads the posted inputs of fields into values and newly picked files.
// Fields without a posted file are absent from the returned Files.
func ReadForm(form url.Values, uploads map[string][]*multipart.FileHeader, fields []types.FieldSchema, opts ReadOptions) (Values, Files, error) {
	values := make(Values, len(fields))
	files := make(Files)

	for _, f := range fields {
		name := InputName(f.FieldName)

		switch f.FieldType {
		case types.FieldTypeTextOnly:
			continue

		case types.FieldTypeFile:
			headers := uploads[name]
			if len(headers) == 0 || headers[0].Filename == "" {
				continue
			}
			upload, err := readUpload(f.FieldName, headers[0], opts.MaxFileBytes)
			if err != nil {
				return nil, nil, err
			}
			files[f.FieldName] = upload

		case types.FieldTypeCheckbox:
			checked := form[name]
			if len(checked) == 0 {
				values[f.FieldName] = Value{}
				continue
			}
			if opts.Checkbox == CheckboxAccumulate {
				values[f.FieldName] = Value{List: append([]string(nil), checked...)}
				continue
			}
			values[f.FieldName] = Value{Text: checked[len(checked)-1]}

		case types.FieldTypeRating:
			n, err := strconv.Atoi(strings.TrimSpace(form.Get(name)))
			if err != nil || n < 1 || n > RatingScale {
				values[f.FieldName] = Value{}
				continue
			}
			values[f.FieldName] = Value{Rating: n}

		default:
			values[f.FieldName] = Value{Text: form.Get(name)}
		}
	}

	return values, files, nil
}

func readUpload(fieldName string, header *multipart.FileHeader, maxBytes int64) (FileUpload, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return FileUpload{}, tooLarge(fieldName, maxBytes)
	}

	file, err := header.Open()
	if err != nil {
		return FileUpload{}, fmt.Errorf("open upload %s: %w", fieldName, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return FileUpload{}, fmt.Errorf("read upload %s: %w", fieldName, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return FileUpload{}, tooLarge(fieldName, maxBytes)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return FileUpload{FileName: header.Filename, ContentType: contentType, Data: data}, nil
}

func tooLarge(fieldName string, maxBytes int64) error {
	return types.NewValidationError(fieldName, fmt.Sprintf("%s must be smaller than %d MB", fieldName, maxBytes>>20))
}
