package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"admissions/pkg/types"
)

// Mode tells validation whether a record is being created or edited.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

var emailReg = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether v looks like local@domain.tld.
func ValidEmail(v string) bool {
	return emailReg.MatchString(strings.TrimSpace(v))
}

// Validate checks fields in schema order and returns the first failure as a
// *types.ValidationError naming the field. When editing, a file already stored for the
// record satisfies a required file field.
func Validate(fields []types.FieldSchema, values Values, files Files, existing ExistingFiles, mode Mode) error {
	for _, f := range fields {
		if f.Visibility == types.VisibilityNo {
			continue
		}

		switch f.FieldType {
		case types.FieldTypeTextOnly:
			continue

		case types.FieldTypeFile:
			if !f.Required {
				continue
			}
			if upload, ok := files[f.FieldName]; ok && len(upload.Data) > 0 {
				continue
			}
			if mode == ModeEdit && existing[f.FieldName].FileName != "" {
				continue
			}
			return types.NewValidationError(f.FieldName, fmt.Sprintf("%s is required", f.FieldName))
		}

		value := values[f.FieldName]
		if f.Required && value.IsEmpty() {
			return types.NewValidationError(f.FieldName, fmt.Sprintf("%s is required", f.FieldName))
		}

		text := strings.TrimSpace(value.Text)
		if f.Required && f.FieldType == types.FieldTypeEmail && !ValidEmail(text) {
			return types.NewValidationError(f.FieldName, fmt.Sprintf("Enter a valid email for %s", f.FieldName))
		}

		if f.MaxLength != nil && *f.MaxLength > 0 && f.FieldType.AcceptsMaxLength() && utf8.RuneCountInString(value.Text) > *f.MaxLength {
			return types.NewValidationError(f.FieldName, fmt.Sprintf("%s must be at most %d characters", f.FieldName, *f.MaxLength))
		}
	}

	return nil
}
