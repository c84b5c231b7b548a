package types

type Category string

const (
	CategoryPersonal  Category = "Personal"
	CategoryEducation Category = "Education"
)

var Categories = []Category{CategoryPersonal, CategoryEducation}

func (c Category) Valid() bool {
	return c == CategoryPersonal || c == CategoryEducation
}

type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeEmail       FieldType = "email"
	FieldTypeDate        FieldType = "date"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeSelect      FieldType = "select"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeRadiobutton FieldType = "radiobutton"
	FieldTypeFile        FieldType = "file"

	// Only produced by documents authored outside the builder.
	FieldTypeRating   FieldType = "rating"
	FieldTypeTextOnly FieldType = "textonly"
)

// BuilderFieldTypes are the types an operator can pick for a custom field.
var BuilderFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeEmail,
	FieldTypeDate,
	FieldTypeTextarea,
	FieldTypeSelect,
	FieldTypeCheckbox,
	FieldTypeRadiobutton,
	FieldTypeFile,
}

func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeEmail, FieldTypeDate, FieldTypeTextarea,
		FieldTypeSelect, FieldTypeCheckbox, FieldTypeRadiobutton, FieldTypeFile,
		FieldTypeRating, FieldTypeTextOnly:
		return true
	}
	return false
}

// HasOptions reports whether the type needs a non-empty option list.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeCheckbox || t == FieldTypeRadiobutton
}

// AcceptsMaxLength reports whether a max length is rendered for the type.
func (t FieldType) AcceptsMaxLength() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeEmail, FieldTypeTextarea:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityYes Visibility = "Yes"
	VisibilityNo  Visibility = "No"
)

// FieldSchema is the in-memory projection of one configured field. ID, Category and
// Visibility are not persisted and are regenerated when a document is loaded.
type FieldSchema struct {
	ID          string     `json:"id"`
	Category    Category   `json:"category"`
	SectionName string     `json:"sectionName"`
	FieldType   FieldType  `json:"fieldType"`
	FieldName   string     `json:"fieldName"`
	Required    bool       `json:"required"`
	Visibility  Visibility `json:"visibility"`
	Options     []string   `json:"options,omitempty"`
	MaxLength   *int       `json:"maxLength,omitempty"`
}

type FieldDescriptor struct {
	FieldName string    `json:"fieldName"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"`
	MaxLength *int      `json:"maxLength,omitempty"`
	Multiple  bool      `json:"multiple"`
}

type Section struct {
	SectionName string            `json:"sectionName"`
	Fields      []FieldDescriptor `json:"fields"`
}

// FormDocument is the persisted, per-institute form configuration.
type FormDocument struct {
	InstituteID      string    `json:"instituteId"`
	PersonalDetails  []Section `json:"personalDetails"`
	EducationDetails []Section `json:"educationDetails"`
}

func (d *FormDocument) Sections(category Category) []Section {
	if d == nil {
		return nil
	}
	if category == CategoryEducation {
		return d.EducationDetails
	}
	return d.PersonalDetails
}
