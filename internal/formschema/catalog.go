package formschema

import (
	"fmt"
	"strings"

	"admissions/pkg/types"
)

// Template is a predefined field definition offered by the builder.
type Template struct {
	FieldName string
	FieldType types.FieldType
	Required  bool
	Options   []string
	MaxLength int
}

// CatalogSection is one named group of templates within a category.
type CatalogSection struct {
	Name      string
	Templates []Template
}

// Catalog maps (category, section) to an ordered list of templates. Build one with
// NewCatalog so that the definitions are checked before use.
type Catalog struct {
	sections map[types.Category][]CatalogSection
}

// NewCatalog validates the definitions and returns a catalog that copies them.
func NewCatalog(defs map[types.Category][]CatalogSection) (*Catalog, error) {
	c := &Catalog{sections: make(map[types.Category][]CatalogSection, len(defs))}

	for category, sections := range defs {
		if !category.Valid() {
			return nil, fmt.Errorf("catalog: unknown category %q", category)
		}

		seenSections := make(map[string]bool, len(sections))
		copied := make([]CatalogSection, 0, len(sections))

		for _, section := range sections {
			name := strings.TrimSpace(section.Name)
			if name == "" {
				return nil, fmt.Errorf("catalog: %s has a section without a name", category)
			}
			if seenSections[strings.ToLower(name)] {
				return nil, fmt.Errorf("catalog: %s section %q is defined twice", category, name)
			}
			seenSections[strings.ToLower(name)] = true

			seenFields := make(map[string]bool, len(section.Templates))
			templates := make([]Template, 0, len(section.Templates))
			for _, tmpl := range section.Templates {
				if err := checkTemplate(tmpl); err != nil {
					return nil, fmt.Errorf("catalog: %s / %s: %w", category, name, err)
				}
				key := strings.ToLower(strings.TrimSpace(tmpl.FieldName))
				if seenFields[key] {
					return nil, fmt.Errorf("catalog: %s / %s: field %q is defined twice", category, name, tmpl.FieldName)
				}
				seenFields[key] = true

				tmpl.Options = append([]string(nil), tmpl.Options...)
				templates = append(templates, tmpl)
			}

			copied = append(copied, CatalogSection{Name: name, Templates: templates})
		}

		c.sections[category] = copied
	}

	return c, nil
}

func checkTemplate(t Template) error {
	if strings.TrimSpace(t.FieldName) == "" {
		return fmt.Errorf("template without a field name")
	}
	if !t.FieldType.Known() {
		return fmt.Errorf("field %q has unknown type %q", t.FieldName, t.FieldType)
	}
	if t.FieldType.HasOptions() && len(t.Options) == 0 {
		return fmt.Errorf("field %q of type %s needs options", t.FieldName, t.FieldType)
	}
	if t.MaxLength < 0 {
		return fmt.Errorf("field %q has a negative max length", t.FieldName)
	}
	return nil
}

// Sections returns the section names of a category in catalog order.
func (c *Catalog) Sections(category types.Category) []string {
	names := make([]string, 0, len(c.sections[category]))
	for _, s := range c.sections[category] {
		names = append(names, s.Name)
	}
	return names
}

// Templates returns the templates of a section. Unknown sections (custom ones) have none.
func (c *Catalog) Templates(category types.Category, section string) []Template {
	for _, s := range c.sections[category] {
		if strings.EqualFold(s.Name, section) {
			return s.Templates
		}
	}
	return nil
}

// Lookup finds a template by field name, ignoring case.
func (c *Catalog) Lookup(category types.Category, section, fieldName string) (Template, bool) {
	for _, t := range c.Templates(category, section) {
		if strings.EqualFold(t.FieldName, strings.TrimSpace(fieldName)) {
			return t, true
		}
	}
	return Template{}, false
}

var defaultCatalog = mustCatalog(defaultDefinitions())

// DefaultCatalog is the built-in set of predefined fields shared by every institute.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func mustCatalog(defs map[types.Category][]CatalogSection) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	genders    = []string{"Male", "Female", "Other"}
	categories = []string{"General", "OBC", "SC", "ST", "EWS"}
	boards     = []string{"CBSE", "ICSE", "State Board", "Other"}
	streams    = []string{"Science", "Commerce", "Arts", "Vocational"}
)

func defaultDefinitions() map[types.Category][]CatalogSection {
	return map[types.Category][]CatalogSection{
		types.CategoryPersonal: {
			{
				Name: SectionPersonalDetails,
				Templates: []Template{
					{FieldName: "First Name", FieldType: types.FieldTypeText, Required: true, MaxLength: 50},
					{FieldName: "Middle Name", FieldType: types.FieldTypeText, MaxLength: 50},
					{FieldName: "Last Name", FieldType: types.FieldTypeText, Required: true, MaxLength: 50},
					{FieldName: "Full Name", FieldType: types.FieldTypeText, Required: true, MaxLength: 100},
					{FieldName: FieldEmailAddress, FieldType: types.FieldTypeEmail, Required: true, MaxLength: 100},
					{FieldName: FieldContactNumber, FieldType: types.FieldTypeNumber, Required: true, MaxLength: 10},
					{FieldName: "Alternate Contact Number", FieldType: types.FieldTypeNumber, MaxLength: 10},
					{FieldName: "Date of Birth", FieldType: types.FieldTypeDate, Required: true},
					{FieldName: "Gender", FieldType: types.FieldTypeRadiobutton, Required: true, Options: genders},
					{FieldName: "Category", FieldType: types.FieldTypeSelect, Options: categories},
					{FieldName: "Nationality", FieldType: types.FieldTypeText, MaxLength: 50},
					{FieldName: "Aadhaar Number", FieldType: types.FieldTypeNumber, MaxLength: 12},
					{FieldName: "Photograph", FieldType: types.FieldTypeFile},
				},
			},
			{
				Name: "Parent Details",
				Templates: []Template{
					{FieldName: "Father's Name", FieldType: types.FieldTypeText, Required: true, MaxLength: 100},
					{FieldName: "Father's Occupation", FieldType: types.FieldTypeText, MaxLength: 100},
					{FieldName: "Mother's Name", FieldType: types.FieldTypeText, Required: true, MaxLength: 100},
					{FieldName: "Mother's Occupation", FieldType: types.FieldTypeText, MaxLength: 100},
					{FieldName: "Parent Contact Number", FieldType: types.FieldTypeNumber, Required: true, MaxLength: 10},
					{FieldName: "Parent Email Address", FieldType: types.FieldTypeEmail, MaxLength: 100},
					{FieldName: "Annual Family Income", FieldType: types.FieldTypeNumber, MaxLength: 12},
				},
			},
			{
				Name: "Address Details",
				Templates: []Template{
					{FieldName: "Address", FieldType: types.FieldTypeTextarea, Required: true, MaxLength: 250},
					{FieldName: "City", FieldType: types.FieldTypeText, Required: true, MaxLength: 50},
					{FieldName: "State", FieldType: types.FieldTypeText, Required: true, MaxLength: 50},
					{FieldName: "Pincode", FieldType: types.FieldTypeNumber, Required: true, MaxLength: 6},
					{FieldName: "Country", FieldType: types.FieldTypeText, MaxLength: 50},
				},
			},
		},
		types.CategoryEducation: {
			{
				Name: "10th Details",
				Templates: []Template{
					{FieldName: "10th Board", FieldType: types.FieldTypeSelect, Required: true, Options: boards},
					{FieldName: "10th School Name", FieldType: types.FieldTypeText, Required: true, MaxLength: 100},
					{FieldName: "10th Percentage", FieldType: types.FieldTypeNumber, Required: true, MaxLength: 5},
					{FieldName: "10th Year of Passing", FieldType: types.FieldTypeNumber, Required: true, MaxLength: 4},
					{FieldName: "10th Marksheet", FieldType: types.FieldTypeFile},
				},
			},
			{
				Name: "12th Details",
				Templates: []Template{
					{FieldName: "12th Board", FieldType: types.FieldTypeSelect, Required: true, Options: boards},
					{FieldName: "12th Stream", FieldType: types.FieldTypeSelect, Options: streams},
					{FieldName: "12th School Name", FieldType: types.FieldTypeText, Required: true, MaxLength: 100},
					{FieldName: "12th Percentage", FieldType: types.FieldTypeNumber, Required: true, MaxLength: 5},
					{FieldName: "12th Year of Passing", FieldType: types.FieldTypeNumber, Required: true, MaxLength: 4},
					{FieldName: "12th Marksheet", FieldType: types.FieldTypeFile},
				},
			},
			{
				Name: "Graduation Details",
				Templates: []Template{
					{FieldName: "University Name", FieldType: types.FieldTypeText, MaxLength: 100},
					{FieldName: "Degree", FieldType: types.FieldTypeText, MaxLength: 100},
					{FieldName: "Graduation Percentage", FieldType: types.FieldTypeNumber, MaxLength: 5},
					{FieldName: "Graduation Year of Passing", FieldType: types.FieldTypeNumber, MaxLength: 4},
					{FieldName: "Degree Certificate", FieldType: types.FieldTypeFile},
				},
			},
		},
	}
}
