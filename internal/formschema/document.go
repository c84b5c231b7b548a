package formschema

import (
	"fmt"
	"strings"

	"admissions/internal/utils"
	"admissions/pkg/types"
)

const (
	SectionPersonalDetails = "Personal Details"
	FieldEmailAddress      = "Email Address"
	FieldContactNumber     = "Contact Number"
)

// ToDocument groups a flat field list into the persisted shape. Sections keep the order in
// which they first appear in the list, and fields keep their list order within a section.
func ToDocument(instituteID string, fields []types.FieldSchema) *types.FormDocument {
	return &types.FormDocument{
		InstituteID:      instituteID,
		PersonalDetails:  groupSections(fields, types.CategoryPersonal),
		EducationDetails: groupSections(fields, types.CategoryEducation),
	}
}

func groupSections(fields []types.FieldSchema, category types.Category) []types.Section {
	sections := make([]types.Section, 0)
	index := make(map[string]int)

	for _, f := range fields {
		if f.Category != category {
			continue
		}

		i, ok := index[f.SectionName]
		if !ok {
			i = len(sections)
			index[f.SectionName] = i
			sections = append(sections, types.Section{SectionName: f.SectionName, Fields: []types.FieldDescriptor{}})
		}

		sections[i].Fields = append(sections[i].Fields, types.FieldDescriptor{
			FieldName: f.FieldName,
			Label:     f.FieldName,
			Type:      f.FieldType,
			Required:  f.Required,
			Options:   append([]string(nil), f.Options...),
			MaxLength: copyInt(f.MaxLength),
			Multiple:  false,
		})
	}

	return sections
}

// FromDocument rebuilds the flat list from a persisted document. Ids are freshly generated and
// visibility defaults to Yes, so ids are never stable across a save and reload.
func FromDocument(doc *types.FormDocument) []types.FieldSchema {
	if doc == nil {
		return []types.FieldSchema{}
	}

	fields := make([]types.FieldSchema, 0)
	for _, category := range types.Categories {
		fields = append(fields, CategoryFields(doc, category)...)
	}
	return fields
}

// CategoryFields flattens a single category of a document. Consuming pages use it to split a
// document into its personal and education field lists.
func CategoryFields(doc *types.FormDocument, category types.Category) []types.FieldSchema {
	fields := make([]types.FieldSchema, 0)

	for _, section := range doc.Sections(category) {
		for _, d := range section.Fields {
			name := d.FieldName
			if strings.TrimSpace(name) == "" {
				name = d.Label
			}

			fields = append(fields, types.FieldSchema{
				ID:          utils.FieldID(),
				Category:    category,
				SectionName: section.SectionName,
				FieldType:   d.Type,
				FieldName:   name,
				Required:    d.Required,
				Visibility:  types.VisibilityYes,
				Options:     append([]string(nil), d.Options...),
				MaxLength:   copyInt(d.MaxLength),
			})
		}
	}

	return fields
}

// CheckMandatory enforces that the personal "Personal Details" section carries a required
// Email Address and a required Contact Number.
func CheckMandatory(fields []types.FieldSchema) error {
	var hasEmail, hasContact bool

	for _, f := range fields {
		if f.Category != types.CategoryPersonal || !strings.EqualFold(f.SectionName, SectionPersonalDetails) || !f.Required {
			continue
		}
		switch {
		case strings.EqualFold(f.FieldName, FieldEmailAddress):
			hasEmail = true
		case strings.EqualFold(f.FieldName, FieldContactNumber):
			hasContact = true
		}
	}

	var missing []string
	if !hasEmail {
		missing = append(missing, FieldEmailAddress)
	}
	if !hasContact {
		missing = append(missing, FieldContactNumber)
	}

	if len(missing) == 0 {
		return nil
	}

	return types.NewValidationError(
		strings.Join(missing, ","),
		fmt.Sprintf("%s must include required %s fields (missing: %s)",
			SectionPersonalDetails, FieldEmailAddress+" and "+FieldContactNumber, strings.Join(missing, ", ")),
	)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
