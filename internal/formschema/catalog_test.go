package formschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/pkg/types"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []string{SectionPersonalDetails, "Parent Details", "Address Details"}, c.Sections(types.CategoryPersonal))
	assert.Equal(t, []string{"10th Details", "12th Details", "Graduation Details"}, c.Sections(types.CategoryEducation))

	first, ok := c.Lookup(types.CategoryPersonal, "personal details", "FIRST NAME")
	require.True(t, ok)
	assert.Equal(t, types.FieldTypeText, first.FieldType)
	assert.True(t, first.Required)
	assert.Equal(t, 50, first.MaxLength)

	_, ok = c.Lookup(types.CategoryEducation, SectionPersonalDetails, "First Name")
	assert.False(t, ok)

	assert.Empty(t, c.Templates(types.CategoryPersonal, "Hostel"))
}

func TestNewCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		defs map[types.Category][]CatalogSection
	}{
		{
			name: "unknown category",
			defs: map[types.Category][]CatalogSection{"Sports": {{Name: "S"}}},
		},
		{
			name: "blank section",
			defs: map[types.Category][]CatalogSection{types.CategoryPersonal: {{Name: "  "}}},
		},
		{
			name: "duplicate section",
			defs: map[types.Category][]CatalogSection{types.CategoryPersonal: {{Name: "A"}, {Name: "a"}}},
		},
		{
			name: "choice type without options",
			defs: map[types.Category][]CatalogSection{types.CategoryPersonal: {{
				Name:      "A",
				Templates: []Template{{FieldName: "Gender", FieldType: types.FieldTypeRadiobutton}},
			}}},
		},
		{
			name: "duplicate field",
			defs: map[types.Category][]CatalogSection{types.CategoryPersonal: {{
				Name: "A",
				Templates: []Template{
					{FieldName: "City", FieldType: types.FieldTypeText},
					{FieldName: "city", FieldType: types.FieldTypeText},
				},
			}}},
		},
		{
			name: "unknown type",
			defs: map[types.Category][]CatalogSection{types.CategoryPersonal: {{
				Name:      "A",
				Templates: []Template{{FieldName: "Blob", FieldType: "blob"}},
			}}},
		},
		{
			name: "negative max length",
			defs: map[types.Category][]CatalogSection{types.CategoryPersonal: {{
				Name:      "A",
				Templates: []Template{{FieldName: "City", FieldType: types.FieldTypeText, MaxLength: -1}},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.defs)
			assert.Error(t, err)
		})
	}
}

func TestNewCatalog_CopiesOptions(t *testing.T) {
	opts := []string{"Yes", "No"}
	c, err := NewCatalog(map[types.Category][]CatalogSection{
		types.CategoryPersonal: {{Name: "A", Templates: []Template{{FieldName: "Hostel", FieldType: types.FieldTypeSelect, Options: opts}}}},
	})
	require.NoError(t, err)

	opts[0] = "Changed"
	tmpl, ok := c.Lookup(types.CategoryPersonal, "A", "Hostel")
	require.True(t, ok)
	assert.Equal(t, []string{"Yes", "No"}, tmpl.Options)
}

func TestCheckMandatory(t *testing.T) {
	email := types.FieldSchema{Category: types.CategoryPersonal, SectionName: SectionPersonalDetails, FieldName: FieldEmailAddress, Required: true}
	contact := types.FieldSchema{Category: types.CategoryPersonal, SectionName: SectionPersonalDetails, FieldName: FieldContactNumber, Required: true}

	assert.NoError(t, CheckMandatory([]types.FieldSchema{email, contact}))

	wrongSection := contact
	wrongSection.SectionName = "Parent Details"
	err := CheckMandatory([]types.FieldSchema{email, wrongSection})
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	wrongCategory := email
	wrongCategory.Category = types.CategoryEducation
	assert.Error(t, CheckMandatory([]types.FieldSchema{wrongCategory, contact}))

	err = CheckMandatory(nil)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldEmailAddress+","+FieldContactNumber, verr.Field)
}

func TestFromDocument(t *testing.T) {
	assert.Empty(t, FromDocument(nil))

	doc := &types.FormDocument{
		InstituteID: "inst-1",
		PersonalDetails: []types.Section{{
			SectionName: SectionPersonalDetails,
			Fields:      []types.FieldDescriptor{{Label: "Nick", Type: types.FieldTypeText}},
		}},
		EducationDetails: []types.Section{{
			SectionName: "Ratings",
			Fields:      []types.FieldDescriptor{{FieldName: "Interview", Label: "Interview", Type: types.FieldTypeRating, Required: true}},
		}},
	}

	fields := FromDocument(doc)
	require.Len(t, fields, 2)
	assert.Equal(t, "Nick", fields[0].FieldName, "label is used when the name is missing")
	assert.Equal(t, types.CategoryPersonal, fields[0].Category)
	assert.Equal(t, types.CategoryEducation, fields[1].Category)
	assert.Equal(t, types.FieldTypeRating, fields[1].FieldType)
	assert.NotEqual(t, fields[0].ID, fields[1].ID)

	again := FromDocument(doc)
	assert.NotEqual(t, fields[0].ID, again[0].ID, "ids are regenerated on every load")
}
