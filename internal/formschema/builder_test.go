package formschema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/pkg/types"
)

type MockFormSaver struct {
	SaveFormFunc func(ctx context.Context, doc *types.FormDocument) error
	calls        int
}

func (m *MockFormSaver) SaveForm(ctx context.Context, doc *types.FormDocument) error {
	m.calls++
	if m.SaveFormFunc != nil {
		return m.SaveFormFunc(ctx, doc)
	}
	return nil
}

func requireValidation(t *testing.T, err error, message string) {
	t.Helper()
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, message, verr.Message)
}

func mandatoryBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder("inst-1", DefaultCatalog())
	b.SelectSection(SectionPersonalDetails, "")
	_, err := b.AddPredefinedField(FieldEmailAddress)
	require.NoError(t, err)
	_, err = b.AddPredefinedField(FieldContactNumber)
	require.NoError(t, err)
	return b
}

func TestBuilder_AddPredefinedField(t *testing.T) {
	t.Run("first name from personal details", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		require.NoError(t, b.SelectCategory(types.CategoryPersonal))
		b.SelectSection(SectionPersonalDetails, "")

		field, err := b.AddPredefinedField("First Name")
		require.NoError(t, err)

		require.Len(t, b.Fields, 1)
		assert.Equal(t, "First Name", field.FieldName)
		assert.Equal(t, types.FieldTypeText, field.FieldType)
		assert.True(t, field.Required)
		require.NotNil(t, field.MaxLength)
		assert.Equal(t, 50, *field.MaxLength)
		assert.Equal(t, types.VisibilityYes, field.Visibility)
		assert.Equal(t, types.CategoryPersonal, field.Category)
		assert.NotEmpty(t, field.ID)
	})

	t.Run("no section selected", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		_, err := b.AddPredefinedField("First Name")
		requireValidation(t, err, "Select section")
		assert.Empty(t, b.Fields)
	})

	t.Run("custom sentinel without a name", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		b.SelectSection(CustomSection, "   ")
		_, err := b.AddPredefinedField("First Name")
		requireValidation(t, err, "Select section")
	})

	t.Run("duplicate ignores case", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		b.SelectSection(SectionPersonalDetails, "")
		_, err := b.AddPredefinedField("First Name")
		require.NoError(t, err)

		_, err = b.AddPredefinedField("first name")
		requireValidation(t, err, "Field already exists")
		assert.Len(t, b.Fields, 1)
	})

	t.Run("unknown template", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		b.SelectSection(SectionPersonalDetails, "")
		_, err := b.AddPredefinedField("Favourite Colour")
		requireValidation(t, err, "Field not found in catalog")
	})
}

func TestBuilder_AddCustomField(t *testing.T) {
	t.Run("select without options is rejected", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		require.NoError(t, b.SelectCategory(types.CategoryEducation))
		b.SelectSection("10th Details", "")

		_, err := b.AddCustomField(CustomFieldDraft{FieldName: "Marks", FieldType: "select", Options: ""})
		requireValidation(t, err, "Options are required for select, checkbox and radio button fields")
		assert.Empty(t, b.Fields)
		assert.Equal(t, "Marks", b.Draft.FieldName, "draft is kept for correction")
	})

	t.Run("options of only commas are rejected", func(t *testing.T) {
		for _, ft := range []string{"select", "checkbox", "radiobutton"} {
			b := NewBuilder("inst-1", DefaultCatalog())
			b.SelectSection("Hobbies", "")
			_, err := b.AddCustomField(CustomFieldDraft{FieldName: "Pick", FieldType: ft, Options: " , ,"})
			requireValidation(t, err, "Options are required for select, checkbox and radio button fields")
		}
	})

	t.Run("options are split and trimmed", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		b.SelectSection(CustomSection, "  Hobbies ")

		field, err := b.AddCustomField(CustomFieldDraft{FieldName: "Sports", FieldType: "checkbox", Options: " Cricket, Football ,,Chess "})
		require.NoError(t, err)
		assert.Equal(t, "Hobbies", field.SectionName)
		assert.Equal(t, []string{"Cricket", "Football", "Chess"}, field.Options)
		assert.Equal(t, CustomFieldDraft{}, b.Draft, "draft resets on success")
	})

	t.Run("max length kept only for text number email", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		b.SelectSection("Extra", "")

		text, err := b.AddCustomField(CustomFieldDraft{FieldName: "Nickname", FieldType: "text", MaxLength: "20"})
		require.NoError(t, err)
		require.NotNil(t, text.MaxLength)
		assert.Equal(t, 20, *text.MaxLength)

		area, err := b.AddCustomField(CustomFieldDraft{FieldName: "About", FieldType: "textarea", MaxLength: "200"})
		require.NoError(t, err)
		assert.Nil(t, area.MaxLength)
	})

	t.Run("missing name, type and section", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		_, err := b.AddCustomField(CustomFieldDraft{FieldType: "text"})
		requireValidation(t, err, "Enter field name")

		_, err = b.AddCustomField(CustomFieldDraft{FieldName: "X"})
		requireValidation(t, err, "Select field type")

		_, err = b.AddCustomField(CustomFieldDraft{FieldName: "X", FieldType: "text"})
		requireValidation(t, err, "Select section")
	})

	t.Run("same name allowed in another section", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		b.SelectSection("A", "")
		_, err := b.AddCustomField(CustomFieldDraft{FieldName: "Notes", FieldType: "text"})
		require.NoError(t, err)

		b.SelectSection("B", "")
		_, err = b.AddCustomField(CustomFieldDraft{FieldName: "NOTES", FieldType: "text"})
		require.NoError(t, err)

		_, err = b.AddCustomField(CustomFieldDraft{FieldName: "notes", FieldType: "date"})
		requireValidation(t, err, "Field already exists")
		assert.Len(t, b.Fields, 2)
	})
}

func TestBuilder_SelectCategoryKeepsFields(t *testing.T) {
	b := mandatoryBuilder(t)
	require.NoError(t, b.SelectCategory(types.CategoryEducation))
	assert.Len(t, b.Fields, 2)
	assert.Equal(t, "", b.EffectiveSection())

	requireValidation(t, b.SelectCategory("Sports"), "Select a category")
}

func TestBuilder_RemoveField(t *testing.T) {
	b := mandatoryBuilder(t)
	id := b.Fields[0].ID

	b.RemoveField(id)
	require.Len(t, b.Fields, 1)
	assert.Equal(t, FieldContactNumber, b.Fields[0].FieldName)

	b.RemoveField("missing")
	assert.Len(t, b.Fields, 1)
}

func TestBuilder_Save(t *testing.T) {
	t.Run("mandatory pair missing never calls the saver", func(t *testing.T) {
		b := NewBuilder("inst-1", DefaultCatalog())
		b.SelectSection(SectionPersonalDetails, "")
		_, err := b.AddPredefinedField(FieldEmailAddress)
		require.NoError(t, err)

		saver := &MockFormSaver{}
		_, err = b.Save(context.Background(), saver, "inst-1")
		var verr *types.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, FieldContactNumber, verr.Field)
		assert.Contains(t, verr.Message, "missing: "+FieldContactNumber)
		assert.Equal(t, 0, saver.calls)
	})

	t.Run("optional email does not satisfy the rule", func(t *testing.T) {
		b := mandatoryBuilder(t)
		b.Fields[0].Required = false

		saver := &MockFormSaver{}
		_, err := b.Save(context.Background(), saver, "inst-1")
		var verr *types.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, FieldEmailAddress, verr.Field)
		assert.Equal(t, 0, saver.calls)
	})

	t.Run("no institute", func(t *testing.T) {
		b := mandatoryBuilder(t)
		saver := &MockFormSaver{}
		_, err := b.Save(context.Background(), saver, "")
		requireValidation(t, err, "Select an institute")
		assert.Equal(t, 0, saver.calls)
	})

	t.Run("groups fields by category and section", func(t *testing.T) {
		b := mandatoryBuilder(t)
		require.NoError(t, b.SelectCategory(types.CategoryEducation))
		b.SelectSection("10th Details", "")
		_, err := b.AddPredefinedField("10th Board")
		require.NoError(t, err)

		var saved *types.FormDocument
		saver := &MockFormSaver{SaveFormFunc: func(ctx context.Context, doc *types.FormDocument) error {
			saved = doc
			return nil
		}}

		doc, err := b.Save(context.Background(), saver, "inst-9")
		require.NoError(t, err)
		require.Same(t, saved, doc)
		assert.Equal(t, "inst-9", doc.InstituteID)

		require.Len(t, doc.PersonalDetails, 1)
		assert.Equal(t, SectionPersonalDetails, doc.PersonalDetails[0].SectionName)
		require.Len(t, doc.PersonalDetails[0].Fields, 2)
		assert.Equal(t, FieldEmailAddress, doc.PersonalDetails[0].Fields[0].Label)
		assert.False(t, doc.PersonalDetails[0].Fields[0].Multiple)

		require.Len(t, doc.EducationDetails, 1)
		assert.Equal(t, "10th Board", doc.EducationDetails[0].Fields[0].FieldName)
		assert.Equal(t, []string{"CBSE", "ICSE", "State Board", "Other"}, doc.EducationDetails[0].Fields[0].Options)
	})

	t.Run("saver error is returned", func(t *testing.T) {
		b := mandatoryBuilder(t)
		boom := &types.RequestError{Status: 500, Message: "database down"}
		saver := &MockFormSaver{SaveFormFunc: func(ctx context.Context, doc *types.FormDocument) error { return boom }}

		_, err := b.Save(context.Background(), saver, "inst-1")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "database down", types.UserMessage(err))
	})
}

func TestBuilder_SectionsAndTemplates(t *testing.T) {
	b := mandatoryBuilder(t)
	b.SelectSection(CustomSection, "Hostel")
	_, err := b.AddCustomField(CustomFieldDraft{FieldName: "Needs Hostel", FieldType: "radiobutton", Options: "Yes,No"})
	require.NoError(t, err)

	sections := b.SectionsFor(types.CategoryPersonal)
	assert.Equal(t, []string{SectionPersonalDetails, "Parent Details", "Address Details", "Hostel"}, sections)

	b.SelectSection(SectionPersonalDetails, "")
	for _, tmpl := range b.AvailableTemplates() {
		assert.NotEqual(t, FieldEmailAddress, tmpl.FieldName)
		assert.NotEqual(t, FieldContactNumber, tmpl.FieldName)
	}

	assert.Len(t, b.FieldsIn(types.CategoryPersonal, "Hostel"), 1)
}
