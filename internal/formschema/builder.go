package formschema

import (
	"context"
	"strconv"
	"strings"

	"admissions/internal/utils"
	"admissions/pkg/types"
)

// CustomSection is the section choice that asks the operator for a free-text name.
const CustomSection = "custom"

// FormSaver persists a whole form document.
type FormSaver interface {
	SaveForm(ctx context.Context, doc *types.FormDocument) error
}

// Builder holds an operator's in-progress schema for one institute. It is plain data so it can
// be stored between requests.
type Builder struct {
	InstituteID   string              `json:"instituteId"`
	Category      types.Category      `json:"category"`
	SectionChoice string              `json:"sectionChoice"`
	CustomSection string              `json:"customSection"`
	Fields        []types.FieldSchema `json:"fields"`
	Draft         CustomFieldDraft    `json:"draft"`

	catalog *Catalog
}

// CustomFieldDraft is the operator-entered definition of a field outside the catalog.
type CustomFieldDraft struct {
	FieldName string `form:"field_name" json:"fieldName"`
	FieldType string `form:"field_type" json:"fieldType"`
	Required  bool   `form:"required" json:"required"`
	Options   string `form:"options" json:"options"`
	MaxLength string `form:"max_length" json:"maxLength"`
}

func NewBuilder(instituteID string, catalog *Catalog) *Builder {
	return &Builder{
		InstituteID: instituteID,
		Category:    types.CategoryPersonal,
		Fields:      []types.FieldSchema{},
		catalog:     catalog,
	}
}

// LoadBuilder starts a builder from a saved document. A nil document yields an empty schema.
func LoadBuilder(instituteID string, doc *types.FormDocument, catalog *Catalog) *Builder {
	b := NewBuilder(instituteID, catalog)
	b.Fields = FromDocument(doc)
	return b
}

// WithCatalog attaches the catalog after the builder was restored from storage.
func (b *Builder) WithCatalog(catalog *Catalog) *Builder {
	b.catalog = catalog
	return b
}

func (b *Builder) cat() *Catalog {
	if b.catalog == nil {
		return DefaultCatalog()
	}
	return b.catalog
}

// SelectCategory switches the active category. Existing fields are kept.
func (b *Builder) SelectCategory(category types.Category) error {
	if !category.Valid() {
		return types.NewValidationError("category", "Select a category")
	}
	if b.Category != category {
		b.SectionChoice = ""
		b.CustomSection = ""
	}
	b.Category = category
	return nil
}

// SelectSection records the raw section choice; CustomSection asks for a typed name.
func (b *Builder) SelectSection(choice, customName string) {
	b.SectionChoice = strings.TrimSpace(choice)
	b.CustomSection = customName
}

// EffectiveSection resolves the section new fields go into: the trimmed custom name when the
// choice is the custom sentinel, the raw choice otherwise.
func (b *Builder) EffectiveSection() string {
	if b.SectionChoice == CustomSection {
		return strings.TrimSpace(b.CustomSection)
	}
	return b.SectionChoice
}

// AddPredefinedField appends a catalog template to the effective section.
func (b *Builder) AddPredefinedField(fieldName string) (*types.FieldSchema, error) {
	section := b.EffectiveSection()
	if section == "" {
		return nil, types.NewValidationError("section", "Select section")
	}

	tmpl, ok := b.cat().Lookup(b.Category, section, fieldName)
	if !ok {
		return nil, types.NewValidationError("field", "Field not found in catalog")
	}

	if b.exists(b.Category, section, tmpl.FieldName) {
		return nil, types.NewValidationError("field", "Field already exists")
	}

	field := types.FieldSchema{
		ID:          utils.FieldID(),
		Category:    b.Category,
		SectionName: section,
		FieldType:   tmpl.FieldType,
		FieldName:   tmpl.FieldName,
		Required:    tmpl.Required,
		Visibility:  types.VisibilityYes,
		Options:     append([]string(nil), tmpl.Options...),
	}
	if tmpl.MaxLength > 0 {
		field.MaxLength = utils.IntPtr(tmpl.MaxLength)
	}

	b.Fields = append(b.Fields, field)
	return &b.Fields[len(b.Fields)-1], nil
}

// AddCustomField validates the draft and appends it to the effective section. The draft is
// reset on success and kept on failure so the operator can correct it.
func (b *Builder) AddCustomField(draft CustomFieldDraft) (*types.FieldSchema, error) {
	b.Draft = draft

	name := strings.TrimSpace(draft.FieldName)
	fieldType := types.FieldType(strings.TrimSpace(draft.FieldType))

	if name == "" {
		return nil, types.NewValidationError("field_name", "Enter field name")
	}
	if fieldType == "" {
		return nil, types.NewValidationError("field_type", "Select field type")
	}
	if !isBuilderType(fieldType) {
		return nil, types.NewValidationError("field_type", "Select a valid field type")
	}

	section := b.EffectiveSection()
	if section == "" {
		return nil, types.NewValidationError("section", "Select section")
	}

	var options []string
	if fieldType.HasOptions() {
		options = SplitOptions(draft.Options)
		if len(options) == 0 {
			return nil, types.NewValidationError("options", "Options are required for select, checkbox and radio button fields")
		}
	}

	if b.exists(b.Category, section, name) {
		return nil, types.NewValidationError("field_name", "Field already exists")
	}

	field := types.FieldSchema{
		ID:          utils.FieldID(),
		Category:    b.Category,
		SectionName: section,
		FieldType:   fieldType,
		FieldName:   name,
		Required:    draft.Required,
		Visibility:  types.VisibilityYes,
		Options:     options,
	}

	if keepsMaxLength(fieldType) {
		if n, err := strconv.Atoi(strings.TrimSpace(draft.MaxLength)); err == nil && n > 0 {
			field.MaxLength = utils.IntPtr(n)
		}
	}

	b.Fields = append(b.Fields, field)
	b.Draft = CustomFieldDraft{}
	return &b.Fields[len(b.Fields)-1], nil
}

// Reorder moves fromID onto toID's position within one section.
func (b *Builder) Reorder(category types.Category, section, fromID, toID string) {
	b.Fields = Reorder(b.Fields, InSection(category, section), fromID, toID)
}

// RemoveField deletes a field by id. Unknown ids are ignored.
func (b *Builder) RemoveField(fieldID string) {
	out := b.Fields[:0]
	for _, f := range b.Fields {
		if f.ID != fieldID {
			out = append(out, f)
		}
	}
	b.Fields = out
}

// Document converts the schema into the persisted shape after checking the save rules.
func (b *Builder) Document(instituteID string) (*types.FormDocument, error) {
	if strings.TrimSpace(instituteID) == "" {
		return nil, types.NewValidationError("institute", "Select an institute")
	}
	if err := CheckMandatory(b.Fields); err != nil {
		return nil, err
	}
	return ToDocument(instituteID, b.Fields), nil
}

// Save validates and persists the schema. No call reaches the saver when validation fails.
func (b *Builder) Save(ctx context.Context, saver FormSaver, instituteID string) (*types.FormDocument, error) {
	doc, err := b.Document(instituteID)
	if err != nil {
		return nil, err
	}

	if err := saver.SaveForm(ctx, doc); err != nil {
		return nil, err
	}

	b.InstituteID = instituteID
	return doc, nil
}

// SectionsFor lists the catalog sections of a category followed by custom sections in use.
func (b *Builder) SectionsFor(category types.Category) []string {
	names := b.cat().Sections(category)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, f := range b.Fields {
		if f.Category == category && !seen[f.SectionName] {
			seen[f.SectionName] = true
			names = append(names, f.SectionName)
		}
	}
	return names
}

// FieldsIn returns the fields of one section in list order.
func (b *Builder) FieldsIn(category types.Category, section string) []types.FieldSchema {
	match := InSection(category, section)
	out := make([]types.FieldSchema, 0)
	for _, f := range b.Fields {
		if match(f) {
			out = append(out, f)
		}
	}
	return out
}

// AvailableTemplates returns the catalog templates of the effective section not yet added.
func (b *Builder) AvailableTemplates() []Template {
	section := b.EffectiveSection()
	out := make([]Template, 0)
	for _, t := range b.cat().Templates(b.Category, section) {
		if !b.exists(b.Category, section, t.FieldName) {
			out = append(out, t)
		}
	}
	return out
}

func (b *Builder) exists(category types.Category, section, fieldName string) bool {
	for _, f := range b.Fields {
		if f.Category == category && f.SectionName == section && strings.EqualFold(f.FieldName, strings.TrimSpace(fieldName)) {
			return true
		}
	}
	return false
}

// SplitOptions splits a comma separated option list, trimming and dropping empty entries.
func SplitOptions(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func keepsMaxLength(t types.FieldType) bool {
	return t == types.FieldTypeText || t == types.FieldTypeNumber || t == types.FieldTypeEmail
}

func isBuilderType(t types.FieldType) bool {
	for _, bt := range types.BuilderFieldTypes {
		if bt == t {
			return true
		}
	}
	return false
}
