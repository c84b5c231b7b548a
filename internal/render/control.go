package render

import (
	"fmt"
	"path"
	"strings"

	"admissions/pkg/types"
)

type ControlKind string

const (
	KindInput    ControlKind = "input"
	KindTextarea ControlKind = "textarea"
	KindSelect   ControlKind = "select"
	KindRadio    ControlKind = "radio"
	KindCheckbox ControlKind = "checkbox"
	KindRating   ControlKind = "rating"
	KindFile     ControlKind = "file"
	KindStatic   ControlKind = "static"
)

// InputPrefix keeps schema field names apart from the page's own inputs.
const InputPrefix = "f."

// RatingScale is the number of symbols a rating control offers.
const RatingScale = 5

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type Star struct {
	Value  int
	Filled bool
}

// Control is the view model for one rendered field.
type Control struct {
	Kind      ControlKind
	FieldName string
	InputName string
	InputID   string
	Label     string
	InputType string
	Required  bool
	MaxLength int
	Value     string
	Options   []Option
	Stars     []Star

	FileName string
	FileURL  string
	IsImage  bool
}

// SectionView is a titled group of controls.
type SectionView struct {
	Name     string
	Controls []Control
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true, ".svg": true,
}

// IsImageFile reports whether a stored filename should be previewed as a thumbnail.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// InputName is the HTML name a field is posted under.
func InputName(fieldName string) string {
	return InputPrefix + fieldName
}

// Build renders one control per visible field, in schema order.
func Build(fields []types.FieldSchema, values Values, existing ExistingFiles) []Control {
	controls := make([]Control, 0, len(fields))
	for i, f := range fields {
		if f.Visibility == types.VisibilityNo {
			continue
		}
		controls = append(controls, buildControl(i, f, values[f.FieldName], existing))
	}
	return controls
}

// BuildSections renders the fields grouped by section in first-appearance order.
func BuildSections(fields []types.FieldSchema, values Values, existing ExistingFiles) []SectionView {
	sections := make([]SectionView, 0)
	index := make(map[string]int)

	for i, f := range fields {
		if f.Visibility == types.VisibilityNo {
			continue
		}
		at, ok := index[f.SectionName]
		if !ok {
			at = len(sections)
			index[f.SectionName] = at
			sections = append(sections, SectionView{Name: f.SectionName})
		}
		sections[at].Controls = append(sections[at].Controls, buildControl(i, f, values[f.FieldName], existing))
	}

	return sections
}

func buildControl(i int, f types.FieldSchema, value Value, existing ExistingFiles) Control {
	c := Control{
		FieldName: f.FieldName,
		InputName: InputName(f.FieldName),
		InputID:   fmt.Sprintf("field-%s-%d", strings.ToLower(string(f.Category)), i),
		Label:     f.FieldName,
		Required:  f.Required,
	}

	if f.MaxLength != nil && f.FieldType.AcceptsMaxLength() {
		c.MaxLength = *f.MaxLength
	}

	switch f.FieldType {
	case types.FieldTypeText, types.FieldTypeNumber, types.FieldTypeEmail, types.FieldTypeDate:
		c.Kind = KindInput
		c.InputType = string(f.FieldType)
		c.Value = value.Text

	case types.FieldTypeTextarea:
		c.Kind = KindTextarea
		c.Value = value.Text

	case types.FieldTypeSelect:
		c.Kind = KindSelect
		c.Value = value.Text
		c.Options = append(c.Options, Option{Value: "", Label: "Select...", Selected: value.Text == ""})
		for _, o := range f.Options {
			c.Options = append(c.Options, Option{Value: o, Label: o, Selected: value.Text == o})
		}

	case types.FieldTypeRadiobutton:
		c.Kind = KindRadio
		c.Value = value.Text
		for _, o := range f.Options {
			c.Options = append(c.Options, Option{Value: o, Label: o, Selected: value.Text == o})
		}

	case types.FieldTypeCheckbox:
		c.Kind = KindCheckbox
		c.Value = value.String()
		for _, o := range f.Options {
			c.Options = append(c.Options, Option{Value: o, Label: o, Selected: value.Has(o)})
		}

	case types.FieldTypeRating:
		c.Kind = KindRating
		for n := 1; n <= RatingScale; n++ {
			c.Stars = append(c.Stars, Star{Value: n, Filled: n <= value.Rating})
		}
		if value.Rating > 0 {
			c.Value = fmt.Sprint(value.Rating)
		}

	case types.FieldTypeFile:
		c.Kind = KindFile
		if prior, ok := existing[f.FieldName]; ok && prior.FileName != "" {
			c.FileName = prior.FileName
			c.FileURL = prior.URL
			c.IsImage = IsImageFile(prior.FileName)
		}

	case types.FieldTypeTextOnly:
		c.Kind = KindStatic
		c.Required = false

	default:
		c.Kind = KindInput
		c.InputType = "text"
		c.Value = value.Text
	}

	return c
}
