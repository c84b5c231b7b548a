package submission

import (
	"fmt"
	"strings"

	"admissions/internal/formschema"
	"admissions/internal/render"
	"admissions/internal/utils"
	"admissions/pkg/types"
)

type Step string

const (
	StepPersonal  Step = "personal"
	StepEducation Step = "education"
	StepSubmitted Step = "submitted"
)

// Category is the schema category a step collects.
func (s Step) Category() types.Category {
	if s == StepEducation {
		return types.CategoryEducation
	}
	return types.CategoryPersonal
}

// Wizard is the two step application form state. It is plain data so it can live in a draft
// store between requests; the schema itself is fetched fresh each time.
type Wizard struct {
	ID            string                                  `json:"id"`
	Mode          render.Mode                             `json:"mode"`
	Step          Step                                    `json:"step"`
	InstituteID   string                                  `json:"instituteId"`
	Program       string                                  `json:"program"`
	LeadID        string                                  `json:"leadId,omitempty"`
	ApplicationID string                                  `json:"applicationId,omitempty"`
	Values        map[types.Category]render.Values        `json:"values"`
	Files         map[types.Category]render.Files         `json:"files"`
	Existing      map[types.Category]render.ExistingFiles `json:"existing"`
	Error         string                                  `json:"error,omitempty"`
}

func NewWizard(instituteID, leadID string) *Wizard {
	return &Wizard{
		ID:          utils.NanoID(),
		Mode:        render.ModeCreate,
		Step:        StepPersonal,
		InstituteID: instituteID,
		LeadID:      leadID,
		Values:      make(map[types.Category]render.Values),
		Files:       make(map[types.Category]render.Files),
		Existing:    make(map[types.Category]render.ExistingFiles),
	}
}

// EditWizard starts an edit of a stored application, prefilled from its data.
func EditWizard(app *types.Application, doc *types.FormDocument) *Wizard {
	w := NewWizard(app.InstituteID, utils.PtrString(app.LeadID))
	w.Mode = render.ModeEdit
	w.ApplicationID = app.ID
	w.Program = app.Program

	for _, category := range types.Categories {
		values, existing := render.FromData(formschema.CategoryFields(doc, category), app.Data(category))
		w.Values[category] = values
		w.Existing[category] = existing
	}

	return w
}

// Record stores what was posted for a category. Values replace the previous ones. A newly
// picked file replaces the held one; files not re-picked are kept.
func (w *Wizard) Record(category types.Category, values render.Values, files render.Files) {
	w.ensure()
	w.Values[category] = values

	held := w.Files[category]
	if held == nil {
		held = make(render.Files)
	}
	for name, upload := range files {
		held[name] = upload
	}
	w.Files[category] = held
}

// SetSelection records the institute and program choice.
func (w *Wizard) SetSelection(instituteID, program string) {
	if instituteID != "" {
		w.InstituteID = strings.TrimSpace(instituteID)
	}
	w.Program = strings.TrimSpace(program)
}

// Advance validates the personal step and moves to education. The wizard stays on the
// personal step with Error set when validation fails.
func (w *Wizard) Advance(doc *types.FormDocument) error {
	if w.Step != StepPersonal {
		return fmt.Errorf("cannot advance from step %s", w.Step)
	}

	if err := w.checkSelection(); err != nil {
		return w.fail(StepPersonal, err)
	}
	if err := w.validate(doc, types.CategoryPersonal); err != nil {
		return w.fail(StepPersonal, err)
	}

	w.Error = ""
	w.Step = StepEducation
	return nil
}

// Back returns to the personal step. Nothing is re-validated.
func (w *Wizard) Back() {
	if w.Step == StepEducation {
		w.Step = StepPersonal
	}
	w.Error = ""
}

// Prepare runs every check that must pass before anything is sent and builds the payload.
// A failure puts the wizard back on the step that owns the offending field.
func (w *Wizard) Prepare(doc *types.FormDocument, academicYear string) (*Payload, error) {
	if w.Step == StepSubmitted {
		return nil, fmt.Errorf("application %s already submitted", w.ApplicationID)
	}

	if err := w.checkSelection(); err != nil {
		return nil, w.fail(StepPersonal, err)
	}
	if err := w.validate(doc, types.CategoryPersonal); err != nil {
		return nil, w.fail(StepPersonal, err)
	}
	if err := w.validate(doc, types.CategoryEducation); err != nil {
		return nil, w.fail(StepEducation, err)
	}

	payload, err := BuildPayload(Input{
		Document:     doc,
		InstituteID:  w.InstituteID,
		AcademicYear: academicYear,
		Program:      w.Program,
		LeadID:       w.LeadID,
		Values:       w.Values,
		Files:        w.Files,
	})
	if err != nil {
		return nil, w.fail(w.Step, err)
	}

	if w.Mode == render.ModeEdit {
		keepExistingFiles(payload, w.Existing)
	}

	w.Error = ""
	return payload, nil
}

// Complete marks the wizard submitted and drops the held files.
func (w *Wizard) Complete(app *types.Application) {
	w.Step = StepSubmitted
	w.Error = ""
	if app != nil && app.ID != "" {
		w.ApplicationID = app.ID
	}
	w.Files = make(map[types.Category]render.Files)
}

// Fail records err as the wizard's visible error without changing step.
func (w *Wizard) Fail(err error) {
	w.Error = types.UserMessage(err)
}

func (w *Wizard) checkSelection() error {
	if w.InstituteID == "" {
		return types.NewValidationError(PartInstituteID, "Select an institute")
	}
	if w.Program == "" {
		return types.NewValidationError(PartProgram, "Select a program")
	}
	return nil
}

func (w *Wizard) validate(doc *types.FormDocument, category types.Category) error {
	fields := formschema.CategoryFields(doc, category)
	return render.Validate(fields, w.Values[category], w.Files[category], w.Existing[category], w.Mode)
}

func (w *Wizard) fail(step Step, err error) error {
	w.Step = step
	w.Error = types.UserMessage(err)
	return err
}

func (w *Wizard) ensure() {
	if w.Values == nil {
		w.Values = make(map[types.Category]render.Values)
	}
	if w.Files == nil {
		w.Files = make(map[types.Category]render.Files)
	}
	if w.Existing == nil {
		w.Existing = make(map[types.Category]render.ExistingFiles)
	}
}

// keepExistingFiles sends the stored filename for file fields that were not re-uploaded, so
// an update does not blank them.
func keepExistingFiles(p *Payload, existing map[types.Category]render.ExistingFiles) {
	uploaded := make(map[string]bool, len(p.Files))
	for _, f := range p.Files {
		uploaded[string(f.Category)+"/"+f.FieldName] = true
	}

	for category, files := range existing {
		data := p.Data(category)
		if data == nil {
			continue
		}
		for name, file := range files {
			if uploaded[string(category)+"/"+name] || file.FileName == "" {
				continue
			}
			data[name] = file.FileName
		}
	}
}
