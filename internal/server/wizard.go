package server

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"admissions/internal/access"
	"admissions/internal/formschema"
	"admissions/internal/metrics"
	"admissions/internal/render"
	"admissions/internal/session"
	"admissions/internal/submission"
	"admissions/pkg/types"

	"github.com/alexedwards/flow"
)

const (
	wizardActionSelect = "select"
	wizardActionNext   = "next"
	wizardActionBack   = "back"
	wizardActionSubmit = "submit"
)

type WizardPageData struct {
	types.BasePageData
	WizardID      string
	Mode          render.Mode
	Step          submission.Step
	StepNumber    int
	Category      types.Category
	Institutions  []*types.Institution
	InstituteID   string
	InstituteName string
	Courses       []string
	Program       string
	LeadID        string
	ApplicationID string
	HasForm       bool
	Sections      []render.SectionView
	AcademicYear  string
}

func (s *Service) handleGetWizard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wizardID := flow.Param(ctx, "wizardID")

	wizard, ok := s.loadWizard(w, r, wizardID)
	if !ok {
		return
	}

	if wizard.Step == submission.StepSubmitted {
		http.Redirect(w, r, applicationPath(wizard.ApplicationID), http.StatusSeeOther)
		return
	}

	title := "New application"
	if wizard.Mode == render.ModeEdit {
		title = "Edit application"
	}

	data := &WizardPageData{
		BasePageData: types.BasePageData{
			Title:  title,
			Notice: r.URL.Query().Get("notice"),
			Error:  wizard.Error,
		},
		WizardID:      wizard.ID,
		Mode:          wizard.Mode,
		Step:          wizard.Step,
		StepNumber:    1,
		Category:      wizard.Step.Category(),
		InstituteID:   wizard.InstituteID,
		InstituteName: wizard.InstituteID,
		Program:       wizard.Program,
		LeadID:        wizard.LeadID,
		ApplicationID: wizard.ApplicationID,
		AcademicYear:  s.config.AcademicYear,
	}
	if wizard.Step == submission.StepEducation {
		data.StepNumber = 2
	}

	institutions, err := s.backend.Institutions.ActiveInstitutions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to load active institutions")
		data.Error = types.UserMessage(err)
	}
	data.Institutions = institutions
	if inst := findInstitution(institutions, wizard.InstituteID); inst != nil {
		data.InstituteName = inst.Name
	}

	if wizard.InstituteID != "" {
		settings, err := s.backend.Institutions.SettingsByInstitute(ctx, wizard.InstituteID)
		if err != nil {
			s.logger.WithError(err).WithField("institute_id", wizard.InstituteID).Warn("failed to load institute settings")
		} else {
			data.Courses = settings.Courses
		}

		doc, err := s.formFor(ctx, wizard.InstituteID)
		switch {
		case errors.Is(err, types.ErrFormNotFound):
			if data.Error == "" {
				data.Error = "No application form is configured for this institute."
			}
		case err != nil:
			data.Error = types.UserMessage(err)
		default:
			data.HasForm = true
			category := wizard.Step.Category()
			data.Sections = render.BuildSections(
				formschema.CategoryFields(doc, category),
				wizard.Values[category],
				s.heldFiles(wizard, category),
			)
		}
	}

	if err := s.renderTemplate(w, r, "page.wizard", data); err != nil {
		s.logger.WithError(err).Error("failed to render wizard page")
		s.internalServerError(w)
	}
}

// handlePostWizard records the posted step and applies the chosen action. Every outcome
// redirects back to the wizard, except a successful submit which lands on the application.
func (s *Service) handlePostWizard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wizardID := flow.Param(ctx, "wizardID")

	wizard, ok := s.loadWizard(w, r, wizardID)
	if !ok {
		return
	}

	if wizard.Step == submission.StepSubmitted {
		http.Redirect(w, r, applicationPath(wizard.ApplicationID), http.StatusSeeOther)
		return
	}

	form, uploads, err := s.parseWizardForm(r)
	if err != nil {
		s.logger.WithError(err).Warn("failed to parse wizard form")
		wizard.Fail(types.NewValidationError("form", "The form could not be read. Check the attached files and try again."))
		s.saveWizard(w, r, wizard)
		return
	}

	action := form.Get("action")

	if wizard.Step == submission.StepPersonal {
		instituteID := form.Get("institute_id")
		if wizard.Mode == render.ModeEdit {
			// the record stays with its institute
			instituteID = ""
		}
		if instituteID != "" && instituteID != wizard.InstituteID {
			wizard.SetSelection(instituteID, "")
			wizard.Error = ""
			s.saveWizard(w, r, wizard)
			return
		}
		wizard.SetSelection(instituteID, form.Get("program"))
	}

	if action == wizardActionSelect {
		wizard.Error = ""
		s.saveWizard(w, r, wizard)
		return
	}

	if wizard.InstituteID == "" {
		wizard.Fail(types.NewValidationError(submission.PartInstituteID, "Select an institute"))
		s.saveWizard(w, r, wizard)
		return
	}

	doc, err := s.formFor(ctx, wizard.InstituteID)
	if errors.Is(err, types.ErrFormNotFound) {
		wizard.Fail(types.NewValidationError(submission.PartInstituteID, "No application form is configured for this institute."))
		s.saveWizard(w, r, wizard)
		return
	}
	if err != nil {
		wizard.Fail(err)
		s.saveWizard(w, r, wizard)
		return
	}

	category := wizard.Step.Category()
	values, files, err := render.ReadForm(form, uploads, formschema.CategoryFields(doc, category), s.readOptions())
	if err != nil {
		wizard.Fail(err)
		s.saveWizard(w, r, wizard)
		return
	}
	wizard.Record(category, values, files)

	switch action {
	case wizardActionBack:
		wizard.Back()

	case wizardActionNext:
		if wizard.Step == submission.StepPersonal {
			s.advanceWizard(wizard, doc)
		}

	case wizardActionSubmit:
		if wizard.Step != submission.StepEducation {
			s.advanceWizard(wizard, doc)
			break
		}

		start := time.Now()
		app, err := s.submissions.Submit(ctx, wizard, doc)
		s.observe("submit_application", start)
		if err != nil {
			outcome := metrics.OutcomeFailed
			if types.IsValidation(err) {
				outcome = metrics.OutcomeRejected
			}
			s.applicationSubmitted(wizard.Mode, outcome)
			break
		}

		s.applicationSubmitted(wizard.Mode, metrics.OutcomeSuccess)
		if err := s.drafts.Delete(ctx, session.KindWizard, wizard.ID); err != nil {
			s.logger.WithError(err).Warn("failed to discard wizard draft")
		}

		applicationID := wizard.ApplicationID
		if app != nil && app.ID != "" {
			applicationID = app.ID
		}

		notice := "Application submitted"
		if wizard.Mode == render.ModeEdit {
			notice = "Application updated"
		}

		// the API may accept a create without echoing the record back
		target := "/applications"
		if applicationID != "" {
			target = applicationPath(applicationID)
		}
		s.redirectWithNotice(w, r, target, notice)
		return

	default:
		wizard.Error = ""
	}

	s.saveWizard(w, r, wizard)
}

// advanceWizard moves the wizard to the education step. A rejection is already on
// wizard.Error for the page, so it is only logged here.
func (s *Service) advanceWizard(wizard *submission.Wizard, doc *types.FormDocument) {
	if err := wizard.Advance(doc); err != nil {
		s.logger.WithError(err).
			WithField("wizard_id", wizard.ID).
			WithField("institute_id", wizard.InstituteID).
			Info("wizard step rejected")
	}
}

// loadWizard restores the draft and checks that the operator may create or edit, whichever
// the wizard does.
func (s *Service) loadWizard(w http.ResponseWriter, r *http.Request, wizardID string) (*submission.Wizard, bool) {
	var wizard submission.Wizard
	err := s.drafts.Get(r.Context(), session.KindWizard, wizardID, &wizard)
	if errors.Is(err, session.ErrDraftNotFound) {
		s.redirectWithError(w, r, "/applications", "This application session has expired. Start again.")
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to load wizard draft")
		s.internalServerError(w)
		return nil, false
	}

	action := access.ApplicationsCreate
	if wizard.Mode == render.ModeEdit {
		action = access.ApplicationsEdit
	}
	if !s.can(r.Context(), action) {
		s.forbidden(w, r, action)
		return nil, false
	}

	return &wizard, true
}

func (s *Service) saveWizard(w http.ResponseWriter, r *http.Request, wizard *submission.Wizard) {
	if err := s.drafts.Put(r.Context(), session.KindWizard, wizard.ID, wizard); err != nil {
		s.logger.WithError(err).Error("failed to store wizard draft")
		s.internalServerError(w)
		return
	}
	http.Redirect(w, r, wizardPath(wizard.ID), http.StatusSeeOther)
}

func (s *Service) parseWizardForm(r *http.Request) (url.Values, map[string][]*multipart.FileHeader, error) {
	err := r.ParseMultipartForm(s.config.MaxUploadMB << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return nil, nil, err
		}
		return r.PostForm, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return r.MultipartForm.Value, r.MultipartForm.File, nil
}

// formFor loads the institute's form with backend latency recorded.
func (s *Service) formFor(ctx context.Context, instituteID string) (*types.FormDocument, error) {
	start := time.Now()
	doc, err := s.backend.Forms.FormByInstitute(ctx, instituteID)
	s.observe("form_by_institute", start)
	if err != nil && !errors.Is(err, types.ErrFormNotFound) {
		s.logger.WithError(err).WithField("institute_id", instituteID).Error("failed to load form configuration")
	}
	return doc, err
}

// heldFiles lists stored documents and files picked earlier in this wizard so the page can
// show what is already attached.
func (s *Service) heldFiles(wizard *submission.Wizard, category types.Category) render.ExistingFiles {
	held := make(render.ExistingFiles)
	for name, file := range wizard.Existing[category] {
		held[name] = file
	}
	if wizard.Mode == render.ModeEdit {
		s.linkFiles(wizard.ApplicationID, held)
	}
	for name, upload := range wizard.Files[category] {
		held[name] = render.ExistingFile{FileName: upload.FileName}
	}
	return held
}

func (s *Service) applicationSubmitted(mode render.Mode, outcome string) {
	if s.metrics != nil {
		s.metrics.ApplicationSubmitted(string(mode), outcome)
	}
}
