package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"admissions/internal/access"
	"admissions/internal/formschema"
	"admissions/internal/render"
	"admissions/internal/session"
	"admissions/internal/submission"
	"admissions/internal/utils"
	"admissions/pkg/types"

	"github.com/alexedwards/flow"
)

const recentApplicationsLimit = 50

type ApplicationRow struct {
	ID            string
	InstituteName string
	Program       string
	AcademicYear  string
	LeadID        string
	UpdatedAt     time.Time
}

type ApplicationsPageData struct {
	types.BasePageData
	Institutions []*types.Institution
	InstituteID  string
	Rows         []ApplicationRow
	CanCreate    bool
	CanEdit      bool
}

type ExtraValue struct {
	Key   string
	Value string
}

type ApplicationPageData struct {
	types.BasePageData
	Application   *types.Application
	InstituteName string
	LeadID        string
	HasForm       bool
	Sections      map[types.Category][]render.SectionView
	Categories    []types.Category

	// Stored values that the current form no longer asks for.
	Extra   []ExtraValue
	CanEdit bool
}

func (s *Service) handleGetApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	instituteID := strings.TrimSpace(r.URL.Query().Get("institute"))

	data := &ApplicationsPageData{
		BasePageData: types.BasePageData{
			Title:  "Applications",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		InstituteID: instituteID,
		CanCreate:   s.can(ctx, access.ApplicationsCreate),
		CanEdit:     s.can(ctx, access.ApplicationsEdit),
	}

	institutions, err := s.backend.Institutions.ActiveInstitutions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to load active institutions")
		data.Error = types.UserMessage(err)
	}
	data.Institutions = institutions

	start := time.Now()
	apps, err := s.backend.Applications.RecentApplications(ctx, instituteID, recentApplicationsLimit)
	s.observe("recent_applications", start)
	if err != nil {
		s.logger.WithError(err).WithField("institute_id", instituteID).Error("failed to load applications")
		data.Error = types.UserMessage(err)
	}

	for _, app := range apps {
		name := app.InstituteID
		if inst := findInstitution(institutions, app.InstituteID); inst != nil {
			name = inst.Name
		}
		data.Rows = append(data.Rows, ApplicationRow{
			ID:            app.ID,
			InstituteName: name,
			Program:       app.Program,
			AcademicYear:  app.AcademicYear,
			LeadID:        utils.PtrString(app.LeadID),
			UpdatedAt:     app.UpdatedAt,
		})
	}

	if err := s.renderTemplate(w, r, "page.applications", data); err != nil {
		s.logger.WithError(err).Error("failed to render applications page")
		s.internalServerError(w)
	}
}

func (s *Service) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applicationID := flow.Param(ctx, "applicationID")

	app, ok := s.loadApplication(w, r, applicationID)
	if !ok {
		return
	}

	data := &ApplicationPageData{
		BasePageData: types.BasePageData{
			Title:  "Application " + app.ID,
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		Application:   app,
		InstituteName: app.InstituteID,
		LeadID:        utils.PtrString(app.LeadID),
		Categories:    types.Categories,
		Sections:      map[types.Category][]render.SectionView{},
		CanEdit:       s.can(ctx, access.ApplicationsEdit),
	}

	if institutions, err := s.backend.Institutions.ActiveInstitutions(ctx); err == nil {
		if inst := findInstitution(institutions, app.InstituteID); inst != nil {
			data.InstituteName = inst.Name
		}
	}

	doc, err := s.backend.Forms.FormByInstitute(ctx, app.InstituteID)
	if err != nil && !errors.Is(err, types.ErrFormNotFound) {
		s.logger.WithError(err).WithField("institute_id", app.InstituteID).Error("failed to load form configuration")
		data.Error = types.UserMessage(err)
	}
	data.HasForm = err == nil

	for _, category := range types.Categories {
		fields := formschema.CategoryFields(doc, category)
		values, existing := render.FromData(fields, app.Data(category))
		s.linkFiles(app.ID, existing)
		data.Sections[category] = render.BuildSections(fields, values, existing)
		data.Extra = append(data.Extra, extraValues(fields, app.Data(category))...)
	}

	if err := s.renderTemplate(w, r, "page.application", data); err != nil {
		s.logger.WithError(err).Error("failed to render application page")
		s.internalServerError(w)
	}
}

// handleGetApplicationFile redirects to a short lived link for an uploaded document.
func (s *Service) handleGetApplicationFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applicationID := flow.Param(ctx, "applicationID")
	fieldName := flow.Param(ctx, "fieldName")

	locator, ok := s.backend.Locator()
	if !ok {
		s.notFound(w, r, "Document previews are not available for this backend.")
		return
	}

	link, err := locator.FileURL(ctx, applicationID, fieldName)
	if errors.Is(err, types.ErrFileNotFound) || errors.Is(err, types.ErrApplicationNotFound) {
		s.notFound(w, r, "Document not found.")
		return
	}
	if err != nil {
		s.logger.WithError(err).
			WithField("application_id", applicationID).
			WithField("field_name", fieldName).
			Error("failed to create document link")
		s.internalServerError(w)
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}

// handleGetNewApplication starts a create wizard, optionally preselecting the institute and
// carrying a lead id.
func (s *Service) handleGetNewApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	wizard := submission.NewWizard(strings.TrimSpace(query.Get("institute")), strings.TrimSpace(query.Get("lead")))
	if err := s.drafts.Put(ctx, session.KindWizard, wizard.ID, wizard); err != nil {
		s.logger.WithError(err).Error("failed to store wizard draft")
		s.internalServerError(w)
		return
	}

	http.Redirect(w, r, wizardPath(wizard.ID), http.StatusSeeOther)
}

func (s *Service) handleGetEditApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applicationID := flow.Param(ctx, "applicationID")

	app, ok := s.loadApplication(w, r, applicationID)
	if !ok {
		return
	}

	doc, err := s.backend.Forms.FormByInstitute(ctx, app.InstituteID)
	if errors.Is(err, types.ErrFormNotFound) {
		s.redirectWithError(w, r, applicationPath(app.ID), "No application form is configured for this institute.")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("institute_id", app.InstituteID).Error("failed to load form configuration")
		s.redirectWithError(w, r, applicationPath(app.ID), types.UserMessage(err))
		return
	}

	wizard := submission.EditWizard(app, doc)
	if err := s.drafts.Put(ctx, session.KindWizard, wizard.ID, wizard); err != nil {
		s.logger.WithError(err).Error("failed to store wizard draft")
		s.internalServerError(w)
		return
	}

	http.Redirect(w, r, wizardPath(wizard.ID), http.StatusSeeOther)
}

func (s *Service) loadApplication(w http.ResponseWriter, r *http.Request, applicationID string) (*types.Application, bool) {
	start := time.Now()
	app, err := s.backend.Applications.ApplicationByID(r.Context(), applicationID)
	s.observe("application_by_id", start)
	if errors.Is(err, types.ErrApplicationNotFound) {
		s.notFound(w, r, "Application not found.")
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).WithField("application_id", applicationID).Error("failed to load application")
		s.errorPage(w, r, http.StatusBadGateway, types.UserMessage(err))
		return nil, false
	}
	return app, true
}

// linkFiles points stored documents at the preview route when the backend can serve them.
func (s *Service) linkFiles(applicationID string, existing render.ExistingFiles) {
	if _, ok := s.backend.Locator(); !ok {
		return
	}
	for name, file := range existing {
		file.URL = applicationFilePath(applicationID, name)
		existing[name] = file
	}
}

func extraValues(fields []types.FieldSchema, data map[string]any) []ExtraValue {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.FieldName] = true
	}

	var extra []ExtraValue
	for key, value := range data {
		if known[key] {
			continue
		}
		extra = append(extra, ExtraValue{Key: key, Value: fmt.Sprint(value)})
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Key < extra[j].Key })
	return extra
}

func applicationPath(id string) string {
	return "/applications/" + url.PathEscape(id)
}

func applicationFilePath(id, fieldName string) string {
	return applicationPath(id) + "/files/" + url.PathEscape(fieldName)
}

func wizardPath(id string) string {
	return "/wizard/" + url.PathEscape(id)
}
