package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"admissions/internal/access"
	"admissions/internal/formschema"
	"admissions/internal/metrics"
	"admissions/internal/render"
	"admissions/internal/session"
	"admissions/internal/utils"
	"admissions/pkg/types"

	"github.com/alexedwards/flow"
)

type FormSettingsPageData struct {
	types.BasePageData
	Institutions []*types.Institution
	Selected     *types.Institution
	CanEdit      bool

	// Preview of the saved configuration of the selected institute.
	HasForm bool
	Preview map[types.Category][]render.SectionView
}

type BuilderSectionView struct {
	Name   string
	Fields []types.FieldSchema
}

type BuilderCategoryView struct {
	Category types.Category
	Sections []BuilderSectionView
}

type BuilderPageData struct {
	types.BasePageData
	DraftID       string
	Institution   *types.Institution
	Categories    []types.Category
	Category      types.Category
	SectionChoice string
	CustomSection string
	Effective     string
	Sections      []string
	Templates     []formschema.Template
	FieldTypes    []types.FieldType
	Draft         formschema.CustomFieldDraft
	Layout        []BuilderCategoryView
	FieldCount    int
}

type openBuilderForm struct {
	InstituteID string `form:"institute_id"`
}

type categoryForm struct {
	Category string `form:"category"`
}

type sectionForm struct {
	Section       string `form:"section"`
	CustomSection string `form:"custom_section"`
}

type predefinedForm struct {
	FieldName string `form:"field_name"`
}

type reorderForm struct {
	Category string `form:"category"`
	Section  string `form:"section"`
	FromID   string `form:"from_id"`
	ToID     string `form:"to_id"`
}

type removeForm struct {
	FieldID string `form:"field_id"`
}

func (s *Service) handleGetFormSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	institutions, err := s.backend.Institutions.ActiveInstitutions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to load active institutions")
		institutions = []*types.Institution{}
	}

	data := &FormSettingsPageData{
		BasePageData: types.BasePageData{
			Title:  "Application form settings",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		Institutions: institutions,
		CanEdit:      s.can(ctx, access.FormsEdit),
	}
	if err != nil && data.Error == "" {
		data.Error = types.UserMessage(err)
	}

	if instituteID := strings.TrimSpace(r.URL.Query().Get("institute")); instituteID != "" {
		data.Selected = findInstitution(institutions, instituteID)

		doc, err := s.backend.Forms.FormByInstitute(ctx, instituteID)
		switch {
		case errors.Is(err, types.ErrFormNotFound):
			if data.Notice == "" {
				data.Notice = "No form has been configured for this institute yet."
			}
		case err != nil:
			s.logger.WithError(err).WithField("institute_id", instituteID).Error("failed to load form configuration")
			data.Error = types.UserMessage(err)
		default:
			data.HasForm = true
			data.Preview = map[types.Category][]render.SectionView{}
			for _, category := range types.Categories {
				data.Preview[category] = render.BuildSections(formschema.CategoryFields(doc, category), nil, nil)
			}
		}
	}

	if err := s.renderTemplate(w, r, "page.form-settings", data); err != nil {
		s.logger.WithError(err).Error("failed to render form settings page")
		s.internalServerError(w)
	}
}

// handlePostOpenBuilder starts a builder draft from the institute's saved configuration.
// An institute without one starts empty.
func (s *Service) handlePostOpenBuilder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/settings/forms", "Invalid form submission")
		return
	}

	var input openBuilderForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode open builder form")
		s.redirectWithError(w, r, "/settings/forms", "Invalid form submission")
		return
	}

	instituteID := strings.TrimSpace(input.InstituteID)
	if instituteID == "" {
		s.redirectWithError(w, r, "/settings/forms", "Select an institute")
		return
	}

	notice := "Loaded saved form configuration"
	start := time.Now()
	doc, err := s.backend.Forms.FormByInstitute(ctx, instituteID)
	s.observe("form_by_institute", start)
	switch {
	case errors.Is(err, types.ErrFormNotFound):
		doc = nil
		notice = "No form has been configured for this institute yet. Start by adding fields."
	case err != nil:
		s.logger.WithError(err).WithField("institute_id", instituteID).Error("failed to load form configuration")
		s.redirectWithError(w, r, "/settings/forms", types.UserMessage(err))
		return
	}

	builder := formschema.LoadBuilder(instituteID, doc, s.catalog)
	draftID := utils.NanoID()
	if err := s.drafts.Put(ctx, session.KindBuilder, draftID, builder); err != nil {
		s.logger.WithError(err).Error("failed to store builder draft")
		s.internalServerError(w)
		return
	}

	s.redirectWithNotice(w, r, builderPath(draftID), notice)
}

func (s *Service) handleGetBuilder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	draftID := flow.Param(ctx, "draftID")

	builder, ok := s.loadBuilder(w, r, draftID)
	if !ok {
		return
	}

	institutions, err := s.backend.Institutions.ActiveInstitutions(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load institutions for builder header")
	}

	institution := findInstitution(institutions, builder.InstituteID)
	if institution == nil {
		institution = &types.Institution{InstituteID: builder.InstituteID, Name: builder.InstituteID}
	}

	data := &BuilderPageData{
		BasePageData: types.BasePageData{
			Title:  "Form builder",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		DraftID:       draftID,
		Institution:   institution,
		Categories:    types.Categories,
		Category:      builder.Category,
		SectionChoice: builder.SectionChoice,
		CustomSection: builder.CustomSection,
		Effective:     builder.EffectiveSection(),
		Sections:      builder.SectionsFor(builder.Category),
		Templates:     builder.AvailableTemplates(),
		FieldTypes:    types.BuilderFieldTypes,
		Draft:         builder.Draft,
		FieldCount:    len(builder.Fields),
	}

	for _, category := range types.Categories {
		view := BuilderCategoryView{Category: category}
		for _, name := range builder.SectionsFor(category) {
			fields := builder.FieldsIn(category, name)
			if len(fields) == 0 {
				continue
			}
			view.Sections = append(view.Sections, BuilderSectionView{Name: name, Fields: fields})
		}
		data.Layout = append(data.Layout, view)
	}

	if err := s.renderTemplate(w, r, "page.builder", data); err != nil {
		s.logger.WithError(err).Error("failed to render builder page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostBuilderCategory(w http.ResponseWriter, r *http.Request) {
	var input categoryForm
	s.mutateBuilder(w, r, &input, func(b *formschema.Builder) (string, error) {
		return "", b.SelectCategory(types.Category(input.Category))
	})
}

func (s *Service) handlePostBuilderSection(w http.ResponseWriter, r *http.Request) {
	var input sectionForm
	s.mutateBuilder(w, r, &input, func(b *formschema.Builder) (string, error) {
		b.SelectSection(input.Section, input.CustomSection)
		return "", nil
	})
}

func (s *Service) handlePostBuilderPredefined(w http.ResponseWriter, r *http.Request) {
	var input predefinedForm
	s.mutateBuilder(w, r, &input, func(b *formschema.Builder) (string, error) {
		field, err := b.AddPredefinedField(input.FieldName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %s to %s", field.FieldName, field.SectionName), nil
	})
}

func (s *Service) handlePostBuilderCustom(w http.ResponseWriter, r *http.Request) {
	var input formschema.CustomFieldDraft
	s.mutateBuilder(w, r, &input, func(b *formschema.Builder) (string, error) {
		field, err := b.AddCustomField(input)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %s to %s", field.FieldName, field.SectionName), nil
	})
}

func (s *Service) handlePostBuilderReorder(w http.ResponseWriter, r *http.Request) {
	var input reorderForm
	s.mutateBuilder(w, r, &input, func(b *formschema.Builder) (string, error) {
		b.Reorder(types.Category(input.Category), input.Section, input.FromID, input.ToID)
		return "", nil
	})
}

func (s *Service) handlePostBuilderRemove(w http.ResponseWriter, r *http.Request) {
	var input removeForm
	s.mutateBuilder(w, r, &input, func(b *formschema.Builder) (string, error) {
		b.RemoveField(input.FieldID)
		return "Field removed", nil
	})
}

func (s *Service) handlePostBuilderSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	draftID := flow.Param(ctx, "draftID")

	builder, ok := s.loadBuilder(w, r, draftID)
	if !ok {
		return
	}

	start := time.Now()
	_, err := builder.Save(ctx, s.backend.Forms, builder.InstituteID)
	s.observe("save_form", start)
	if err != nil {
		if types.IsValidation(err) {
			s.formSaved(metrics.OutcomeRejected)
		} else {
			s.formSaved(metrics.OutcomeFailed)
			s.logger.WithError(err).WithField("institute_id", builder.InstituteID).Error("failed to save form configuration")
		}
		s.redirectWithError(w, r, builderPath(draftID), types.UserMessage(err))
		return
	}

	s.formSaved(metrics.OutcomeSuccess)
	s.logger.WithField("institute_id", builder.InstituteID).WithField("fields", len(builder.Fields)).Info("form configuration saved")

	s.redirectWithNotice(w, r, builderPath(draftID), "Form configuration saved")
}

// mutateBuilder decodes the posted form into input, applies fn to the stored draft and
// redirects back to the builder. A validation failure leaves the draft as it was, apart from
// the custom field inputs which are kept for correction.
func (s *Service) mutateBuilder(w http.ResponseWriter, r *http.Request, input any, fn func(b *formschema.Builder) (string, error)) {
	ctx := r.Context()
	draftID := flow.Param(ctx, "draftID")

	builder, ok := s.loadBuilder(w, r, draftID)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, builderPath(draftID), "Invalid form submission")
		return
	}

	if err := decoder.Decode(input, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode builder form")
		s.redirectWithError(w, r, builderPath(draftID), "Invalid form submission")
		return
	}

	notice, err := fn(builder)
	if storeErr := s.drafts.Put(ctx, session.KindBuilder, draftID, builder); storeErr != nil {
		s.logger.WithError(storeErr).Error("failed to store builder draft")
		s.internalServerError(w)
		return
	}

	if err != nil {
		if !types.IsValidation(err) {
			s.logger.WithError(err).Error("failed to update builder")
		}
		s.redirectWithError(w, r, builderPath(draftID), types.UserMessage(err))
		return
	}

	if notice == "" {
		http.Redirect(w, r, builderPath(draftID), http.StatusSeeOther)
		return
	}
	s.redirectWithNotice(w, r, builderPath(draftID), notice)
}

func (s *Service) loadBuilder(w http.ResponseWriter, r *http.Request, draftID string) (*formschema.Builder, bool) {
	var builder formschema.Builder
	err := s.drafts.Get(r.Context(), session.KindBuilder, draftID, &builder)
	if errors.Is(err, session.ErrDraftNotFound) {
		s.redirectWithError(w, r, "/settings/forms", "This builder session has expired. Open the institute again.")
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to load builder draft")
		s.internalServerError(w)
		return nil, false
	}

	return builder.WithCatalog(s.catalog), true
}

func (s *Service) formSaved(outcome string) {
	if s.metrics != nil {
		s.metrics.FormSaved(outcome)
	}
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveBackend(operation, start)
	}
}

func builderPath(draftID string) string {
	return "/settings/forms/" + url.PathEscape(draftID)
}

func findInstitution(institutions []*types.Institution, instituteID string) *types.Institution {
	for _, inst := range institutions {
		if inst.InstituteID == instituteID {
			return inst
		}
	}
	return nil
}
