package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"admissions/internal"
	"admissions/internal/access"
	"admissions/internal/backend"
	"admissions/internal/formschema"
	"admissions/internal/metrics"
	"admissions/internal/render"
	"admissions/internal/session"
	"admissions/internal/submission"
	"admissions/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenAdmin      = "token-admin"
	tokenCounsellor = "token-counsellor"
	tokenViewer     = "token-viewer"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, raw string) (*Identity, error) {
	role := strings.TrimPrefix(raw, "token-")
	if !access.IsValidRole(role) {
		return nil, errors.New("unknown token")
	}
	return &Identity{
		UserID:      "user-" + role,
		Email:       role + "@example.com",
		Groups:      []string{role},
		Permissions: access.NewSet([]string{role}, nil),
		Token:       raw,
	}, nil
}

type MockAuthenticator struct {
	InitiateAuthFunc func(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

func (m *MockAuthenticator) InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	return m.InitiateAuthFunc(ctx, params, optFns...)
}

type memoryForms struct {
	mu    sync.Mutex
	forms map[string]*types.FormDocument
}

func (m *memoryForms) FormByInstitute(_ context.Context, instituteID string) (*types.FormDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.forms[instituteID]
	if !ok {
		return nil, types.ErrFormNotFound
	}
	return doc, nil
}

func (m *memoryForms) SaveForm(_ context.Context, doc *types.FormDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[doc.InstituteID] = doc
	return nil
}

type memoryInstitutions struct{}

func (memoryInstitutions) ActiveInstitutions(context.Context) ([]*types.Institution, error) {
	return []*types.Institution{
		{InstituteID: "inst-1", Name: "St. Xavier's College", IsActive: true},
		{InstituteID: "inst-2", Name: "Loyola Institute", IsActive: true},
	}, nil
}

func (memoryInstitutions) SettingsByInstitute(_ context.Context, instituteID string) (*types.InstituteSettings, error) {
	return &types.InstituteSettings{InstituteID: instituteID, Courses: []string{"BSc Physics", "BCom"}}, nil
}

type memoryApplications struct {
	mu     sync.Mutex
	apps   map[string]*types.Application
	files  map[string]string
	nextID int
	fail   error

	// anonymous makes creates answer without the stored record, like an API reply with no data
	anonymous bool
}

func (m *memoryApplications) CreateApplication(_ context.Context, payload *submission.Payload) (*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	m.nextID++
	app := applicationFrom(fmt.Sprintf("app-%d", m.nextID), payload)
	m.apps[app.ID] = app
	if m.anonymous {
		return &types.Application{}, nil
	}
	return app, nil
}

func (m *memoryApplications) UpdateApplication(_ context.Context, id string, payload *submission.Payload) (*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return nil, &types.RequestError{Status: http.StatusNotFound, Message: "Application not found."}
	}
	app := applicationFrom(id, payload)
	m.apps[id] = app
	return app, nil
}

func (m *memoryApplications) ApplicationByID(_ context.Context, id string) (*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, types.ErrApplicationNotFound
	}
	return app, nil
}

func (m *memoryApplications) RecentApplications(_ context.Context, instituteID string, _ uint64) ([]*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Application
	for _, app := range m.apps {
		if instituteID == "" || app.InstituteID == instituteID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (m *memoryApplications) FileURL(_ context.Context, applicationID, fieldName string) (string, error) {
	link, ok := m.files[applicationID+"/"+fieldName]
	if !ok {
		return "", types.ErrFileNotFound
	}
	return link, nil
}

func applicationFrom(id string, payload *submission.Payload) *types.Application {
	app := &types.Application{
		ID:            id,
		InstituteID:   payload.InstituteID,
		AcademicYear:  payload.AcademicYear,
		Program:       payload.Program,
		PersonalData:  payload.PersonalData,
		EducationData: payload.EducationData,
		UpdatedAt:     time.Now(),
	}
	if payload.LeadID != "" {
		app.LeadID = aws.String(payload.LeadID)
	}
	return app
}

func wizardDocument() *types.FormDocument {
	return &types.FormDocument{
		InstituteID: "inst-1",
		PersonalDetails: []types.Section{{
			SectionName: formschema.SectionPersonalDetails,
			Fields: []types.FieldDescriptor{
				{FieldName: "Full Name", Label: "Full Name", Type: types.FieldTypeText, Required: true},
				{FieldName: formschema.FieldEmailAddress, Label: formschema.FieldEmailAddress, Type: types.FieldTypeEmail, Required: true},
				{FieldName: formschema.FieldContactNumber, Label: formschema.FieldContactNumber, Type: types.FieldTypeNumber, Required: true},
				{FieldName: "Photograph", Label: "Photograph", Type: types.FieldTypeFile},
			},
		}},
		EducationDetails: []types.Section{{
			SectionName: "10th Details",
			Fields: []types.FieldDescriptor{
				{FieldName: "10th Board", Label: "10th Board", Type: types.FieldTypeSelect, Required: true, Options: []string{"CBSE", "ICSE"}},
			},
		}},
	}
}

type testServer struct {
	service *Service
	forms   *memoryForms
	apps    *memoryApplications
	drafts  session.DraftStore
	auth    *MockAuthenticator
	logs    *logtest.Hook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)

	config := &types.Config{
		ServerPort:     8080,
		CookieHashKey:  base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("h"), 32)),
		CookieBlockKey: base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("b"), 32)),
		MaxUploadMB:    1,
		AcademicYear:   "2025-2026",
	}

	ts := &testServer{
		forms: &memoryForms{forms: map[string]*types.FormDocument{"inst-1": wizardDocument()}},
		apps: &memoryApplications{
			apps:  map[string]*types.Application{},
			files: map[string]string{},
		},
		drafts: session.NewMemoryStore(64, time.Hour),
		auth:   &MockAuthenticator{},
		logs:   logtest.NewLocal(logger),
	}

	be := &backend.Backend{Forms: ts.forms, Institutions: memoryInstitutions{}, Applications: ts.apps}

	service, err := New(config, logger, ts.auth, fakeVerifier{}, be, ts.drafts, formschema.DefaultCatalog(), metrics.New())
	require.NoError(t, err)
	ts.service = service

	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		encoded, err := ts.service.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, token)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: internal.COOKIE_ACCESS_TOKEN_NAME, Value: encoded})
	}
	rec := httptest.NewRecorder()
	ts.service.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (ts *testServer) postForm(t *testing.T, path, token string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(t, req, token)
}

func (ts *testServer) postMultipart(t *testing.T, path, token string, values map[string]string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, name := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("contents of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(t, req, token)
}

func (ts *testServer) logEntry(message string) *logrus.Entry {
	for _, entry := range ts.logs.AllEntries() {
		if entry.Message == message {
			return entry
		}
	}
	return nil
}

func location(t *testing.T, rec *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.get(t, "/healthz", "")
	rec := ts.get(t, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequireAuthRemembersPath(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/applications?institute=inst-1", "")
	assert.Equal(t, "/login", location(t, rec).Path)

	var redirect *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == internal.COOKIE_REDIRECT_NAME {
			redirect = c
		}
	}
	require.NotNil(t, redirect)
	assert.Equal(t, "/applications?institute=inst-1", redirect.Value)
}

func TestRequireAuthRejectsUnknownToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/applications", "token-nobody")
	assert.Equal(t, "/login", location(t, rec).Path)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.InitiateAuthFunc = func(_ context.Context, params *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
		if params.AuthParameters["PASSWORD"] != "correct" {
			return nil, errors.New("NotAuthorizedException")
		}
		return &cognitoidentityprovider.InitiateAuthOutput{
			AuthenticationResult: &cognitotypes.AuthenticationResultType{
				AccessToken: aws.String(tokenAdmin),
				ExpiresIn:   3600,
			},
		}, nil
	}

	t.Run("renders the form", func(t *testing.T) {
		rec := ts.get(t, "/login", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="password"`)
	})

	t.Run("rejects bad credentials", func(t *testing.T) {
		rec := ts.postForm(t, "/login", "", url.Values{"email": {"admin@example.com"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	})

	t.Run("sets the token cookie", func(t *testing.T) {
		rec := ts.postForm(t, "/login", "", url.Values{"email": {"admin@example.com"}, "password": {"correct"}})
		assert.Equal(t, "/", location(t, rec).Path)

		var token string
		for _, c := range rec.Result().Cookies() {
			if c.Name == internal.COOKIE_ACCESS_TOKEN_NAME {
				require.NoError(t, ts.service.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, c.Value, &token))
			}
		}
		assert.Equal(t, tokenAdmin, token)
	})
}

func TestHomeRedirectsByPermission(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/", tokenViewer)
	assert.Equal(t, "/applications", location(t, rec).Path)
}

func TestFormSettingsPermissions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/settings/forms?institute=inst-1", tokenViewer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Full Name")
	assert.NotContains(t, rec.Body.String(), "Open builder")

	rec = ts.postForm(t, "/settings/forms", tokenViewer, url.Values{"institute_id": {"inst-1"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuilderFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.postForm(t, "/settings/forms", tokenAdmin, url.Values{"institute_id": {"inst-2"}})
	loc := location(t, rec)
	assert.True(t, strings.HasPrefix(loc.Path, "/settings/forms/"))
	assert.Contains(t, loc.Query().Get("notice"), "No form has been configured")
	draftPath := loc.Path

	rec = ts.get(t, draftPath, tokenAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loyola Institute")

	// saving without the mandatory contact fields is refused
	rec = ts.postForm(t, draftPath+"/save", tokenAdmin, nil)
	assert.NotEmpty(t, location(t, rec).Query().Get("error"))
	_, err := ts.forms.FormByInstitute(context.Background(), "inst-2")
	assert.ErrorIs(t, err, types.ErrFormNotFound)

	// adding a field before picking a section is refused
	rec = ts.postForm(t, draftPath+"/predefined", tokenAdmin, url.Values{"field_name": {formschema.FieldEmailAddress}})
	assert.Equal(t, "Select section", location(t, rec).Query().Get("error"))

	rec = ts.postForm(t, draftPath+"/section", tokenAdmin, url.Values{"section": {formschema.SectionPersonalDetails}})
	assert.Empty(t, location(t, rec).Query().Get("error"))

	for _, name := range []string{formschema.FieldEmailAddress, formschema.FieldContactNumber} {
		rec = ts.postForm(t, draftPath+"/predefined", tokenAdmin, url.Values{"field_name": {name}})
		assert.Empty(t, location(t, rec).Query().Get("error"), name)
	}

	rec = ts.postForm(t, draftPath+"/custom", tokenAdmin, url.Values{
		"field_name": {"Blood Group"},
		"field_type": {"select"},
		"options":    {"A+, B+, O+"},
	})
	assert.Empty(t, location(t, rec).Query().Get("error"))

	rec = ts.postForm(t, draftPath+"/save", tokenAdmin, nil)
	assert.Equal(t, "Form configuration saved", location(t, rec).Query().Get("notice"))

	doc, err := ts.forms.FormByInstitute(context.Background(), "inst-2")
	require.NoError(t, err)
	fields := formschema.CategoryFields(doc, types.CategoryPersonal)
	require.Len(t, fields, 3)
	assert.Equal(t, formschema.FieldEmailAddress, fields[0].FieldName)
	assert.Equal(t, "Blood Group", fields[2].FieldName)
	assert.Equal(t, []string{"A+", "B+", "O+"}, fields[2].Options)
}

func TestBuilderExpiredDraft(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/settings/forms/missing", tokenAdmin)
	loc := location(t, rec)
	assert.Equal(t, "/settings/forms", loc.Path)
	assert.Contains(t, loc.Query().Get("error"), "expired")
}

func TestWizardCreateFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/applications/new?institute=inst-1&lead=lead-7", tokenCounsellor)
	wizardURL := location(t, rec).Path
	wizardID := strings.TrimPrefix(wizardURL, "/wizard/")

	rec = ts.get(t, wizardURL, tokenCounsellor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BSc Physics")
	assert.Contains(t, rec.Body.String(), "Full Name")

	personal := map[string]string{
		"action":                                          "next",
		"institute_id":                                    "inst-1",
		"program":                                         "BSc Physics",
		render.InputName("Full Name"):                     "Asha Rao",
		render.InputName(formschema.FieldEmailAddress):    "not-an-email",
		render.InputName(formschema.FieldContactNumber):   "9876543210",
	}

	// an invalid email keeps the wizard on the personal step
	rec = ts.postMultipart(t, wizardURL, tokenCounsellor, personal, nil)
	assert.Equal(t, wizardURL, location(t, rec).Path)

	var wizard submission.Wizard
	require.NoError(t, ts.drafts.Get(context.Background(), session.KindWizard, wizardID, &wizard))
	assert.Equal(t, submission.StepPersonal, wizard.Step)
	assert.NotEmpty(t, wizard.Error)

	entry := ts.logEntry("wizard step rejected")
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, wizardID, entry.Data["wizard_id"])

	personal[render.InputName(formschema.FieldEmailAddress)] = "asha@example.com"
	rec = ts.postMultipart(t, wizardURL, tokenCounsellor, personal, map[string]string{render.InputName("Photograph"): "asha.png"})
	assert.Equal(t, wizardURL, location(t, rec).Path)

	require.NoError(t, ts.drafts.Get(context.Background(), session.KindWizard, wizardID, &wizard))
	assert.Equal(t, submission.StepEducation, wizard.Step)
	assert.Empty(t, wizard.Error)

	rec = ts.postMultipart(t, wizardURL, tokenCounsellor, map[string]string{
		"action":                       "submit",
		render.InputName("10th Board"): "CBSE",
	}, nil)
	loc := location(t, rec)
	assert.Equal(t, "/applications/app-1", loc.Path)
	assert.Equal(t, "Application submitted", loc.Query().Get("notice"))

	app, err := ts.apps.ApplicationByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", app.InstituteID)
	assert.Equal(t, "BSc Physics", app.Program)
	assert.Equal(t, "2025-2026", app.AcademicYear)
	assert.Equal(t, "lead-7", *app.LeadID)
	assert.Equal(t, "Asha Rao", app.PersonalData["Full Name"])
	assert.Equal(t, "CBSE", app.EducationData["10th Board"])

	err = ts.drafts.Get(context.Background(), session.KindWizard, wizardID, &wizard)
	assert.ErrorIs(t, err, session.ErrDraftNotFound)
}

func TestWizardSubmitFailureKeepsStep(t *testing.T) {
	ts := newTestServer(t)
	ts.apps.fail = &types.RequestError{Status: http.StatusConflict, Message: "Duplicate application"}

	rec := ts.get(t, "/applications/new?institute=inst-1", tokenCounsellor)
	wizardURL := location(t, rec).Path
	wizardID := strings.TrimPrefix(wizardURL, "/wizard/")

	ts.postMultipart(t, wizardURL, tokenCounsellor, map[string]string{
		"action":                                        "next",
		"institute_id":                                  "inst-1",
		"program":                                       "BCom",
		render.InputName("Full Name"):                   "Ravi",
		render.InputName(formschema.FieldEmailAddress):  "ravi@example.com",
		render.InputName(formschema.FieldContactNumber): "9000000000",
	}, nil)

	rec = ts.postMultipart(t, wizardURL, tokenCounsellor, map[string]string{
		"action":                       "submit",
		render.InputName("10th Board"): "ICSE",
	}, nil)
	assert.Equal(t, wizardURL, location(t, rec).Path)

	var wizard submission.Wizard
	require.NoError(t, ts.drafts.Get(context.Background(), session.KindWizard, wizardID, &wizard))
	assert.Equal(t, submission.StepEducation, wizard.Step)
	assert.Equal(t, "Duplicate application", wizard.Error)

	rec = ts.get(t, wizardURL, tokenCounsellor)
	assert.Contains(t, rec.Body.String(), "Duplicate application")
}

func TestWizardSubmitWithoutReturnedID(t *testing.T) {
	ts := newTestServer(t)
	ts.apps.anonymous = true

	rec := ts.get(t, "/applications/new?institute=inst-1", tokenCounsellor)
	wizardURL := location(t, rec).Path

	ts.postMultipart(t, wizardURL, tokenCounsellor, map[string]string{
		"action":                                        "next",
		"institute_id":                                  "inst-1",
		"program":                                       "BCom",
		render.InputName("Full Name"):                   "Meera",
		render.InputName(formschema.FieldEmailAddress):  "meera@example.com",
		render.InputName(formschema.FieldContactNumber): "9111111111",
	}, nil)

	rec = ts.postMultipart(t, wizardURL, tokenCounsellor, map[string]string{
		"action":                       "submit",
		render.InputName("10th Board"): "CBSE",
	}, nil)
	loc := location(t, rec)
	assert.Equal(t, "/applications", loc.Path)
	assert.Equal(t, "Application submitted", loc.Query().Get("notice"))
}

func TestWizardBackDoesNotValidate(t *testing.T) {
	ts := newTestServer(t)

	wizard := submission.NewWizard("inst-1", "")
	wizard.Step = submission.StepEducation
	wizard.Program = "BCom"
	require.NoError(t, ts.drafts.Put(context.Background(), session.KindWizard, wizard.ID, wizard))

	rec := ts.postForm(t, wizardPath(wizard.ID), tokenCounsellor, url.Values{"action": {"back"}})
	assert.Equal(t, wizardPath(wizard.ID), location(t, rec).Path)

	var stored submission.Wizard
	require.NoError(t, ts.drafts.Get(context.Background(), session.KindWizard, wizard.ID, &stored))
	assert.Equal(t, submission.StepPersonal, stored.Step)
	assert.Empty(t, stored.Error)
}

func TestWizardPermissions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get(t, "/applications/new", tokenViewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	wizard := submission.NewWizard("inst-1", "")
	require.NoError(t, ts.drafts.Put(context.Background(), session.KindWizard, wizard.ID, wizard))

	rec = ts.get(t, wizardPath(wizard.ID), tokenViewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func seedApplication(ts *testServer) *types.Application {
	app := &types.Application{
		ID:           "app-9",
		InstituteID:  "inst-1",
		AcademicYear: "2025-2026",
		Program:      "BCom",
		PersonalData: map[string]any{
			"Full Name":                   "Meera Iyer",
			formschema.FieldEmailAddress:  "meera@example.com",
			formschema.FieldContactNumber: "9123456789",
			"Photograph":                  "meera.jpg",
			"Legacy Field":                "kept",
		},
		EducationData: map[string]any{"10th Board": "ICSE"},
		UpdatedAt:     time.Now(),
	}
	ts.apps.apps[app.ID] = app
	ts.apps.files[app.ID+"/Photograph"] = "https://files.example/meera.jpg"
	return app
}

func TestApplicationViews(t *testing.T) {
	ts := newTestServer(t)
	seedApplication(ts)

	rec := ts.get(t, "/applications", tokenViewer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app-9")
	assert.Contains(t, rec.Body.String(), "St. Xavier&#39;s College")

	rec = ts.get(t, "/applications/app-9", tokenViewer)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Meera Iyer")
	assert.Contains(t, body, "/applications/app-9/files/Photograph")
	assert.Contains(t, body, "Legacy Field")
	assert.NotContains(t, body, "Edit application")

	rec = ts.get(t, "/applications/unknown", tokenViewer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplicationFileRedirect(t *testing.T) {
	ts := newTestServer(t)
	seedApplication(ts)

	rec := ts.get(t, "/applications/app-9/files/Photograph", tokenViewer)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://files.example/meera.jpg", rec.Header().Get("Location"))

	rec = ts.get(t, "/applications/app-9/files/Marksheet", tokenViewer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWizardEditFlow(t *testing.T) {
	ts := newTestServer(t)
	seedApplication(ts)

	rec := ts.get(t, "/applications/app-9/edit", tokenViewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.get(t, "/applications/app-9/edit", tokenCounsellor)
	wizardURL := location(t, rec).Path

	rec = ts.get(t, wizardURL, tokenCounsellor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Meera Iyer")
	assert.Contains(t, rec.Body.String(), "meera.jpg")

	ts.postMultipart(t, wizardURL, tokenCounsellor, map[string]string{
		"action":                                        "next",
		"program":                                       "BCom",
		render.InputName("Full Name"):                   "Meera S. Iyer",
		render.InputName(formschema.FieldEmailAddress):  "meera@example.com",
		render.InputName(formschema.FieldContactNumber): "9123456789",
	}, nil)

	rec = ts.postMultipart(t, wizardURL, tokenCounsellor, map[string]string{
		"action":                       "submit",
		render.InputName("10th Board"): "ICSE",
	}, nil)
	loc := location(t, rec)
	assert.Equal(t, "/applications/app-9", loc.Path)
	assert.Equal(t, "Application updated", loc.Query().Get("notice"))

	app, err := ts.apps.ApplicationByID(context.Background(), "app-9")
	require.NoError(t, err)
	assert.Equal(t, "Meera S. Iyer", app.PersonalData["Full Name"])
	assert.Equal(t, "meera.jpg", app.PersonalData["Photograph"])
}
