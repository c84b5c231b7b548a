package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"admissions/internal/access"
	"admissions/internal/backend"
	"admissions/internal/formschema"
	"admissions/internal/metrics"
	"admissions/internal/render"
	"admissions/internal/session"
	"admissions/internal/submission"
	"admissions/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// Authenticator signs operators in with a username and password.
type Authenticator interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template

	auth     Authenticator
	verifier TokenVerifier
	cookie   *securecookie.SecureCookie

	backend     *backend.Backend
	drafts      session.DraftStore
	catalog     *formschema.Catalog
	submissions *submission.Service
	metrics     *metrics.Metrics

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	auth Authenticator,
	verifier TokenVerifier,
	be *backend.Backend,
	drafts session.DraftStore,
	catalog *formschema.Catalog,
	m *metrics.Metrics,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger:   logger,
		config:   config,
		auth:     auth,
		verifier: verifier,
		cookie:   securecookie.New(hashKey, blockKey),

		backend:     be,
		drafts:      drafts,
		catalog:     catalog,
		submissions: submission.NewService(logger, be.Applications, config.AcademicYear),
		metrics:     m,

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler(), http.MethodGet)
	}

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/", s.handleHome, http.MethodGet)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequirePermission(access.FormsView))

			r.HandleFunc("/settings/forms", s.handleGetFormSettings, http.MethodGet)
			r.HandleFunc("/settings/forms/:draftID", s.handleGetBuilder, http.MethodGet)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequirePermission(access.FormsEdit))

			r.HandleFunc("/settings/forms", s.handlePostOpenBuilder, http.MethodPost)
			r.HandleFunc("/settings/forms/:draftID/category", s.handlePostBuilderCategory, http.MethodPost)
			r.HandleFunc("/settings/forms/:draftID/section", s.handlePostBuilderSection, http.MethodPost)
			r.HandleFunc("/settings/forms/:draftID/predefined", s.handlePostBuilderPredefined, http.MethodPost)
			r.HandleFunc("/settings/forms/:draftID/custom", s.handlePostBuilderCustom, http.MethodPost)
			r.HandleFunc("/settings/forms/:draftID/reorder", s.handlePostBuilderReorder, http.MethodPost)
			r.HandleFunc("/settings/forms/:draftID/remove", s.handlePostBuilderRemove, http.MethodPost)
			r.HandleFunc("/settings/forms/:draftID/save", s.handlePostBuilderSave, http.MethodPost)
		})

		// flow matches routes in declaration order, so /applications/new must precede
		// /applications/:applicationID
		r.Group(func(r *flow.Mux) {
			r.Use(s.RequirePermission(access.ApplicationsCreate))

			r.HandleFunc("/applications/new", s.handleGetNewApplication, http.MethodGet)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequirePermission(access.ApplicationsView))

			r.HandleFunc("/applications", s.handleGetApplications, http.MethodGet)
			r.HandleFunc("/applications/:applicationID", s.handleGetApplication, http.MethodGet)
			r.HandleFunc("/applications/:applicationID/files/:fieldName", s.handleGetApplicationFile, http.MethodGet)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequirePermission(access.ApplicationsEdit))

			r.HandleFunc("/applications/:applicationID/edit", s.handleGetEditApplication, http.MethodGet)
		})

		// wizard drafts remember whether they create or edit; the handlers check the
		// matching permission
		r.HandleFunc("/wizard/:wizardID", s.handleGetWizard, http.MethodGet)
		r.HandleFunc("/wizard/:wizardID", s.handlePostWizard, http.MethodPost)
	})

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"isImage": render.IsImageFile,
		"categoryID": func(c types.Category) string {
			return strings.ToLower(string(c))
		},
		"join": strings.Join,
		"dict": func(pairs ...any) map[string]any {
			out := make(map[string]any, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				key, _ := pairs[i].(string)
				out[key] = pairs[i+1]
			}
			return out
		},
		"derefInt": func(v *int) int {
			if v == nil {
				return 0
			}
			return *v
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) readOptions() render.ReadOptions {
	opts := render.ReadOptions{MaxFileBytes: s.config.MaxUploadMB << 20}
	if s.config.CheckboxAccumulate {
		opts.Checkbox = render.CheckboxAccumulate
	}
	return opts
}
