package server

import (
	"net/http"

	"admissions/internal/access"
	"admissions/pkg/types"
)

type ErrorPageData struct {
	types.BasePageData
	Status  int
	Message string
}

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	switch {
	case s.can(r.Context(), access.ApplicationsView):
		http.Redirect(w, r, "/applications", http.StatusSeeOther)
	case s.can(r.Context(), access.FormsView):
		http.Redirect(w, r, "/settings/forms", http.StatusSeeOther)
	default:
		s.forbidden(w, r, access.ApplicationsView)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) forbidden(w http.ResponseWriter, r *http.Request, action access.Action) {
	s.logger.WithField("action", action).WithField("path", r.URL.Path).Warn("permission denied")
	s.errorPage(w, r, http.StatusForbidden, "You do not have permission to do that.")
}

func (s *Service) notFound(w http.ResponseWriter, r *http.Request, message string) {
	s.errorPage(w, r, http.StatusNotFound, message)
}

func (s *Service) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := &ErrorPageData{
		BasePageData: types.BasePageData{Title: http.StatusText(status)},
		Status:       status,
		Message:      message,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderTemplate(w, r, "page.error", data); err != nil {
		s.logger.WithError(err).Error("failed to render error page")
	}
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
