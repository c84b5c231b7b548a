package server

import (
	"net/http"

	"admissions/internal/access"
	"admissions/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{}
		if identity := identityFromContext(r.Context()); identity != nil {
			navbar = types.NavbarData{
				IsAuthenticated: true,
				UserID:          identity.UserID,
				UserEmail:       identity.Email,
				CanViewForms:    access.Can(identity.Permissions, access.FormsView),
				CanEditForms:    access.Can(identity.Permissions, access.FormsEdit),
				CanViewApps:     access.Can(identity.Permissions, access.ApplicationsView),
				CanCreateApps:   access.Can(identity.Permissions, access.ApplicationsCreate),
			}
		}
		setter.SetNavbarData(navbar)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}
