package server

import (
	"net/http"
	"net/url"
	"strings"
)

func (s *Service) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Service) redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	s.redirectWithParam(w, r, path, "notice", notice)
}

func (s *Service) redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	s.redirectWithParam(w, r, path, "error", msg)
}

func (s *Service) redirectWithParam(w http.ResponseWriter, r *http.Request, path, key, value string) {
	v := url.Values{}
	v.Set(key, value)

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	http.Redirect(w, r, path+sep+v.Encode(), http.StatusSeeOther)
}
