package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "admissions_access_token"
	COOKIE_REDIRECT_NAME     = "admissions_redirect"
)
