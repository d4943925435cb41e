package httputil

// Auth cookie names.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	CSRFTokenCookie    = "csrf_token"
)

// CSRFTokenHeader carries the double-submit CSRF token on state-changing
// requests that authenticate via cookies.
const CSRFTokenHeader = "X-CSRF-Token"
