package models

// SessionCookie is one cookie captured from the live browser session.
type SessionCookie struct {
	Name   string
	Value  string
	Domain string
}

// AuthBundle holds the credentials extracted from the browser session.
// It is captured once per run and treated as read-only afterwards; there is
// no refresh or re-login path.
type AuthBundle struct {
	Cookies     []SessionCookie
	AuthToken   string
	CSRFToken   string
	BearerToken string
}

// Headers returns the header set every authenticated API request carries.
// The anti-forgery header must echo the ct0 cookie's value exactly.
func (a *AuthBundle) Headers() map[string]string {
	return map[string]string{
		"authorization":             a.BearerToken,
		"x-csrf-token":              a.CSRFToken,
		"x-twitter-auth-type":       "OAuth2Session",
		"x-twitter-active-user":     "yes",
		"x-twitter-client-language": "en",
		"content-type":              "application/json",
	}
}
