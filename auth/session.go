package auth

import (
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// ServiceSPO is the connection slot for SharePoint Online sites.
const ServiceSPO = "SPO"

// Session is the mutable connection record for one remote service. Token
// material lives only here; clearing the session discards it. A session with
// Connected == false must not be used to authorize any request.
type Session struct {
	// ResourceURL is the absolute URL of the target endpoint, set at connect
	// time and immutable until disconnect.
	ResourceURL string

	// Resource is the OAuth audience derived from ResourceURL.
	Resource string

	// Token carries the access token, refresh token and expiry.
	Token *oauth2.Token

	// AdminSite reports whether ResourceURL is a tenant admin endpoint,
	// computed once per connection.
	AdminSite bool

	// TenantID is populated only for admin endpoints.
	TenantID string

	Connected bool
}

// HasValidToken reports whether the session holds a non-empty, unexpired
// access token.
func (s *Session) HasValidToken() bool {
	return s != nil && s.Token != nil && s.Token.Valid()
}

// ResourceFromURL derives the OAuth resource identifier (scheme://host) for
// the given endpoint URL.
func ResourceFromURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
