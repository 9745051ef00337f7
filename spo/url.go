package spo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidSiteURL marks site URLs that fail the connect precondition.
var ErrInvalidSiteURL = errors.New("invalid SharePoint Online site URL")

// ValidateSiteURL checks that raw is a well-formed absolute https URL before
// any network call is attempted.
func ValidateSiteURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%w: the site URL is required", ErrInvalidSiteURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidSiteURL, raw)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("%w: %q must use https", ErrInvalidSiteURL, raw)
	}
	return nil
}

// IsTenantAdminSite reports whether the site URL points at a tenant admin
// site. Admin sites follow the -admin.sharepoint.com hostname convention,
// eg. https://contoso-admin.sharepoint.com.
func IsTenantAdminSite(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(parsed.Hostname()), "-admin.sharepoint.com")
}
