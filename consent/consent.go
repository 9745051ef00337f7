// Package consent builds admin-consent URLs for downstream services the CLI
// can talk to on the user's behalf.
package consent

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrUnknownService is returned for service names outside the scope mapping.
var ErrUnknownService = errors.New("unknown consent service")

// serviceScopes maps a service name to the OAuth scope its commands require.
var serviceScopes = map[string]string{
	"yammer": "https://api.yammer.com/user_impersonation",
}

// Services returns the known service names, sorted.
func Services() []string {
	names := make([]string, 0, len(serviceScopes))
	for name := range serviceScopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the authorize URL a tenant administrator must visit to
// consent the given service's permissions to the application. An unset
// tenant targets the multi-tenant alias.
func Build(service, tenant, appID string) (string, error) {
	scope, ok := serviceScopes[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return "", fmt.Errorf("%w: %q (known services: %s)", ErrUnknownService, service, strings.Join(Services(), ", "))
	}

	if strings.TrimSpace(tenant) == "" {
		tenant = "common"
	}

	return fmt.Sprintf(
		"https://login.microsoftonline.com/%s/oauth2/v2.0/authorize?client_id=%s&response_type=code&scope=%s",
		tenant,
		appID,
		url.QueryEscape(scope),
	), nil
}
