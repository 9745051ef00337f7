package spo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrDigest marks failures of the request digest acquisition call.
	ErrDigest = errors.New("request digest acquisition failed")

	// ErrTenantQuery marks failures of the tenant information query.
	ErrTenantQuery = errors.New("tenant information query failed")
)

// tenantQueryBody constructs the well-known tenant administration object
// server-side and queries all its properties. Parameterized only by the
// client application name.
const tenantQueryBody = `<Request AddExpandoFieldTypeSuffix="true" SchemaVersion="15.0.0.0" LibraryVersion="16.0.0.0" ApplicationName="%s" xmlns="http://schemas.microsoft.com/sharepoint/clientquery/2009"><Actions><ObjectPath Id="4" ObjectPathId="3" /><Query Id="5" ObjectPathId="3"><Query SelectAllProperties="true"><Properties /></Query></Query></Actions><ObjectPaths><Constructor Id="3" TypeId="{268004ae-ef6b-4e9b-8425-127220d84719}" /></ObjectPaths></Request>`

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	// ApplicationName identifies the CLI in client-query payloads.
	ApplicationName string
	HTTPClient      httpDoer
	Logger          zerolog.Logger

	// NewRequestID produces the client-request-id header value; defaults to
	// random UUIDs.
	NewRequestID func() string
}

// Client issues the privileged calls against a SharePoint tenant admin site:
// digest acquisition and the tenant identity query.
type Client struct {
	applicationName string
	httpClient      httpDoer
	logger          zerolog.Logger
	newRequestID    func() string
}

func NewClient(cfg ClientConfig) *Client {
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	newRequestID := cfg.NewRequestID
	if newRequestID == nil {
		newRequestID = uuid.NewString
	}
	return &Client{
		applicationName: cfg.ApplicationName,
		httpClient:      doer,
		logger:          cfg.Logger,
		newRequestID:    newRequestID,
	}
}

type contextInfo struct {
	FormDigestValue string `json:"FormDigestValue"`
}

// RequestDigest acquires the short-lived anti-forgery digest required by
// state-changing calls against the site.
func (c *Client) RequestDigest(ctx context.Context, siteURL, accessToken string) (string, error) {
	endpoint := strings.TrimRight(siteURL, "/") + "/_api/contextinfo"

	body, err := c.post(ctx, endpoint, accessToken, nil, "")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDigest, err)
	}

	var info contextInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrDigest, err)
	}
	if info.FormDigestValue == "" {
		return "", fmt.Errorf("%w: response carried no digest value", ErrDigest)
	}
	return info.FormDigestValue, nil
}

// TenantIdentity runs the client query that returns the tenant
// administration object and extracts its identity string from the last
// element of the ordered result array. Embedded newlines are rewritten to
// the protocol's escaped form.
func (c *Client) TenantIdentity(ctx context.Context, siteURL, accessToken, digest string) (string, error) {
	endpoint := strings.TrimRight(siteURL, "/") + "/_vti_bin/client.svc/ProcessQuery"
	query := fmt.Sprintf(tenantQueryBody, c.applicationName)

	body, err := c.post(ctx, endpoint, accessToken, strings.NewReader(query), digest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTenantQuery, err)
	}

	var results []json.RawMessage
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrTenantQuery, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("%w: empty result array", ErrTenantQuery)
	}

	// The first element reports query-level errors.
	var status struct {
		ErrorInfo *struct {
			ErrorMessage string `json:"ErrorMessage"`
		} `json:"ErrorInfo"`
	}
	if err := json.Unmarshal(results[0], &status); err == nil && status.ErrorInfo != nil {
		return "", fmt.Errorf("%w: %s", ErrTenantQuery, status.ErrorInfo.ErrorMessage)
	}

	var tenant struct {
		ObjectIdentity string `json:"_ObjectIdentity_"`
	}
	if err := json.Unmarshal(results[len(results)-1], &tenant); err != nil {
		return "", fmt.Errorf("%w: decode tenant object: %w", ErrTenantQuery, err)
	}
	if tenant.ObjectIdentity == "" {
		return "", fmt.Errorf("%w: tenant object carried no identity", ErrTenantQuery)
	}
	return strings.Replace(tenant.ObjectIdentity, "\n", "&#xA;", 1), nil
}

func (c *Client) post(ctx context.Context, endpoint, accessToken string, body io.Reader, digest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", endpoint, err)
	}

	requestID := c.newRequestID()
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json;odata=nometadata")
	req.Header.Set("client-request-id", requestID)
	if digest != "" {
		req.Header.Set("X-RequestDigest", digest)
	}

	// Request metadata only; never the token.
	c.logger.Debug().
		Str("url", endpoint).
		Str("request_id", requestID).
		Msg("executing web request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf(
			"request %s failed with status %d: %s",
			endpoint,
			resp.StatusCode,
			strings.TrimSpace(string(payload)),
		)
	}
	return payload, nil
}
