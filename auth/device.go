package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultLoginBaseURL = "https://login.microsoftonline.com"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DeviceCodePrompt is the one-time instruction shown to the user while the
// CLI waits for out-of-band authorization.
type DeviceCodePrompt struct {
	UserCode        string
	VerificationURL string
	Message         string
}

type AuthenticatorConfig struct {
	AppID        string
	Tenant       string
	LoginBaseURL string
	HTTPClient   httpDoer

	// Notify surfaces the device code prompt to the user. Called at most
	// once per device code grant.
	Notify func(DeviceCodePrompt)

	Logger zerolog.Logger
}

// Authenticator acquires access tokens from Azure AD: cached tokens are
// reused while valid, expired ones are refreshed, and the device code grant
// covers the first sign-in.
type Authenticator struct {
	appID        string
	tenant       string
	loginBaseURL string
	httpClient   httpDoer
	notify       func(DeviceCodePrompt)
	logger       zerolog.Logger
}

func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, errors.New("application id is required")
	}
	tenant := strings.TrimSpace(cfg.Tenant)
	if tenant == "" {
		tenant = "common"
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.LoginBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultLoginBaseURL
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	return &Authenticator{
		appID:        cfg.AppID,
		tenant:       tenant,
		loginBaseURL: baseURL,
		httpClient:   doer,
		notify:       cfg.Notify,
		logger:       cfg.Logger,
	}, nil
}

// EnsureAccessToken makes sure session holds a usable access token for its
// resource: a still-valid token is reused without network calls, an expired
// token with a refresh token is refreshed, and otherwise the device code
// grant runs. The session's token is only replaced on success.
func (a *Authenticator) EnsureAccessToken(ctx context.Context, session *Session) error {
	if session.HasValidToken() {
		a.logger.Debug().
			Str("resource", session.Resource).
			Time("expiry", session.Token.Expiry).
			Msg("reusing cached access token")
		return nil
	}

	if session.Token != nil && session.Token.RefreshToken != "" {
		token, err := a.refreshAccessToken(ctx, session.Resource, session.Token.RefreshToken)
		if err == nil {
			session.Token = token
			return nil
		}
		if errors.Is(err, ErrCancelled) {
			return err
		}
		a.logger.Debug().Err(err).Msg("token refresh failed, starting device code grant")
	}

	token, err := a.deviceCodeGrant(ctx, session.Resource)
	if err != nil {
		return err
	}
	session.Token = token
	return nil
}

// deviceCodeGrant runs the OAuth2 device authorization grant for resource:
// one device code request, then sequential polls of the token endpoint until
// the token is issued, the code expires, the user declines, or ctx is
// cancelled. At most one poll request is in flight at a time and no poll is
// scheduled after cancellation.
func (a *Authenticator) deviceCodeGrant(ctx context.Context, resource string) (*oauth2.Token, error) {
	code, err := a.requestDeviceCode(ctx, resource)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("device code request: %w", err)
	}

	if a.notify != nil {
		a.notify(DeviceCodePrompt{
			UserCode:        code.UserCode,
			VerificationURL: code.VerificationURL,
			Message:         code.Message,
		})
	}

	interval := time.Duration(code.Interval.Or(5)) * time.Second
	deadline := time.Now().Add(time.Duration(code.ExpiresIn.Or(900)) * time.Second)

	a.logger.Debug().
		Dur("interval", interval).
		Time("deadline", deadline).
		Msg("waiting for device code authorization")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrCancelled
		case <-timer.C:
		}

		if time.Now().After(deadline) {
			return nil, ErrCodeExpired
		}

		token, err := a.pollToken(ctx, resource, code.DeviceCode)
		switch {
		case err == nil:
			return token, nil
		case errors.Is(err, errAuthorizationPending):
			timer.Reset(interval)
		case errors.Is(err, errSlowDown):
			interval += 5 * time.Second
			timer.Reset(interval)
		case ctx.Err() != nil:
			return nil, ErrCancelled
		default:
			return nil, err
		}
	}
}

// deviceCodeResponse is the Azure AD v1 device authorization payload. The
// endpoint is known to serialize expires_in and interval as strings.
type deviceCodeResponse struct {
	DeviceCode      string  `json:"device_code"`
	UserCode        string  `json:"user_code"`
	VerificationURL string  `json:"verification_url"`
	ExpiresIn       flexInt `json:"expires_in"`
	Interval        flexInt `json:"interval"`
	Message         string  `json:"message"`
}

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    flexInt `json:"expires_in"`
	Error        string  `json:"error"`
	ErrorDesc    string  `json:"error_description"`
}

func (r *tokenResponse) token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		Expiry:       time.Now().Add(time.Duration(r.ExpiresIn.Or(0)) * time.Second),
	}
}

func (a *Authenticator) requestDeviceCode(ctx context.Context, resource string) (*deviceCodeResponse, error) {
	values := url.Values{}
	values.Set("client_id", a.appID)
	values.Set("resource", resource)

	var payload deviceCodeResponse
	if err := a.postForm(ctx, a.endpoint("devicecode"), values, &payload); err != nil {
		return nil, err
	}
	if payload.DeviceCode == "" {
		return nil, errors.New("device authorization response carried no device code")
	}
	return &payload, nil
}

func (a *Authenticator) pollToken(ctx context.Context, resource, deviceCode string) (*oauth2.Token, error) {
	values := url.Values{}
	values.Set("grant_type", "device_code")
	values.Set("code", deviceCode)
	values.Set("client_id", a.appID)
	values.Set("resource", resource)

	var payload tokenResponse
	if err := a.postForm(ctx, a.endpoint("token"), values, &payload); err != nil {
		return nil, err
	}
	if payload.Error != "" {
		return nil, tokenErrorFor(payload)
	}
	return payload.token(), nil
}

func (a *Authenticator) refreshAccessToken(ctx context.Context, resource, refreshToken string) (*oauth2.Token, error) {
	a.logger.Debug().Str("resource", resource).Msg("refreshing expired access token")

	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", refreshToken)
	values.Set("client_id", a.appID)
	values.Set("resource", resource)

	var payload tokenResponse
	if err := a.postForm(ctx, a.endpoint("token"), values, &payload); err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, err
	}
	if payload.Error != "" {
		return nil, tokenErrorFor(payload)
	}
	return payload.token(), nil
}

func tokenErrorFor(payload tokenResponse) error {
	switch payload.Error {
	case "authorization_pending":
		return errAuthorizationPending
	case "slow_down":
		return errSlowDown
	case "authorization_declined", "access_denied":
		return ErrDeclined
	case "expired_token", "code_expired":
		return ErrCodeExpired
	default:
		return &TokenError{Code: payload.Error, Description: payload.ErrorDesc}
	}
}

func (a *Authenticator) endpoint(name string) string {
	return fmt.Sprintf("%s/%s/oauth2/%s", a.loginBaseURL, a.tenant, name)
}

func (a *Authenticator) postForm(ctx context.Context, endpoint string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("create request %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	// Token endpoint errors arrive with 4xx status but a JSON body; decode
	// first and only fail on undecodable responses.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response %s: %w", endpoint, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("request %s failed with status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("decode response %s: %w", endpoint, err)
	}
	return nil
}

// flexInt supports payload fields that can be numeric or quoted numbers.
type flexInt struct {
	Valid bool
	Value int64
}

func (f flexInt) Or(fallback int64) int64 {
	if !f.Valid || f.Value <= 0 {
		return fallback
	}
	return f.Value
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	switch text {
	case "", "null", `""`:
		*f = flexInt{}
		return nil
	}

	var number int64
	if err := json.Unmarshal(data, &number); err == nil {
		*f = flexInt{Valid: true, Value: number}
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := strconv.ParseInt(strings.TrimSpace(asString), 10, 64)
		if err != nil {
			return fmt.Errorf("parse numeric string %q: %w", asString, err)
		}
		*f = flexInt{Valid: true, Value: parsed}
		return nil
	}

	return fmt.Errorf("unsupported numeric value %q", text)
}
