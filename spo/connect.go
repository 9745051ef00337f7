package spo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"o365cli/auth"
)

// ProbeOutcome distinguishes how a tenant probe concluded.
type ProbeOutcome int

const (
	// ProbeCompleted means the probe finished and the caller still owes the
	// user a success report.
	ProbeCompleted ProbeOutcome = iota

	// ProbeAlreadyReported means the non-admin happy path reported success
	// itself; the caller must not report again.
	ProbeAlreadyReported
)

type ProbeResult struct {
	Outcome   ProbeOutcome
	AdminSite bool
	TenantID  string
}

// TokenEnsurer acquires or reuses an access token for a session.
type TokenEnsurer interface {
	EnsureAccessToken(ctx context.Context, session *auth.Session) error
}

// AdminClient issues the privileged calls against a tenant admin site.
type AdminClient interface {
	RequestDigest(ctx context.Context, siteURL, accessToken string) (string, error)
	TenantIdentity(ctx context.Context, siteURL, accessToken, digest string) (string, error)
}

type ConnectorConfig struct {
	Sessions *auth.Store
	Auth     TokenEnsurer
	Client   AdminClient
	Out      io.Writer
	Verbose  bool
	Logger   zerolog.Logger
}

// Connector drives a connection attempt end to end: it clears any prior
// session, authenticates, probes for a tenant admin site and reports the
// terminal outcome. On any non-success outcome the SPO session is left
// disconnected.
type Connector struct {
	sessions *auth.Store
	auth     TokenEnsurer
	client   AdminClient
	out      io.Writer
	verbose  bool
	logger   zerolog.Logger
}

func NewConnector(cfg ConnectorConfig) (*Connector, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Auth == nil {
		return nil, errors.New("authenticator is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("admin client is required")
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Connector{
		sessions: cfg.Sessions,
		auth:     cfg.Auth,
		client:   cfg.Client,
		out:      out,
		verbose:  cfg.Verbose,
		logger:   cfg.Logger,
	}, nil
}

// Connect establishes a session for siteURL. A cancelled device code wait
// resolves to auth.ErrCancelled, which callers treat as a quiet outcome, not
// a failure.
func (c *Connector) Connect(ctx context.Context, siteURL string) error {
	if err := ValidateSiteURL(siteURL); err != nil {
		return err
	}

	// Disconnect before re-connecting so two live credential sets never
	// share the connection slot.
	if c.verbose {
		fmt.Fprintln(c.out, "Disconnecting from SPO...")
	}
	c.sessions.Clear(auth.ServiceSPO)

	fmt.Fprintf(c.out, "Authenticating with SharePoint Online at %s...\n", siteURL)

	session := c.sessions.Establish(auth.ServiceSPO, siteURL)
	if err := c.auth.EnsureAccessToken(ctx, session); err != nil {
		c.sessions.Clear(auth.ServiceSPO)
		if errors.Is(err, auth.ErrCancelled) {
			return err
		}
		return fmt.Errorf("authenticating with SharePoint Online: %w", err)
	}
	fmt.Fprintln(c.out, "DONE")

	result, err := c.probe(ctx, session)
	if err != nil {
		c.sessions.Clear(auth.ServiceSPO)
		return err
	}

	c.logger.Debug().
		Bool("admin_site", result.AdminSite).
		Str("site", siteURL).
		Msg("session connected")

	if result.Outcome == ProbeCompleted {
		fmt.Fprintln(c.out, "DONE")
		fmt.Fprintf(c.out, "Successfully connected to %s\n", siteURL)
	}
	return nil
}

// probe classifies the site and, for tenant admin sites, retrieves the
// tenant identity via digest acquisition followed by a single client query.
// A failed admin probe never downgrades to a non-admin connection.
func (c *Connector) probe(ctx context.Context, session *auth.Session) (ProbeResult, error) {
	if c.verbose {
		fmt.Fprintf(c.out, "Checking if %s is a tenant admin site...\n", session.ResourceURL)
	}

	if !IsTenantAdminSite(session.ResourceURL) {
		if c.verbose {
			fmt.Fprintf(c.out, "%s is not a tenant admin site\n", session.ResourceURL)
		}
		session.Connected = true
		fmt.Fprintf(c.out, "Successfully connected to %s\n", session.ResourceURL)
		return ProbeResult{Outcome: ProbeAlreadyReported}, nil
	}

	session.AdminSite = true
	if c.verbose {
		fmt.Fprintf(c.out, "%s is a tenant admin site. Get tenant information...\n", session.ResourceURL)
	}

	digest, err := c.client.RequestDigest(ctx, session.ResourceURL, session.Token.AccessToken)
	if err != nil {
		return ProbeResult{}, err
	}

	fmt.Fprintln(c.out, "Retrieving tenant admin site information...")

	tenantID, err := c.client.TenantIdentity(ctx, session.ResourceURL, session.Token.AccessToken, digest)
	if err != nil {
		return ProbeResult{}, err
	}

	session.TenantID = tenantID
	session.Connected = true
	return ProbeResult{Outcome: ProbeCompleted, AdminSite: true, TenantID: tenantID}, nil
}

// Disconnect clears the SPO session, discarding its token material.
func (c *Connector) Disconnect() {
	c.sessions.Clear(auth.ServiceSPO)
	fmt.Fprintln(c.out, "Disconnected from SharePoint Online")
}
