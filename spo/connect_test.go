package spo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"o365cli/auth"
)

type fakeEnsurer struct {
	calls int
	err   error
}

func (f *fakeEnsurer) EnsureAccessToken(_ context.Context, session *auth.Session) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	session.Token = &oauth2.Token{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		Expiry:       time.Now().Add(time.Hour),
	}
	return nil
}

type fakeAdminClient struct {
	calls     []string
	digestErr error
	queryErr  error
	tenantID  string
}

func (f *fakeAdminClient) RequestDigest(_ context.Context, siteURL, accessToken string) (string, error) {
	f.calls = append(f.calls, "digest")
	if f.digestErr != nil {
		return "", f.digestErr
	}
	return "digest-value", nil
}

func (f *fakeAdminClient) TenantIdentity(_ context.Context, siteURL, accessToken, digest string) (string, error) {
	f.calls = append(f.calls, "query:"+digest)
	if f.queryErr != nil {
		return "", f.queryErr
	}
	return f.tenantID, nil
}

func testConnector(t *testing.T, sessions *auth.Store, ensurer TokenEnsurer, client AdminClient, out *bytes.Buffer) *Connector {
	t.Helper()
	connector, err := NewConnector(ConnectorConfig{
		Sessions: sessions,
		Auth:     ensurer,
		Client:   client,
		Out:      out,
	})
	if err != nil {
		t.Fatalf("create connector: %v", err)
	}
	return connector
}

func TestConnect_RegularSite(t *testing.T) {
	sessions := auth.NewStore()
	client := &fakeAdminClient{}
	var out bytes.Buffer

	connector := testConnector(t, sessions, &fakeEnsurer{}, client, &out)
	if err := connector.Connect(context.Background(), "https://contoso.sharepoint.com/sites/team"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(client.calls) != 0 {
		t.Fatalf("regular site must not trigger admin calls, got %v", client.calls)
	}

	session, ok := sessions.Get(auth.ServiceSPO)
	if !ok || !session.Connected {
		t.Fatalf("expected a connected session, got %+v", session)
	}
	if session.AdminSite || session.TenantID != "" {
		t.Fatalf("regular site must not carry tenant info: %+v", session)
	}
	if !strings.Contains(out.String(), "Successfully connected to https://contoso.sharepoint.com/sites/team") {
		t.Fatalf("missing success report:\n%s", out.String())
	}
	// The probe reported success itself; the orchestrator must not repeat it.
	if strings.Count(out.String(), "Successfully connected") != 1 {
		t.Fatalf("success reported more than once:\n%s", out.String())
	}
}

func TestConnect_AdminSite(t *testing.T) {
	sessions := auth.NewStore()
	client := &fakeAdminClient{tenantID: "tenant-identity&#xA;Tenant"}
	var out bytes.Buffer

	connector := testConnector(t, sessions, &fakeEnsurer{}, client, &out)
	if err := connector.Connect(context.Background(), "https://contoso-admin.sharepoint.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"digest", "query:digest-value"}
	if len(client.calls) != len(want) || client.calls[0] != want[0] || client.calls[1] != want[1] {
		t.Fatalf("expected exactly one digest then one query, got %v", client.calls)
	}

	session, ok := sessions.Get(auth.ServiceSPO)
	if !ok || !session.Connected || !session.AdminSite {
		t.Fatalf("expected a connected admin session, got %+v", session)
	}
	if session.TenantID != "tenant-identity&#xA;Tenant" {
		t.Fatalf("unexpected tenant id: %q", session.TenantID)
	}
	if !strings.Contains(out.String(), "Successfully connected to https://contoso-admin.sharepoint.com") {
		t.Fatalf("missing success report:\n%s", out.String())
	}
}

func TestConnect_DigestFailureLeavesDisconnected(t *testing.T) {
	sessions := auth.NewStore()
	client := &fakeAdminClient{digestErr: errors.New("boom")}
	var out bytes.Buffer

	connector := testConnector(t, sessions, &fakeEnsurer{}, client, &out)
	err := connector.Connect(context.Background(), "https://contoso-admin.sharepoint.com")
	if err == nil {
		t.Fatalf("expected digest failure to propagate")
	}
	if _, ok := sessions.Get(auth.ServiceSPO); ok {
		t.Fatalf("failed connect must leave no session")
	}
	if len(client.calls) != 1 {
		t.Fatalf("query must not run after a failed digest, got %v", client.calls)
	}
}

func TestConnect_QueryFailureLeavesDisconnected(t *testing.T) {
	sessions := auth.NewStore()
	client := &fakeAdminClient{queryErr: errors.New("boom")}
	var out bytes.Buffer

	connector := testConnector(t, sessions, &fakeEnsurer{}, client, &out)
	if err := connector.Connect(context.Background(), "https://contoso-admin.sharepoint.com"); err == nil {
		t.Fatalf("expected query failure to propagate")
	}
	if _, ok := sessions.Get(auth.ServiceSPO); ok {
		t.Fatalf("failed connect must leave no session")
	}
}

func TestConnect_CancelledIsQuiet(t *testing.T) {
	sessions := auth.NewStore()
	var out bytes.Buffer

	connector := testConnector(t, sessions, &fakeEnsurer{err: auth.ErrCancelled}, &fakeAdminClient{}, &out)
	err := connector.Connect(context.Background(), "https://contoso.sharepoint.com")
	if !errors.Is(err, auth.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if _, ok := sessions.Get(auth.ServiceSPO); ok {
		t.Fatalf("cancelled connect must leave no session")
	}
}

func TestConnect_ReplacesPriorSession(t *testing.T) {
	sessions := auth.NewStore()
	prior := sessions.Establish(auth.ServiceSPO, "https://contoso-admin.sharepoint.com")
	prior.Token = &oauth2.Token{AccessToken: "old-secret", Expiry: time.Now().Add(time.Hour)}
	prior.Connected = true

	var out bytes.Buffer
	connector := testConnector(t, sessions, &fakeEnsurer{err: errors.New("auth failed")}, &fakeAdminClient{}, &out)
	if err := connector.Connect(context.Background(), "https://contoso.sharepoint.com"); err == nil {
		t.Fatalf("expected auth failure to propagate")
	}

	// The prior session was fully cleared before the new attempt began.
	if prior.Connected || prior.Token != nil {
		t.Fatalf("prior session must be cleared before reconnecting: %+v", prior)
	}
	if _, ok := sessions.Get(auth.ServiceSPO); ok {
		t.Fatalf("failed connect must leave no session")
	}
}

func TestConnect_InvalidURLFailsBeforeAuth(t *testing.T) {
	sessions := auth.NewStore()
	ensurer := &fakeEnsurer{}
	var out bytes.Buffer

	connector := testConnector(t, sessions, ensurer, &fakeAdminClient{}, &out)
	err := connector.Connect(context.Background(), "contoso.sharepoint.com")
	if !errors.Is(err, ErrInvalidSiteURL) {
		t.Fatalf("expected ErrInvalidSiteURL, got %v", err)
	}
	if ensurer.calls != 0 {
		t.Fatalf("validation must run before any authentication")
	}
}

func TestDisconnect(t *testing.T) {
	sessions := auth.NewStore()
	session := sessions.Establish(auth.ServiceSPO, "https://contoso.sharepoint.com")
	session.Connected = true

	var out bytes.Buffer
	connector := testConnector(t, sessions, &fakeEnsurer{}, &fakeAdminClient{}, &out)
	connector.Disconnect()

	if _, ok := sessions.Get(auth.ServiceSPO); ok {
		t.Fatalf("disconnect must remove the session")
	}
	if !strings.Contains(out.String(), "Disconnected from SharePoint Online") {
		t.Fatalf("missing disconnect confirmation:\n%s", out.String())
	}
}
