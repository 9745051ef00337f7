package auth

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestStore_EstablishReplacesWholesale(t *testing.T) {
	store := NewStore()

	first := store.Establish(ServiceSPO, "https://contoso-admin.sharepoint.com")
	first.Token = &oauth2.Token{AccessToken: "secret", Expiry: time.Now().Add(time.Hour)}
	first.TenantID = "tenant-1"
	first.Connected = true

	second := store.Establish(ServiceSPO, "https://contoso.sharepoint.com/sites/team")
	if second == first {
		t.Fatalf("expected a fresh session on reconnect")
	}
	if second.Token != nil || second.TenantID != "" || second.Connected {
		t.Fatalf("token material leaked into the new session: %+v", second)
	}
	if second.Resource != "https://contoso.sharepoint.com" {
		t.Fatalf("unexpected resource: %q", second.Resource)
	}

	got, ok := store.Get(ServiceSPO)
	if !ok || got != second {
		t.Fatalf("store must hold the replacement session")
	}
}

func TestStore_ClearDiscardsTokenMaterial(t *testing.T) {
	store := NewStore()

	session := store.Establish(ServiceSPO, "https://contoso.sharepoint.com")
	session.Token = &oauth2.Token{AccessToken: "secret", Expiry: time.Now().Add(time.Hour)}
	session.Connected = true

	store.Clear(ServiceSPO)

	if session.Connected || session.Token != nil {
		t.Fatalf("clear must disconnect and drop token material: %+v", session)
	}
	if _, ok := store.Get(ServiceSPO); ok {
		t.Fatalf("cleared service must be absent")
	}

	// Clearing again is idempotent.
	store.Clear(ServiceSPO)
}

func TestResourceFromURL(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"https://contoso.sharepoint.com/sites/team", "https://contoso.sharepoint.com"},
		{"https://contoso-admin.sharepoint.com", "https://contoso-admin.sharepoint.com"},
		{"contoso.sharepoint.com", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ResourceFromURL(tc.input); got != tc.want {
			t.Fatalf("ResourceFromURL(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSession_HasValidToken(t *testing.T) {
	var nilSession *Session
	if nilSession.HasValidToken() {
		t.Fatalf("nil session must not report a valid token")
	}
	if (&Session{}).HasValidToken() {
		t.Fatalf("session without token must not report a valid token")
	}
	expired := &Session{Token: &oauth2.Token{AccessToken: "x", Expiry: time.Now().Add(-time.Minute)}}
	if expired.HasValidToken() {
		t.Fatalf("expired token must not count as valid")
	}
	valid := &Session{Token: &oauth2.Token{AccessToken: "x", Expiry: time.Now().Add(time.Hour)}}
	if !valid.HasValidToken() {
		t.Fatalf("unexpired token must count as valid")
	}
}
