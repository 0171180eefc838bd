package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewMissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", Credentials{JSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCredentialsResolve(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := (Credentials{}).resolve(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	b, err := (Credentials{}).resolve()
	if err != nil || !strings.Contains(string(b), "service_account") {
		t.Fatalf("expected fallback file, got %q (%v)", b, err)
	}

	b, _ = (Credentials{JSON: `{"inline":true}`, File: path}).resolve()
	if string(b) != `{"inline":true}` {
		t.Fatalf("inline JSON must win, got %q", b)
	}

	if _, err := (Credentials{File: filepath.Join(t.TempDir(), "nope.json")}).resolve(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAddSheetRequests(t *testing.T) {
	reqs := addSheetRequests([]string{"Sheet1", "2025 dépenses"}, []string{"2025 Dépenses", "2025 Revenus", "2025 Revenus"})
	if len(reqs) != 1 || reqs[0].AddSheet.Properties.Title != "2025 Revenus" {
		t.Fatalf("unexpected requests %+v", reqs)
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"2025 Dépenses": "'2025 Dépenses'",
		"Bob's":         "'Bob''s'",
	}
	for in, want := range tests {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if err := c.WriteSheet(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error without service")
	}
	if err := c.EnsureSheets(context.Background(), "x"); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	if err := SaveToken(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode = %v", info.Mode().Perm())
	}
	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RefreshToken != "refresh" || got.AccessToken != "access" {
		t.Fatalf("unexpected token %+v", got)
	}
}

func TestOAuthClientConfig(t *testing.T) {
	if _, err := (OAuthClient{TokenFile: "token.json"}).Config(); err == nil {
		t.Fatal("expected error without client secret")
	}

	secret := `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	cfg, err := (OAuthClient{JSON: secret}).Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.ClientID != "id" || len(cfg.Scopes) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestNewWithMissingOAuthToken(t *testing.T) {
	creds := Credentials{OAuth: OAuthClient{JSON: "{}", TokenFile: filepath.Join(t.TempDir(), "missing.json")}}
	if _, err := New(context.Background(), "sheet-id", creds); err == nil {
		t.Fatal("expected error for unusable oauth client")
	}
}
