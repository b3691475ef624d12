package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), ".loghubrc"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v, want nil for a missing file", err)
	}

	creds := cfg.Credentials(ServiceGitHub)
	if creds != (Credentials{}) {
		t.Errorf("Credentials() = %+v, want empty", creds)
	}
}

func TestLoadFrom_Credentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".loghubrc")
	content := "[github]\ntoken = abc123\nusername = octocat\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	creds := cfg.Credentials(ServiceGitHub)
	if creds.Token != "abc123" {
		t.Errorf("Token = %q, want abc123", creds.Token)
	}
	if creds.Username != "octocat" {
		t.Errorf("Username = %q, want octocat", creds.Username)
	}
	if creds.Password != "" {
		t.Errorf("Password = %q, want empty", creds.Password)
	}
}

func TestCredentials_UnknownService(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".loghubrc")
	if err := os.WriteFile(path, []byte("[github]\ntoken = abc\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if creds := cfg.Credentials("gitlab"); creds != (Credentials{}) {
		t.Errorf("Credentials(gitlab) = %+v, want empty", creds)
	}
}
