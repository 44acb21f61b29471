package app

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/addressable/internal/config"
	"github.com/five82/addressable/internal/keychain"
)

func TestOpenWiresServices(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvStateDir, dir)

	svc, err := Open(Options{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		Origin:     "http://127.0.0.1:8089",
		PollEvery:  3,
		LogWriter:  io.Discard,
	})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer svc.Close()

	if got := svc.Client.BaseURL(); !strings.HasPrefix(got, "http://127.0.0.1:8089") {
		t.Fatalf("BaseURL = %q, want http://127.0.0.1:8089 prefix", got)
	}
	if got := svc.Config.TokenOrdersURL(9); got != "http://127.0.0.1:8089/accounts/9/token_orders" {
		t.Fatalf("TokenOrdersURL = %q", got)
	}
	if got := svc.Config.PollInterval.Seconds(); got != 3 {
		t.Fatalf("PollInterval = %vs, want 3s", got)
	}
	if svc.Session.LoggedIn() {
		t.Fatalf("LoggedIn = true with an empty keychain")
	}
	if err := svc.Keychain.Set(keychain.KeyBasicAuthToken, "x"); err != nil {
		t.Fatalf("keychain Set: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestApplyOrigin(t *testing.T) {
	tests := []struct {
		origin     string
		wantScheme string
		wantHost   string
		wantErr    bool
	}{
		{origin: "sandbox.addressable.app", wantScheme: "https", wantHost: "sandbox.addressable.app"},
		{origin: "http://localhost:8089", wantScheme: "http", wantHost: "localhost:8089"},
		{origin: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			cfg := config.Config{Scheme: "https", Host: "live.addressable.app"}
			err := applyOrigin(&cfg, tt.origin)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("applyOrigin(%q) returned nil error", tt.origin)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyOrigin(%q) error = %v", tt.origin, err)
			}
			if cfg.Scheme != tt.wantScheme || cfg.Host != tt.wantHost {
				t.Fatalf("cfg = %s://%s, want %s://%s", cfg.Scheme, cfg.Host, tt.wantScheme, tt.wantHost)
			}
		})
	}
}
