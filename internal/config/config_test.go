package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultHTTPAddr)
	}
	if cfg.Postgres.Host != DefaultPGHost || cfg.Postgres.Port != DefaultPGPort {
		t.Fatalf("Postgres defaults = %+v", cfg.Postgres)
	}
	if cfg.Mail.FetchTimeoutMS != DefaultFetchTimeoutMS {
		t.Fatalf("Mail.FetchTimeoutMS = %d, want %d", cfg.Mail.FetchTimeoutMS, DefaultFetchTimeoutMS)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("Log defaults = %+v", cfg.Log)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"

[server]
addr = ":9090"

[auth]
jwt_secret = "s3cret"

[postgres]
host = "db.internal"
port = 5433
user = "connecto"
password = "pw"
database = "connecto_test"

[mail]
recipient_domain = "mail.connecto.example"
fetch_timeout_ms = 2500

[blob]
region = "eu-central-1"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Fatalf("Log.Format = %q, want default kept", cfg.Log.Format)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("Auth.JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Mail.RecipientDomain != "mail.connecto.example" || cfg.Mail.FetchTimeoutMS != 2500 {
		t.Fatalf("Mail = %+v", cfg.Mail)
	}
	if cfg.Blob.Region != "eu-central-1" {
		t.Fatalf("Blob = %+v", cfg.Blob)
	}

	wantDSN := "postgres://connecto:pw@db.internal:5433/connecto_test?sslmode=disable"
	if got := cfg.Postgres.DSN(); got != wantDSN {
		t.Fatalf("DSN = %q, want %q", got, wantDSN)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate without jwt secret or recipient domain expected error")
	}

	cfg.Auth.JWTSecret = "s3cret"
	cfg.Mail.RecipientDomain = "mail.connecto.example"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(complete config) error: %v", err)
	}

	cfg.Mail.RecipientDomain = "not a domain"
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate with malformed domain expected error")
	}
}
