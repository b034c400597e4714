package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load with missing file: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Errorf("expected default addr %s, got %s", DefaultHTTPAddr, cfg.Server.Addr)
	}
	if cfg.Postgres.Database != DefaultPGDatabase {
		t.Errorf("expected default database %s, got %s", DefaultPGDatabase, cfg.Postgres.Database)
	}
	if cfg.Generator.Provider != "static" {
		t.Errorf("expected static generator default, got %s", cfg.Generator.Provider)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected info log level default, got %s", cfg.Log.Level)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"
format = "json"

[server]
addr = ":9090"
admin_token = "secret-admin"

[postgres]
host = "db.internal"
port = 5433
database = "gateway"

[generator]
provider = "openai"
model = "gpt-4o"
api_key = "sk-test"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Server.AdminToken != "secret-admin" {
		t.Errorf("expected admin token, got %q", cfg.Server.AdminToken)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 5433 {
		t.Errorf("unexpected postgres config: %+v", cfg.Postgres)
	}
	// Fields absent from the file keep defaults.
	if cfg.Postgres.User != DefaultPGUser {
		t.Errorf("expected default user, got %s", cfg.Postgres.User)
	}
	if cfg.Generator.Provider != "openai" || cfg.Generator.Model != "gpt-4o" {
		t.Errorf("unexpected generator config: %+v", cfg.Generator)
	}
}
