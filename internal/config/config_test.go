package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
logLevel: debug
databasePath: scarlet.db
imageDir: images
authToken: secret
maxImageBytes: 1024
`)
	for _, key := range []string{"CATALOG_PORT", "CATALOG_DATABASE_PATH", "CATALOG_IMAGE_DIR", "AUTH_TOKEN", "CATALOG_MAX_IMAGE_BYTES"} {
		t.Setenv(key, "")
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DatabasePath != "scarlet.db" || cfg.ImageDir != "images" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.AuthToken != "secret" || cfg.MaxImageBytes != 1024 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
databasePath: scarlet.db
imageDir: images
authToken: from-file
`)
	t.Setenv("AUTH_TOKEN", "from-env")
	t.Setenv("CATALOG_DATABASE_PATH", "other.db")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AuthToken != "from-env" {
		t.Fatalf("AuthToken = %q", cfg.AuthToken)
	}
	if cfg.DatabasePath != "other.db" {
		t.Fatalf("DatabasePath = %q", cfg.DatabasePath)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing port", "databasePath: a.db\nimageDir: img\nauthToken: s\n"},
		{"missing databasePath", "port: \"8080\"\nimageDir: img\nauthToken: s\n"},
		{"missing imageDir", "port: \"8080\"\ndatabasePath: a.db\nauthToken: s\n"},
		{"missing authToken", "port: \"8080\"\ndatabasePath: a.db\nimageDir: img\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Neutralize ambient env so only the file contents decide.
			for _, key := range []string{"CATALOG_PORT", "CATALOG_DATABASE_PATH", "CATALOG_IMAGE_DIR", "AUTH_TOKEN"} {
				t.Setenv(key, "")
			}
			path := writeConfig(t, tc.content)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
