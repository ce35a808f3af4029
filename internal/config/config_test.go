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
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GITLAB_BASE_URL", "")
	t.Setenv("GITLAB_TOKEN", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitLab.BaseURL != "https://gitlab.com" {
		t.Errorf("BaseURL = %q, want %q", cfg.GitLab.BaseURL, "https://gitlab.com")
	}
	if cfg.GitLab.Token != "" {
		t.Errorf("Token = %q, want empty", cfg.GitLab.Token)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("GITLAB_BASE_URL", "")
	t.Setenv("GITLAB_TOKEN", "")

	path := writeConfig(t, `
gitlab:
  base_url: https://gitlab.example.com
  token: glpat-file
prompts:
  mr_description: "Describe MR {pr_number} at {pr_url}"
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitLab.BaseURL != "https://gitlab.example.com" {
		t.Errorf("BaseURL = %q, want %q", cfg.GitLab.BaseURL, "https://gitlab.example.com")
	}
	if cfg.GitLab.Token != "glpat-file" {
		t.Errorf("Token = %q, want %q", cfg.GitLab.Token, "glpat-file")
	}
	if cfg.Prompts.MRDescription != "Describe MR {pr_number} at {pr_url}" {
		t.Errorf("MRDescription = %q", cfg.Prompts.MRDescription)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadEnvSubstitution(t *testing.T) {
	t.Setenv("GITLAB_BASE_URL", "")
	t.Setenv("GITLAB_TOKEN", "")
	t.Setenv("TEST_GITFORGE_TOKEN", "glpat-sub")

	path := writeConfig(t, `
gitlab:
  token: ${TEST_GITFORGE_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GitLab.Token != "glpat-sub" {
		t.Errorf("Token = %q, want %q", cfg.GitLab.Token, "glpat-sub")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("GITLAB_BASE_URL", "https://gitlab.env.example.com")
	t.Setenv("GITLAB_TOKEN", "glpat-env")

	path := writeConfig(t, `
gitlab:
  base_url: https://gitlab.file.example.com
  token: glpat-file
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitLab.BaseURL != "https://gitlab.env.example.com" {
		t.Errorf("BaseURL = %q, want env value", cfg.GitLab.BaseURL)
	}
	if cfg.GitLab.Token != "glpat-env" {
		t.Errorf("Token = %q, want env value", cfg.GitLab.Token)
	}
}
