package config

import (
	"os"
	"path/filepath"
	"testing"

	scribeerrors "github.com/hpungsan/scribe/internal/errors"
)

func writeRepoConfig(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, ".scribe")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Jekyll != "none" {
		t.Fatalf("Jekyll = %q, want %q", cfg.Jekyll, "none")
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	content := `{"jekyll": "kd", "final": true, "ghrepo": "w3c/wpub", "acurlpattern": "https://example.org/{id}"}`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Jekyll != "kd" {
		t.Errorf("Jekyll = %q, want %q", cfg.Jekyll, "kd")
	}
	if !cfg.Final {
		t.Error("Final should be true")
	}
	if cfg.GHRepo != "w3c/wpub" {
		t.Errorf("GHRepo = %q, want %q", cfg.GHRepo, "w3c/wpub")
	}
	if cfg.ACURLPattern != "https://example.org/{id}" {
		t.Errorf("ACURLPattern = %q", cfg.ACURLPattern)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
	if !scribeerrors.Is(err, scribeerrors.ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["actions_list", "minutes_convert"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "actions_list" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "actions_list")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"jekyll": "md", "ghrepo": "w3c/global", "disabled_tools": ["actions_list"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	writeRepoConfig(t, repoRoot, `{"ghrepo": "w3c/wpub", "disabled_tools": ["minutes_convert"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.GHRepo != "w3c/wpub" {
		t.Errorf("GHRepo = %q, want w3c/wpub (repo override)", cfg.GHRepo)
	}
	if cfg.Jekyll != "md" {
		t.Errorf("Jekyll = %q, want md (from global)", cfg.Jekyll)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.Jekyll != "none" {
		t.Errorf("Jekyll = %q, want none", cfg.Jekyll)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	tmpDir := t.TempDir()
	writeRepoConfig(t, tmpDir, `{"meeting": "Publishing WG"}`)

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.Meeting != "Publishing WG" {
		t.Errorf("Meeting = %q, want Publishing WG", cfg.Meeting)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{Jekyll: "md", DBMaxOpenConns: 5, Agenda: "https://example.org/a"}
	overlay := &Config{Jekyll: "kd"}

	result := Merge(base, overlay)

	if result.Jekyll != "kd" {
		t.Errorf("Jekyll = %q, want kd (overlay)", result.Jekyll)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
	if result.Agenda != "https://example.org/a" {
		t.Errorf("Agenda = %q, want base value", result.Agenda)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	base := &Config{AllowUnsafePaths: true, Pandoc: true}
	overlay := &Config{Final: true, Auto: true}

	result := Merge(base, overlay)

	if !result.AllowUnsafePaths || !result.Pandoc || !result.Final || !result.Auto {
		t.Errorf("booleans should be ORed, got %+v", result)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{AllowedPaths: []string{"/srv/minutes", " /tmp/out "}}
	overlay := &Config{AllowedPaths: []string{"/tmp/out", "/home/me/minutes"}}

	result := Merge(base, overlay)

	want := []string{"/srv/minutes", "/tmp/out", "/home/me/minutes"}
	if len(result.AllowedPaths) != len(want) {
		t.Fatalf("AllowedPaths = %v, want %v", result.AllowedPaths, want)
	}
	for i := range want {
		if result.AllowedPaths[i] != want[i] {
			t.Errorf("AllowedPaths[%d] = %q, want %q", i, result.AllowedPaths[i], want[i])
		}
	}
}

func TestMerge_AllowedHosts(t *testing.T) {
	base := &Config{AllowedHosts: []string{"intranet.example"}}
	overlay := &Config{AllowedHosts: []string{"127.0.0.1", "intranet.example"}}

	result := Merge(base, overlay)

	want := []string{"intranet.example", "127.0.0.1"}
	if len(result.AllowedHosts) != len(want) {
		t.Fatalf("AllowedHosts = %v, want %v", result.AllowedHosts, want)
	}
	for i := range want {
		if result.AllowedHosts[i] != want[i] {
			t.Errorf("AllowedHosts[%d] = %q, want %q", i, result.AllowedHosts[i], want[i])
		}
	}
}

func TestFindRepoConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeRepoConfig(t, tmpDir, `{}`)

	if found := FindRepoConfig(tmpDir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}

	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", *DefaultConfig(), false},
		{"full", Config{Jekyll: "kd", IRCFormat: "textual", Date: "2024-05-01", GHRepo: "w3c/wpub", ACRepo: "w3c/actions"}, false},
		{"bad jekyll", Config{Jekyll: "html"}, true},
		{"bad irc format", Config{IRCFormat: "weechat"}, true},
		{"bad date", Config{Date: "05/01/2024"}, true},
		{"bad repo", Config{GHRepo: "wpub"}, true},
		{"nested repo", Config{IssueRepo: "w3c/wpub/issues"}, true},
		{"negative conns", Config{DBMaxOpenConns: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !scribeerrors.Is(err, scribeerrors.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}
