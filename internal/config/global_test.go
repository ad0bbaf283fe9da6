package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGlobalConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/reffix/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "reffix", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadGlobalConfig() returned nil")
	}
	if cfg.DBLPURL != "" || cfg.RateLimit != nil {
		t.Errorf("LoadGlobalConfig() = %+v, want empty config", cfg)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	writeGlobalConfig(t, `
dblp_url: https://dblp.uni-trier.de/search/publ/api
user_agent: my-lab-bot
rate_limit: 0
max_retries: 5
concurrency: 4
title_threshold: 0.9
log_level: debug
log_format: json
`)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.DBLPURL != "https://dblp.uni-trier.de/search/publ/api" {
		t.Errorf("DBLPURL = %q", cfg.DBLPURL)
	}
	if cfg.UserAgent != "my-lab-bot" {
		t.Errorf("UserAgent = %q, want my-lab-bot", cfg.UserAgent)
	}
	if cfg.RateLimit == nil || *cfg.RateLimit != 0 {
		t.Errorf("RateLimit = %v, want explicit 0", cfg.RateLimit)
	}
	if cfg.MaxRetries == nil || *cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %v, want 5", cfg.MaxRetries)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.TitleThreshold != 0.9 {
		t.Errorf("TitleThreshold = %g, want 0.9", cfg.TitleThreshold)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("LogLevel/LogFormat = %q/%q, want debug/json", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	writeGlobalConfig(t, "concurrency: [not, an, int")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() should return error for invalid YAML")
	}
}

func TestGlobalConfigCache(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := writeGlobalConfig(t, "user_agent: cached\n")
	configFile := filepath.Join(tmpDir, GlobalConfigDir, GlobalConfigFile)

	cfg1, _ := LoadGlobalConfig()
	if cfg1.UserAgent != "cached" {
		t.Errorf("First load: UserAgent = %q, want cached", cfg1.UserAgent)
	}

	if err := os.WriteFile(configFile, []byte("user_agent: modified\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg2, _ := LoadGlobalConfig()
	if cfg2.UserAgent != "cached" {
		t.Errorf("Second load: UserAgent = %q, want cached (cached)", cfg2.UserAgent)
	}

	ResetGlobalConfigCache()

	cfg3, _ := LoadGlobalConfig()
	if cfg3.UserAgent != "modified" {
		t.Errorf("Third load: UserAgent = %q, want modified", cfg3.UserAgent)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("REFFIX_TEST_DOTENV=from-file\nREFFIX_TEST_PRESET=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("REFFIX_TEST_DOTENV", "")
	os.Unsetenv("REFFIX_TEST_DOTENV")
	t.Setenv("REFFIX_TEST_PRESET", "from-env")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("REFFIX_TEST_DOTENV"); got != "from-file" {
		t.Errorf("REFFIX_TEST_DOTENV = %q, want from-file", got)
	}
	if got := os.Getenv("REFFIX_TEST_PRESET"); got != "from-env" {
		t.Errorf("REFFIX_TEST_PRESET = %q, want from-env (environment wins)", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv() error = %v, want nil for missing file", err)
	}
}
