package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Server.WriteTimeout = %v, want %v", cfg.Server.WriteTimeout, DefaultWriteTimeout)
	}
	if len(cfg.Service.Topics) == 0 {
		t.Error("Service.Topics is empty, want default rotation")
	}
	if cfg.Kit.BaseURL != "https://api.kit.com/v4" {
		t.Errorf("Kit.BaseURL = %q", cfg.Kit.BaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  address: ":9090"
service:
  data_dir: /tmp/autopost
  offers_file: offers.json
  topics:
    - Topic One
openai:
  timeout: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("Server.Address = %q, want :9090", cfg.Server.Address)
	}
	if cfg.OpenAI.Timeout != 30*time.Second {
		t.Errorf("OpenAI.Timeout = %v, want 30s", cfg.OpenAI.Timeout)
	}
	if got := cfg.BlogHistoryPath(); got != filepath.Join("/tmp/autopost", "blog_post_log.txt") {
		t.Errorf("BlogHistoryPath() = %q", got)
	}
	if len(cfg.Service.Topics) != 1 || cfg.Service.Topics[0] != "Topic One" {
		t.Errorf("Service.Topics = %v", cfg.Service.Topics)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WORDPRESS_USER", "editor")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("PORT", "3000")
	t.Setenv("APP_DEBUG", "yes")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI.APIKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.WordPress.User != "editor" {
		t.Errorf("WordPress.User = %q", cfg.WordPress.User)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis = %+v, want enabled at localhost:6379", cfg.Redis)
	}
	if cfg.Server.Address != ":3000" {
		t.Errorf("Server.Address = %q, want :3000", cfg.Server.Address)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true from APP_DEBUG")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"missing offers file", func(c *Config) { c.Service.OffersFile = "" }, true},
		{"empty topics", func(c *Config) { c.Service.Topics = nil }, true},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true }, true},
		{"database enabled without host", func(c *Config) { c.Database.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			setDefaults(&cfg)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMissingCredentials(t *testing.T) {
	var cfg Config
	setDefaults(&cfg)
	missing := cfg.MissingCredentials()
	if len(missing) != 4 {
		t.Fatalf("MissingCredentials() = %v, want 4 entries", missing)
	}

	cfg.OpenAI.APIKey = "sk"
	cfg.WordPress.User = "u"
	cfg.WordPress.AppPassword = "p"
	cfg.Kit.APIKey = "k"
	if got := cfg.MissingCredentials(); len(got) != 0 {
		t.Errorf("MissingCredentials() = %v, want none", got)
	}
}
