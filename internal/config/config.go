package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default timeouts for the HTTP server and external calls.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultGenerateTimeout = 60 * time.Second
	DefaultPublishTimeout  = 60 * time.Second
	DefaultBroadcastTimeout = 60 * time.Second
	DefaultNotifyTimeout   = 10 * time.Second
	DefaultWebhookTimeout  = 15 * time.Second
	DefaultSheetsTimeout   = 10 * time.Second
)

// defaultTopics is the rotating topic list used when the config file does
// not supply one.
var defaultTopics = []string{
	"Advanced AI Monetization Techniques",
	"Passive Income Strategies for Digital Entrepreneurs",
	"Scaling Your Online Business with Automation",
	"AI Tools for Business Growth and Efficiency",
	"Wealth Building Through Digital Assets",
	"Affiliate Marketing Optimization Strategies",
	"Content Monetization in the AI Era",
	"Automated Sales Funnels That Convert",
	"Digital Product Creation and Scaling",
	"Leveraging AI for Passive Revenue Streams",
}

type Config struct {
	Debug    bool           `yaml:"debug"` // Controls log level and format
	Server   ServerConfig   `yaml:"server"`
	Service  ServiceConfig  `yaml:"service"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Kit      KitConfig      `yaml:"kit"`
	Discord  DiscordConfig  `yaml:"discord"`
	Make     MakeConfig     `yaml:"make"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`       // e.g., ":8080"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"` // Default: 120s (a cycle runs inside a request)
}

type ServiceConfig struct {
	DataDir     string   `yaml:"data_dir"`     // Logs, history and fallback files live here
	OffersFile  string   `yaml:"offers_file"`  // Offer library JSON
	Topics      []string `yaml:"topics"`       // Rotating topic candidates
	UTMSource   string   `yaml:"utm_source"`   // Tracked-link attribution
	UTMMedium   string   `yaml:"utm_medium"`
	RateLimitCPM int     `yaml:"rate_limit_cpm"` // Max cycles per minute accepted by /run
}

type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type WordPressConfig struct {
	APIURL      string        `yaml:"api_url"` // e.g., "https://site/wp-json/wp/v2/posts"
	User        string        `yaml:"user"`
	AppPassword string        `yaml:"app_password"`
	Timeout     time.Duration `yaml:"timeout"`
}

type KitConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"` // Default: https://api.kit.com/v4
	Timeout time.Duration `yaml:"timeout"`
}

type DiscordConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type MakeConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type SheetsConfig struct {
	SpreadsheetID string        `yaml:"spreadsheet_id"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"` // Use Redis history stores instead of flat files
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"` // Mirror usage records into Postgres
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// BlogHistoryPath returns the blog post history log path.
func (c *Config) BlogHistoryPath() string {
	return filepath.Join(c.Service.DataDir, "blog_post_log.txt")
}

// CTAHistoryPath returns the CTA history log path.
func (c *Config) CTAHistoryPath() string {
	return filepath.Join(c.Service.DataDir, "cta_log.txt")
}

// UsageLogPath returns the offer usage CSV path.
func (c *Config) UsageLogPath() string {
	return filepath.Join(c.Service.DataDir, "offer_usage_log.csv")
}

// FallbackDir returns the directory fallback files are written to.
func (c *Config) FallbackDir() string {
	return filepath.Join(c.Service.DataDir, "fallback")
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Service.OffersFile == "" {
		return errors.New("service.offers_file is required")
	}
	if len(c.Service.Topics) == 0 {
		return errors.New("service.topics must not be empty")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis.enabled is true")
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return errors.New("database.host is required when database.enabled is true")
	}
	return nil
}

// setDefaults sets default values for configuration fields
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Service.DataDir == "" {
		cfg.Service.DataDir = "drop_reports"
	}
	if cfg.Service.OffersFile == "" {
		cfg.Service.OffersFile = "affiliate_offers.json"
	}
	if len(cfg.Service.Topics) == 0 {
		cfg.Service.Topics = append([]string(nil), defaultTopics...)
	}
	if cfg.Service.RateLimitCPM == 0 {
		cfg.Service.RateLimitCPM = 2
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = DefaultGenerateTimeout
	}
	if cfg.WordPress.APIURL == "" {
		cfg.WordPress.APIURL = "https://wealthautomationhq.com/wp-json/wp/v2/posts"
	}
	if cfg.WordPress.Timeout == 0 {
		cfg.WordPress.Timeout = DefaultPublishTimeout
	}
	if cfg.Kit.BaseURL == "" {
		cfg.Kit.BaseURL = "https://api.kit.com/v4"
	}
	if cfg.Kit.Timeout == 0 {
		cfg.Kit.Timeout = DefaultBroadcastTimeout
	}
	if cfg.Discord.Timeout == 0 {
		cfg.Discord.Timeout = DefaultNotifyTimeout
	}
	if cfg.Make.Timeout == 0 {
		cfg.Make.Timeout = DefaultWebhookTimeout
	}
	if cfg.Sheets.Timeout == 0 {
		cfg.Sheets.Timeout = DefaultSheetsTimeout
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
}

// overrideWithEnvVars overrides configuration with environment variables
func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("WORDPRESS_API_URL"); v != "" {
		cfg.WordPress.APIURL = v
	}
	if v := os.Getenv("WORDPRESS_USER"); v != "" {
		cfg.WordPress.User = v
	}
	if v := os.Getenv("WORDPRESS_APP_PASSWORD"); v != "" {
		cfg.WordPress.AppPassword = v
	}
	if v := os.Getenv("CONVERTKIT_API_KEY_V4"); v != "" {
		cfg.Kit.APIKey = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("MAKE_WEBHOOK_URL"); v != "" {
		cfg.Make.WebhookURL = v
	}
	if v := os.Getenv("GOOGLE_SHEETS_UTM_TRACKER_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_SHEETS_API_KEY"); v != "" {
		cfg.Sheets.APIKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
}

// Load reads configuration from an optional YAML file, applies defaults
// and environment-variable overrides, and validates the result. An empty
// path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MissingCredentials lists the credential names a full cycle needs that
// are not configured. Dependent stages are skipped, not failed, when
// their credential is absent.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.WordPress.User == "" {
		missing = append(missing, "WORDPRESS_USER")
	}
	if c.WordPress.AppPassword == "" {
		missing = append(missing, "WORDPRESS_APP_PASSWORD")
	}
	if c.Kit.APIKey == "" {
		missing = append(missing, "CONVERTKIT_API_KEY_V4")
	}
	return missing
}

// parseBool parses a string value as a boolean.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
