// Package config loads the engine's YAML configuration and overlays the
// per-provider secrets that arrive as environment variables (spec §6).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for every job binary in cmd/.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Sources   SourcesConfig   `yaml:"sources"`
	Queue     QueueConfig     `yaml:"queue"`
	Health    HealthConfig    `yaml:"health"`
	Logging   LoggingConfig   `yaml:"logging"`
	Captcha   CaptchaConfig   `yaml:"captcha"`
	Alerting  AlertingConfig  `yaml:"alerting"`
	Cache     CacheConfig     `yaml:"cache"`
	QueueAuth QueueAuthConfig `yaml:"queue_auth"`
}

// CacheConfig configures the short-TTL scrape-result cache and the
// distributed per-job-type lock. Addr left empty disables both; callers
// fall back to running uncached/unlocked.
type CacheConfig struct {
	Addr string `yaml:"addr"`
}

// QueueAuthConfig configures the HMAC secret used to sign and verify the
// settlement queue envelope's request-id token.
type QueueAuthConfig struct {
	Secret string `yaml:"-"`
}

// AlertingConfig configures where Run Tracker and orchestrator alerts are
// delivered (spec §4.4, §4.8). Telegram is optional: leaving the token
// empty runs the pipeline with alerts recorded but not notified anywhere.
type AlertingConfig struct {
	TelegramBotToken string `yaml:"-"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
}

// StoreConfig configures the relational store connection.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// QueueConfig configures the settlement queue destination (spec §6).
type QueueConfig struct {
	SettlementQueueURL string `yaml:"settlement_queue_url"`
}

// SourcesConfig configures per-source timeouts, headers, and rotation.
type SourcesConfig struct {
	UserAgent           string            `yaml:"user_agent"`
	Headers             map[string]string `yaml:"headers"`
	JSONTimeout         time.Duration     `yaml:"json_timeout"`     // 15-60s per spec §5
	BrowserTimeout      time.Duration     `yaml:"browser_timeout"`  // JS-heavy pages
	FixturesTimeout     time.Duration     `yaml:"fixtures_timeout"` // per-scraper hard cap, spec §5
	MinFixturesPerSport map[string]int    `yaml:"min_fixtures_per_sport"`
}

// ProxyConfig lists the proxy providers in strict priority order plus the
// per-provider credentials. Fields left empty mean that provider is
// unconfigured and is skipped at startup (spec §6).
type ProxyConfig struct {
	Country string `yaml:"country"` // ISO-3166-1 alpha-2, default "gb"

	DataImpulseUsername string `yaml:"-"`
	DataImpulsePassword string `yaml:"-"`

	IProyalUsername string `yaml:"-"`
	IProyalPassword string `yaml:"-"`

	PacketStreamAPIKey string `yaml:"-"`

	ScraperAPIKey   string `yaml:"-"`
	ScraperAPILimit int    `yaml:"-"`

	SmartproxyUsername string `yaml:"-"`
	SmartproxyPassword string `yaml:"-"`

	OxylabsUsername string `yaml:"-"`
	OxylabsPassword string `yaml:"-"`

	BrightdataUsername string `yaml:"-"`
	BrightdataPassword string `yaml:"-"`

	// StaticList is PROXY_LIST: pipe-delimited "server|user|pass", comma-separated.
	StaticList []StaticProxy `yaml:"-"`
}

// StaticProxy is one entry of a user-supplied static proxy list.
type StaticProxy struct {
	Server   string
	Username string
	Password string
}

// HealthConfig configures the HTTP health/metrics server.
type HealthConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// CaptchaConfig configures CAPTCHA-solving provider credentials. The core
// never implements solving itself (out of scope, spec §1); it only reads
// whether solving is available so a source adapter can decide to skip a
// challenge-gated page rather than fail retries pointlessly.
type CaptchaConfig struct {
	Enabled           bool   `yaml:"-"`
	TwoCaptchaAPIKey  string `yaml:"-"`
	AntiCaptchaAPIKey string `yaml:"-"`
	CapMonsterAPIKey  string `yaml:"-"`
}

// LoggingConfig configures the structured logger and its optional remote
// sink (the ambient logging stack described in SPEC_FULL.md).
type LoggingConfig struct {
	Level         string        `yaml:"level"` // DEBUG/INFO/WARN/ERROR
	RemoteEnabled bool          `yaml:"remote_enabled"`
	RemoteURL     string        `yaml:"remote_url"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	ServiceLabel  string        `yaml:"service_label"`
}

// Load reads and parses the YAML config at path, then overlays environment
// variables recognized by spec §6 onto it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides merges the environment variables from spec §6 onto cfg.
// YAML is the base; env vars always win, mirroring how the original engine
// overlays per-provider secrets on top of checked-in YAML defaults.
func applyEnvOverrides(cfg *Config) {
	p := &cfg.Proxy
	p.DataImpulseUsername = envOr("DATAIMPULSE_USERNAME", p.DataImpulseUsername)
	p.DataImpulsePassword = envOr("DATAIMPULSE_PASSWORD", p.DataImpulsePassword)
	p.IProyalUsername = envOr("IPROYAL_USERNAME", p.IProyalUsername)
	p.IProyalPassword = envOr("IPROYAL_PASSWORD", p.IProyalPassword)
	p.PacketStreamAPIKey = envOr("PACKETSTREAM_API_KEY", p.PacketStreamAPIKey)
	p.ScraperAPIKey = envOr("SCRAPERAPI_KEY", p.ScraperAPIKey)
	if v := os.Getenv("SCRAPERAPI_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.ScraperAPILimit = n
		}
	}
	p.SmartproxyUsername = envOr("SMARTPROXY_USERNAME", p.SmartproxyUsername)
	p.SmartproxyPassword = envOr("SMARTPROXY_PASSWORD", p.SmartproxyPassword)
	p.OxylabsUsername = envOr("OXYLABS_USERNAME", p.OxylabsUsername)
	p.OxylabsPassword = envOr("OXYLABS_PASSWORD", p.OxylabsPassword)
	p.BrightdataUsername = envOr("BRIGHTDATA_USERNAME", p.BrightdataUsername)
	p.BrightdataPassword = envOr("BRIGHTDATA_PASSWORD", p.BrightdataPassword)
	p.Country = envOr("PROXY_COUNTRY", orDefault(p.Country, "gb"))

	if raw := os.Getenv("PROXY_LIST"); raw != "" {
		p.StaticList = parseStaticProxyList(raw)
	}

	c := &cfg.Captcha
	c.Enabled = strings.EqualFold(envOr("CAPTCHA_ENABLED", boolStr(c.Enabled)), "true")
	c.TwoCaptchaAPIKey = envOr("TWOCAPTCHA_API_KEY", c.TwoCaptchaAPIKey)
	c.AntiCaptchaAPIKey = envOr("ANTICAPTCHA_API_KEY", c.AntiCaptchaAPIKey)
	c.CapMonsterAPIKey = envOr("CAPMONSTER_API_KEY", c.CapMonsterAPIKey)

	cfg.Queue.SettlementQueueURL = envOr("SETTLEMENT_QUEUE_URL", cfg.Queue.SettlementQueueURL)
	cfg.Logging.Level = envOr("LOG_LEVEL", orDefault(cfg.Logging.Level, "INFO"))

	cfg.Alerting.TelegramBotToken = envOr("TELEGRAM_BOT_TOKEN", cfg.Alerting.TelegramBotToken)
	cfg.Cache.Addr = envOr("REDIS_ADDR", cfg.Cache.Addr)
	cfg.QueueAuth.Secret = envOr("QUEUE_AUTH_SECRET", cfg.QueueAuth.Secret)
}

// parseStaticProxyList parses PROXY_LIST: pipe-delimited "server|user|pass"
// entries, comma-separated.
func parseStaticProxyList(raw string) []StaticProxy {
	var out []StaticProxy
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "|", 3)
		sp := StaticProxy{Server: parts[0]}
		if len(parts) > 1 {
			sp.Username = parts[1]
		}
		if len(parts) > 2 {
			sp.Password = parts[2]
		}
		out = append(out, sp)
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
