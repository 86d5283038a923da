// Package config loads gateway configuration from an optional YAML file with
// environment variable overrides. Environment wins over file values so that
// deployments can keep a checked-in base config and override secrets per host.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the compliance gateway.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Auth     AuthConfig     `yaml:"auth"`
	Billing  BillingConfig  `yaml:"billing"`
	Evidence EvidenceConfig `yaml:"evidence"`
	Store    StoreConfig    `yaml:"store"`
	Debug    DebugConfig    `yaml:"debug"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// UpstreamConfig points at the compliance API this gateway proxies to.
// BaseURL empty means "not configured"; proxy routes answer 501 in that case.
type UpstreamConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	HealthzTimeout time.Duration `yaml:"healthz_timeout"`
	RequeueTimeout time.Duration `yaml:"requeue_timeout"`
}

// AuthConfig points at the third-party auth provider that owns sessions.
type AuthConfig struct {
	ProviderURL   string        `yaml:"provider_url"`
	PublicKey     string        `yaml:"public_key"`
	SessionCookie string        `yaml:"session_cookie"`
	Timeout       time.Duration `yaml:"timeout"`
}

// BillingConfig holds Stripe credentials and the plan price mapping.
type BillingConfig struct {
	StripeSecretKey string `yaml:"stripe_secret_key"`
	ProPriceID      string `yaml:"pro_price_id"`
	BusinessPriceID string `yaml:"business_price_id"`
	// ReturnBaseURL is where Stripe redirects after checkout/portal,
	// e.g. "https://app.example.com".
	ReturnBaseURL string `yaml:"return_base_url"`
}

// EvidenceConfig enables local presigned evidence uploads. When Bucket is
// empty the upload-url route is a pure proxy to the upstream API.
type EvidenceConfig struct {
	Bucket    string        `yaml:"bucket"`
	Region    string        `yaml:"region"`
	URLExpiry time.Duration `yaml:"url_expiry"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// StoreConfig locates the local membership/billing SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DebugConfig gates diagnostics endpoints that must never ship enabled.
type DebugConfig struct {
	AuthCheck bool `yaml:"auth_check"`
}

// Load reads the YAML file at path (if non-empty), applies environment
// overrides, then fills defaults. A missing file is not an error when path
// is empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.Server.Addr, "GATEWAY_ADDR")
	setStr(&c.Upstream.BaseURL, "UPSTREAM_API_URL")
	setDur(&c.Upstream.Timeout, "UPSTREAM_TIMEOUT")
	setStr(&c.Auth.ProviderURL, "AUTH_PROVIDER_URL")
	setStr(&c.Auth.PublicKey, "AUTH_PROVIDER_KEY")
	setStr(&c.Auth.SessionCookie, "AUTH_SESSION_COOKIE")
	setStr(&c.Billing.StripeSecretKey, "STRIPE_SECRET_KEY")
	setStr(&c.Billing.ProPriceID, "STRIPE_PRICE_PRO")
	setStr(&c.Billing.BusinessPriceID, "STRIPE_PRICE_BUSINESS")
	setStr(&c.Billing.ReturnBaseURL, "BILLING_RETURN_URL")
	setStr(&c.Evidence.Bucket, "EVIDENCE_BUCKET")
	setStr(&c.Evidence.Region, "EVIDENCE_REGION")
	setStr(&c.Store.Path, "STORE_PATH")
	setBool(&c.Debug.AuthCheck, "DEBUG_AUTH_CHECK")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultListenAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if c.Upstream.HealthzTimeout == 0 {
		c.Upstream.HealthzTimeout = DefaultHealthzTimeout
	}
	if c.Upstream.RequeueTimeout == 0 {
		c.Upstream.RequeueTimeout = DefaultRequeueTimeout
	}
	if c.Auth.SessionCookie == "" {
		c.Auth.SessionCookie = DefaultSessionCookie
	}
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = DefaultAuthTimeout
	}
	if c.Evidence.URLExpiry == 0 {
		c.Evidence.URLExpiry = DefaultEvidenceURLExpiry
	}
	if c.Evidence.KeyPrefix == "" {
		c.Evidence.KeyPrefix = DefaultEvidenceKeyPrefix
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")
	c.Auth.ProviderURL = strings.TrimRight(strings.TrimSpace(c.Auth.ProviderURL), "/")
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"upstream.base_url":  c.Upstream.BaseURL,
		"auth.provider_url":  c.Auth.ProviderURL,
		"billing.return_url": c.Billing.ReturnBaseURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not a valid URL: %q", name, raw)
		}
	}
	return nil
}

// UpstreamConfigured reports whether the upstream API base URL is set.
func (c *Config) UpstreamConfigured() bool {
	return c.Upstream.BaseURL != ""
}

func setStr(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDur(dst *time.Duration, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
