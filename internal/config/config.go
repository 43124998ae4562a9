package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort = 4000
	defaultEnv  = "development"
	defaultDSN  = "root:password@tcp(127.0.0.1:3306)/procivil?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedis = "redis://localhost:6379/0"
)

// AppConfig holds runtime configuration. It is loaded once at startup and
// passed by reference; nothing mutates it afterwards.
type AppConfig struct {
	Port           int             `yaml:"port"`
	Env            string          `yaml:"env"` // "development" | "production"
	DSN            string          `yaml:"dsn"`
	RedisURL       string          `yaml:"redis_url"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Auth           AuthConfig      `yaml:"auth"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Cookie         CookieConfig    `yaml:"cookie"`
	Mail           MailConfig      `yaml:"mail"`
}

// AuthConfig covers token lifetimes, secret material and lockout policy.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	JWTIssuer        string        `yaml:"jwt_issuer"`
	JWTAudience      string        `yaml:"jwt_audience"`
	AccessTTL        time.Duration `yaml:"access_ttl"`
	RefreshTTL       time.Duration `yaml:"refresh_ttl"`
	BcryptCost       int           `yaml:"bcrypt_cost"`
	LockoutThreshold int           `yaml:"lockout_threshold"`
	LockoutDuration  time.Duration `yaml:"lockout_duration"`
}

// RateLimitConfig holds the login throttles and the coarse global window.
type RateLimitConfig struct {
	LoginIPMax       int           `yaml:"login_ip_max"`
	LoginIdentityMax int           `yaml:"login_identity_max"`
	LoginWindow      time.Duration `yaml:"login_window"`
	GlobalMax        int           `yaml:"global_max"`
	GlobalWindow     time.Duration `yaml:"global_window"`
}

// CookieConfig describes the refresh-token cookie. HttpOnly is always on and
// is not configurable. Clearing reuses exactly these attributes.
type CookieConfig struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Domain   string `yaml:"domain"`
	Secure   bool   `yaml:"secure"`
	SameSite string `yaml:"same_site"` // "lax" | "strict" | "none"
}

// MailConfig holds outbound mail provider settings.
type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ResendKey string `yaml:"resend_key"`
}

// Load reads the YAML config file, applies environment overrides and fills
// defaults. A missing file is not an error; defaults plus env take over.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("DSN"); v != "" {
		c.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("COOKIE_DOMAIN"); v != "" {
		c.Cookie.Domain = v
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.Cookie.Secure = v == "true" || v == "1"
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		c.AllowedOrigins = origins
	}
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.DSN == "" {
		c.DSN = defaultDSN
	}
	if c.RedisURL == "" {
		c.RedisURL = defaultRedis
	}

	if c.Auth.AccessTTL <= 0 {
		c.Auth.AccessTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTTL <= 0 {
		c.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Auth.BcryptCost <= 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Auth.LockoutThreshold <= 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration <= 0 {
		c.Auth.LockoutDuration = 15 * time.Minute
	}

	if c.RateLimit.LoginIPMax <= 0 {
		c.RateLimit.LoginIPMax = 3
	}
	if c.RateLimit.LoginIdentityMax <= 0 {
		c.RateLimit.LoginIdentityMax = 3
	}
	if c.RateLimit.LoginWindow <= 0 {
		c.RateLimit.LoginWindow = 15 * time.Minute
	}
	if c.RateLimit.GlobalMax <= 0 {
		c.RateLimit.GlobalMax = 120
	}
	if c.RateLimit.GlobalWindow <= 0 {
		c.RateLimit.GlobalWindow = time.Minute
	}

	if c.Cookie.Name == "" {
		c.Cookie.Name = "pcm_refresh"
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = "/api/v1/auth"
	}
	if c.Cookie.SameSite == "" {
		c.Cookie.SameSite = "lax"
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
}

func (c *AppConfig) validate() error {
	if !c.IsDev() && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("cookie.same_site must be lax, strict or none, got %q", c.Cookie.SameSite)
	}
	return nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

// SameSiteMode maps the configured same_site string to http.SameSite.
func (c *CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
