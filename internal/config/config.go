package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the deployed API fallback when no explicit base URL is
// configured.
const DefaultBaseURL = "https://api.sarasavi-library.app/api"

// DefaultDevServerURL is the local backend used outside production builds,
// standing in for the front-end dev proxy path.
const DefaultDevServerURL = "http://localhost:8080/api"

// Server holds backend configuration loaded from YAML with env overrides.
type Server struct {
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"logLevel"`
	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	JWTSecret     string `yaml:"jwtSecret"`
	CookieSecret  string `yaml:"cookieSecret"`
	AMQPURL       string `yaml:"amqpURL"`

	TrustedProxies []string `yaml:"trustedProxies"`

	SignupRateLimitPerMinute   int `yaml:"signupRateLimitPerMinute"`
	LoginRateLimitPerMinute    int `yaml:"loginRateLimitPerMinute"`
	PasswordRateLimitPerMinute int `yaml:"passwordRateLimitPerMinute"`
}

// Client holds CLI/front-end configuration.
type Client struct {
	Environment  string `yaml:"environment"`
	BaseURL      string `yaml:"baseURL"`
	DevServerURL string `yaml:"devServerURL"`
	SessionFile  string `yaml:"sessionFile"`
	LogLevel     string `yaml:"logLevel"`
}

// File is the combined on-disk configuration.
type File struct {
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
}

// Load reads config from path (defaults to config.yaml) and applies env
// overrides.
func Load(path string) (File, error) {
	cfg := File{}
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadOrEnv behaves like Load but tolerates a missing file, returning a
// config assembled from defaults and environment variables instead.
func LoadOrEnv(path string) (File, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	cfg = File{Server: Server{Port: "8080", LogLevel: "info"}}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *File) {
	if v := os.Getenv("SARASAVI_PORT"); v != "" {
		cfg.Server.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("SARASAVI_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = strings.TrimSpace(v)
		cfg.Client.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Server.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Server.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Server.RedisPassword = v
	}
	if v := os.Getenv("SARASAVI_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("SARASAVI_COOKIE_SECRET"); v != "" {
		cfg.Server.CookieSecret = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.Server.AMQPURL = v
	}
	if v := os.Getenv("SARASAVI_TRUSTED_PROXIES"); v != "" {
		cfg.Server.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("SARASAVI_ENV"); v != "" {
		cfg.Client.Environment = strings.TrimSpace(v)
	}
	if v := os.Getenv("SARASAVI_API_BASE_URL"); v != "" {
		cfg.Client.BaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("SARASAVI_SESSION_FILE"); v != "" {
		cfg.Client.SessionFile = v
	}
}

// ValidateServer checks required backend settings.
func ValidateServer(cfg Server) error {
	if cfg.Port == "" {
		return errors.New("config: server port is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required")
	}
	if strings.TrimSpace(cfg.CookieSecret) == "" {
		return errors.New("config: cookieSecret is required")
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for rate limiting")
	}
	if cfg.SignupRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 || cfg.PasswordRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ResolveBaseURL picks the API base URL for the client. Outside production
// the local dev server is used; in production the explicit base URL wins,
// falling back to DefaultBaseURL.
func ResolveBaseURL(cfg Client) string {
	if !strings.EqualFold(strings.TrimSpace(cfg.Environment), "production") {
		if cfg.DevServerURL != "" {
			return cfg.DevServerURL
		}
		return DefaultDevServerURL
	}
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return DefaultBaseURL
}
