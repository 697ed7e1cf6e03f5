// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ytget/ytinfo/client"
	"github.com/ytget/ytinfo/internal/logger"
)

type Config struct {
	HTTP    HTTPConfig
	Engine  EngineConfig
	Server  ServerConfig
	API     APIConfig
	Logging *logger.LogConfig
}

type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
	// VerifyTLS turns on peer certificate verification. Off unless YTINFO_TLS_VERIFY is true.
	VerifyTLS bool
}

type EngineConfig struct {
	BaseURL   string
	VideoMime string
	AudioMime string
	JSEngine  string
	JSTimeout time.Duration
	CacheTTL  time.Duration
	Prefetch  bool
}

type ServerConfig struct {
	Host           string
	Port           string
	RequestTimeout time.Duration
}

type APIConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads files (".env" when none are given) into the process environment
// without overriding variables that are already set, then builds a Config.
// Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.WithComponent(logger.ComponentApp).Debug("env file not found", map[string]interface{}{"file": f})
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.HTTP.Timeout, err = getEnvDuration("YTINFO_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.HTTP.UserAgent = getEnv("YTINFO_USER_AGENT", "")
	cfg.HTTP.ProxyURL = getEnv("YTINFO_PROXY", "")
	cfg.HTTP.VerifyTLS = getEnvBool("YTINFO_TLS_VERIFY", false)

	cfg.Engine.BaseURL = getEnv("YTINFO_BASE_URL", "https://www.youtube.com")
	cfg.Engine.VideoMime = getEnv("YTINFO_VIDEO_MIME", "video/mp4")
	cfg.Engine.AudioMime = getEnv("YTINFO_AUDIO_MIME", "audio/mp4")
	cfg.Engine.JSEngine = strings.ToLower(getEnv("YTINFO_JS_ENGINE", "goja"))
	if cfg.Engine.JSTimeout, err = getEnvDuration("YTINFO_JS_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.Engine.CacheTTL, err = getEnvDuration("YTINFO_CACHE_TTL", 6*time.Hour); err != nil {
		return nil, err
	}
	cfg.Engine.Prefetch = getEnvBool("YTINFO_PREFETCH", false)

	cfg.Server.Host = getEnv("YTINFO_SERVER_HOST", "0.0.0.0")
	cfg.Server.Port = getEnv("YTINFO_SERVER_PORT", "8080")
	if cfg.Server.RequestTimeout, err = getEnvDuration("YTINFO_REQUEST_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	cfg.API.RateLimitRequests = getEnvInt("YTINFO_RATE_LIMIT_REQUESTS", 60)
	if cfg.API.RateLimitWindow, err = getEnvDuration("YTINFO_RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	cfg.Logging = logger.EnvironmentConfig()
	if err := cfg.Logging.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	return cfg, nil
}

// ClientConfig returns the HTTP client settings.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		Timeout:   c.HTTP.Timeout,
		UserAgent: c.HTTP.UserAgent,
		ProxyURL:  c.HTTP.ProxyURL,
		VerifyTLS: c.HTTP.VerifyTLS,
	}
}

// Addr returns host:port for the API server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
