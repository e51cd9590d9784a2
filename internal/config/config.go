package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIBaseURL        string `yaml:"apiBaseURL"`
	LogLevel          string `yaml:"logLevel"`
	HTTPTimeout       string `yaml:"httpTimeout"`
	SessionBackend    string `yaml:"sessionBackend"` // file or redis
	SessionFilePath   string `yaml:"sessionFilePath"`
	SessionFileSecret string `yaml:"sessionFileSecret"`
	RedisAddr         string `yaml:"redisAddr"`
	RedisPassword     string `yaml:"redisPassword"`
	RedisSessionKey   string `yaml:"redisSessionKey"`
	KhaltiPublicKey   string `yaml:"khaltiPublicKey"`
	EsewaMerchantCode string `yaml:"esewaMerchantCode"`
	EsewaGatewayURL   string `yaml:"esewaGatewayURL"`
	ReturnURLBase     string `yaml:"returnURLBase"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("BOOKPASAL_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKPASAL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKPASAL_SESSION_BACKEND"); v != "" {
		cfg.SessionBackend = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKPASAL_SESSION_FILE_PATH"); v != "" {
		cfg.SessionFilePath = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKPASAL_SESSION_FILE_SECRET"); v != "" {
		cfg.SessionFileSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("BOOKPASAL_KHALTI_PUBLIC_KEY"); v != "" {
		cfg.KhaltiPublicKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKPASAL_ESEWA_MERCHANT_CODE"); v != "" {
		cfg.EsewaMerchantCode = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKPASAL_ESEWA_GATEWAY_URL"); v != "" {
		cfg.EsewaGatewayURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKPASAL_RETURN_URL_BASE"); v != "" {
		cfg.ReturnURLBase = strings.TrimSpace(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.APIBaseURL == "" {
		return errors.New("config: apiBaseURL is required (set in config.yaml or BOOKPASAL_API_BASE_URL)")
	}
	switch cfg.SessionBackend {
	case "", "file":
		if cfg.SessionFilePath == "" {
			return errors.New("config: sessionFilePath is required for the file session backend")
		}
		if cfg.SessionFileSecret == "" {
			return errors.New("config: sessionFileSecret is required for the file session backend")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis session backend")
		}
		if cfg.RedisSessionKey == "" {
			return errors.New("config: redisSessionKey is required for the redis session backend")
		}
	default:
		return fmt.Errorf("config: unknown session backend %q", cfg.SessionBackend)
	}
	return nil
}

// ParseHTTPTimeout parses the optional HTTP timeout duration string.
func ParseHTTPTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid httpTimeout duration: %w", err)
	}
	return dur, nil
}
