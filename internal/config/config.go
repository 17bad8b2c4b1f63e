package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bizinsight/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	AI      AIConfig
	Server  ServerConfig
	Upload  UploadConfig
	Secrets SecretsConfig
}

// AIConfig holds AI/LLM related settings
type AIConfig struct {
	OpenAIKey   string
	OpenAIModel string
	BaseURL     string
	// Timeout bounds the narrative call; zero means no local timeout.
	Timeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// UploadConfig holds upload handling settings. MaxUploadMB of zero means
// uploads are not size-limited.
type UploadConfig struct {
	MaxUploadMB int
	PreviewRows int
}

// SecretsConfig points at the optional secrets file holding the API key
type SecretsConfig struct {
	File string
}

// HasCredential reports whether narrative generation can run
func (c AIConfig) HasCredential() bool {
	return strings.TrimSpace(c.OpenAIKey) != ""
}

// MaxUploadBytes returns the upload limit in bytes; zero when unlimited
func (c UploadConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Load reads configuration from environment variables and the secrets file, then validates it
func Load() (*Config, error) {
	return LoadWithSecrets(getEnvOrDefault("SECRETS_FILE", ".secrets.toml"))
}

// LoadWithSecrets is Load with an explicit secrets file path
func LoadWithSecrets(secretsFile string) (*Config, error) {
	config := &Config{
		Server:  *loadServerConfig(),
		Upload:  *loadUploadConfig(),
		Secrets: SecretsConfig{File: secretsFile},
	}

	aiConfig, err := loadAIConfig(config.Secrets.File)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAIConfig(secretsFile string) (*AIConfig, error) {
	key, err := readSecret(secretsFile, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}

	return &AIConfig{
		OpenAIKey:   strings.TrimSpace(key),
		OpenAIModel: getEnvOrDefault("LLM_MODEL", "gpt-4o"),
		BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
		Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 0),
	}, nil
}

// readSecret looks key up in the secrets file. A missing file is not an error.
func readSecret(path, key string) (string, error) {
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return "", errors.Wrapf(errors.ConfigInvalid(err.Error()), "read secrets file %s", path)
	}
	return v.GetString(key), nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 0),
		PreviewRows: getEnvIntOrDefault("PREVIEW_ROWS", 5),
	}
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Server.Port) == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Upload.MaxUploadMB < 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must not be negative")
	}
	if config.Upload.PreviewRows <= 0 {
		return errors.ConfigInvalid("PREVIEW_ROWS must be positive")
	}
	if config.AI.Timeout < 0 {
		return errors.ConfigInvalid("LLM_TIMEOUT must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
