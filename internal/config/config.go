package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/genlearn/internal/llm"
	"github.com/abhisek/genlearn/internal/progress"
)

// EnvPrefix is prepended to every environment variable genlearn reads.
const EnvPrefix = "GENLEARN"

var ErrMissingJWTSecret = errors.New("auth.jwt_secret is required outside the local environment")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env       string     `mapstructure:"env"` // local, dev, production
	HTTP      HTTP       `mapstructure:"http"`
	Store     Store      `mapstructure:"store"`
	Storage   Storage    `mapstructure:"storage"`
	DB        DB         `mapstructure:"database"`
	Cache     Cache      `mapstructure:"cache"`
	Auth      Auth       `mapstructure:"auth"`
	LLM       llm.Config `mapstructure:"llm"`
	Telemetry Telemetry  `mapstructure:"telemetry"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// Store configures the local SQLite database.
type Store struct {
	Path string `mapstructure:"path"` // empty means the XDG default
}

// Storage configures how anonymous progress records are keyed.
type Storage struct {
	Key      string `mapstructure:"key"`
	DeviceID string `mapstructure:"device_id"` // CLI identity when --device is not given
}

// DB contains durable progress database parameters.
type DB struct {
	URL             string        `mapstructure:"url"` // empty disables PostgreSQL
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// Cache configures the progress session cache.
type Cache struct {
	RedisURL string        `mapstructure:"redis_url"` // empty means in-process
	TTL      time.Duration `mapstructure:"ttl"`
}

// Auth configures bearer token verification.
type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// Telemetry toggles OpenTelemetry tracing.
type Telemetry struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// Load reads configuration from .env, an optional YAML file and environment
// variables, in increasing priority. An empty path searches ./config and the
// working directory for genlearn.yaml.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("genlearn")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional Azure OpenAI and database variable names.
	_ = v.BindEnv("llm.azure.endpoint", "GENLEARN_LLM_AZURE_ENDPOINT", "AZURE_OPENAI_ENDPOINT")
	_ = v.BindEnv("llm.azure.api_key", "GENLEARN_LLM_AZURE_API_KEY", "AZURE_OPENAI_API_KEY")
	_ = v.BindEnv("llm.azure.deployment", "GENLEARN_LLM_AZURE_DEPLOYMENT", "AZURE_OPENAI_DEPLOYMENT")
	_ = v.BindEnv("llm.azure.api_version", "GENLEARN_LLM_AZURE_API_VERSION", "AZURE_OPENAI_API_VERSION")
	_ = v.BindEnv("database.url", "GENLEARN_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("env", "GENLEARN_ENV", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.Storage.Key == "" {
		cfg.Storage.Key = progress.DefaultStorageKey
	}
	if cfg.IsProduction() && cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()

	v.SetDefault("env", "local")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "60s")

	v.SetDefault("store.path", "")
	v.SetDefault("storage.key", progress.DefaultStorageKey)
	v.SetDefault("storage.device_id", "local")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_conn_lifetime", "30m")

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "30m")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("llm.provider", llmDefaults.Provider)
	v.SetDefault("llm.timeout", llmDefaults.Timeout)
	v.SetDefault("llm.retry.max_attempts", llmDefaults.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", llmDefaults.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", llmDefaults.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", llmDefaults.Retry.Multiplier)
	v.SetDefault("llm.azure.endpoint", "")
	v.SetDefault("llm.azure.api_key", "")
	v.SetDefault("llm.azure.deployment", "")
	v.SetDefault("llm.azure.api_version", llmDefaults.Azure.APIVersion)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", llmDefaults.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", llmDefaults.Anthropic.Model)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", llmDefaults.Gemini.Model)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "genlearn")
}
