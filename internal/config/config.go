package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/email"
	"github.com/Veraticus/leadflow/internal/llm"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Email transports.
const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
)

// Config is the resolved application configuration.
type Config struct {
	Database DatabaseConfig
	LLM      llm.Config
	Email    EmailConfig
	Intake   IntakeConfig
	Server   ServerConfig
	Logging  LoggingConfig
	RedisURL string
	Cache    bool
}

// DatabaseConfig selects the record store.
type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

// EmailConfig selects the transport and sender identity.
type EmailConfig struct {
	Sender    email.Config
	Transport string
	SMTP      email.SMTPConfig
}

// IntakeConfig tunes the intake workflow.
type IntakeConfig struct {
	Timing      string
	Source      string
	PhoneRegion string
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr            string
	CertDir         string
	CertHosts       []string
	ShutdownTimeout time.Duration
	TLS             bool
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// providerKeyEnv are the conventional API key variables per provider,
// consulted when llm.api_key is unset.
var providerKeyEnv = map[string]string{
	llm.ProviderGroq:      "GROQ_API_KEY",
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
	llm.ProviderGemini:    "GEMINI_API_KEY",
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", DefaultDatabasePath())

	v.SetDefault("llm.provider", llm.ProviderGroq)
	v.SetDefault("llm.max_retries", llm.DefaultMaxRetries)
	v.SetDefault("llm.retry_delay", llm.DefaultRetryDelay)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.cache", true)
	v.SetDefault("llm.cache_ttl", 24*time.Hour)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 500)

	v.SetDefault("email.transport", TransportLog)
	v.SetDefault("email.from", "hello@example.com")
	v.SetDefault("email.from_name", "Leadflow")
	v.SetDefault("smtp.port", 587)

	v.SetDefault("intake.timing", "inline")
	v.SetDefault("intake.source", "website_form")
	v.SetDefault("intake.phone_region", "US")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", filepath.Join(Dir(), "certs"))
	v.SetDefault("server.cert_hosts", []string{"localhost", "127.0.0.1", "::1"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves the configuration held by v and validates the choices that
// would otherwise fail later.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   ExpandPath(v.GetString("database.path")),
			URL:    v.GetString("database.url"),
		},
		LLM: llm.Config{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			Timeout:     v.GetDuration("llm.timeout"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Cache:    v.GetBool("llm.cache"),
		RedisURL: v.GetString("redis.url"),
		Email: EmailConfig{
			Transport: strings.ToLower(v.GetString("email.transport")),
			Sender: email.Config{
				From:     v.GetString("email.from"),
				FromName: v.GetString("email.from_name"),
			},
			SMTP: email.SMTPConfig{
				Host:     v.GetString("smtp.host"),
				Port:     v.GetInt("smtp.port"),
				Username: v.GetString("smtp.username"),
				Password: v.GetString("smtp.password"),
			},
		},
		Intake: IntakeConfig{
			Timing:      v.GetString("intake.timing"),
			Source:      v.GetString("intake.source"),
			PhoneRegion: v.GetString("intake.phone_region"),
		},
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			TLS:             v.GetBool("server.tls"),
			CertDir:         ExpandPath(v.GetString("server.cert_dir")),
			CertHosts:       v.GetStringSlice("server.cert_hosts"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if c.LLM.APIKey == "" {
		if key, ok := providerKeyEnv[c.LLM.Provider]; ok {
			c.LLM.APIKey = os.Getenv(key)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks enumerated settings and the fields they require.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for the postgres driver", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: database.driver %q (want %s or %s)", common.ErrInvalidConfig, c.Database.Driver, DriverSQLite, DriverPostgres)
	}

	switch c.Email.Transport {
	case TransportLog:
	case TransportSMTP:
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("%w: smtp.host is required for the smtp transport", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: email.transport %q (want %s or %s)", common.ErrInvalidConfig, c.Email.Transport, TransportLog, TransportSMTP)
	}

	if _, ok := providerKeyEnv[c.LLM.Provider]; !ok {
		return fmt.Errorf("%w: llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// HasLLMKey reports whether a provider key is configured. Without one every
// lead is categorized by the keyword fallback.
func (c *Config) HasLLMKey() bool {
	return c.LLM.APIKey != ""
}
