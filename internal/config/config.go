package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return NewWithFile("")
}

// NewWithFile creates a configuration instance reading the given file, or
// searching the default locations when file is empty
func NewWithFile(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/email-concierge/")
		v.AddConfigPath("$HOME/.email-concierge")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("CONCIERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")

	// Drafting defaults
	v.SetDefault("drafting.timeout", "45s")
	v.SetDefault("drafting.rate_limit", 0.0)
	v.SetDefault("drafting.burst", 1)

	// Server defaults
	v.SetDefault("server.frontends", []string{"http"})
	v.SetDefault("server.http.listen_address", "127.0.0.1:8000")
	v.SetDefault("server.http.read_timeout", "15s")
	v.SetDefault("server.http.write_timeout", "90s")
	v.SetDefault("server.smtp.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.smtp.relay_address", "127.0.0.1")
	v.SetDefault("server.smtp.relay_port", 10026)
	v.SetDefault("server.smtp.relay_enabled", true)
	v.SetDefault("server.smtp.modify_subject", false)
	v.SetDefault("server.smtp.subject_prefix", "[ACTION NOW] ")
	v.SetDefault("server.smtp.headers.priority", "X-Concierge-Priority")
	v.SetDefault("server.smtp.headers.folder", "X-Concierge-Folder")
	v.SetDefault("server.smtp.headers.notify", "X-Concierge-Notify")
	v.SetDefault("server.smtp.headers.reason", "X-Concierge-Reason")
	v.SetDefault("server.smtp.headers.reply", "X-Concierge-Reply")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o")
	v.SetDefault("openai.max_tokens", 400)
	v.SetDefault("openai.temperature", 0.4)
	v.SetDefault("openai.top_p", 1.0)
	v.SetDefault("openai.max_body_size", 8192)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 400)
	v.SetDefault("gemini.temperature", 0.4)
	v.SetDefault("gemini.top_p", 1.0)
	v.SetDefault("gemini.max_body_size", 8192)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 400)
	v.SetDefault("bedrock.temperature", 0.4)
	v.SetDefault("bedrock.top_p", 1.0)
	v.SetDefault("bedrock.max_body_size", 8192)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/draft_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/email_concierge")

	// Contacts defaults
	v.SetDefault("contacts.known_addresses", []string{})
	v.SetDefault("contacts.known_domains", []string{})

	// IMAP defaults
	v.SetDefault("imap.host", "")
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.drafts_mailbox", "Drafts")
	v.SetDefault("imap.limit", 10)

	// Triage defaults
	v.SetDefault("triage.workers", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetList reads a list of phrases. Lists from a config file are used as is.
// A string, as set through the environment, is split on commas and each item
// is trimmed; an item wrapped in double quotes keeps its inner spaces, so
// `" wrote:"` yields " wrote:".
func (c *Config) GetList(key string) []string {
	switch raw := c.v.Get(key).(type) {
	case nil:
		return nil
	case []string:
		return raw
	case []interface{}:
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			items = append(items, fmt.Sprint(item))
		}
		return items
	case string:
		return splitList(raw)
	default:
		return c.v.GetStringSlice(key)
	}
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if len(item) >= 2 && strings.HasPrefix(item, `"`) && strings.HasSuffix(item, `"`) {
			if unquoted, err := strconv.Unquote(item); err == nil {
				item = unquoted
			}
		}
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
