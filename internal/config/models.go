package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mikey/email-concierge/internal/core"
	"go.uber.org/zap"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// ModelConfig represents the generation settings shared by every provider
type ModelConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// DraftingConfig controls calls to the drafting capability
type DraftingConfig struct {
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// CacheConfig represents the draft cache configuration
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// HTTPConfig represents the HTTP frontend configuration
type HTTPConfig struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// SMTPHeaders names the headers stamped on filtered mail
type SMTPHeaders struct {
	Priority string
	Folder   string
	Notify   string
	Reason   string
	Reply    string
}

// SMTPConfig represents the SMTP content filter configuration
type SMTPConfig struct {
	ListenAddress string
	RelayAddress  string
	RelayPort     int
	RelayEnabled  bool
	ModifySubject bool
	SubjectPrefix string
	Headers       SMTPHeaders
}

// IMAPConfig represents the IMAP mailbox configuration
type IMAPConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	TLS           bool
	Mailbox       string
	DraftsMailbox string
	Limit         int
}

// ContactsConfig lists the addresses and domains treated as known contacts
type ContactsConfig struct {
	KnownAddresses []string
	KnownDomains   []string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() ModelConfig {
	return c.modelConfig("openai")
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() ModelConfig {
	return c.modelConfig("gemini")
}

func (c *Config) modelConfig(prefix string) ModelConfig {
	return ModelConfig{
		APIKey:      c.GetString(prefix + ".api_key"),
		BaseURL:     c.GetString(prefix + ".base_url"),
		ModelName:   c.GetString(prefix + ".model_name"),
		MaxTokens:   c.GetInt(prefix + ".max_tokens"),
		Temperature: float32(c.GetFloat64(prefix + ".temperature")),
		TopP:        float32(c.GetFloat64(prefix + ".top_p")),
		MaxBodySize: c.GetInt(prefix + ".max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetDrafting returns the drafting configuration
func (c *Config) GetDrafting() (DraftingConfig, error) {
	timeout, err := c.GetDuration("drafting.timeout")
	if err != nil {
		return DraftingConfig{}, err
	}
	return DraftingConfig{
		Timeout:   timeout,
		RateLimit: c.GetFloat64("drafting.rate_limit"),
		Burst:     c.GetInt("drafting.burst"),
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetHTTP returns the HTTP frontend configuration
func (c *Config) GetHTTP() (HTTPConfig, error) {
	read, err := c.GetDuration("server.http.read_timeout")
	if err != nil {
		return HTTPConfig{}, err
	}
	write, err := c.GetDuration("server.http.write_timeout")
	if err != nil {
		return HTTPConfig{}, err
	}
	return HTTPConfig{
		ListenAddress: c.GetString("server.http.listen_address"),
		ReadTimeout:   read,
		WriteTimeout:  write,
	}, nil
}

// GetSMTP returns the SMTP content filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress: c.GetString("server.smtp.listen_address"),
		RelayAddress:  c.GetString("server.smtp.relay_address"),
		RelayPort:     c.GetInt("server.smtp.relay_port"),
		RelayEnabled:  c.GetBool("server.smtp.relay_enabled"),
		ModifySubject: c.GetBool("server.smtp.modify_subject"),
		SubjectPrefix: c.GetString("server.smtp.subject_prefix"),
		Headers: SMTPHeaders{
			Priority: c.GetString("server.smtp.headers.priority"),
			Folder:   c.GetString("server.smtp.headers.folder"),
			Notify:   c.GetString("server.smtp.headers.notify"),
			Reason:   c.GetString("server.smtp.headers.reason"),
			Reply:    c.GetString("server.smtp.headers.reply"),
		},
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Host:          c.GetString("imap.host"),
		Port:          c.GetString("imap.port"),
		Username:      c.GetString("imap.username"),
		Password:      c.GetString("imap.password"),
		TLS:           c.GetBool("imap.tls"),
		Mailbox:       c.GetString("imap.mailbox"),
		DraftsMailbox: c.GetString("imap.drafts_mailbox"),
		Limit:         c.GetInt("imap.limit"),
	}
}

// GetContacts returns the known-contact configuration
func (c *Config) GetContacts() ContactsConfig {
	return ContactsConfig{
		KnownAddresses: c.GetList("contacts.known_addresses"),
		KnownDomains:   c.GetList("contacts.known_domains"),
	}
}

// GetVocabulary returns the built-in vocabulary with any configured sets applied
func (c *Config) GetVocabulary() core.Vocabulary {
	return core.DefaultVocabulary().Merge(core.Vocabulary{
		ReplySubjectMarkers:   c.GetList("vocabulary.reply_subject_markers"),
		ReplyBodyPhrases:      c.GetList("vocabulary.reply_body_phrases"),
		NonHumanSenderMarkers: c.GetList("vocabulary.non_human_sender_markers"),
		BulkBodyMarkers:       c.GetList("vocabulary.bulk_body_markers"),
		TransactionalKeywords: c.GetList("vocabulary.transactional_keywords"),
		SignOffs:              c.GetList("vocabulary.sign_offs"),
		PersonalDomains:       c.GetList("vocabulary.personal_domains"),
		NewsletterBodyMarkers: c.GetList("vocabulary.newsletter_body_markers"),
		NoReplySenderMarkers:  c.GetList("vocabulary.no_reply_sender_markers"),
		PromotionalKeywords:   c.GetList("vocabulary.promotional_keywords"),
	})
}

// WatchVocabulary reloads the vocabulary into store whenever the config file changes
func (c *Config) WatchVocabulary(store *core.VocabularyStore, logger *zap.Logger) {
	if c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		store.Set(c.GetVocabulary())
		logger.Info("Reloaded vocabulary", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	c.v.WatchConfig()
}
