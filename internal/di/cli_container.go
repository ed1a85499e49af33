package di

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-concierge/internal/adapters/filter"
	"github.com/mikey/email-concierge/internal/adapters/imap"
	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/credential"
	"github.com/mikey/email-concierge/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	InputFile  string
	IMAP       bool
	SaveDrafts bool
	UserNotes  string

	// Credential flags
	SetCredential    string
	DeleteCredential string

	// Behaviour flags
	NoDraft     bool
	Interactive bool
	JSON        bool
	Verbose     bool
	JSONLog     bool
	ConfigFile  string

	// Hints holds only the hint flags given on the command line
	Hints core.Hints

	fs *pflag.FlagSet
}

// configFlags maps flag names to the configuration keys they override
var configFlags = map[string]string{
	"provider":       "llm.provider",
	"openai-api-key": "openai.api_key",
	"openai-model":   "openai.model_name",
	"gemini-api-key": "gemini.api_key",
	"gemini-model":   "gemini.model_name",
	"bedrock-region": "bedrock.region",
	"bedrock-model":  "bedrock.model_id",
	"draft-timeout":  "drafting.timeout",
	"imap-host":      "imap.host",
	"imap-user":      "imap.username",
	"imap-mailbox":   "imap.mailbox",
	"limit":          "imap.limit",
	"workers":        "triage.workers",
}

var hintFlags = []struct {
	name  string
	usage string
	field func(*core.Hints) **bool
}{
	{"reply-to-user", "assert the email replies to a thread you started", func(h *core.Hints) **bool { return &h.IsReplyToUser }},
	{"known-contact", "assert the sender is a known contact", func(h *core.Hints) **bool { return &h.KnownContact }},
	{"human-sender", "assert the sender is a person", func(h *core.Hints) **bool { return &h.HumanSender }},
	{"transactional", "assert the email is transactional", func(h *core.Hints) **bool { return &h.IsTransactional }},
	{"newsletter", "assert the email is a newsletter", func(h *core.Hints) **bool { return &h.IsNewsletter }},
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := pflag.NewFlagSet("concierge-cli", pflag.ContinueOnError)

	// Input flags
	fs.StringVarP(&flags.InputFile, "file", "f", "", "Input email file (use stdin if not specified)")
	fs.BoolVar(&flags.IMAP, "imap", false, "Triage the latest messages of the IMAP mailbox instead of a file")
	fs.BoolVar(&flags.SaveDrafts, "save-drafts", false, "With --imap, append drafts to the drafts mailbox")
	fs.StringVar(&flags.UserNotes, "notes", "", "Notes passed to the drafting model")

	// Credential flags
	fs.StringVar(&flags.SetCredential, "set-credential", "", "Store a secret read from stdin in the OS keyring ("+strings.Join(credential.Keys, ", ")+")")
	fs.StringVar(&flags.DeleteCredential, "delete-credential", "", "Remove a secret from the OS keyring")

	// Behaviour flags
	fs.BoolVar(&flags.NoDraft, "no-draft", false, "Classify only, never draft")
	fs.BoolVarP(&flags.Interactive, "interactive", "i", false, "Confirm inferred signals before classifying")
	fs.BoolVar(&flags.JSON, "json", false, "Print results as JSON")
	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file")

	// Settings overriding the configuration
	fs.String("provider", "openai", "LLM provider (openai, gemini, bedrock, none)")
	fs.String("openai-api-key", "", "API key for OpenAI")
	fs.String("openai-model", "gpt-4o", "OpenAI model name")
	fs.String("gemini-api-key", "", "API key for Google Gemini")
	fs.String("gemini-model", "gemini-1.5-flash", "Gemini model name")
	fs.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")
	fs.String("draft-timeout", "45s", "Timeout for one drafting call")
	fs.String("imap-host", "", "IMAP server host")
	fs.String("imap-user", "", "IMAP username")
	fs.String("imap-mailbox", "INBOX", "IMAP mailbox to read")
	fs.Int("limit", 10, "Number of recent IMAP messages to triage")
	fs.Int("workers", 4, "Messages triaged in parallel")

	// Hints
	hintValues := make([]*bool, len(hintFlags))
	for i, h := range hintFlags {
		hintValues[i] = fs.Bool(h.name, false, h.usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// an unset flag means "infer", so only changed flags become hints
	for i, h := range hintFlags {
		if fs.Changed(h.name) {
			*h.field(&flags.Hints) = core.Bool(*hintValues[i])
		}
	}

	if flags.SaveDrafts && !flags.IMAP {
		return nil, fmt.Errorf("--save-drafts requires --imap")
	}
	if flags.SetCredential != "" && flags.DeleteCredential != "" {
		return nil, fmt.Errorf("--set-credential and --delete-credential are exclusive")
	}
	for _, key := range []string{flags.SetCredential, flags.DeleteCredential} {
		if key == "" {
			continue
		}
		if err := credential.ValidateKey(key); err != nil {
			return nil, err
		}
	}

	flags.fs = fs
	return flags, nil
}

// Config builds the configuration: the config file when given, otherwise
// built-in defaults, with changed flags applied on top
func (f *CLIFlags) Config() (*config.Config, error) {
	var cfg *config.Config
	if f.ConfigFile != "" {
		var err error
		if cfg, err = config.NewWithFile(f.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewFromViper(config.NewEmptyViper())
	}

	v := cfg.GetViper()
	if f.fs != nil {
		for name, key := range configFlags {
			if err := v.BindPFlag(key, f.fs.Lookup(name)); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}
	if f.NoDraft {
		v.Set("llm.provider", "none")
	}

	return cfg, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := flags.Config()
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register output
	if err := container.Provide(func(flags *CLIFlags) *filter.CliFilter {
		return filter.NewCliFilter(os.Stdout, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	// Register mailbox; only constructed in --imap mode
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*imap.Mailbox, error) {
		imapCfg := cfg.GetIMAP()
		if imapCfg.Host == "" {
			return nil, fmt.Errorf("imap.host is not configured")
		}
		password, err := credential.Resolve(imapCfg.Password, credential.IMAPPassword)
		if err != nil {
			return nil, fmt.Errorf("IMAP password not configured: %w", err)
		}
		imapCfg.Password = password
		return imap.NewMailbox(imapCfg, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
