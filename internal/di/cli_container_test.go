package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/email-concierge/internal/core"
	"github.com/mikey/email-concierge/internal/ports"
)

func TestParseFlagsHints(t *testing.T) {
	flags, err := ParseFlags([]string{"--known-contact", "--newsletter=false", "--file", "mail.eml"})
	require.NoError(t, err)

	assert.Equal(t, "mail.eml", flags.InputFile)
	require.NotNil(t, flags.Hints.KnownContact)
	assert.True(t, *flags.Hints.KnownContact)
	require.NotNil(t, flags.Hints.IsNewsletter)
	assert.False(t, *flags.Hints.IsNewsletter)

	// untouched hint flags stay unset so they are inferred
	assert.Nil(t, flags.Hints.IsReplyToUser)
	assert.Nil(t, flags.Hints.HumanSender)
	assert.Nil(t, flags.Hints.IsTransactional)
}

func TestParseFlagsSaveDraftsNeedsIMAP(t *testing.T) {
	_, err := ParseFlags([]string{"--save-drafts"})
	assert.Error(t, err)

	flags, err := ParseFlags([]string{"--imap", "--save-drafts"})
	require.NoError(t, err)
	assert.True(t, flags.SaveDrafts)
}

func TestCLIConfig(t *testing.T) {
	flags, err := ParseFlags([]string{"--provider", "gemini", "--limit", "3"})
	require.NoError(t, err)

	cfg, err := flags.Config()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	assert.Equal(t, 3, cfg.GetIMAP().Limit)
	// unchanged flags leave configuration defaults alone
	assert.Equal(t, "INBOX", cfg.GetIMAP().Mailbox)
	assert.Equal(t, 4, cfg.GetInt("triage.workers"))

	flags, err = ParseFlags([]string{"--provider", "openai", "--no-draft"})
	require.NoError(t, err)
	cfg, err = flags.Config()
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.GetLLM().Provider)
}

func TestCLIContainerBuildsService(t *testing.T) {
	flags, err := ParseFlags([]string{"--no-draft"})
	require.NoError(t, err)

	container, err := BuildCLIContainer(flags)
	require.NoError(t, err)

	err = container.Invoke(func(service *core.ConciergeService, store ports.DraftStore) {
		if store != nil {
			defer store.Stop()
		}
		a := service.Assess(core.EmailInput{
			Sender:  "Sam <sam@example.com>",
			Subject: "Re: Project timeline",
			Body:    "Thanks for the update.",
		}, core.Hints{})
		assert.Equal(t, core.TierInterruptNow, a.Tier)
		assert.True(t, a.ReplyRecommended)
	})
	require.NoError(t, err)
}

func TestParseFlagsCredentials(t *testing.T) {
	flags, err := ParseFlags([]string{"--set-credential", "openai_api_key"})
	require.NoError(t, err)
	assert.Equal(t, "openai_api_key", flags.SetCredential)

	_, err = ParseFlags([]string{"--delete-credential", "aws_secret"})
	assert.ErrorContains(t, err, "unknown credential")

	_, err = ParseFlags([]string{"--set-credential", "imap_password", "--delete-credential", "imap_password"})
	assert.Error(t, err)
}
