package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/email-concierge/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "openai", cfg.GetLLM().Provider)

	drafting, err := cfg.GetDrafting()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, drafting.Timeout)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, "memory", cache.Type)
	assert.Equal(t, 24*time.Hour, cache.TTL)

	httpCfg, err := cfg.GetHTTP()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8000", httpCfg.ListenAddress)

	assert.Equal(t, "X-Concierge-Priority", cfg.GetSMTP().Headers.Priority)
	assert.Equal(t, []string{"http"}, cfg.GetList("server.frontends"))
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
llm:
  provider: gemini
cache:
  type: sqlite
  ttl: 2h
contacts:
  known_domains: [partner.example.com]
vocabulary:
  promotional_keywords: [rabatt, angebot]
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := NewWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cache.TTL)
	assert.Equal(t, []string{"partner.example.com"}, cfg.GetContacts().KnownDomains)

	vocab := cfg.GetVocabulary()
	assert.Equal(t, []string{"rabatt", "angebot"}, vocab.PromotionalKeywords)
	assert.Contains(t, vocab.TransactionalKeywords, "receipt", "unset sets keep defaults")
}

func TestNewWithMissingFile(t *testing.T) {
	_, err := NewWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInvalidDuration(t *testing.T) {
	v := NewEmptyViper()
	v.Set("drafting.timeout", "soon")

	_, err := NewFromViper(v).GetDrafting()
	assert.ErrorContains(t, err, "drafting.timeout")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CONCIERGE_LLM_PROVIDER", "bedrock")
	t.Chdir(t.TempDir())

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "bedrock", cfg.GetLLM().Provider)
}

func TestVocabularyFromEnv(t *testing.T) {
	t.Setenv("CONCIERGE_VOCABULARY_PROMOTIONAL_KEYWORDS", "limited time, flash sale")
	t.Setenv("CONCIERGE_VOCABULARY_REPLY_BODY_PHRASES", `" wrote:",in response to`)
	t.Setenv("CONCIERGE_CONTACTS_KNOWN_DOMAINS", "partner.example.com,example.org")
	t.Chdir(t.TempDir())

	cfg, err := New()
	require.NoError(t, err)

	vocab := cfg.GetVocabulary()
	assert.Equal(t, []string{"limited time", "flash sale"}, vocab.PromotionalKeywords)
	assert.Equal(t, []string{" wrote:", "in response to"}, vocab.ReplyBodyPhrases)
	assert.Equal(t, []string{"partner.example.com", "example.org"}, cfg.GetContacts().KnownDomains)
}

func TestGetList(t *testing.T) {
	v := NewEmptyViper()
	v.Set("list.yaml", []interface{}{"limited time", " wrote:"})
	v.Set("list.string", " a , ,b,")
	cfg := NewFromViper(v)

	assert.Equal(t, []string{"limited time", " wrote:"}, cfg.GetList("list.yaml"))
	assert.Equal(t, []string{"a", "b"}, cfg.GetList("list.string"))
	assert.Nil(t, cfg.GetList("list.missing"))
	assert.Equal(t, []string{"http"}, cfg.GetList("server.frontends"))
}

func TestWatchVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	write := func(keywords string) {
		data := []byte("vocabulary:\n  transactional_keywords: [" + keywords + "]\n")
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}
	write("receipt")

	cfg, err := NewWithFile(path)
	require.NoError(t, err)

	store := core.NewVocabularyStore(cfg.GetVocabulary())
	require.Equal(t, []string{"receipt"}, store.Current().TransactionalKeywords)

	// the watcher outlives the test, so it logs to a no-op logger
	cfg.WatchVocabulary(store, zap.NewNop())
	write("beleg")

	assert.Eventually(t, func() bool {
		keywords := store.Current().TransactionalKeywords
		return len(keywords) == 1 && keywords[0] == "beleg"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchVocabularyWithoutFile(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	store := core.NewVocabularyStore(cfg.GetVocabulary())
	before := store.Current()

	cfg.WatchVocabulary(store, zap.NewNop())
	assert.Same(t, before, store.Current())
}
