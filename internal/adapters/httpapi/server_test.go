package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/contacts"
	"github.com/mikey/email-concierge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeDrafter struct {
	draft string
	err   error
	calls atomic.Int32
}

func (f *fakeDrafter) Draft(context.Context, core.DraftRequest) (string, error) {
	f.calls.Add(1)
	return f.draft, f.err
}

func newTestServer(t *testing.T, drafter core.Drafter) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	service := core.NewConciergeService(drafter, nil, logger, time.Second)
	directory := contacts.NewDirectory([]string{"mom@family.org"}, nil, logger)

	srv := httptest.NewServer(NewServer(service, directory, logger, config.HTTPConfig{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out["ok"])
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestClassifyNeverDrafts(t *testing.T) {
	drafter := &fakeDrafter{draft: "unused"}
	srv := newTestServer(t, drafter)

	resp, out := post(t, srv, "/classify-email", `{
		"sender": "jane@example.com",
		"subject": "Re: Budget",
		"body": "Sounds good."
	}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INTERRUPT_NOW", out["priority_level"])
	assert.Equal(t, "1 - Action Now", out["folder"])
	assert.Equal(t, true, out["reply_recommended"])
	assert.NotContains(t, out, "draft")
	assert.Equal(t, int32(0), drafter.calls.Load())
}

func TestClassifyHonoursHints(t *testing.T) {
	srv := newTestServer(t, nil)

	_, out := post(t, srv, "/classify-email", `{
		"sender": "deals@shop.example",
		"subject": "Huge sale",
		"body": "Shop now",
		"known_contact": true
	}`)
	assert.Equal(t, "NOTIFY_NON_URGENT", out["priority_level"])

	// known contact resolved from the directory
	_, out = post(t, srv, "/classify-email", `{"sender": "Mom <mom@family.org>", "subject": "hi", "body": "call me"}`)
	signals := out["signals"].(map[string]interface{})
	assert.Equal(t, true, signals["known_contact"])

	// an explicit false is kept
	_, out = post(t, srv, "/classify-email", `{"sender": "mom@family.org", "subject": "hi", "body": "call me", "known_contact": false}`)
	signals = out["signals"].(map[string]interface{})
	assert.Equal(t, false, signals["known_contact"])
}

func TestConciergeDraftsWhenRecommended(t *testing.T) {
	drafter := &fakeDrafter{draft: "  Draft reply (AI): Thursday works.  "}
	srv := newTestServer(t, drafter)

	resp, out := post(t, srv, "/concierge-email", `{
		"sender": "jane@example.com",
		"subject": "Re: Budget",
		"body": "Sounds good.",
		"user_notes": "Prefer Thursday"
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Draft reply (AI): Thursday works.", out["draft"])
	assert.Equal(t, int32(1), drafter.calls.Load())

	_, out = post(t, srv, "/concierge-email", `{
		"sender": "deals@shop.example",
		"subject": "Flash sale",
		"body": "Shop now"
	}`)
	assert.Equal(t, "IGNORE_AUTO_ARCHIVE", out["priority_level"])
	assert.NotContains(t, out, "draft")
	assert.Equal(t, int32(1), drafter.calls.Load())
}

func TestConciergeDraftingFailure(t *testing.T) {
	srv := newTestServer(t, &fakeDrafter{err: errors.New("provider down")})

	resp, out := post(t, srv, "/concierge-email", `{"sender": "jane@example.com", "subject": "Re: Budget", "body": "ok"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, out["detail"], "drafting failed")
	assert.Contains(t, out["detail"], "provider down")
}

func TestDraftReply(t *testing.T) {
	drafter := &fakeDrafter{draft: "Draft reply (AI): Sure."}
	srv := newTestServer(t, drafter)

	// drafts even when triage would not recommend a reply
	resp, out := post(t, srv, "/draft-reply", `{"sender": "deals@shop.example", "subject": "Sale", "body": "Shop now"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Draft reply (AI): Sure.", out["draft"])

	srv = newTestServer(t, nil)
	resp, _ = post(t, srv, "/draft-reply", `{"sender": "a@b.c", "subject": "s", "body": "b"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, out := post(t, srv, "/classify-email", `{"sender": "a@b.c", "subject": null}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "field required: subject, body", out["detail"])

	// empty strings are valid input
	resp, out = post(t, srv, "/classify-email", `{"sender": "", "subject": "", "body": ""}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IGNORE_AUTO_ARCHIVE", out["priority_level"])

	resp, _ = post(t, srv, "/concierge-email", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/classify-email")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStartStop(t *testing.T) {
	logger := zaptest.NewLogger(t)
	service := core.NewConciergeService(nil, nil, logger, time.Second)
	s := NewServer(service, nil, logger, config.HTTPConfig{
		ListenAddress: "127.0.0.1:0",
		ReadTimeout:   time.Second,
		WriteTimeout:  time.Second,
	})
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop())
}
