// Package imap reads mail from and saves draft replies to an IMAP mailbox.
package imap

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/email-concierge/internal/config"
	"go.uber.org/zap"
)

// FetchedMessage is one raw message with its UID
type FetchedMessage struct {
	UID imap.UID
	Raw []byte
}

// Mailbox wraps go-imap v2 for the concierge's fetch and draft needs
type Mailbox struct {
	cfg    config.IMAPConfig
	logger *zap.Logger
}

// NewMailbox creates a new IMAP mailbox client configuration
func NewMailbox(cfg config.IMAPConfig, logger *zap.Logger) *Mailbox {
	return &Mailbox{
		cfg:    cfg,
		logger: logger,
	}
}

// connect establishes a connection to the IMAP server and authenticates.
// The caller is responsible for calling Logout on the returned client.
func (m *Mailbox) connect() (*imapclient.Client, error) {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	var client *imapclient.Client
	var err error
	if m.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(m.cfg.Username, m.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", m.cfg.Username, err)
	}

	return client, nil
}

// FetchRecent returns the newest limit messages of the configured mailbox,
// oldest first. Messages are fetched with PEEK so their \Seen flag is kept.
func (m *Mailbox) FetchRecent(ctx context.Context, limit int) ([]FetchedMessage, error) {
	client, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(m.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", m.cfg.Mailbox, err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var messages []FetchedMessage
	for {
		if err := ctx.Err(); err != nil {
			return messages, err
		}

		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			m.logger.Warn("Failed to collect message", zap.Error(err))
			continue
		}

		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			continue
		}
		messages = append(messages, FetchedMessage{UID: buf.UID, Raw: raw})
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	m.logger.Debug("Fetched messages",
		zap.String("mailbox", m.cfg.Mailbox),
		zap.Int("count", len(messages)))

	return messages, nil
}

// DraftReply is a reply to an existing message. InReplyTo and References
// hold message IDs without angle brackets.
type DraftReply struct {
	To         string
	Subject    string
	Body       string
	InReplyTo  string
	References []string
}

// SaveDraft appends a reply draft to the drafts mailbox flagged \Draft.
// Nothing is ever sent.
func (m *Mailbox) SaveDraft(ctx context.Context, reply DraftReply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := ComposeDraft(m.cfg.Username, reply, time.Now())
	if err != nil {
		return err
	}

	client, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	appendCmd := client.Append(m.cfg.DraftsMailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft},
		Time:  time.Now(),
	})
	if _, err := appendCmd.Write(raw); err != nil {
		_ = appendCmd.Close()
		return fmt.Errorf("writing draft: %w", err)
	}
	if err := appendCmd.Close(); err != nil {
		return fmt.Errorf("closing draft append: %w", err)
	}
	if _, err := appendCmd.Wait(); err != nil {
		return fmt.Errorf("appending draft to %s: %w", m.cfg.DraftsMailbox, err)
	}

	m.logger.Info("Saved draft", zap.String("mailbox", m.cfg.DraftsMailbox), zap.String("to", reply.To))
	return nil
}

// ComposeDraft builds an RFC 5322 reply draft. The subject gets a "Re: "
// prefix unless it already has one. When the original message ID is known
// the draft carries In-Reply-To and References so clients thread it.
func ComposeDraft(from string, reply DraftReply, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	subject := reply.Subject
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		subject = "Re: " + subject
	}
	h.SetSubject(subject)

	if reply.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{reply.InReplyTo})
		refs := append([]string(nil), reply.References...)
		if len(refs) == 0 || refs[len(refs)-1] != reply.InReplyTo {
			refs = append(refs, reply.InReplyTo)
		}
		h.SetMsgIDList("References", refs)
	}

	if addr, err := mail.ParseAddress(from); err == nil {
		h.SetAddressList("From", []*mail.Address{addr})
	}
	toAddrs, err := mail.ParseAddressList(reply.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", reply.To, err)
	}
	h.SetAddressList("To", toAddrs)

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating draft writer: %w", err)
	}
	if _, err := w.Write([]byte(reply.Body)); err != nil {
		return nil, fmt.Errorf("writing draft body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing draft writer: %w", err)
	}
	return buf.Bytes(), nil
}
