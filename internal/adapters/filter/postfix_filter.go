package filter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/emersion/go-smtp"
	"github.com/mikey/email-concierge/internal/config"
	"github.com/mikey/email-concierge/internal/contacts"
	"github.com/mikey/email-concierge/internal/core"
	"go.uber.org/zap"
)

// PostfixFilter is a Postfix content filter that stamps triage headers on
// each message and hands it back to Postfix. Mail is never rejected.
type PostfixFilter struct {
	service  *core.ConciergeService
	contacts *contacts.Directory
	logger   *zap.Logger
	cfg      config.SMTPConfig
	server   *smtp.Server
	listener net.Listener
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.ConciergeService,
	directory *contacts.Directory,
	logger *zap.Logger,
	cfg config.SMTPConfig,
) *PostfixFilter {
	return &PostfixFilter{
		service:  service,
		contacts: directory,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	l, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	f.listener = l

	f.logger.Info("Postfix filter starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := f.server.Serve(l); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// Addr returns the bound listen address, or nil before Start
func (f *PostfixFilter) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Assess triages a raw message without drafting. envelopeFrom is used when
// the message has no From header.
func (f *PostfixFilter) Assess(raw []byte, envelopeFrom string) (core.Assessment, error) {
	msg, err := ParseMessageBytes(raw)
	if err != nil {
		return core.Assessment{}, err
	}

	sender := msg.From
	if sender == "" {
		sender = envelopeFrom
	}

	hints := core.Hints{}
	if f.contacts != nil {
		hints = f.contacts.Resolve(hints, sender)
	}

	return f.service.Assess(core.EmailInput{
		Sender:  sender,
		Subject: msg.Subject,
		Body:    msg.Body,
	}, hints), nil
}

// Stamp writes the triage headers into raw, replacing any existing headers
// of the same names. The body is passed through untouched.
func (f *PostfixFilter) Stamp(raw []byte, a core.Assessment) ([]byte, error) {
	br := bufio.NewReader(bytes.NewReader(raw))
	th, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read message header: %w", err)
	}

	h := mail.Header{Header: message.Header{Header: th}}
	headers := f.cfg.Headers
	h.Set(headers.Priority, string(a.Tier))
	h.Set(headers.Folder, a.Folder)
	h.Set(headers.Notify, strconv.FormatBool(a.Notify))
	h.Set(headers.Reason, a.Reason)
	h.Set(headers.Reply, strconv.FormatBool(a.ReplyRecommended))

	if a.Tier == core.TierInterruptNow && f.cfg.ModifySubject && f.cfg.SubjectPrefix != "" {
		subject, err := h.Subject()
		if err != nil {
			subject = h.Get("Subject")
		}
		if !strings.HasPrefix(subject, f.cfg.SubjectPrefix) {
			h.SetSubject(f.cfg.SubjectPrefix + subject)
		}
	}

	var out bytes.Buffer
	if err := textproto.WriteHeader(&out, h.Header.Header); err != nil {
		return nil, fmt.Errorf("failed to write message header: %w", err)
	}
	if _, err := io.Copy(&out, br); err != nil {
		return nil, fmt.Errorf("failed to copy message body: %w", err)
	}
	return out.Bytes(), nil
}

// sendToPostfix sends the processed email back to Postfix on the configured port using go-smtp
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.RelayAddress, strconv.Itoa(f.cfg.RelayPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// already delivered
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data triages the message, stamps it and relays it. Triage problems are
// logged and the original message is relayed unchanged.
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	out := raw
	assessment, err := f.Assess(raw, s.sender)
	if err != nil {
		f.logger.Warn("Failed to triage email, relaying unchanged",
			zap.String("sender", s.sender),
			zap.Error(err))
	} else if stamped, err := f.Stamp(raw, assessment); err != nil {
		f.logger.Warn("Failed to stamp triage headers, relaying unchanged",
			zap.String("sender", s.sender),
			zap.Error(err))
	} else {
		out = stamped
	}

	if f.cfg.RelayEnabled {
		if err := f.sendToPostfix(s.sender, s.recipients, out); err != nil {
			f.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", s.sender))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 4, 0},
				Message:      "Relay failed, try again later",
			}
		}
	} else {
		f.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	f.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.String("priority_level", string(assessment.Tier)),
		zap.String("folder", assessment.Folder),
		zap.Bool("reply_recommended", assessment.ReplyRecommended))

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
