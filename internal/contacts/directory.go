// Package contacts decides whether a sender is someone the user knows.
package contacts

import (
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/mikey/email-concierge/internal/core"
	"go.uber.org/zap"
)

// Directory resolves known contacts from configured addresses and domains
type Directory struct {
	addresses map[string]struct{}
	domains   []string
	logger    *zap.Logger
}

// NewDirectory creates a new contact directory
func NewDirectory(addresses, domains []string, logger *zap.Logger) *Directory {
	d := &Directory{
		addresses: make(map[string]struct{}, len(addresses)),
		logger:    logger,
	}
	for _, addr := range addresses {
		if addr = normalize(addr); addr != "" {
			d.addresses[addr] = struct{}{}
		}
	}
	for _, domain := range domains {
		if domain = strings.TrimPrefix(normalize(domain), "@"); domain != "" {
			d.domains = append(d.domains, domain)
		}
	}

	if len(d.addresses)+len(d.domains) > 0 && logger != nil {
		logger.Info("Initialized contact directory",
			zap.Int("addresses", len(d.addresses)),
			zap.Strings("domains", d.domains))
	}

	return d
}

// IsKnown reports whether sender matches a known address, a known domain,
// or a subdomain of one
func (d *Directory) IsKnown(sender string) bool {
	addr := senderAddress(sender)
	if addr == "" {
		return false
	}

	if _, ok := d.addresses[addr]; ok {
		d.debug("Sender address is known", addr)
		return true
	}

	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return false
	}
	domain := addr[at+1:]
	for _, known := range d.domains {
		if domain == known || strings.HasSuffix(domain, "."+known) {
			d.debug("Sender domain is known", addr)
			return true
		}
	}

	return false
}

// Resolve fills in KnownContact when the caller left it unset. An asserted
// hint is never changed.
func (d *Directory) Resolve(hints core.Hints, sender string) core.Hints {
	if hints.KnownContact == nil && d.IsKnown(sender) {
		hints.KnownContact = core.Bool(true)
	}
	return hints
}

func (d *Directory) debug(msg, addr string) {
	if d.logger != nil {
		d.logger.Debug(msg, zap.String("email", addr))
	}
}

// senderAddress extracts the bare lowercased address from a From value
func senderAddress(sender string) string {
	if addr, err := mail.ParseAddress(sender); err == nil {
		return normalize(addr.Address)
	}
	// fall back to the raw value, minus any angle brackets
	raw := sender
	if i := strings.LastIndex(raw, "<"); i >= 0 {
		raw = strings.TrimSuffix(raw[i+1:], ">")
	}
	return normalize(raw)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
