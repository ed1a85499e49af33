package core

import (
	"strings"

	"github.com/emersion/go-message/mail"
	"golang.org/x/text/cases"
)

// InferSignals resolves every signal for an email. Asserted hints are kept
// as given; missing ones are inferred from sender, subject and body. The
// input values are never modified.
func InferSignals(input EmailInput, hints Hints, vocab *Vocabulary) Signals {
	fold := cases.Fold()
	sender := fold.String(input.Sender)
	subject := fold.String(input.Subject)
	body := fold.String(input.Body)

	var s Signals
	s.IsReplyToUser = resolve(hints.IsReplyToUser, func() bool {
		return inferReplyToUser(subject, body, vocab)
	})
	// never inferred
	s.KnownContact = resolve(hints.KnownContact, func() bool { return false })
	s.HumanSender = resolve(hints.HumanSender, func() bool {
		return inferHumanSender(sender, senderDomain(input.Sender), subject, body, vocab)
	})
	s.IsTransactional = resolve(hints.IsTransactional, func() bool {
		return containsAny(subject, vocab.TransactionalKeywords)
	})
	s.IsPromotional = containsAny(subject, vocab.PromotionalKeywords) ||
		containsAny(body, vocab.PromotionalKeywords)

	if hints.IsNewsletter != nil {
		s.IsNewsletter = *hints.IsNewsletter
	} else {
		s.IsNewsletter = containsAny(body, vocab.NewsletterBodyMarkers) ||
			(containsAny(sender, vocab.NoReplySenderMarkers) && !s.KnownContact && !s.IsPromotional)

		// promotional bulk mail falls through to the ignore tier
		if s.IsNewsletter && s.IsPromotional && !s.IsReplyToUser && !s.KnownContact {
			s.IsNewsletter = false
		}
	}

	return s
}

func resolve(hint *bool, infer func() bool) bool {
	if hint != nil {
		return *hint
	}
	return infer()
}

func inferReplyToUser(subject, body string, vocab *Vocabulary) bool {
	return containsAny(subject, vocab.ReplySubjectMarkers) ||
		containsAny(body, vocab.ReplyBodyPhrases)
}

// inferHumanSender applies the human-sender checks in order; the first
// conclusive check wins. Unknown resolves to false.
func inferHumanSender(sender, domain, subject, body string, vocab *Vocabulary) bool {
	switch {
	case containsAny(sender, vocab.NonHumanSenderMarkers):
		return false
	case containsAny(body, vocab.BulkBodyMarkers):
		return false
	case containsAny(subject, vocab.TransactionalKeywords):
		return false
	case containsAny(body, vocab.SignOffs):
		return true
	case isPersonalDomain(domain, vocab.PersonalDomains):
		return true
	default:
		return false
	}
}

func isPersonalDomain(domain string, domains []string) bool {
	if domain == "" {
		return false
	}
	for _, d := range domains {
		if domain == d {
			return true
		}
	}
	return false
}

// senderDomain extracts the domain of a sender such as
// "Jane Doe <jane@example.com>" or a bare address. It returns "" when no
// domain can be found.
func senderDomain(sender string) string {
	addr := strings.TrimSpace(sender)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	} else if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}

	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.Trim(addr[at+1:], " >"))
}
