package core

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"
)

// Vocabulary holds the keyword sets used by signal inference.
// The ladder structure is fixed; only these sets are tunable.
type Vocabulary struct {
	ReplySubjectMarkers   []string `mapstructure:"reply_subject_markers"`
	ReplyBodyPhrases      []string `mapstructure:"reply_body_phrases"`
	NonHumanSenderMarkers []string `mapstructure:"non_human_sender_markers"`
	BulkBodyMarkers       []string `mapstructure:"bulk_body_markers"`
	TransactionalKeywords []string `mapstructure:"transactional_keywords"`
	SignOffs              []string `mapstructure:"sign_offs"`
	PersonalDomains       []string `mapstructure:"personal_domains"`
	NewsletterBodyMarkers []string `mapstructure:"newsletter_body_markers"`
	NoReplySenderMarkers  []string `mapstructure:"no_reply_sender_markers"`
	PromotionalKeywords   []string `mapstructure:"promotional_keywords"`
}

// DefaultVocabulary returns the built-in keyword sets
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ReplySubjectMarkers: []string{"re:", "fwd:", "fw:"},
		ReplyBodyPhrases: []string{
			"thanks for reaching out",
			"thanks for your email",
			"thank you for your email",
			"in response to",
			"your request",
			" wrote:",
		},
		NonHumanSenderMarkers: []string{
			"noreply", "no-reply", "donotreply", "do-not-reply",
			"mailer-daemon", "notification", "automated",
		},
		BulkBodyMarkers: []string{
			"unsubscribe", "view in browser", "manage preferences", "email preferences",
		},
		TransactionalKeywords: []string{"receipt", "invoice", "order", "confirmation", "transaction"},
		SignOffs: []string{
			"thanks,", "thank you,", "sincerely,", "best,", "regards,", "peace,", "cheers,",
			"best regards", "kind regards", "warm regards", "all the best", "talk soon", "take care",
		},
		PersonalDomains: []string{
			"gmail.com", "googlemail.com", "yahoo.com", "outlook.com", "hotmail.com", "live.com",
			"msn.com", "icloud.com", "me.com", "aol.com", "proton.me", "protonmail.com",
			"gmx.com", "fastmail.com",
		},
		NewsletterBodyMarkers: []string{"unsubscribe", "view in browser"},
		NoReplySenderMarkers:  []string{"no-reply", "noreply"},
		PromotionalKeywords: []string{
			"sale", "deal", "promo", "limited time", "offer", "discount", "% off",
			"free shipping", "shop now", "buy now", "clearance", "coupon", "flash sale",
			"today only", "last chance",
		},
	}
}

// Merge returns a copy of v where every non-empty set of override replaces
// the corresponding set of v
func (v Vocabulary) Merge(override Vocabulary) Vocabulary {
	pick := func(base, o []string) []string {
		if len(o) == 0 {
			return base
		}
		return o
	}
	return Vocabulary{
		ReplySubjectMarkers:   pick(v.ReplySubjectMarkers, override.ReplySubjectMarkers),
		ReplyBodyPhrases:      pick(v.ReplyBodyPhrases, override.ReplyBodyPhrases),
		NonHumanSenderMarkers: pick(v.NonHumanSenderMarkers, override.NonHumanSenderMarkers),
		BulkBodyMarkers:       pick(v.BulkBodyMarkers, override.BulkBodyMarkers),
		TransactionalKeywords: pick(v.TransactionalKeywords, override.TransactionalKeywords),
		SignOffs:              pick(v.SignOffs, override.SignOffs),
		PersonalDomains:       pick(v.PersonalDomains, override.PersonalDomains),
		NewsletterBodyMarkers: pick(v.NewsletterBodyMarkers, override.NewsletterBodyMarkers),
		NoReplySenderMarkers:  pick(v.NoReplySenderMarkers, override.NoReplySenderMarkers),
		PromotionalKeywords:   pick(v.PromotionalKeywords, override.PromotionalKeywords),
	}
}

// folded returns a copy with every entry case folded, so matching only
// needs to fold the haystack
func (v Vocabulary) folded() Vocabulary {
	fold := cases.Fold()
	f := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s == "" {
				continue
			}
			out = append(out, fold.String(s))
		}
		return out
	}
	return Vocabulary{
		ReplySubjectMarkers:   f(v.ReplySubjectMarkers),
		ReplyBodyPhrases:      f(v.ReplyBodyPhrases),
		NonHumanSenderMarkers: f(v.NonHumanSenderMarkers),
		BulkBodyMarkers:       f(v.BulkBodyMarkers),
		TransactionalKeywords: f(v.TransactionalKeywords),
		SignOffs:              f(v.SignOffs),
		PersonalDomains:       f(v.PersonalDomains),
		NewsletterBodyMarkers: f(v.NewsletterBodyMarkers),
		NoReplySenderMarkers:  f(v.NoReplySenderMarkers),
		PromotionalKeywords:   f(v.PromotionalKeywords),
	}
}

// VocabularyStore holds the vocabulary snapshot shared by concurrent requests
type VocabularyStore struct {
	current atomic.Pointer[Vocabulary]
}

// NewVocabularyStore creates a store holding v
func NewVocabularyStore(v Vocabulary) *VocabularyStore {
	s := &VocabularyStore{}
	s.Set(v)
	return s
}

// Set replaces the current snapshot
func (s *VocabularyStore) Set(v Vocabulary) {
	f := v.folded()
	s.current.Store(&f)
}

// Current returns the snapshot in effect. Callers must not modify it.
func (s *VocabularyStore) Current() *Vocabulary {
	return s.current.Load()
}

// containsAny reports whether haystack contains any of the needles.
// Both sides are expected to be case folded already.
func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
