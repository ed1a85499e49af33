package core

import (
	"time"
)

// EmailInput represents the raw fields of an email submitted for triage
type EmailInput struct {
	Sender    string
	Subject   string
	Body      string
	UserNotes string
}

// Hints holds the signals a caller asserts explicitly. A nil field means
// the caller has no opinion and the value is inferred.
type Hints struct {
	IsReplyToUser   *bool `json:"is_reply_to_user,omitempty"`
	KnownContact    *bool `json:"known_contact,omitempty"`
	HumanSender     *bool `json:"human_sender,omitempty"`
	IsTransactional *bool `json:"is_transactional,omitempty"`
	IsNewsletter    *bool `json:"is_newsletter,omitempty"`
}

// Signals is the fully resolved set of boolean facts about an email
type Signals struct {
	IsReplyToUser   bool `json:"is_reply_to_user"`
	KnownContact    bool `json:"known_contact"`
	HumanSender     bool `json:"human_sender"`
	IsTransactional bool `json:"is_transactional"`
	IsNewsletter    bool `json:"is_newsletter"`
	IsPromotional   bool `json:"is_promotional"`
}

// Tier is one of the five mutually exclusive priority levels
type Tier string

const (
	TierInterruptNow      Tier = "INTERRUPT_NOW"
	TierNotifyNonUrgent   Tier = "NOTIFY_NON_URGENT"
	TierLogSilently       Tier = "LOG_SILENTLY"
	TierBatchForLater     Tier = "BATCH_FOR_LATER"
	TierIgnoreAutoArchive Tier = "IGNORE_AUTO_ARCHIVE"
)

// Tiers lists every tier from most to least urgent
var Tiers = []Tier{
	TierInterruptNow,
	TierNotifyNonUrgent,
	TierLogSilently,
	TierBatchForLater,
	TierIgnoreAutoArchive,
}

// Classification is the outcome of the priority ladder
type Classification struct {
	Tier   Tier   `json:"priority_level"`
	Folder string `json:"folder"`
	Notify bool   `json:"notify"`
	Reason string `json:"reason"`
}

// Assessment is everything the engine decides without drafting
type Assessment struct {
	Classification
	RecommendedAction string  `json:"recommended_action"`
	ReplyRecommended  bool    `json:"reply_recommended"`
	Signals           Signals `json:"signals"`
}

// TriageResult is the final response of the concierge pipeline
type TriageResult struct {
	Assessment
	Draft *string `json:"draft,omitempty"`
}

// HasDraft reports whether a draft reply was produced
func (r *TriageResult) HasDraft() bool {
	return r.Draft != nil
}

// DraftRequest carries the fields handed to the drafting capability
type DraftRequest struct {
	Sender    string
	Subject   string
	Body      string
	UserNotes string
}

// CacheEntry is a stored draft reply
type CacheEntry struct {
	Key       string
	Draft     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Bool returns a pointer to b, for building Hints
func Bool(b bool) *bool {
	return &b
}
