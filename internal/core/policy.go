package core

// fallbackAction is returned for tiers without a mapped action
const fallbackAction = "Review and decide."

var recommendedActions = map[Tier]string{
	TierInterruptNow:      "Review now and reply promptly. Confirm details or next steps.",
	TierNotifyNonUrgent:   "Review during reply window and respond with a brief, warm acknowledgment.",
	TierLogSilently:       "No reply needed. Archive/label for records.",
	TierBatchForLater:     "No reply needed. Read during batch window or summarize.",
	TierIgnoreAutoArchive: "No action needed. Ignore or archive.",
}

// ShouldReply reports whether a reply draft is recommended. Only the two
// human-centric tiers qualify, and only with a human-centric signal.
func ShouldReply(c Classification, s Signals) bool {
	switch c.Tier {
	case TierInterruptNow, TierNotifyNonUrgent:
		return s.IsReplyToUser || s.KnownContact || s.HumanSender
	default:
		return false
	}
}

// RecommendedAction returns the suggested human action for a tier
func RecommendedAction(t Tier) string {
	if action, ok := recommendedActions[t]; ok {
		return action
	}
	return fallbackAction
}
