package core

// rule is one rung of the priority ladder
type rule struct {
	matches        func(Signals) bool
	classification Classification
}

// ladder is evaluated top to bottom; the first matching rule wins
var ladder = []rule{
	{
		matches: func(s Signals) bool { return s.IsReplyToUser },
		classification: Classification{
			Tier:   TierInterruptNow,
			Folder: "1 - Action Now",
			Notify: true,
			Reason: "Reply to a conversation you initiated.",
		},
	},
	{
		matches: func(s Signals) bool { return s.KnownContact || s.HumanSender },
		classification: Classification{
			Tier:   TierNotifyNonUrgent,
			Folder: "2 - Notify Later",
			Notify: true,
			Reason: "Human message from a known contact.",
		},
	},
	{
		matches: func(s Signals) bool { return s.IsTransactional },
		classification: Classification{
			Tier:   TierLogSilently,
			Folder: "3 - Log Only",
			Notify: false,
			Reason: "Transactional/receipt email: keep for records, no interruption.",
		},
	},
	{
		matches: func(s Signals) bool { return s.IsNewsletter },
		classification: Classification{
			Tier:   TierBatchForLater,
			Folder: "4 - Batch Read",
			Notify: false,
			Reason: "Newsletter/brief: review during batch window.",
		},
	},
}

var defaultClassification = Classification{
	Tier:   TierIgnoreAutoArchive,
	Folder: "5 - Ignore (Promo)",
	Notify: false,
	Reason: "Default classification: promotional/low-value or unknown importance.",
}

// Classify maps resolved signals to exactly one classification
func Classify(s Signals) Classification {
	for _, r := range ladder {
		if r.matches(s) {
			return r.classification
		}
	}
	return defaultClassification
}
