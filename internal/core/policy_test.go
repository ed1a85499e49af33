package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldReplyGating(t *testing.T) {
	for _, s := range allSignalVectors() {
		for _, tier := range []Tier{TierLogSilently, TierBatchForLater, TierIgnoreAutoArchive} {
			c := classificationFor(t, tier)
			assert.False(t, ShouldReply(c, s), "tier %s signals %+v", tier, s)
		}
	}
}

func TestShouldReplyHumanTiers(t *testing.T) {
	interrupt := classificationFor(t, TierInterruptNow)
	notify := classificationFor(t, TierNotifyNonUrgent)

	assert.True(t, ShouldReply(interrupt, Signals{IsReplyToUser: true}))
	assert.True(t, ShouldReply(notify, Signals{KnownContact: true}))
	assert.True(t, ShouldReply(notify, Signals{HumanSender: true}))

	// inconsistent upstream signals do not produce a reply
	assert.False(t, ShouldReply(interrupt, Signals{IsTransactional: true}))
}

func TestShouldReplyFollowsClassify(t *testing.T) {
	for _, s := range allSignalVectors() {
		c := Classify(s)
		want := c.Tier == TierInterruptNow || c.Tier == TierNotifyNonUrgent
		assert.Equal(t, want, ShouldReply(c, s), "signals %+v", s)
	}
}

func TestRecommendedAction(t *testing.T) {
	assert.Equal(t, "Review now and reply promptly. Confirm details or next steps.",
		RecommendedAction(TierInterruptNow))
	assert.Equal(t, "No action needed. Ignore or archive.", RecommendedAction(TierIgnoreAutoArchive))
	assert.Equal(t, "Review and decide.", RecommendedAction(Tier("")))

	for _, tier := range Tiers {
		assert.NotEqual(t, fallbackAction, RecommendedAction(tier), tier)
	}
}
