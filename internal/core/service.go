package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ConciergeService is the core service for email triage
type ConciergeService struct {
	drafter      Drafter
	vocabulary   *VocabularyStore
	logger       *zap.Logger
	draftTimeout time.Duration
}

// NewConciergeService creates a new concierge service. A zero draftTimeout
// leaves drafting bounded only by the caller's context.
func NewConciergeService(
	drafter Drafter,
	vocabulary *VocabularyStore,
	logger *zap.Logger,
	draftTimeout time.Duration,
) *ConciergeService {
	if vocabulary == nil {
		vocabulary = NewVocabularyStore(DefaultVocabulary())
	}
	return &ConciergeService{
		drafter:      drafter,
		vocabulary:   vocabulary,
		logger:       logger,
		draftTimeout: draftTimeout,
	}
}

// Assess runs inference, classification, reply policy and action advice.
// It has no side effects and cannot fail.
func (s *ConciergeService) Assess(input EmailInput, hints Hints) Assessment {
	signals := InferSignals(input, hints, s.vocabulary.Current())
	classification := Classify(signals)

	return Assessment{
		Classification:    classification,
		RecommendedAction: RecommendedAction(classification.Tier),
		ReplyRecommended:  ShouldReply(classification, signals),
		Signals:           signals,
	}
}

// Triage runs the full pipeline, drafting a reply when one is recommended.
// A drafting failure fails the whole request with an error wrapping ErrDrafting.
func (s *ConciergeService) Triage(ctx context.Context, input EmailInput, hints Hints) (*TriageResult, error) {
	start := time.Now()
	result := &TriageResult{Assessment: s.Assess(input, hints)}

	if result.ReplyRecommended {
		draft, err := s.DraftReply(ctx, DraftRequest{
			Sender:    input.Sender,
			Subject:   input.Subject,
			Body:      input.Body,
			UserNotes: input.UserNotes,
		})
		if err != nil {
			s.logger.Error("Failed to draft reply",
				zap.String("sender", input.Sender),
				zap.String("tier", string(result.Tier)),
				zap.Error(err))
			return nil, err
		}
		result.Draft = &draft
	}

	s.logger.Info("Triaged email",
		zap.String("sender", input.Sender),
		zap.String("tier", string(result.Tier)),
		zap.Bool("notify", result.Notify),
		zap.Bool("reply_recommended", result.ReplyRecommended),
		zap.Bool("drafted", result.HasDraft()),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// DraftReply asks the drafting capability for a reply without classifying
func (s *ConciergeService) DraftReply(ctx context.Context, req DraftRequest) (string, error) {
	if s.drafter == nil {
		return "", fmt.Errorf("%w: no drafter configured", ErrDrafting)
	}

	if s.draftTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.draftTimeout)
		defer cancel()
	}

	draft, err := s.drafter.Draft(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDrafting, err)
	}
	return strings.TrimSpace(draft), nil
}
