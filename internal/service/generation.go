package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/adnan/pagesmith/internal/apperror"
	"github.com/adnan/pagesmith/internal/assemble"
	"github.com/adnan/pagesmith/internal/model"
	"github.com/adnan/pagesmith/internal/upstream"
)

// MergePolicy selects how newly generated segments combine with a prior
// project. Append is the default and the safe one; Replace is the documented
// opt-in alternative.
type MergePolicy string

const (
	MergeAppend  MergePolicy = "append"
	MergeReplace MergePolicy = "replace"
)

// GenerationConfig carries the orchestrator's policy knobs.
type GenerationConfig struct {
	// RefundOnFailure credits the reservation back when the upstream call
	// fails or produces nothing. Off by default: a failed generation still
	// costs a credit, which keeps retry loops from burning the external
	// quota for free.
	RefundOnFailure bool
	// MergePolicy defaults to MergeAppend.
	MergePolicy MergePolicy
}

// GenerationService composes the credit ledger, the upstream generator, the
// extractor and the merge engine into the end-to-end generate flow.
//
// One request, one pass, no retained state: the reservation (debit) happens
// BEFORE the upstream call, so a user is never charged without an attempt and
// never gets an attempt without balance. Once the debit lands, the request
// runs to completion — cancelling between debit and upstream call would
// reopen the very window the atomic reserve closes.
type GenerationService struct {
	credits   *CreditService
	generator upstream.Generator
	logger    *slog.Logger
	config    GenerationConfig
}

// GenerateInput is the validated-by-us request for one generation turn.
type GenerateInput struct {
	UserID          string
	Prompt          string
	PreviousProject string
}

// GenerateOutput is the successful result: the serialized snapshot and the
// balance left after the debit.
type GenerateOutput struct {
	Output  string
	Credits int
}

// NewGenerationService creates the orchestrator.
func NewGenerationService(credits *CreditService, generator upstream.Generator, logger *slog.Logger, cfg GenerationConfig) *GenerationService {
	if cfg.MergePolicy == "" {
		cfg.MergePolicy = MergeAppend
	}
	return &GenerationService{
		credits:   credits,
		generator: generator,
		logger:    logger,
		config:    cfg,
	}
}

// Generate runs one full turn: validate → reserve → invoke → extract → merge.
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, apperror.ValidationFailed("user_id", "user_id is required")
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, apperror.ValidationFailed("prompt", "prompt is required")
	}

	reqID := xid.New().String()
	log := s.logger.With(
		slog.String("request_id", reqID),
		slog.String("user_id", userID),
	)

	// Reserve first. If the balance doesn't cover it, the upstream service is
	// never called.
	res, err := s.credits.TryConsume(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if !res.OK {
		log.Info("generation refused", slog.Int("credits", res.Remaining))
		return nil, apperror.InsufficientCredits(res.Remaining)
	}

	raw, err := s.generator.Generate(ctx, buildPrompt(in.Prompt, in.PreviousProject))
	if err != nil {
		log.Error("upstream generation failed", slog.String("error", err.Error()))
		credits := s.settleFailure(ctx, log, userID, res.Remaining)
		return nil, apperror.UpstreamFailure(err).WithCredits(credits)
	}

	snapshot := s.merge(in.PreviousProject, raw)
	if snapshot.Empty() {
		log.Warn("generation produced no usable content")
		credits := s.settleFailure(ctx, log, userID, res.Remaining)
		return nil, apperror.EmptyGeneration().WithCredits(credits)
	}

	log.Info("generation completed",
		slog.Int("segments", len(snapshot.Segments)),
		slog.Int("credits", res.Remaining),
	)

	return &GenerateOutput{
		Output:  snapshot.Render(),
		Credits: res.Remaining,
	}, nil
}

// merge extracts segments from the model output and combines them with the
// resubmitted project. The prior project text goes through the extractor too:
// fenced form splits back into labeled segments, plain text becomes one
// opaque segment via the fallback rule.
func (s *GenerationService) merge(previousProject, raw string) model.Snapshot {
	next := assemble.Extract(raw)

	var prior []model.Segment
	if strings.TrimSpace(previousProject) != "" {
		prior = assemble.Extract(previousProject)
	}

	if s.config.MergePolicy == MergeReplace {
		return assemble.MergeReplace(prior, next)
	}
	return assemble.Merge(prior, next)
}

// settleFailure applies the refund policy after a post-debit failure and
// returns the balance to report. Refund errors are logged, never surfaced —
// the original failure is the one the caller needs to see.
func (s *GenerationService) settleFailure(ctx context.Context, log *slog.Logger, userID string, afterDebit int) int {
	if !s.config.RefundOnFailure {
		return afterDebit
	}
	remaining, err := s.credits.Refund(ctx, userID, 1)
	if err != nil {
		log.Error("refund failed", slog.String("error", err.Error()))
		return afterDebit
	}
	log.Info("credit refunded", slog.Int("credits", remaining))
	return remaining
}
