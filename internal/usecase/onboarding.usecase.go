package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"partner-service/internal/domain"
	"partner-service/pkg/xerrors"
)

// OnboardingStore is the slice of the document store holding wizard drafts
// and finalized onboarding records.
type OnboardingStore interface {
	GetDraft(ctx context.Context, userID string) (*domain.OnboardingDraft, error)
	UpsertDraft(ctx context.Context, userID string, partial map[string]interface{}, lastStep int) (*domain.OnboardingDraft, error)
	DeleteDraft(ctx context.Context, userID string) error
	UpsertFinal(ctx context.Context, userID string, data map[string]interface{}) (*domain.OnboardingData, error)
	GetFinal(ctx context.Context, userID string) (*domain.OnboardingData, error)
}

type OnboardingUsecase struct {
	store      OnboardingStore
	totalSteps int
	logger     *zap.Logger
}

func NewOnboardingUsecase(store OnboardingStore, totalSteps int, logger *zap.Logger) *OnboardingUsecase {
	if totalSteps <= 0 {
		totalSteps = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingUsecase{
		store:      store,
		totalSteps: totalSteps,
		logger:     logger,
	}
}

// LoadDraft returns the stored draft, or nil when the user has none.
func (uc *OnboardingUsecase) LoadDraft(ctx context.Context, userID string) (*domain.OnboardingDraft, error) {
	var draft *domain.OnboardingDraft
	err := withRetry(ctx, func() error {
		var e error
		draft, e = uc.store.GetDraft(ctx, userID)
		return e
	})
	if errors.Is(err, xerrors.ErrDraftNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// SaveDraft merges the partial answers into the draft. The merge keeps
// previously saved keys that this write does not mention. Date-valued
// answers are normalized to canonical RFC3339 before they are stored, so
// the draft never holds the client's legacy representations.
func (uc *OnboardingUsecase) SaveDraft(ctx context.Context, userID string, partial map[string]interface{}, lastStep int) (*domain.OnboardingDraft, error) {
	if len(partial) == 0 {
		return nil, xerrors.ErrEmptyDraft
	}
	partial = domain.CanonicalizeTimestamps(partial)

	var draft *domain.OnboardingDraft
	err := withRetry(ctx, func() error {
		var e error
		draft, e = uc.store.UpsertDraft(ctx, userID, partial, lastStep)
		return e
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// DeleteDraft discards the draft. Absent drafts delete cleanly.
func (uc *OnboardingUsecase) DeleteDraft(ctx context.Context, userID string) error {
	return withRetry(ctx, func() error {
		return uc.store.DeleteDraft(ctx, userID)
	})
}

// LoadFinal returns the permanent onboarding record written by Finalize,
// or ErrNotFound when the user has not finished onboarding.
func (uc *OnboardingUsecase) LoadFinal(ctx context.Context, userID string) (*domain.OnboardingData, error) {
	var final *domain.OnboardingData
	err := withRetry(ctx, func() error {
		var e error
		final, e = uc.store.GetFinal(ctx, userID)
		return e
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

// EstimateResumeStep suggests where the wizard should reopen. When the
// client reported the step it last completed, resume right after it;
// otherwise fall back to the answer-count heuristic (filled top-level keys
// plus one). Either way the result is clamped to [1, totalSteps].
func (uc *OnboardingUsecase) EstimateResumeStep(ctx context.Context, userID string) (int, error) {
	draft, err := uc.LoadDraft(ctx, userID)
	if err != nil {
		return 0, err
	}
	if draft == nil {
		return 1, nil
	}

	step := draft.FilledKeys() + 1
	if draft.LastStep > 0 {
		step = draft.LastStep + 1
	}
	return clampStep(step, uc.totalSteps), nil
}

func clampStep(step, total int) int {
	if step < 1 {
		return 1
	}
	if step > total {
		return total
	}
	return step
}

// Finalize writes the permanent onboarding snapshot, then purges the draft.
// It is idempotent: the snapshot write is an overwrite and draft deletion
// tolerates absence, so a crashed or retried finalize converges to the same
// end state. A failed deletion after a successful snapshot is not an error;
// the stale draft is cleaned up by the next retry and is never treated as
// authoritative.
func (uc *OnboardingUsecase) Finalize(ctx context.Context, userID string, fullData map[string]interface{}) (*domain.OnboardingData, error) {
	if len(fullData) == 0 {
		return nil, xerrors.ErrEmptyDraft
	}
	fullData = domain.CanonicalizeTimestamps(fullData)

	var final *domain.OnboardingData
	err := withRetry(ctx, func() error {
		var e error
		final, e = uc.store.UpsertFinal(ctx, userID, fullData)
		return e
	})
	if err != nil {
		return nil, err
	}

	if err := uc.DeleteDraft(ctx, userID); err != nil {
		uc.logger.Warn("finalized onboarding but draft deletion failed; stale draft remains until retried",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	uc.logger.Info("onboarding finalized",
		zap.String("user_id", userID),
		zap.Int64("version", final.Version),
	)
	return final, nil
}
