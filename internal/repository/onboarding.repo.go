package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"partner-service/internal/domain"
	"partner-service/pkg/xerrors"
)

// GetDraft fetches the stored draft for a user, or ErrDraftNotFound.
func (r *OnboardingRepo) GetDraft(ctx context.Context, userID string) (*domain.OnboardingDraft, error) {
	query := `
		SELECT user_id, data, last_step, last_updated, version
		FROM onboarding_drafts
		WHERE user_id = $1
	`

	var draft domain.OnboardingDraft
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&draft.UserID,
		&draft.Data,
		&draft.LastStep,
		&draft.LastUpdated,
		&draft.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrDraftNotFound
		}
		return nil, xerrors.Upstream(err)
	}
	return &draft, nil
}

// UpsertDraft merges partial answers into the draft. The jsonb concatenation
// keeps keys the client did not resend; last_step only moves when the client
// reports one.
func (r *OnboardingRepo) UpsertDraft(ctx context.Context, userID string, partial map[string]interface{}, lastStep int) (*domain.OnboardingDraft, error) {
	query := `
		INSERT INTO onboarding_drafts (user_id, data, last_step, last_updated, version)
		VALUES ($1, $2, $3, NOW(), 1)
		ON CONFLICT (user_id) DO UPDATE
		SET data = onboarding_drafts.data || EXCLUDED.data,
		    last_step = CASE
		        WHEN EXCLUDED.last_step > 0 THEN EXCLUDED.last_step
		        ELSE onboarding_drafts.last_step
		    END,
		    last_updated = NOW(),
		    version = onboarding_drafts.version + 1
		RETURNING user_id, data, last_step, last_updated, version
	`

	var draft domain.OnboardingDraft
	err := r.db.QueryRow(ctx, query, userID, partial, lastStep).Scan(
		&draft.UserID,
		&draft.Data,
		&draft.LastStep,
		&draft.LastUpdated,
		&draft.Version,
	)
	if err != nil {
		return nil, xerrors.Upstream(err)
	}
	return &draft, nil
}

// DeleteDraft removes the draft. Deleting an absent draft is not an error;
// finalize retries depend on that.
func (r *OnboardingRepo) DeleteDraft(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM onboarding_drafts WHERE user_id = $1`, userID)
	if err != nil {
		return xerrors.Upstream(err)
	}
	return nil
}

// UpsertFinal writes the permanent onboarding snapshot, overwriting any
// previous snapshot for the user.
func (r *OnboardingRepo) UpsertFinal(ctx context.Context, userID string, data map[string]interface{}) (*domain.OnboardingData, error) {
	query := `
		INSERT INTO onboarding_data (user_id, data, completed_at, version)
		VALUES ($1, $2, NOW(), 1)
		ON CONFLICT (user_id) DO UPDATE
		SET data = EXCLUDED.data,
		    completed_at = NOW(),
		    version = onboarding_data.version + 1
		RETURNING user_id, data, completed_at, version
	`

	var final domain.OnboardingData
	err := r.db.QueryRow(ctx, query, userID, data).Scan(
		&final.UserID,
		&final.Data,
		&final.CompletedAt,
		&final.Version,
	)
	if err != nil {
		return nil, xerrors.Upstream(err)
	}
	return &final, nil
}

// GetFinal fetches the permanent snapshot for a user, or ErrNotFound.
func (r *OnboardingRepo) GetFinal(ctx context.Context, userID string) (*domain.OnboardingData, error) {
	query := `
		SELECT user_id, data, completed_at, version
		FROM onboarding_data
		WHERE user_id = $1
	`

	var final domain.OnboardingData
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&final.UserID,
		&final.Data,
		&final.CompletedAt,
		&final.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, xerrors.Upstream(err)
	}
	return &final, nil
}
