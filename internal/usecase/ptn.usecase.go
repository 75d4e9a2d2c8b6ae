package usecase

import (
	"context"

	"go.uber.org/zap"

	"partner-service/internal/auth"
	"partner-service/internal/domain"
)

// SignupRequestStore is the slice of the document store holding intake
// submissions.
type SignupRequestStore interface {
	CreateRequest(ctx context.Context, req *domain.PartnerSignupRequest) error
	GetRequestByID(ctx context.Context, requestID string) (*domain.PartnerSignupRequest, error)
	ListPending(ctx context.Context) ([]*domain.PartnerSignupRequest, error)
}

// AccountStore is the slice of the document store holding partner accounts.
// The mutating calls are conditional writes: they fail on a stale
// precondition instead of losing an update.
type AccountStore interface {
	ApproveRequest(ctx context.Context, requestID, registrationCode string) (*domain.PartnerAccount, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.PartnerAccount, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.PartnerAccount, error)
	GetAccountByUID(ctx context.Context, uid string) (*domain.PartnerAccount, error)
	ListAccounts(ctx context.Context) ([]*domain.PartnerAccount, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	UpdateStatus(ctx context.Context, accountID string, from, to domain.AccountStatus) error
	ConsumeRegistrationCode(ctx context.Context, email, code, uid string) (*domain.PartnerAccount, error)
}

type PartnerLifecycleUsecase struct {
	requests SignupRequestStore
	accounts AccountStore
	provider auth.Provider
	logger   *zap.Logger
}

func NewPartnerLifecycleUsecase(
	requests SignupRequestStore,
	accounts AccountStore,
	provider auth.Provider,
	logger *zap.Logger,
) *PartnerLifecycleUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerLifecycleUsecase{
		requests: requests,
		accounts: accounts,
		provider: provider,
		logger:   logger,
	}
}
