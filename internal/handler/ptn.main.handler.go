package handler

import (
	"context"

	"go.uber.org/zap"

	"partner-service/internal/domain"
	"partner-service/internal/usecase"
)

// LifecycleService is the slice of the lifecycle usecase the HTTP surface
// needs.
type LifecycleService interface {
	SubmitSignupRequest(ctx context.Context, req *domain.PartnerSignupRequest) error
	ApproveRequest(ctx context.Context, requestID string) (*domain.PartnerAccount, error)
	ToggleStatus(ctx context.Context, accountID string) (domain.AccountStatus, error)
	VerifyRegistrationCode(ctx context.Context, email, code string) error
	CompleteRegistration(ctx context.Context, email, code, password string) (*domain.PartnerAccount, error)
	AuthenticateLogin(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	AdminDashboardData(ctx context.Context) (*usecase.DashboardData, error)
}

type PartnerHandler struct {
	lifecycle  LifecycleService
	onboarding *usecase.OnboardingUsecase
	autosaver  *usecase.DraftAutosaver
	logger     *zap.Logger
}

func NewPartnerHandler(
	lifecycle LifecycleService,
	onboarding *usecase.OnboardingUsecase,
	autosaver *usecase.DraftAutosaver,
	logger *zap.Logger,
) *PartnerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerHandler{
		lifecycle:  lifecycle,
		onboarding: onboarding,
		autosaver:  autosaver,
		logger:     logger,
	}
}
