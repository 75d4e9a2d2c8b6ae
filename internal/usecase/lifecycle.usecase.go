package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"partner-service/internal/auth"
	"partner-service/internal/domain"
	"partner-service/pkg/id"
	"partner-service/pkg/xerrors"
)

const (
	registrationCodeLength   = 8
	registrationCodeAttempts = 5
)

// SubmitSignupRequest stores an applicant's intake submission as a pending
// request awaiting admin approval.
func (uc *PartnerLifecycleUsecase) SubmitSignupRequest(ctx context.Context, req *domain.PartnerSignupRequest) error {
	if err := validateSignupRequest(req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Approved = false

	if err := uc.requests.CreateRequest(ctx, req); err != nil {
		return err
	}

	uc.logger.Info("signup request received",
		zap.String("request_id", req.ID),
		zap.String("business", req.BusinessName),
	)
	return nil
}

func validateSignupRequest(req *domain.PartnerSignupRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return xerrors.ErrEmailRequired
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return xerrors.ErrInvalidEmailFormat
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		return xerrors.ErrBusinessRequired
	}
	if !req.Consent {
		return xerrors.ErrConsentRequired
	}
	return nil
}

// ApproveRequest consumes a pending signup request and creates the partner
// account with a fresh single-use registration code. A second approval of
// the same request fails with ErrAlreadyApproved; the store's conditional
// write decides the winner, never a prior read.
func (uc *PartnerLifecycleUsecase) ApproveRequest(ctx context.Context, requestID string) (*domain.PartnerAccount, error) {
	if requestID == "" {
		return nil, xerrors.ErrInvalidRequest
	}

	code, err := uc.freshRegistrationCode(ctx)
	if err != nil {
		return nil, err
	}

	account, err := uc.accounts.ApproveRequest(ctx, requestID, code)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("signup request approved",
		zap.String("request_id", requestID),
		zap.String("account_id", account.ID),
	)
	return account, nil
}

// freshRegistrationCode generates a code and rejects collisions with any
// still-unconsumed code.
func (uc *PartnerLifecycleUsecase) freshRegistrationCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < registrationCodeAttempts; attempt++ {
		code, err := id.GenerateRegistrationCode(registrationCodeLength)
		if err != nil {
			return "", err
		}
		inUse, err := uc.accounts.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique registration code after %d attempts", registrationCodeAttempts)
}

// ToggleStatus flips enabled/disabled. Not idempotent by design: callers
// wanting a specific end state must read first. The swap is keyed on the
// status read here, so concurrent toggles conflict instead of silently
// overwriting each other.
func (uc *PartnerLifecycleUsecase) ToggleStatus(ctx context.Context, accountID string) (domain.AccountStatus, error) {
	account, err := uc.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return "", err
	}

	next := account.Status.Toggle()
	if err := uc.accounts.UpdateStatus(ctx, accountID, account.Status, next); err != nil {
		return "", err
	}

	uc.logger.Info("partner status toggled",
		zap.String("account_id", accountID),
		zap.String("status", string(next)),
	)
	return next, nil
}

// VerifyRegistrationCode checks the code against the account without
// mutating anything, so applicants can retry after a typo freely.
func (uc *PartnerLifecycleUsecase) VerifyRegistrationCode(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return xerrors.ErrInvalidRequest
	}

	var account *domain.PartnerAccount
	err := withRetry(ctx, func() error {
		var e error
		account, e = uc.accounts.GetAccountByEmail(ctx, email)
		return e
	})
	if err != nil {
		return err
	}

	if !account.PendingRegistration() {
		return xerrors.ErrInvalidCode
	}
	// Exact, case-sensitive match.
	if account.RegistrationCode != code {
		return xerrors.ErrInvalidCode
	}
	return nil
}

// CompleteRegistration re-validates the code, creates the credential in the
// auth provider, then consumes the code with a conditional write. When two
// completions race on the same code the second loses at commit time; if the
// provider-side credential already exists by then it is a reconciled
// success, not an orphan, so we log and surface the conflict without
// creating a duplicate credential.
func (uc *PartnerLifecycleUsecase) CompleteRegistration(ctx context.Context, email, code, password string) (*domain.PartnerAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := id.ValidatePassword(password, id.DefaultPasswordPolicy()); err != nil {
		return nil, err
	}
	if err := uc.VerifyRegistrationCode(ctx, email, code); err != nil {
		return nil, err
	}

	uid, err := uc.provider.CreateCredential(ctx, email, password)
	if err != nil {
		if errors.Is(err, xerrors.ErrEmailAlreadyInUse) {
			uc.logger.Warn("credential already exists for email; likely a lost race or a retry",
				zap.String("email", email),
			)
		}
		return nil, err
	}

	account, err := uc.accounts.ConsumeRegistrationCode(ctx, email, code, uid)
	if err != nil {
		if errors.Is(err, xerrors.ErrCodeAlreadyUsed) {
			uc.logger.Warn("registration code consumed concurrently; credential reconciled",
				zap.String("email", email),
				zap.String("uid", uid),
			)
		}
		return nil, err
	}

	uc.logger.Info("partner registration completed",
		zap.String("account_id", account.ID),
		zap.String("uid", uid),
	)
	return account, nil
}

// LoginResult pairs the gated account with the provider session.
type LoginResult struct {
	Account *domain.PartnerAccount
	Session *auth.Session
}

// AuthenticateLogin delegates the credential check to the provider, then
// gates on account status: a disabled account gets its just-created session
// force-closed and the login fails. Provider success is necessary but not
// sufficient.
func (uc *PartnerLifecycleUsecase) AuthenticateLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, xerrors.ErrInvalidRequest
	}

	session, err := uc.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	account, err := uc.accounts.GetAccountByUID(ctx, session.UID)
	if errors.Is(err, xerrors.ErrAccountNotFound) {
		// Legacy records predate the uid column; fall back to the email field.
		account, err = uc.accounts.GetAccountByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	if account.Status == domain.AccountStatusDisabled {
		if soErr := uc.provider.ForceSignOut(ctx, session.UID); soErr != nil {
			uc.logger.Error("failed to force sign-out of disabled account",
				zap.String("uid", session.UID),
				zap.Error(soErr),
			)
		}
		return nil, xerrors.ErrAccountDisabled
	}

	return &LoginResult{Account: account, Session: session}, nil
}

// DashboardData is the admin console's combined view.
type DashboardData struct {
	PendingRequests []*domain.PartnerSignupRequest
	PartnerAccounts []*domain.PartnerAccount
}

// AdminDashboardData loads pending signup requests and all partner accounts.
func (uc *PartnerLifecycleUsecase) AdminDashboardData(ctx context.Context) (*DashboardData, error) {
	var data DashboardData
	err := withRetry(ctx, func() error {
		requests, e := uc.requests.ListPending(ctx)
		if e != nil {
			return e
		}
		accounts, e := uc.accounts.ListAccounts(ctx)
		if e != nil {
			return e
		}
		data.PendingRequests = requests
		data.PartnerAccounts = accounts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}
