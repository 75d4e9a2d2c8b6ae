package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"partner-service/internal/auth"
	"partner-service/internal/domain"
	"partner-service/pkg/xerrors"
)

// memRequestStore and memAccountStore mimic the document store's
// conditional-write behavior in memory.

type memRequestStore struct {
	requests map[string]*domain.PartnerSignupRequest
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{requests: make(map[string]*domain.PartnerSignupRequest)}
}

func (s *memRequestStore) CreateRequest(_ context.Context, req *domain.PartnerSignupRequest) error {
	if req.ID == "" {
		req.ID = fmt.Sprintf("REQ_%d", len(s.requests)+1)
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *memRequestStore) GetRequestByID(_ context.Context, requestID string) (*domain.PartnerSignupRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return nil, xerrors.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *memRequestStore) ListPending(_ context.Context) ([]*domain.PartnerSignupRequest, error) {
	var out []*domain.PartnerSignupRequest
	for _, req := range s.requests {
		if !req.Approved {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAccountStore struct {
	requests *memRequestStore
	accounts map[string]*domain.PartnerAccount
	nextID   int
}

func newMemAccountStore(requests *memRequestStore) *memAccountStore {
	return &memAccountStore{
		requests: requests,
		accounts: make(map[string]*domain.PartnerAccount),
	}
}

func (s *memAccountStore) ApproveRequest(_ context.Context, requestID, code string) (*domain.PartnerAccount, error) {
	req, ok := s.requests.requests[requestID]
	if !ok {
		return nil, xerrors.ErrRequestNotFound
	}
	if req.Approved {
		return nil, xerrors.ErrAlreadyApproved
	}
	req.Approved = true

	s.nextID++
	account := &domain.PartnerAccount{
		ID:               fmt.Sprintf("PTN_%d", s.nextID),
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		BusinessName:     req.BusinessName,
		BusinessType:     req.BusinessType,
		Location:         req.Location,
		Phone:            req.Phone,
		Consent:          req.Consent,
		Status:           domain.AccountStatusEnabled,
		RegistrationCode: code,
	}
	s.accounts[account.ID] = account
	cp := *account
	return &cp, nil
}

func (s *memAccountStore) GetAccountByID(_ context.Context, accountID string) (*domain.PartnerAccount, error) {
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, xerrors.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAccountStore) GetAccountByEmail(_ context.Context, email string) (*domain.PartnerAccount, error) {
	for _, a := range s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrAccountNotFound
}

func (s *memAccountStore) GetAccountByUID(_ context.Context, uid string) (*domain.PartnerAccount, error) {
	for _, a := range s.accounts {
		if a.UID != nil && *a.UID == uid {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrAccountNotFound
}

func (s *memAccountStore) ListAccounts(_ context.Context) ([]*domain.PartnerAccount, error) {
	var out []*domain.PartnerAccount
	for _, a := range s.accounts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memAccountStore) CodeInUse(_ context.Context, code string) (bool, error) {
	for _, a := range s.accounts {
		if a.RegistrationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *memAccountStore) UpdateStatus(_ context.Context, accountID string, from, to domain.AccountStatus) error {
	a, ok := s.accounts[accountID]
	if !ok {
		return xerrors.ErrAccountNotFound
	}
	if a.Status != from {
		return xerrors.ErrConflict
	}
	a.Status = to
	return nil
}

func (s *memAccountStore) ConsumeRegistrationCode(_ context.Context, email, code, uid string) (*domain.PartnerAccount, error) {
	for _, a := range s.accounts {
		if a.Email == email && a.RegistrationCode != "" && a.RegistrationCode == code {
			u := uid
			a.UID = &u
			a.RegistrationCode = ""
			now := a.ApprovedAt
			a.RegisteredAt = &now
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrCodeAlreadyUsed
}

type fakeProvider struct {
	creds          map[string]string // email -> uid
	nextUID        int
	allowDuplicate bool
	authSession    *auth.Session
	authErr        error
	signedOut      []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{creds: make(map[string]string)}
}

func (p *fakeProvider) CreateCredential(_ context.Context, email, _ string) (string, error) {
	if _, ok := p.creds[email]; ok && !p.allowDuplicate {
		return "", xerrors.ErrEmailAlreadyInUse
	}
	p.nextUID++
	uid := fmt.Sprintf("uid-%d", p.nextUID)
	p.creds[email] = uid
	return uid, nil
}

func (p *fakeProvider) Authenticate(_ context.Context, email, _ string) (*auth.Session, error) {
	if p.authErr != nil {
		return nil, p.authErr
	}
	if p.authSession != nil {
		return p.authSession, nil
	}
	uid, ok := p.creds[email]
	if !ok {
		return nil, xerrors.ErrInvalidCredentials
	}
	return &auth.Session{UID: uid, SessionID: "sess-1", Token: "token-1"}, nil
}

func (p *fakeProvider) ForceSignOut(_ context.Context, uid string) error {
	p.signedOut = append(p.signedOut, uid)
	return nil
}

type lifecycleFixture struct {
	uc       *PartnerLifecycleUsecase
	requests *memRequestStore
	accounts *memAccountStore
	provider *fakeProvider
}

func newLifecycleFixture() *lifecycleFixture {
	requests := newMemRequestStore()
	accounts := newMemAccountStore(requests)
	provider := newFakeProvider()
	return &lifecycleFixture{
		uc:       NewPartnerLifecycleUsecase(requests, accounts, provider, zap.NewNop()),
		requests: requests,
		accounts: accounts,
		provider: provider,
	}
}

func (f *lifecycleFixture) submitAndApprove(t *testing.T, email, business string) *domain.PartnerAccount {
	t.Helper()
	ctx := context.Background()

	req := &domain.PartnerSignupRequest{
		Email:        email,
		BusinessName: business,
		Consent:      true,
	}
	require.NoError(t, f.uc.SubmitSignupRequest(ctx, req))

	account, err := f.uc.ApproveRequest(ctx, req.ID)
	require.NoError(t, err)
	return account
}

func TestSubmitSignupRequestValidation(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	err := f.uc.SubmitSignupRequest(ctx, &domain.PartnerSignupRequest{BusinessName: "Zen", Consent: true})
	assert.ErrorIs(t, err, xerrors.ErrEmailRequired)

	err = f.uc.SubmitSignupRequest(ctx, &domain.PartnerSignupRequest{Email: "not-an-email", BusinessName: "Zen", Consent: true})
	assert.ErrorIs(t, err, xerrors.ErrInvalidEmailFormat)

	err = f.uc.SubmitSignupRequest(ctx, &domain.PartnerSignupRequest{Email: "a@b.com", Consent: true})
	assert.ErrorIs(t, err, xerrors.ErrBusinessRequired)

	err = f.uc.SubmitSignupRequest(ctx, &domain.PartnerSignupRequest{Email: "a@b.com", BusinessName: "Zen"})
	assert.ErrorIs(t, err, xerrors.ErrConsentRequired)
}

func TestApproveRequestCreatesEnabledAccount(t *testing.T) {
	f := newLifecycleFixture()

	account := f.submitAndApprove(t, "a@b.com", "Zen")

	assert.Equal(t, domain.AccountStatusEnabled, account.Status)
	assert.Nil(t, account.UID)
	assert.GreaterOrEqual(t, len(account.RegistrationCode), 8)
	assert.LessOrEqual(t, len(account.RegistrationCode), 10)
	for _, c := range account.RegistrationCode {
		assert.Contains(t, "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", string(c))
	}
}

func TestApproveRequestIsExactlyOnce(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	req := &domain.PartnerSignupRequest{Email: "a@b.com", BusinessName: "Zen", Consent: true}
	require.NoError(t, f.uc.SubmitSignupRequest(ctx, req))

	_, err := f.uc.ApproveRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = f.uc.ApproveRequest(ctx, req.ID)
	assert.ErrorIs(t, err, xerrors.ErrAlreadyApproved)
	assert.Equal(t, xerrors.KindConflict, xerrors.KindOf(err))
}

func TestApproveRequestNotFound(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.uc.ApproveRequest(context.Background(), "REQ_missing")
	assert.ErrorIs(t, err, xerrors.ErrRequestNotFound)
}

func TestVerifyRegistrationCode(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")

	err := f.uc.VerifyRegistrationCode(ctx, "a@b.com", "WRONG1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCode)

	// Case-sensitive exact match.
	lower := make([]byte, len(account.RegistrationCode))
	for i := range account.RegistrationCode {
		c := account.RegistrationCode[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	if string(lower) != account.RegistrationCode {
		err = f.uc.VerifyRegistrationCode(ctx, "a@b.com", string(lower))
		assert.ErrorIs(t, err, xerrors.ErrInvalidCode)
	}

	assert.NoError(t, f.uc.VerifyRegistrationCode(ctx, "a@b.com", account.RegistrationCode))

	err = f.uc.VerifyRegistrationCode(ctx, "other@b.com", account.RegistrationCode)
	assert.ErrorIs(t, err, xerrors.ErrAccountNotFound)
}

func TestVerifyRegistrationCodeNeverMutates(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")
	before := *f.accounts.accounts[account.ID]

	_ = f.uc.VerifyRegistrationCode(ctx, "a@b.com", "WRONG1")
	_ = f.uc.VerifyRegistrationCode(ctx, "a@b.com", account.RegistrationCode)

	assert.Equal(t, before, *f.accounts.accounts[account.ID])
}

func TestCompleteRegistrationPasswordPolicy(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")

	_, err := f.uc.CompleteRegistration(ctx, "a@b.com", account.RegistrationCode, "short")
	assert.ErrorIs(t, err, xerrors.ErrPasswordTooShort)
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	_, err = f.uc.CompleteRegistration(ctx, "a@b.com", account.RegistrationCode, "longenough")
	assert.ErrorIs(t, err, xerrors.ErrPasswordDigit)
}

func TestCompleteRegistrationConsumesCode(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")
	code := account.RegistrationCode

	updated, err := f.uc.CompleteRegistration(ctx, "a@b.com", code, "longenough1")
	require.NoError(t, err)
	require.NotNil(t, updated.UID)
	assert.Empty(t, updated.RegistrationCode)
	assert.NotNil(t, updated.RegisteredAt)

	// The consumed code no longer verifies.
	err = f.uc.VerifyRegistrationCode(ctx, "a@b.com", code)
	assert.ErrorIs(t, err, xerrors.ErrInvalidCode)
}

// racingAccountStore consumes the code out from under the caller between
// the verify read and the conditional write, like a concurrent completion
// winning the race.
type racingAccountStore struct {
	*memAccountStore
}

func (s *racingAccountStore) ConsumeRegistrationCode(ctx context.Context, email, code, uid string) (*domain.PartnerAccount, error) {
	for _, a := range s.accounts {
		if a.Email == email && a.RegistrationCode == code {
			winner := "uid-winner"
			a.UID = &winner
			a.RegistrationCode = ""
		}
	}
	return s.memAccountStore.ConsumeRegistrationCode(ctx, email, code, uid)
}

func TestCompleteRegistrationLostRaceIsReconciled(t *testing.T) {
	ctx := context.Background()
	requests := newMemRequestStore()
	accounts := &racingAccountStore{memAccountStore: newMemAccountStore(requests)}
	provider := newFakeProvider()
	provider.allowDuplicate = true
	uc := NewPartnerLifecycleUsecase(requests, accounts, provider, zap.NewNop())

	req := &domain.PartnerSignupRequest{Email: "a@b.com", BusinessName: "Zen", Consent: true}
	require.NoError(t, uc.SubmitSignupRequest(ctx, req))
	account, err := uc.ApproveRequest(ctx, req.ID)
	require.NoError(t, err)

	// Verify succeeds, credential creation succeeds, but the conditional
	// write loses: the loser surfaces a conflict, never a duplicate account.
	_, err = uc.CompleteRegistration(ctx, "a@b.com", account.RegistrationCode, "longenough1")
	assert.ErrorIs(t, err, xerrors.ErrCodeAlreadyUsed)
	assert.Equal(t, xerrors.KindConflict, xerrors.KindOf(err))

	stored := accounts.accounts[account.ID]
	require.NotNil(t, stored.UID)
	assert.Equal(t, "uid-winner", *stored.UID)
}

func TestToggleStatusRoundTrips(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")

	status, err := f.uc.ToggleStatus(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusDisabled, status)

	status, err = f.uc.ToggleStatus(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusEnabled, status)
}

func TestToggleStatusLeavesRegistrationAxisAlone(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")
	code := account.RegistrationCode

	_, err := f.uc.ToggleStatus(ctx, account.ID)
	require.NoError(t, err)

	stored := f.accounts.accounts[account.ID]
	assert.Equal(t, code, stored.RegistrationCode)
	assert.Nil(t, stored.UID)
}

func TestToggleStatusNotFound(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.uc.ToggleStatus(context.Background(), "PTN_missing")
	assert.ErrorIs(t, err, xerrors.ErrAccountNotFound)
}

func TestAuthenticateLoginDisabledAccountIsForcedOut(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")
	_, err := f.uc.CompleteRegistration(ctx, "a@b.com", account.RegistrationCode, "longenough1")
	require.NoError(t, err)

	_, err = f.uc.ToggleStatus(ctx, account.ID)
	require.NoError(t, err)

	_, err = f.uc.AuthenticateLogin(ctx, "a@b.com", "longenough1")
	assert.ErrorIs(t, err, xerrors.ErrAccountDisabled)
	assert.Equal(t, xerrors.KindAuthorization, xerrors.KindOf(err))

	// Provider auth succeeded, so the just-created session must be closed.
	require.Len(t, f.provider.signedOut, 1)
	assert.Equal(t, f.provider.creds["a@b.com"], f.provider.signedOut[0])
}

func TestAuthenticateLoginEnabledAccount(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")
	_, err := f.uc.CompleteRegistration(ctx, "a@b.com", account.RegistrationCode, "longenough1")
	require.NoError(t, err)

	result, err := f.uc.AuthenticateLogin(ctx, "a@b.com", "longenough1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.Account.ID)
	assert.NotEmpty(t, result.Session.Token)
	assert.Empty(t, f.provider.signedOut)
}

func TestAuthenticateLoginFallsBackToEmailForLegacyRecords(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	account := f.submitAndApprove(t, "a@b.com", "Zen")

	// Legacy record: credential exists but the uid was never backfilled.
	f.provider.creds["a@b.com"] = "uid-legacy"
	stored := f.accounts.accounts[account.ID]
	stored.RegistrationCode = ""

	result, err := f.uc.AuthenticateLogin(ctx, "a@b.com", "whatever1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.Account.ID)
}

func TestAdminDashboardData(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	require.NoError(t, f.uc.SubmitSignupRequest(ctx, &domain.PartnerSignupRequest{
		Email: "pending@b.com", BusinessName: "Pending Co", Consent: true,
	}))
	f.submitAndApprove(t, "a@b.com", "Zen")

	data, err := f.uc.AdminDashboardData(ctx)
	require.NoError(t, err)
	assert.Len(t, data.PendingRequests, 1)
	assert.Len(t, data.PartnerAccounts, 1)
	assert.Equal(t, "pending@b.com", data.PendingRequests[0].Email)
}
