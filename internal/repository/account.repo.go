package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"partner-service/internal/domain"
	"partner-service/pkg/id"
	"partner-service/pkg/xerrors"
)

const accountColumns = `
	id, uid, email, first_name, last_name, business_name, business_type,
	location, phone, consent, status, registration_code,
	approved_at, registered_at, business_id
`

func scanAccount(row pgx.Row) (*domain.PartnerAccount, error) {
	var a domain.PartnerAccount
	err := row.Scan(
		&a.ID,
		&a.UID,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&a.BusinessName,
		&a.BusinessType,
		&a.Location,
		&a.Phone,
		&a.Consent,
		&a.Status,
		&a.RegistrationCode,
		&a.ApprovedAt,
		&a.RegisteredAt,
		&a.BusinessID,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ApproveRequest consumes a signup request and creates the partner account
// in one transaction. The request row is claimed with a conditional update,
// so a concurrent second approval loses at commit time rather than at read
// time.
func (r *AccountRepo) ApproveRequest(ctx context.Context, requestID, registrationCode string) (*domain.PartnerAccount, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, xerrors.Upstream(err)
	}
	defer tx.Rollback(ctx)

	claimQuery := `
		UPDATE partner_signup_requests
		SET approved = TRUE
		WHERE id = $1 AND approved = FALSE
		RETURNING email, first_name, last_name, business_name, business_type,
		          location, phone, consent
	`

	account := &domain.PartnerAccount{
		ID:               id.GenerateUUID("PTN"),
		Status:           domain.AccountStatusEnabled,
		RegistrationCode: registrationCode,
	}
	err = tx.QueryRow(ctx, claimQuery, requestID).Scan(
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.BusinessName,
		&account.BusinessType,
		&account.Location,
		&account.Phone,
		&account.Consent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either absent or already consumed; tell the caller which.
			var exists bool
			if chkErr := r.db.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM partner_signup_requests WHERE id = $1)`,
				requestID,
			).Scan(&exists); chkErr != nil {
				return nil, xerrors.Upstream(chkErr)
			}
			if exists {
				return nil, xerrors.ErrAlreadyApproved
			}
			return nil, xerrors.ErrRequestNotFound
		}
		return nil, xerrors.Upstream(err)
	}

	insertQuery := `
		INSERT INTO partner_accounts (
			id, email, first_name, last_name, business_name, business_type,
			location, phone, consent, status, registration_code, approved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING approved_at
	`

	err = tx.QueryRow(ctx, insertQuery,
		account.ID,
		account.Email,
		account.FirstName,
		account.LastName,
		account.BusinessName,
		account.BusinessType,
		account.Location,
		account.Phone,
		account.Consent,
		account.Status,
		account.RegistrationCode,
	).Scan(&account.ApprovedAt)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return nil, xerrors.ErrEmailAlreadyInUse
		}
		return nil, xerrors.Upstream(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, xerrors.Upstream(err)
	}
	return account, nil
}

// GetAccountByID fetches a partner account by id.
func (r *AccountRepo) GetAccountByID(ctx context.Context, accountID string) (*domain.PartnerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM partner_accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrAccountNotFound
		}
		return nil, xerrors.Upstream(err)
	}
	return account, nil
}

// GetAccountByEmail fetches a partner account by its applicant email.
func (r *AccountRepo) GetAccountByEmail(ctx context.Context, email string) (*domain.PartnerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM partner_accounts WHERE email = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrAccountNotFound
		}
		return nil, xerrors.Upstream(err)
	}
	return account, nil
}

// GetAccountByUID fetches a registered account by its credential identifier.
func (r *AccountRepo) GetAccountByUID(ctx context.Context, uid string) (*domain.PartnerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM partner_accounts WHERE uid = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrAccountNotFound
		}
		return nil, xerrors.Upstream(err)
	}
	return account, nil
}

// ListAccounts fetches all partner accounts for the admin dashboard.
func (r *AccountRepo) ListAccounts(ctx context.Context) ([]*domain.PartnerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM partner_accounts ORDER BY approved_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, xerrors.Upstream(err)
	}
	defer rows.Close()

	var accounts []*domain.PartnerAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, xerrors.Upstream(err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, xerrors.Upstream(err)
	}
	return accounts, nil
}

// CodeInUse reports whether an unconsumed registration code already exists.
func (r *AccountRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM partner_accounts WHERE registration_code = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, xerrors.Upstream(err)
	}
	return exists, nil
}

// UpdateStatus flips the account status with a compare-and-swap keyed on the
// value the caller read. A concurrent toggle makes the swap miss and the
// caller gets a conflict instead of a lost update.
func (r *AccountRepo) UpdateStatus(ctx context.Context, accountID string, from, to domain.AccountStatus) error {
	query := `
		UPDATE partner_accounts
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, to, accountID, from)
	if err != nil {
		return xerrors.Upstream(err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if chkErr := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM partner_accounts WHERE id = $1)`,
			accountID,
		).Scan(&exists); chkErr != nil {
			return xerrors.Upstream(chkErr)
		}
		if !exists {
			return xerrors.ErrAccountNotFound
		}
		return fmt.Errorf("status changed concurrently: %w", xerrors.ErrConflict)
	}
	return nil
}

// ConsumeRegistrationCode sets uid/registered_at and clears the code in one
// conditional write. The code being non-empty at commit time is the guard:
// the second of two racing completions affects zero rows.
func (r *AccountRepo) ConsumeRegistrationCode(ctx context.Context, email, code, uid string) (*domain.PartnerAccount, error) {
	query := `
		UPDATE partner_accounts
		SET uid = $3,
		    registered_at = NOW(),
		    registration_code = ''
		WHERE email = $1
		  AND registration_code = $2
		  AND registration_code <> ''
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(ctx, query, email, code, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrCodeAlreadyUsed
		}
		return nil, xerrors.Upstream(err)
	}
	return account, nil
}
