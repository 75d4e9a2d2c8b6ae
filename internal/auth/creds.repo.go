package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"partner-service/pkg/xerrors"
)

type credential struct {
	UID          string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type credentialRepo struct {
	db *pgxpool.Pool
}

func newCredentialRepo(db *pgxpool.Pool) *credentialRepo {
	return &credentialRepo{db: db}
}

func (r *credentialRepo) create(ctx context.Context, cred *credential) error {
	query := `
		INSERT INTO partner_credentials (uid, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query, cred.UID, cred.Email, cred.PasswordHash).Scan(&cred.CreatedAt)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return xerrors.ErrEmailAlreadyInUse
		}
		return xerrors.Upstream(err)
	}
	return nil
}

func (r *credentialRepo) getByEmail(ctx context.Context, email string) (*credential, error) {
	query := `
		SELECT uid, email, password_hash, created_at
		FROM partner_credentials
		WHERE email = $1
	`

	var cred credential
	err := r.db.QueryRow(ctx, query, email).Scan(
		&cred.UID,
		&cred.Email,
		&cred.PasswordHash,
		&cred.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrInvalidCredentials
		}
		return nil, xerrors.Upstream(err)
	}
	return &cred, nil
}
