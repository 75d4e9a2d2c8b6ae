package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"partner-service/internal/domain"
	"partner-service/pkg/id"
	"partner-service/pkg/xerrors"
)

// CreateRequest inserts a new signup request from applicant intake.
func (r *SignupRequestRepo) CreateRequest(ctx context.Context, req *domain.PartnerSignupRequest) error {
	if req.ID == "" {
		req.ID = id.GenerateUUID("REQ")
	}

	query := `
		INSERT INTO partner_signup_requests (
			id, email, first_name, last_name, business_name, business_type,
			location, phone, consent, approved, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		req.ID,
		req.Email,
		req.FirstName,
		req.LastName,
		req.BusinessName,
		req.BusinessType,
		req.Location,
		req.Phone,
		req.Consent,
	).Scan(&req.CreatedAt)
	if err != nil {
		return xerrors.Upstream(err)
	}
	return nil
}

// GetRequestByID fetches a signup request by id.
func (r *SignupRequestRepo) GetRequestByID(ctx context.Context, requestID string) (*domain.PartnerSignupRequest, error) {
	query := `
		SELECT id, email, first_name, last_name, business_name, business_type,
		       location, phone, consent, approved, created_at
		FROM partner_signup_requests
		WHERE id = $1
	`

	var req domain.PartnerSignupRequest
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&req.ID,
		&req.Email,
		&req.FirstName,
		&req.LastName,
		&req.BusinessName,
		&req.BusinessType,
		&req.Location,
		&req.Phone,
		&req.Consent,
		&req.Approved,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrRequestNotFound
		}
		return nil, xerrors.Upstream(err)
	}
	return &req, nil
}

// ListPending fetches unapproved signup requests, oldest first.
func (r *SignupRequestRepo) ListPending(ctx context.Context) ([]*domain.PartnerSignupRequest, error) {
	query := `
		SELECT id, email, first_name, last_name, business_name, business_type,
		       location, phone, consent, approved, created_at
		FROM partner_signup_requests
		WHERE approved = FALSE
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, xerrors.Upstream(err)
	}
	defer rows.Close()

	var requests []*domain.PartnerSignupRequest
	for rows.Next() {
		var req domain.PartnerSignupRequest
		if err := rows.Scan(
			&req.ID,
			&req.Email,
			&req.FirstName,
			&req.LastName,
			&req.BusinessName,
			&req.BusinessType,
			&req.Location,
			&req.Phone,
			&req.Consent,
			&req.Approved,
			&req.CreatedAt,
		); err != nil {
			return nil, xerrors.Upstream(err)
		}
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, xerrors.Upstream(err)
	}
	return requests, nil
}
