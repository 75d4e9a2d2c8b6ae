package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type SignupRequestRepo struct {
	db *pgxpool.Pool
}

func NewSignupRequestRepo(db *pgxpool.Pool) *SignupRequestRepo {
	return &SignupRequestRepo{db: db}
}

type AccountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{db: db}
}

type OnboardingRepo struct {
	db *pgxpool.Pool
}

func NewOnboardingRepo(db *pgxpool.Pool) *OnboardingRepo {
	return &OnboardingRepo{db: db}
}
