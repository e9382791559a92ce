package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/visitor-register/internal/domain"
)

type CredentialRepository interface {
	Create(ctx context.Context, c *domain.Credential) (*domain.Credential, error)
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

const credentialCols = `subject, email, password_hash, created_at`

func (r *credentialRepository) Create(ctx context.Context, c *domain.Credential) (*domain.Credential, error) {
	const q = `INSERT INTO credentials (subject, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + credentialCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.Credential
	err := r.pool.QueryRow(ctx, q, c.Subject, c.Email, c.PasswordHash).Scan(
		&out.Subject, &out.Email, &out.PasswordHash, &out.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *credentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	const q = `SELECT ` + credentialCols + ` FROM credentials WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Credential
	err := r.pool.QueryRow(ctx, q, email).Scan(&c.Subject, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
