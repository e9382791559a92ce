package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/visitor-register/internal/domain"
)

type VisitorRepository interface {
	Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error)
	GetByID(ctx context.Context, id string) (*domain.Visitor, error)
	// Checkout stamps checked_out_at on an on-site visit. It returns nil, nil
	// when no on-site row matched.
	Checkout(ctx context.Context, id string, at time.Time) (*domain.Visitor, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Visitor, error)
}

type visitorRepository struct {
	pool *pgxpool.Pool
}

func NewVisitorRepository(pool *pgxpool.Pool) VisitorRepository {
	return &visitorRepository{pool: pool}
}

const visitorCols = `id::text, name, id_number, phone_number, organisation,
purpose_of_visit, person_for_visit, host_id, checked_in_at, checked_out_at`

func scanVisitor(row pgx.Row) (*domain.Visitor, error) {
	var v domain.Visitor
	err := row.Scan(
		&v.ID, &v.Name, &v.IDNumber, &v.PhoneNumber, &v.Organisation,
		&v.PurposeOfVisit, &v.PersonForVisit, &v.HostID,
		&v.CheckInTime, &v.CheckOutTime,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *visitorRepository) Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	const q = `INSERT INTO visitors (
		id, name, id_number, phone_number, organisation,
		purpose_of_visit, person_for_visit, host_id, checked_in_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	RETURNING ` + visitorCols

	id := v.ID
	if id == "" {
		id = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisitor(r.pool.QueryRow(ctx, q, id,
		v.Name, v.IDNumber, v.PhoneNumber, v.Organisation,
		v.PurposeOfVisit, v.PersonForVisit, v.HostID, v.CheckInTime,
	))
}

func (r *visitorRepository) GetByID(ctx context.Context, id string) (*domain.Visitor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	const q = `SELECT ` + visitorCols + ` FROM visitors WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) Checkout(ctx context.Context, id string, at time.Time) (*domain.Visitor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	const q = `UPDATE visitors
		SET checked_out_at = GREATEST($2, checked_in_at)
		WHERE id=$1 AND checked_out_at IS NULL
		RETURNING ` + visitorCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) ListRecent(ctx context.Context, limit int) ([]domain.Visitor, error) {
	if limit <= 0 {
		limit = 200
	}

	const q = `SELECT ` + visitorCols + ` FROM visitors
		ORDER BY checked_in_at DESC, id LIMIT $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visitors := []domain.Visitor{}
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, *v)
	}
	return visitors, rows.Err()
}
