package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodbridge/internal/donor/models"
	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists donor profiles in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, d *models.Donor) error {
	query := `
		INSERT INTO donor_profiles
			(id, user_id, blood_group, province, district, city, date_of_birth,
			 last_donation_date, next_eligible_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		d.ID, d.UserID, d.BloodGroup, d.Province, d.District, d.City,
		d.DateOfBirth, nullDate(d.LastDonationDate), nullDate(d.NextEligibleDate))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create donor profile: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Donor, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectDonor+` WHERE id = $1`, id)
	return scanDonor(row)
}

func (s *Postgres) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Donor, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectDonor+` WHERE user_id = $1`, userID)
	return scanDonor(row)
}

// UpdateEligibility stamps the cooldown window after a completed donation.
func (s *Postgres) UpdateEligibility(ctx context.Context, id uuid.UUID, last, next time.Time) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE donor_profiles
		SET last_donation_date = $1, next_eligible_date = $2, updated_at = now()
		WHERE id = $3
	`, last, next, id)
	if err != nil {
		return fmt.Errorf("update donor eligibility: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donor eligibility: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `DELETE FROM donor_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete donor profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete donor profile: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectDonor = `
	SELECT id, user_id, blood_group, province, district, city, date_of_birth,
	       last_donation_date, next_eligible_date, created_at, updated_at
	FROM donor_profiles`

func scanDonor(row *sql.Row) (*models.Donor, error) {
	var d models.Donor
	var last, next sql.NullTime
	err := row.Scan(&d.ID, &d.UserID, &d.BloodGroup, &d.Province, &d.District, &d.City,
		&d.DateOfBirth, &last, &next, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donor profile: %w", err)
	}
	if last.Valid {
		d.LastDonationDate = &last.Time
	}
	if next.Valid {
		d.NextEligibleDate = &next.Time
	}
	return &d, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
