package store

import (
	"context"
	"database/sql"
	"fmt"

	"bloodbridge/internal/admin/models"
	"bloodbridge/pkg/platform/tx"
)

// Postgres serves the admin console listings.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// ListDonors returns every donor profile joined with its account, newest
// first, cooling-down donors included.
func (p *Postgres) ListDonors(ctx context.Context) ([]models.DonorRecord, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	rows, err := exec.QueryContext(ctx, `
		SELECT d.id, d.user_id, u.user_name, u.email, u.phone_number,
		       d.blood_group, d.province, d.district, d.city, d.date_of_birth,
		       d.last_donation_date, d.next_eligible_date, d.created_at
		FROM donor_profiles d
		JOIN users u ON u.id = d.user_id
		ORDER BY d.created_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	defer rows.Close()

	var out []models.DonorRecord
	for rows.Next() {
		var (
			rec  models.DonorRecord
			last sql.NullTime
			next sql.NullTime
		)
		if err := rows.Scan(
			&rec.DonorID, &rec.UserID, &rec.Name, &rec.Email, &rec.Phone,
			&rec.BloodGroup, &rec.Province, &rec.District, &rec.City, &rec.DateOfBirth,
			&last, &next, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list donors: %w", err)
		}
		if last.Valid {
			t := last.Time
			rec.LastDonationDate = &t
		}
		if next.Valid {
			t := next.Time
			rec.NextEligibleDate = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	return out, nil
}
