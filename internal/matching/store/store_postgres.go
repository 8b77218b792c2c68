package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bloodbridge/internal/matching/models"
	"bloodbridge/pkg/platform/tx"
)

// Postgres serves the donor directory straight from the relational store with
// the eligibility cut and filters applied in SQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// ListEligible returns donors whose cooldown window has passed as of today,
// narrowed by the filter. Empty filter fields match everything.
func (p *Postgres) ListEligible(ctx context.Context, today time.Time, filter models.Filter) ([]models.DonorCard, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	address := ""
	if filter.Address != "" {
		address = "%" + filter.Address + "%"
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT d.id, d.user_id, u.user_name, u.email, u.phone_number,
		       d.blood_group, d.province, d.district, d.city,
		       d.last_donation_date, d.next_eligible_date
		FROM donor_profiles d
		JOIN users u ON u.id = d.user_id
		WHERE (d.next_eligible_date IS NULL OR d.next_eligible_date <= $1)
		  AND ($2 = '' OR d.blood_group = $2)
		  AND ($3 = '' OR d.province ILIKE $3 OR d.district ILIKE $3 OR d.city ILIKE $3)
		ORDER BY d.created_at DESC, d.id`,
		today, filter.BloodGroup, address,
	)
	if err != nil {
		return nil, fmt.Errorf("list eligible donors: %w", err)
	}
	defer rows.Close()

	var out []models.DonorCard
	for rows.Next() {
		var (
			card models.DonorCard
			last sql.NullTime
			next sql.NullTime
		)
		if err := rows.Scan(
			&card.DonorID, &card.UserID, &card.Name, &card.Email, &card.Phone,
			&card.BloodGroup, &card.Province, &card.District, &card.City,
			&last, &next,
		); err != nil {
			return nil, fmt.Errorf("list eligible donors: %w", err)
		}
		if last.Valid {
			t := last.Time
			card.LastDonationDate = &t
		}
		if next.Valid {
			t := next.Time
			card.NextEligibleDate = &t
		}
		out = append(out, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list eligible donors: %w", err)
	}
	return out, nil
}
