package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodbridge/internal/request/models"
	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists blood requests. Methods pick up an in-flight transaction
// from the context when one is present.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const selectRequest = `
	SELECT id, requester_id, donor_id, requester_name, requester_phone,
	       blood_group, requester_address, urgent, status, created_at, updated_at
	FROM blood_requests`

func (p *Postgres) Create(ctx context.Context, req models.BloodRequest) error {
	exec := tx.ExecutorFrom(ctx, p.db)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO blood_requests (
			id, requester_id, donor_id, requester_name, requester_phone,
			blood_group, requester_address, urgent, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.RequesterID, req.DonorID, req.RequesterName, req.RequesterPhone,
		req.BloodGroup, req.Address, req.Urgent, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert blood request: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert blood request: %w", err)
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.BloodRequest, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	row := exec.QueryRowContext(ctx, selectRequest+` WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find blood request: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find blood request: %w", err)
	}
	return req, nil
}

// MarkCompleted flips the request to completed only while it is still pending.
// It reports the receiving donor's id and whether this call did the flip, so
// the caller knows whether a cooldown stamp is owed. A repeat call on an
// already completed request reports flipped=false without error.
func (p *Postgres) MarkCompleted(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	var donorID uuid.UUID
	err := exec.QueryRowContext(ctx, `
		UPDATE blood_requests
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING donor_id`,
		models.StatusCompleted, id, models.StatusPending,
	).Scan(&donorID)
	if err == nil {
		return donorID, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, fmt.Errorf("complete blood request: %w", err)
	}

	// No pending row flipped. Distinguish "already completed" from "missing".
	row := exec.QueryRowContext(ctx,
		`SELECT donor_id FROM blood_requests WHERE id = $1`, id)
	if err := row.Scan(&donorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, false, fmt.Errorf("complete blood request: %w", sentinel.ErrNotFound)
		}
		return uuid.Nil, false, fmt.Errorf("complete blood request: %w", err)
	}
	return donorID, false, nil
}

// MarkAllCompletedForDonor flips every pending request addressed to the donor
// and reports the number of rows changed.
func (p *Postgres) MarkAllCompletedForDonor(ctx context.Context, donorID uuid.UUID) (int, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	res, err := exec.ExecContext(ctx, `
		UPDATE blood_requests
		SET status = $1, updated_at = now()
		WHERE donor_id = $2 AND status = $3`,
		models.StatusCompleted, donorID, models.StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("complete donor requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("complete donor requests: %w", err)
	}
	return int(n), nil
}

// ListByDonor returns every request addressed to the donor, newest first.
func (p *Postgres) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.BloodRequest, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	rows, err := exec.QueryContext(ctx,
		selectRequest+` WHERE donor_id = $1 ORDER BY created_at DESC, id`, donorID)
	if err != nil {
		return nil, fmt.Errorf("list donor requests: %w", err)
	}
	defer rows.Close()

	var out []models.BloodRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list donor requests: %w", err)
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list donor requests: %w", err)
	}
	return out, nil
}

// ListByRequester returns the requester's open requests joined with the
// donor's current profile and account, newest first. Completed requests are
// excluded.
func (p *Postgres) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.RequesterView, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	rows, err := exec.QueryContext(ctx, `
		SELECT r.id, r.requester_id, r.donor_id, r.requester_name, r.requester_phone,
		       r.blood_group, r.requester_address, r.urgent, r.status, r.created_at, r.updated_at,
		       u.user_name, u.phone_number, d.blood_group, d.province, d.district, d.city
		FROM blood_requests r
		JOIN donor_profiles d ON d.id = r.donor_id
		JOIN users u ON u.id = d.user_id
		WHERE r.requester_id = $1 AND r.status <> $2
		ORDER BY r.created_at DESC, r.id`,
		requesterID, models.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list requester requests: %w", err)
	}
	defer rows.Close()

	var out []models.RequesterView
	for rows.Next() {
		var v models.RequesterView
		if err := rows.Scan(
			&v.ID, &v.RequesterID, &v.DonorID, &v.RequesterName, &v.RequesterPhone,
			&v.BloodGroup, &v.Address, &v.Urgent, &v.Status, &v.CreatedAt, &v.UpdatedAt,
			&v.DonorName, &v.DonorPhone, &v.DonorBloodGroup, &v.DonorProvince,
			&v.DonorDistrict, &v.DonorCity,
		); err != nil {
			return nil, fmt.Errorf("list requester requests: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requester requests: %w", err)
	}
	return out, nil
}

// ListAll returns the whole ledger, newest first.
func (p *Postgres) ListAll(ctx context.Context) ([]models.BloodRequest, error) {
	return p.list(ctx, selectRequest+` ORDER BY created_at DESC, id`)
}

// ListCompleted returns completed requests, most recently completed first.
func (p *Postgres) ListCompleted(ctx context.Context) ([]models.BloodRequest, error) {
	return p.list(ctx,
		selectRequest+` WHERE status = $1 ORDER BY updated_at DESC, id`,
		models.StatusCompleted)
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]models.BloodRequest, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	defer rows.Close()

	var out []models.BloodRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list blood requests: %w", err)
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	exec := tx.ExecutorFrom(ctx, p.db)

	res, err := exec.ExecContext(ctx, `DELETE FROM blood_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blood request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete blood request: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete blood request: %w", sentinel.ErrNotFound)
	}
	return nil
}

// DeleteByRequesterID removes every request created by the user.
func (p *Postgres) DeleteByRequesterID(ctx context.Context, requesterID uuid.UUID) (int, error) {
	return p.deleteWhere(ctx, `DELETE FROM blood_requests WHERE requester_id = $1`, requesterID)
}

// DeleteByDonorID removes every request addressed to the donor.
func (p *Postgres) DeleteByDonorID(ctx context.Context, donorID uuid.UUID) (int, error) {
	return p.deleteWhere(ctx, `DELETE FROM blood_requests WHERE donor_id = $1`, donorID)
}

func (p *Postgres) deleteWhere(ctx context.Context, query string, id uuid.UUID) (int, error) {
	exec := tx.ExecutorFrom(ctx, p.db)

	res, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete blood requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete blood requests: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.BloodRequest, error) {
	var req models.BloodRequest
	if err := row.Scan(
		&req.ID, &req.RequesterID, &req.DonorID, &req.RequesterName, &req.RequesterPhone,
		&req.BloodGroup, &req.Address, &req.Urgent, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
