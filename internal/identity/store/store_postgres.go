package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodbridge/internal/identity/models"
	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres persists identities in PostgreSQL. Every method resolves its
// executor from the context so calls participate in an ambient transaction
// when one is bound.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, user_name, email, phone_number, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, user.Phone, user.PasswordHash, string(user.Role))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectUser+` WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Postgres) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectUser+` WHERE phone_number = $1`, phone)
	return scanUser(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectUser+` WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Postgres) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		selectUser+` WHERE role = $1 ORDER BY created_at DESC, id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return out, nil
}

const selectUser = `
	SELECT id, user_name, email, phone_number, password_hash, role, created_at, updated_at
	FROM users`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func scanUserRows(rows *sql.Rows) (*models.User, error) {
	var u models.User
	var role string
	err := rows.Scan(&u.ID, &u.UserName, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}
