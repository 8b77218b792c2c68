package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the single source of truth for the relational layout. EnsureSchema
// is idempotent so the server can apply it on boot.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	user_name     VARCHAR(50)  NOT NULL,
	email         VARCHAR(255) NOT NULL,
	phone_number  VARCHAR(20)  NOT NULL,
	password_hash VARCHAR(100) NOT NULL,
	role          VARCHAR(10)  NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
	CONSTRAINT users_phone_number_key UNIQUE (phone_number),
	CONSTRAINT users_role_check CHECK (role IN ('user', 'donor', 'admin'))
);

CREATE TABLE IF NOT EXISTS donor_profiles (
	id                 UUID PRIMARY KEY,
	user_id            UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	blood_group        VARCHAR(10)  NOT NULL,
	province           VARCHAR(100) NOT NULL,
	district           VARCHAR(100) NOT NULL,
	city               VARCHAR(100) NOT NULL,
	date_of_birth      DATE NOT NULL,
	last_donation_date DATE,
	next_eligible_date DATE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT donor_profiles_user_id_key UNIQUE (user_id)
);

CREATE TABLE IF NOT EXISTS blood_requests (
	id                UUID PRIMARY KEY,
	donor_id          UUID NOT NULL REFERENCES donor_profiles (id) ON DELETE CASCADE,
	requester_id      UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	requester_name    VARCHAR(255) NOT NULL,
	requester_phone   VARCHAR(20)  NOT NULL,
	requester_address VARCHAR(255) NOT NULL,
	blood_group       VARCHAR(10)  NOT NULL,
	urgent            BOOLEAN NOT NULL DEFAULT FALSE,
	status            VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT blood_requests_status_check CHECK (status IN ('pending', 'completed'))
);

CREATE INDEX IF NOT EXISTS idx_blood_requests_donor_id ON blood_requests (donor_id);
CREATE INDEX IF NOT EXISTS idx_blood_requests_requester_id ON blood_requests (requester_id);
CREATE INDEX IF NOT EXISTS idx_donor_profiles_next_eligible ON donor_profiles (next_eligible_date);
`

// EnsureSchema applies the schema, creating any missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
