package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    phone VARCHAR(32) NOT NULL DEFAULT '',
    password VARCHAR(255) NOT NULL,
    role VARCHAR(32) NOT NULL CHECK (role IN ('tenant', 'landlord', 'maintenance')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS landlords (
    landlord_id INT PRIMARY KEY REFERENCES users (id),
    paypal_email TEXT
);

CREATE TABLE IF NOT EXISTS tenants (
    user_id INT PRIMARY KEY REFERENCES users (id),
    landlord_id INT REFERENCES landlords (landlord_id),
    apartment_number VARCHAR(32),
    rent_price NUMERIC(10, 2)
);

CREATE TABLE IF NOT EXISTS maintenance_team (
    team_id INT PRIMARY KEY REFERENCES users (id),
    type_of_maintenance VARCHAR(64) NOT NULL DEFAULT 'General',
    availability VARCHAR(16) NOT NULL DEFAULT '',
    version INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS maintenance_requests (
    request_id SERIAL PRIMARY KEY,
    tenant_id INT NOT NULL REFERENCES tenants (user_id),
    landlord_id INT NOT NULL REFERENCES landlords (landlord_id),
    description TEXT NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'Pending',
    priority VARCHAR(16) NOT NULL DEFAULT 'Medium',
    media TEXT[] NOT NULL DEFAULT '{}',
    submitted_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    resolved_at TIMESTAMPTZ,
    assigned_worker INT REFERENCES maintenance_team (team_id),
    type_of_maintenance VARCHAR(64),
    scheduled_start TIMESTAMPTZ,
    scheduled_end TIMESTAMPTZ,
    time_scheduled VARCHAR(16),
    time_taken VARCHAR(16)
);

CREATE INDEX IF NOT EXISTS idx_requests_worker_start ON maintenance_requests (assigned_worker, scheduled_start);

CREATE TABLE IF NOT EXISTS bulletin_posts (
    post_id SERIAL PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users (id),
    user_role VARCHAR(32) NOT NULL,
    title VARCHAR(255) NOT NULL,
    content TEXT NOT NULL,
    category VARCHAR(64) NOT NULL DEFAULT 'General',
    moderated BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bulletin_comments (
    comment_id SERIAL PRIMARY KEY,
    post_id INT NOT NULL REFERENCES bulletin_posts (post_id),
    user_id INT NOT NULL REFERENCES users (id),
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id UUID PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users (id),
    role VARCHAR(32) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS payments (
    payment_id SERIAL PRIMARY KEY,
    provider VARCHAR(16) NOT NULL,
    provider_ref VARCHAR(128) NOT NULL,
    tenant_id INT NOT NULL REFERENCES tenants (user_id),
    landlord_id INT NOT NULL REFERENCES landlords (landlord_id),
    amount NUMERIC(10, 2) NOT NULL,
    currency CHAR(3) NOT NULL,
    status VARCHAR(16) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (provider, provider_ref)
);
`

// CreateTableIfNotExists applies the schema; every statement is idempotent.
func CreateTableIfNotExists(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// DeleteAllTable drops every table, dependents first.
func DeleteAllTable(ctx context.Context, db *sql.DB) error {
	query := `
    DROP TABLE IF EXISTS payments;
    DROP TABLE IF EXISTS sessions;
    DROP TABLE IF EXISTS bulletin_comments;
    DROP TABLE IF EXISTS bulletin_posts;
    DROP TABLE IF EXISTS maintenance_requests;
    DROP TABLE IF EXISTS maintenance_team;
    DROP TABLE IF EXISTS tenants;
    DROP TABLE IF EXISTS landlords;
    DROP TABLE IF EXISTS users;
    `
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
