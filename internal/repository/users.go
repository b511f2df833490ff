package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tenantsync/internal/models"
)

// CreateUser inserts the user row and the role row in one transaction.
func (s *Store) CreateUser(ctx context.Context, u NewUser) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin signup: %w", err)
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx,
		"INSERT INTO users (name, email, phone, password, role) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", mapError(err))
	}

	switch u.Role {
	case models.RoleTenant:
		_, err = tx.ExecContext(ctx, "INSERT INTO tenants (user_id, landlord_id) VALUES ($1, $2)", id, u.LandlordID)
	case models.RoleLandlord:
		_, err = tx.ExecContext(ctx, "INSERT INTO landlords (landlord_id) VALUES ($1)", id)
	case models.RoleMaintenance:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO maintenance_team (team_id, type_of_maintenance, availability) VALUES ($1, $2, $3)",
			id, u.TypeOfMaintenance, u.Availability)
	}
	if err != nil {
		return 0, fmt.Errorf("insert %s profile: %w", u.Role, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit signup: %w", err)
	}
	return id, nil
}

const userColumns = "id, name, email, phone, password, role, created_at"

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", mapError(err))
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, mapError(err))
	}
	return &u, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, role, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)",
		sess.ID, sess.UserID, string(sess.Role), sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var (
		sess    models.Session
		revoked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT session_id, user_id, role, created_at, expires_at, revoked_at FROM sessions WHERE session_id = $1", id).
		Scan(&sess.ID, &sess.UserID, &sess.Role, &sess.CreatedAt, &sess.ExpiresAt, &revoked)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", mapError(err))
	}
	sess.RevokedAt = timePtr(revoked)
	return &sess, nil
}

func (s *Store) RevokeSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = $1 WHERE session_id = $2 AND revoked_at IS NULL", at, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", mapError(err))
	}
	return affectedOrNotFound(res)
}
