package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tenantsync/internal/models"

	"github.com/shopspring/decimal"
)

func (s *Store) GetTenant(ctx context.Context, userID int) (*models.Tenant, error) {
	var (
		t         models.Tenant
		landlord  sql.NullInt64
		apartment sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT t.user_id, t.landlord_id, t.apartment_number, t.rent_price, u.name, u.email, u.phone
		FROM tenants t JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1`, userID).
		Scan(&t.UserID, &landlord, &apartment, &t.RentPrice, &t.Name, &t.Email, &t.Phone)
	if err != nil {
		return nil, fmt.Errorf("get tenant %d: %w", userID, mapError(err))
	}
	t.LandlordID = intPtr(landlord)
	t.ApartmentNumber = strPtr(apartment)
	return &t, nil
}

func (s *Store) ListTenantsByLandlord(ctx context.Context, landlordID int) ([]models.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.user_id, t.landlord_id, t.apartment_number, t.rent_price, u.name, u.email, u.phone
		FROM tenants t JOIN users u ON u.id = t.user_id
		WHERE t.landlord_id = $1
		ORDER BY t.user_id`, landlordID)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []models.Tenant{}
	for rows.Next() {
		var (
			t         models.Tenant
			landlord  sql.NullInt64
			apartment sql.NullString
		)
		if err := rows.Scan(&t.UserID, &landlord, &apartment, &t.RentPrice, &t.Name, &t.Email, &t.Phone); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		t.LandlordID = intPtr(landlord)
		t.ApartmentNumber = strPtr(apartment)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// UpdateTenant sets rent and apartment for one of landlordID's tenants.
// Absent values keep the stored ones.
func (s *Store) UpdateTenant(ctx context.Context, landlordID, tenantID int, rent decimal.NullDecimal, apartment *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenants
		SET rent_price = COALESCE($1, rent_price),
			apartment_number = COALESCE($2, apartment_number)
		WHERE user_id = $3 AND landlord_id = $4`,
		rent, apartment, tenantID, landlordID)
	if err != nil {
		return fmt.Errorf("update tenant %d: %w", tenantID, mapError(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) GetLandlord(ctx context.Context, id int) (*models.Landlord, error) {
	var (
		l      models.Landlord
		sealed sql.NullString
	)
	err := s.db.QueryRowContext(ctx, "SELECT landlord_id, paypal_email FROM landlords WHERE landlord_id = $1", id).
		Scan(&l.ID, &sealed)
	if err != nil {
		return nil, fmt.Errorf("get landlord %d: %w", id, mapError(err))
	}
	email, err := s.cipher.Open(sealed.String)
	if err != nil {
		return nil, fmt.Errorf("decrypt paypal email: %w", err)
	}
	l.PayPalEmail = email
	return &l, nil
}

func (s *Store) SetPayPalEmail(ctx context.Context, landlordID int, email string) error {
	sealed, err := s.cipher.Seal(email)
	if err != nil {
		return fmt.Errorf("encrypt paypal email: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE landlords SET paypal_email = $1 WHERE landlord_id = $2", sealed, landlordID)
	if err != nil {
		return fmt.Errorf("link paypal: %w", mapError(err))
	}
	return affectedOrNotFound(res)
}
