package repository

import (
	"context"
	"fmt"

	"tenantsync/internal/models"
)

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) (int, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO payments (provider, provider_ref, tenant_id, landlord_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING payment_id, created_at, updated_at`,
		p.Provider, p.ProviderRef, p.TenantID, p.LandlordID, p.Amount, p.Currency, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", mapError(err))
	}
	return p.ID, nil
}

const paymentColumns = "payment_id, provider, provider_ref, tenant_id, landlord_id, amount, currency, status, created_at, updated_at"

func scanPayment(row interface{ Scan(...any) error }, p *models.Payment) error {
	return row.Scan(&p.ID, &p.Provider, &p.ProviderRef, &p.TenantID, &p.LandlordID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

// GetPaymentByRef loads the ledger entry for a provider's order or intent id.
func (s *Store) GetPaymentByRef(ctx context.Context, provider, ref string) (*models.Payment, error) {
	var p models.Payment
	row := s.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE provider = $1 AND provider_ref = $2", provider, ref)
	if err := scanPayment(row, &p); err != nil {
		return nil, fmt.Errorf("get payment %s: %w", ref, mapError(err))
	}
	return &p, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, provider, ref, status string) (*models.Payment, error) {
	var p models.Payment
	row := s.db.QueryRowContext(ctx, `
		UPDATE payments SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE provider = $2 AND provider_ref = $3
		RETURNING `+paymentColumns,
		status, provider, ref)
	if err := scanPayment(row, &p); err != nil {
		return nil, fmt.Errorf("update payment %s: %w", ref, mapError(err))
	}
	return &p, nil
}
