package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tenantsync/internal/models"

	"github.com/lib/pq"
)

const requestColumns = `request_id, tenant_id, landlord_id, description, status, priority, media, submitted_at,
	resolved_at, assigned_worker, type_of_maintenance, scheduled_start, scheduled_end, time_scheduled, time_taken`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (models.MaintenanceRequest, error) {
	var (
		r                        models.MaintenanceRequest
		resolved, start, end     sql.NullTime
		worker                   sql.NullInt64
		kind, scheduled, elapsed sql.NullString
		media                    pq.StringArray
	)
	err := row.Scan(&r.ID, &r.TenantID, &r.LandlordID, &r.Description, &r.Status, &r.Priority, &media, &r.SubmittedAt,
		&resolved, &worker, &kind, &start, &end, &scheduled, &elapsed)
	if err != nil {
		return r, err
	}
	r.Media = []string(media)
	if r.Media == nil {
		r.Media = []string{}
	}
	r.ResolvedAt = timePtr(resolved)
	r.AssignedWorker = intPtr(worker)
	r.TypeOfMaintenance = strPtr(kind)
	r.ScheduledStart = timePtr(start)
	r.ScheduledEnd = timePtr(end)
	r.TimeScheduled = strPtr(scheduled)
	r.TimeTaken = strPtr(elapsed)
	return r, nil
}

func (s *Store) listRequests(ctx context.Context, query string, args ...any) ([]models.MaintenanceRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	requests := []models.MaintenanceRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (s *Store) CreateRequest(ctx context.Context, r *models.MaintenanceRequest) (int, error) {
	if r.Media == nil {
		r.Media = []string{}
	}
	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO maintenance_requests (tenant_id, landlord_id, description, status, priority, media)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING request_id, submitted_at`,
		r.TenantID, r.LandlordID, r.Description, models.StatusPending, r.Priority, pq.Array(r.Media)).
		Scan(&id, &r.SubmittedAt)
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", mapError(err))
	}
	r.ID = id
	r.Status = models.StatusPending
	return id, nil
}

func (s *Store) GetRequest(ctx context.Context, id int) (*models.MaintenanceRequest, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM maintenance_requests WHERE request_id = $1", id)
	r, err := scanRequest(row)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", id, mapError(err))
	}
	return &r, nil
}

func (s *Store) SetRequestType(ctx context.Context, id int, typeOfMaintenance string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE maintenance_requests SET type_of_maintenance = $1 WHERE request_id = $2", typeOfMaintenance, id)
	if err != nil {
		return fmt.Errorf("set request type: %w", mapError(err))
	}
	return affectedOrNotFound(res)
}

// CompleteRequest closes a pending request assigned to workerID. A request
// that is already closed is reported as not found.
func (s *Store) CompleteRequest(ctx context.Context, id, workerID int, timeTaken string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE maintenance_requests
		SET status = $1, resolved_at = $2, time_taken = $3
		WHERE request_id = $4 AND assigned_worker = $5 AND status = $6`,
		models.StatusClosed, at, timeTaken, id, workerID, models.StatusPending)
	if err != nil {
		return fmt.Errorf("complete request %d: %w", id, mapError(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) UpdateTimer(ctx context.Context, id, workerID int, timeTaken string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE maintenance_requests SET time_taken = $1 WHERE request_id = $2 AND assigned_worker = $3",
		timeTaken, id, workerID)
	if err != nil {
		return fmt.Errorf("update timer %d: %w", id, mapError(err))
	}
	return affectedOrNotFound(res)
}

// ListBookings returns workerID's requests scheduled in [from, to).
func (s *Store) ListBookings(ctx context.Context, workerID int, from, to time.Time) ([]models.MaintenanceRequest, error) {
	return s.listRequests(ctx, "SELECT "+requestColumns+`
		FROM maintenance_requests
		WHERE assigned_worker = $1 AND scheduled_start >= $2 AND scheduled_start < $3
		ORDER BY scheduled_start`, workerID, from, to)
}

func (s *Store) ListPendingByLandlord(ctx context.Context, landlordID int) ([]models.MaintenanceRequest, error) {
	return s.listRequests(ctx, "SELECT "+requestColumns+`
		FROM maintenance_requests
		WHERE landlord_id = $1 AND status = $2
		ORDER BY submitted_at DESC`, landlordID, models.StatusPending)
}
