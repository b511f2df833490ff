package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tenantsync/internal/models"
	"tenantsync/internal/scheduler"
)

const maxBookingAttempts = 3

var errVersionConflict = errors.New("availability version moved")

func (s *Store) GetWorker(ctx context.Context, teamID int) (*models.MaintenanceWorker, error) {
	var w models.MaintenanceWorker
	err := s.db.QueryRowContext(ctx,
		"SELECT team_id, type_of_maintenance, availability, version FROM maintenance_team WHERE team_id = $1", teamID).
		Scan(&w.TeamID, &w.TypeOfMaintenance, &w.Availability, &w.Version)
	if err != nil {
		return nil, fmt.Errorf("get worker %d: %w", teamID, mapError(err))
	}
	return &w, nil
}

func (s *Store) UpdateAvailability(ctx context.Context, teamID int, availability string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE maintenance_team SET availability = $1, version = version + 1 WHERE team_id = $2",
		availability, teamID)
	if err != nil {
		return fmt.Errorf("update availability: %w", mapError(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) UpdateMaintenanceType(ctx context.Context, teamID int, typeOfMaintenance string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE maintenance_team SET type_of_maintenance = $1 WHERE team_id = $2", typeOfMaintenance, teamID)
	if err != nil {
		return fmt.Errorf("update maintenance type: %w", mapError(err))
	}
	return affectedOrNotFound(res)
}

// BookWorker assigns requestID to the earliest-available worker of issueType.
// The worker row is claimed with a compare-and-swap on its version; losing the
// race re-runs the selection.
func (s *Store) BookWorker(ctx context.Context, requestID int, issueType string, day time.Time) (scheduler.Allocation, error) {
	for attempt := 0; attempt < maxBookingAttempts; attempt++ {
		alloc, err := s.tryBook(ctx, requestID, issueType, day)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return alloc, err
	}
	return scheduler.Allocation{}, ErrAvailabilityConflict
}

func (s *Store) tryBook(ctx context.Context, requestID int, issueType string, day time.Time) (scheduler.Allocation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return scheduler.Allocation{}, fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT team_id, type_of_maintenance, availability, version
		FROM maintenance_team
		WHERE LOWER(type_of_maintenance) = LOWER($1) AND availability <> ''
		ORDER BY team_id`, issueType)
	if err != nil {
		return scheduler.Allocation{}, fmt.Errorf("list workers: %w", err)
	}
	var workers []models.MaintenanceWorker
	for rows.Next() {
		var w models.MaintenanceWorker
		if err := rows.Scan(&w.TeamID, &w.TypeOfMaintenance, &w.Availability, &w.Version); err != nil {
			rows.Close()
			return scheduler.Allocation{}, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return scheduler.Allocation{}, fmt.Errorf("iterate workers: %w", err)
	}

	alloc, err := scheduler.Allocate(issueType, workers, day)
	if err != nil {
		return scheduler.Allocation{}, err
	}

	version := 0
	for _, w := range workers {
		if w.TeamID == alloc.WorkerID {
			version = w.Version
		}
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE maintenance_team SET availability = $1, version = version + 1 WHERE team_id = $2 AND version = $3",
		alloc.Remaining, alloc.WorkerID, version)
	if err != nil {
		return scheduler.Allocation{}, fmt.Errorf("claim worker: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return scheduler.Allocation{}, err
	} else if n == 0 {
		return scheduler.Allocation{}, errVersionConflict
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE maintenance_requests
		SET assigned_worker = $1, time_scheduled = $2, scheduled_start = $3, scheduled_end = $4
		WHERE request_id = $5`,
		alloc.WorkerID, alloc.TimeScheduled(), alloc.Start, alloc.End, requestID)
	if err != nil {
		return scheduler.Allocation{}, fmt.Errorf("assign request: %w", mapError(err))
	}
	if err := affectedOrNotFound(res); err != nil {
		return scheduler.Allocation{}, err
	}

	if err := tx.Commit(); err != nil {
		return scheduler.Allocation{}, fmt.Errorf("commit booking: %w", err)
	}
	return alloc, nil
}
