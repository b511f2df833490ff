package scheduler

import (
	"errors"
	"strings"
	"time"

	"tenantsync/internal/models"
)

const (
	JobDuration    = 60 * time.Minute
	BufferDuration = 30 * time.Minute
)

var (
	ErrNoWorker       = errors.New("no maintenance worker available for this type")
	ErrWindowTooShort = errors.New("worker availability cannot fit the job and buffer")
	ErrInvalidWindow  = errors.New("invalid availability window")
)

// Allocation is the outcome of booking one job against one worker.
type Allocation struct {
	WorkerID  int
	Scheduled Window
	// Remaining is the worker's new availability; empty when the window is used up.
	Remaining string
	Start     time.Time
	End       time.Time
}

// TimeScheduled renders the booked slot as stored on the request.
func (a Allocation) TimeScheduled() string {
	return a.Scheduled.String()
}

// Allocate books a job for issueType on day against the worker whose window
// opens earliest. The job always takes the front of that window followed by
// the buffer; freed time is never recovered.
func Allocate(issueType string, workers []models.MaintenanceWorker, day time.Time) (Allocation, error) {
	chosen, window, err := selectWorker(issueType, workers)
	if err != nil {
		return Allocation{}, err
	}

	job := int(JobDuration / time.Minute)
	buffer := int(BufferDuration / time.Minute)
	scheduledEnd := window.Start + job
	breakEnd := scheduledEnd + buffer
	if breakEnd > window.End {
		return Allocation{}, ErrWindowTooShort
	}

	a := Allocation{
		WorkerID:  chosen.TeamID,
		Scheduled: Window{Start: window.Start, End: scheduledEnd},
	}
	if breakEnd < window.End {
		a.Remaining = Window{Start: breakEnd, End: window.End}.String()
	}
	a.Start, a.End = a.Scheduled.On(day)
	return a, nil
}

func selectWorker(issueType string, workers []models.MaintenanceWorker) (models.MaintenanceWorker, Window, error) {
	var (
		best    models.MaintenanceWorker
		bestWin Window
		found   bool
	)
	for _, w := range workers {
		if !strings.EqualFold(w.TypeOfMaintenance, issueType) || strings.TrimSpace(w.Availability) == "" {
			continue
		}
		win, err := ParseWindow(w.Availability)
		if err != nil {
			return models.MaintenanceWorker{}, Window{}, err
		}
		if !found || win.Start < bestWin.Start || (win.Start == bestWin.Start && w.TeamID < best.TeamID) {
			best, bestWin, found = w, win, true
		}
	}
	if !found {
		return models.MaintenanceWorker{}, Window{}, ErrNoWorker
	}
	return best, bestWin, nil
}
