package scheduler

import (
	"testing"
	"time"

	"tenantsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingDay = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func TestAllocateFullDay(t *testing.T) {
	workers := []models.MaintenanceWorker{{TeamID: 4, TypeOfMaintenance: "Plumber", Availability: "09:00-17:00"}}

	a, err := Allocate("Plumber", workers, bookingDay)
	require.NoError(t, err)

	assert.Equal(t, 4, a.WorkerID)
	assert.Equal(t, "09:00-10:00", a.TimeScheduled())
	assert.Equal(t, "10:30-17:00", a.Remaining)
	assert.Equal(t, time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC), a.Start)
	assert.Equal(t, time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC), a.End)
}

func TestAllocateRejectsShortWindow(t *testing.T) {
	workers := []models.MaintenanceWorker{{TeamID: 4, TypeOfMaintenance: "Plumber", Availability: "16:00-17:00"}}

	_, err := Allocate("Plumber", workers, bookingDay)
	assert.ErrorIs(t, err, ErrWindowTooShort)
}

func TestAllocateExactFitExhaustsWindow(t *testing.T) {
	workers := []models.MaintenanceWorker{{TeamID: 4, TypeOfMaintenance: "General", Availability: "15:30-17:00"}}

	a, err := Allocate("General", workers, bookingDay)
	require.NoError(t, err)
	assert.Equal(t, "15:30-16:30", a.TimeScheduled())
	assert.Empty(t, a.Remaining)
}

func TestAllocatePicksEarliestWorker(t *testing.T) {
	workers := []models.MaintenanceWorker{
		{TeamID: 1, TypeOfMaintenance: "Electrician", Availability: "09:00-17:00"},
		{TeamID: 2, TypeOfMaintenance: "Electrician", Availability: "08:00-12:00"},
	}

	a, err := Allocate("Electrician", workers, bookingDay)
	require.NoError(t, err)
	assert.Equal(t, 2, a.WorkerID)
	assert.Equal(t, "08:00-09:00", a.TimeScheduled())
	assert.Equal(t, "09:30-12:00", a.Remaining)
}

func TestAllocateComparesTimesNumerically(t *testing.T) {
	// "10:00" sorts before "8:00" as a string; numerically 8:00 is earlier.
	workers := []models.MaintenanceWorker{
		{TeamID: 1, TypeOfMaintenance: "General", Availability: "10:00-17:00"},
		{TeamID: 2, TypeOfMaintenance: "General", Availability: "8:00-17:00"},
	}

	a, err := Allocate("General", workers, bookingDay)
	require.NoError(t, err)
	assert.Equal(t, 2, a.WorkerID)
}

func TestAllocateTieBreaksOnTeamID(t *testing.T) {
	workers := []models.MaintenanceWorker{
		{TeamID: 9, TypeOfMaintenance: "General", Availability: "09:00-17:00"},
		{TeamID: 3, TypeOfMaintenance: "General", Availability: "09:00-12:00"},
	}

	a, err := Allocate("General", workers, bookingDay)
	require.NoError(t, err)
	assert.Equal(t, 3, a.WorkerID)
}

func TestAllocateFiltersByType(t *testing.T) {
	workers := []models.MaintenanceWorker{
		{TeamID: 1, TypeOfMaintenance: "Electrician", Availability: "07:00-17:00"},
		{TeamID: 2, TypeOfMaintenance: "plumber", Availability: "09:00-17:00"},
		{TeamID: 3, TypeOfMaintenance: "Plumber", Availability: ""},
	}

	a, err := Allocate("Plumber", workers, bookingDay)
	require.NoError(t, err)
	assert.Equal(t, 2, a.WorkerID)
}

func TestAllocateNoWorker(t *testing.T) {
	_, err := Allocate("Plumber", nil, bookingDay)
	assert.ErrorIs(t, err, ErrNoWorker)

	_, err = Allocate("Plumber", []models.MaintenanceWorker{{TeamID: 1, TypeOfMaintenance: "Electrician", Availability: "09:00-17:00"}}, bookingDay)
	assert.ErrorIs(t, err, ErrNoWorker)
}

func TestAllocateMalformedAvailability(t *testing.T) {
	workers := []models.MaintenanceWorker{{TeamID: 1, TypeOfMaintenance: "Plumber", Availability: "whenever"}}

	_, err := Allocate("Plumber", workers, bookingDay)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestAllocateRepeatedlyConsumesFront(t *testing.T) {
	w := models.MaintenanceWorker{TeamID: 1, TypeOfMaintenance: "Plumber", Availability: "09:00-13:00"}
	var slots []string
	for {
		a, err := Allocate("Plumber", []models.MaintenanceWorker{w}, bookingDay)
		if err != nil {
			assert.ErrorIs(t, err, ErrWindowTooShort)
			break
		}
		slots = append(slots, a.TimeScheduled())
		w.Availability = a.Remaining
		if w.Availability == "" {
			break
		}
	}
	assert.Equal(t, []string{"09:00-10:00", "10:30-11:30"}, slots)
}
