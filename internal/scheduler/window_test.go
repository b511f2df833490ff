package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{in: "09:00-17:00", want: Window{Start: 540, End: 1020}},
		{in: " 8:30 - 12:15 ", want: Window{Start: 510, End: 735}},
		{in: "00:00-24:00", want: Window{Start: 0, End: 1440}},
		{in: "17:00-09:00", wantErr: true},
		{in: "09:00-09:00", wantErr: true},
		{in: "09:00", wantErr: true},
		{in: "9-17", wantErr: true},
		{in: "09:60-10:00", wantErr: true},
		{in: "aa:bb-cc:dd", wantErr: true},
		{in: "24:30-25:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWindow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowString(t *testing.T) {
	assert.Equal(t, "09:05-17:00", Window{Start: 545, End: 1020}.String())
	assert.Equal(t, 90*time.Minute, Window{Start: 960, End: 1050}.Duration())
}

func TestWindowOnAnchorsToDay(t *testing.T) {
	day := time.Date(2026, time.March, 14, 22, 45, 0, 0, time.UTC)
	start, end := Window{Start: 540, End: 600}.On(day)

	assert.Equal(t, time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC), end)
}

func TestWindowOnKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}

	for _, day := range []time.Time{
		time.Date(2026, time.March, 8, 12, 0, 0, 0, loc),    // clocks spring forward at 02:00
		time.Date(2026, time.November, 1, 12, 0, 0, 0, loc), // clocks fall back at 02:00
	} {
		start, end := Window{Start: 540, End: 600}.On(day)
		assert.Equal(t, "09:00", start.Format("15:04"), day.Format("2006-01-02"))
		assert.Equal(t, "10:00", end.Format("15:04"), day.Format("2006-01-02"))
		assert.Equal(t, time.Hour, end.Sub(start))
	}

	start, end := Window{Start: 60, End: 240}.On(time.Date(2026, time.March, 8, 0, 0, 0, 0, loc))
	assert.Equal(t, "01:00", start.Format("15:04"))
	assert.Equal(t, "04:00", end.Format("15:04"))
	assert.Equal(t, 2*time.Hour, end.Sub(start))
}

func TestValidWindow(t *testing.T) {
	assert.True(t, ValidWindow("10:30-17:00"))
	assert.False(t, ValidWindow("tomorrow"))
}
