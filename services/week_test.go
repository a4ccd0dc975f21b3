// ABOUTME: Tests for ISO week ids and week layout construction
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekID(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-03-04", "2024-W10"},
		{"2024-03-10", "2024-W10"},
		{"2024-03-11", "2024-W11"},
		// December 30th 2024 is a Monday belonging to 2025's week 1.
		{"2024-12-30", "2025-W01"},
		{"2024-01-01", "2024-W01"},
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, WeekID(d), "date %s", tt.date)
	}
}

func TestParseWeekID(t *testing.T) {
	year, week, err := ParseWeekID("2024-W10")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 10, week)

	_, _, err = ParseWeekID("garbage")
	assert.Error(t, err)
	_, _, err = ParseWeekID("2024-W99")
	assert.Error(t, err)
}

func TestGetWeekInfo(t *testing.T) {
	info, err := GetWeekInfo("2024-W10", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "2024-W10", info.ID)
	require.Len(t, info.Days, 7)
	assert.Equal(t, "2024-03-04", info.Days[0].Date)
	assert.Equal(t, "週一", info.Days[0].Label)
	assert.Equal(t, "2024-03-10", info.Days[6].Date)
	assert.Equal(t, "週日", info.Days[6].Label)
	assert.Equal(t, "03/04 ~ 03/10", info.DateRange)
}

func TestGetWeekInfoRoundTrip(t *testing.T) {
	// Every day of a week maps back to the same week id.
	info, err := GetWeekInfo("2025-W01", time.UTC)
	require.NoError(t, err)
	for _, day := range info.Days {
		d, err := time.Parse("2006-01-02", day.Date)
		require.NoError(t, err)
		assert.Equal(t, "2025-W01", WeekID(d), "day %s", day.Date)
	}
}
