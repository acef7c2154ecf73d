package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLicensePlate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "dashes", input: "ab-123-cd", want: "AB123CD"},
		{name: "spaces and underscores", input: " xx_99 y ", want: "XX99Y"},
		{name: "twelve characters", input: "ABCDEF123456", want: "ABCDEF123456"},
		{name: "too long", input: "ABCDEF1234567", wantErr: true},
		{name: "empty", input: "--", wantErr: true},
		{name: "special characters", input: "AB#123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LicensePlate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput))

				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "license plate", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsISO8601(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2025-03-01T10:00:00", true},
		{"2025-03-01T10:00:00Z", true},
		{"2025-03-01T10:00:00.123+01:00", true},
		{"2025-03-01 10:00:00", false},
		{"2025-03-01", false},
		{"tomorrow", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsISO8601(tt.input))
		})
	}
}

func TestParseTimestampWithoutOffsetUsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	got, err := ParseTimestamp("start time", "2025-03-01T10:00:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), got.UTC())
}

func TestReservationWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		start, end, err := ReservationWindow("2025-03-01T09:00:00Z", "2025-03-01T11:00:00Z", now)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, end.Sub(start))
	})

	t.Run("end before start", func(t *testing.T) {
		_, _, err := ReservationWindow("2025-03-01T11:00:00Z", "2025-03-01T09:00:00Z", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after the start time")
	})

	t.Run("start in the past", func(t *testing.T) {
		_, _, err := ReservationWindow("2025-03-01T07:00:00Z", "2025-03-01T09:00:00Z", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "past")
	})

	t.Run("malformed", func(t *testing.T) {
		_, _, err := ReservationWindow("01-03-2025 09:00", "2025-03-01T09:00:00Z", now)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestNewEndTime(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	end, err := NewEndTime(start, "2025-03-01T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour+30*time.Minute, end.Sub(start))

	_, err = NewEndTime(start, "2025-03-01T09:00:00Z")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 3, 1, h, 0, 0, 0, time.UTC) }

	assert.True(t, Overlaps(at(9), at(11), at(10), at(12)))
	assert.True(t, Overlaps(at(9), at(12), at(10), at(11)))
	assert.False(t, Overlaps(at(9), at(10), at(10), at(11)), "touching intervals do not overlap")
	assert.False(t, Overlaps(at(12), at(13), at(9), at(10)))
}
