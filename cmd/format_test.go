package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/dhparkeren/parkeren"
)

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h00m"},
		{125, "2h05m"},
		{-90, "-1h30m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMinutes(tt.minutes))
	}
}

func TestFormatReservations(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	reservations := []parkeren.Reservation{
		{ID: 1, Name: "Mom", LicensePlate: "AB123C", StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
		{ID: 2, LicensePlate: "XY999Z", StartTime: now.Add(2 * time.Hour), EndTime: now.Add(150 * time.Minute)},
	}

	out := formatReservations(reservations, now)

	assert.Contains(t, out, "Reservations (2):")
	assert.Contains(t, out, "\u251c\u2500\u2500 #1 AB123C (Mom) [ACTIVE]")
	assert.Contains(t, out, "\u2570\u2500\u2500 #2 XY999Z\n")
	assert.Contains(t, out, "(2h00m)")
	assert.Contains(t, out, "(30m)")

	assert.Equal(t, "No reservations found", formatReservations(nil, now))
}

func TestFormatFavorites(t *testing.T) {
	out := formatFavorites([]parkeren.Favorite{{ID: 4, Name: "Dad", LicensePlate: "ZZ11ZZ"}})
	assert.Contains(t, out, "Favorite (1):")
	assert.Contains(t, out, "\u2570\u2500\u2500 #4 ZZ11ZZ (Dad)")
}

func TestFormatAccount(t *testing.T) {
	out := formatAccount(&parkeren.Account{
		ID:               9,
		DebitMinutes:     300,
		CreditMinutes:    45,
		ReservationCount: 2,
		Language:         "nl",
		Zone:             &parkeren.Zone{ID: "30", Name: "Centrum"},
	})

	assert.Contains(t, out, "Account 9:")
	assert.Contains(t, out, "Balance: 4h15m")
	assert.Contains(t, out, "Zone: Centrum (30)")
	assert.NotContains(t, out, "Paid parking")
}
