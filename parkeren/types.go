package parkeren

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexInt decodes integers the upstream sends either as numbers or strings
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", data, err)
	}
	*f = FlexInt(n)
	return nil
}

// Zone is the parking zone attached to an account
type Zone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Account holds the visitor account summary
type Account struct {
	ID                   int64     `json:"id"`
	DebitMinutes         int       `json:"debit_minutes"`
	CreditMinutes        int       `json:"credit_minutes"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	RemindersEnabled     bool      `json:"reminders_enabled"`
	Language             string    `json:"language"`
	Created              time.Time `json:"created"`
	Modified             time.Time `json:"mod"`
	IsCompany            bool      `json:"is_company"`
	ReservationCount     FlexInt   `json:"reservation_count"`
	Zone                 *Zone     `json:"zone,omitempty"`
}

// Balance returns the remaining parking time of the account
func (a *Account) Balance() time.Duration {
	return time.Duration(a.DebitMinutes-a.CreditMinutes) * time.Minute
}

// Reservation is a visitor parking reservation
type Reservation struct {
	ID           FlexInt   `json:"id"`
	Name         string    `json:"name"`
	LicensePlate string    `json:"license_plate"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// Duration returns the reserved period length
func (r *Reservation) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// IsActive reports whether the reservation covers now
func (r *Reservation) IsActive(now time.Time) bool {
	return !now.Before(r.StartTime) && now.Before(r.EndTime)
}

// NewReservation is the input for ReservationManager.Add. Times use ISO 8601.
type NewReservation struct {
	Name         string
	LicensePlate string
	StartTime    string
	EndTime      string
}

// reservationPayload is the body of POST /api/reservation
type reservationPayload struct {
	Name         string `json:"name"`
	LicensePlate string `json:"license_plate"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// createdResponse covers the id keys returned by create endpoints
type createdResponse struct {
	ID            FlexInt `json:"id"`
	ReservationID FlexInt `json:"reservation_id"`
	FavoriteID    FlexInt `json:"favorite_id"`
}

func (c createdResponse) id() int64 {
	switch {
	case c.ID != 0:
		return int64(c.ID)
	case c.ReservationID != 0:
		return int64(c.ReservationID)
	default:
		return int64(c.FavoriteID)
	}
}

// Favorite is a saved license plate
type Favorite struct {
	ID           FlexInt `json:"id"`
	Name         string  `json:"name"`
	LicensePlate string  `json:"license_plate"`
}

type favoritePayload struct {
	Name         string `json:"name"`
	LicensePlate string `json:"license_plate"`
}

// HistoryEntry is a past parking session
type HistoryEntry struct {
	LicensePlate string    `json:"license_plate"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	MinutesUsed  int       `json:"minutes_used"`
}

// decodeList decodes list endpoints that answer with either a bare array or
// an object wrapping the array under key
func decodeList[T any](body json.RawMessage, key string) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var items []T
	if body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	raw, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q list", ErrMalformedResponse, key)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return items, nil
}
