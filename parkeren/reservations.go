package parkeren

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/dhparkeren/validate"
)

const reservationPath = "/api/reservation"

// ErrOverlappingReservation is returned when the plate already has a
// reservation intersecting the requested window
var ErrOverlappingReservation = errors.New("overlapping reservation exists for this license plate")

// ReservationManager creates, reads, changes and deletes reservations
type ReservationManager struct {
	executor RequestExecutor
	logger   zerolog.Logger
	now      func() time.Time
}

// NewReservationManager creates a ReservationManager. now may be nil.
func NewReservationManager(executor RequestExecutor, logger zerolog.Logger, now func() time.Time) *ReservationManager {
	if now == nil {
		now = time.Now
	}
	return &ReservationManager{executor: executor, logger: logger, now: now}
}

func reservationItemPath(id int64) string {
	return fmt.Sprintf("%s/%d", reservationPath, id)
}

// List retrieves all reservations
func (m *ReservationManager) List(ctx context.Context) ([]Reservation, error) {
	outcome := m.executor.Execute(ctx, authenticated(http.MethodGet, reservationPath, nil))
	if err := outcome.Err(); err != nil {
		return nil, fmt.Errorf("failed to get reservations: %w", err)
	}

	reservations, err := decodeList[Reservation](outcome.Body, "reservations")
	if err != nil {
		return nil, fmt.Errorf("failed to parse reservations: %w", err)
	}

	m.logger.Debug().Int("count", len(reservations)).Msg("Retrieved reservations")
	return reservations, nil
}

// Get retrieves a single reservation
func (m *ReservationManager) Get(ctx context.Context, id int64) (*Reservation, error) {
	outcome := m.executor.Execute(ctx, authenticated(http.MethodGet, reservationItemPath(id), nil))

	var reservation Reservation
	if err := outcome.Decode(&reservation); err != nil {
		return nil, fmt.Errorf("failed to get reservation %d: %w", id, err)
	}
	if reservation.StartTime.IsZero() {
		return nil, fmt.Errorf("reservation %d has no start time: %w", id, ErrMalformedResponse)
	}
	return &reservation, nil
}

// HasOverlap reports whether plate already has a reservation intersecting [start, end)
func (m *ReservationManager) HasOverlap(ctx context.Context, plate string, start, end time.Time) (bool, error) {
	reservations, err := m.List(ctx)
	if err != nil {
		return false, err
	}

	for _, r := range reservations {
		if !strings.EqualFold(validate.NormalizePlate(r.LicensePlate), plate) {
			continue
		}
		if r.StartTime.IsZero() || r.EndTime.IsZero() {
			continue
		}
		if validate.Overlaps(start, end, r.StartTime, r.EndTime) {
			m.logger.Info().
				Str("license_plate", plate).
				Time("start", r.StartTime).
				Time("end", r.EndTime).
				Msg("Found overlapping reservation")
			return true, nil
		}
	}
	return false, nil
}

// Add validates and creates a reservation, returning its id
func (m *ReservationManager) Add(ctx context.Context, in NewReservation) (int64, error) {
	plate, err := validate.LicensePlate(in.LicensePlate)
	if err != nil {
		return 0, err
	}
	start, end, err := validate.ReservationWindow(in.StartTime, in.EndTime, m.now())
	if err != nil {
		return 0, err
	}

	overlap, err := m.HasOverlap(ctx, plate, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing reservations: %w", err)
	}
	if overlap {
		return 0, ErrOverlappingReservation
	}

	payload := reservationPayload{
		Name:         in.Name,
		LicensePlate: plate,
		StartTime:    start.Format(time.RFC3339),
		EndTime:      end.Format(time.RFC3339),
	}
	outcome := m.executor.Execute(ctx, authenticated(http.MethodPost, reservationPath, payload))

	var created createdResponse
	if err := outcome.Decode(&created); err != nil {
		return 0, fmt.Errorf("failed to add reservation: %w", err)
	}

	m.logger.Info().
		Int64("reservation_id", created.id()).
		Str("license_plate", plate).
		Time("start", start).
		Time("end", end).
		Msg("Reservation added")
	return created.id(), nil
}

// UpdateEnd moves the end time of a reservation. The new end must lie after
// the stored start time.
func (m *ReservationManager) UpdateEnd(ctx context.Context, id int64, endTime string) error {
	current, err := m.Get(ctx, id)
	if err != nil {
		return err
	}

	end, err := validate.NewEndTime(current.StartTime, endTime)
	if err != nil {
		return err
	}

	payload := map[string]string{"end_time": end.Format(time.RFC3339)}
	outcome := m.executor.Execute(ctx, authenticated(http.MethodPatch, reservationItemPath(id), payload))
	if err := outcome.Err(); err != nil {
		return fmt.Errorf("failed to update reservation %d: %w", id, err)
	}

	m.logger.Info().Int64("reservation_id", id).Time("end", end).Msg("Reservation updated")
	return nil
}

// Delete removes a reservation
func (m *ReservationManager) Delete(ctx context.Context, id int64) error {
	outcome := m.executor.Execute(ctx, authenticated(http.MethodDelete, reservationItemPath(id), nil))
	if err := outcome.Err(); err != nil {
		return fmt.Errorf("failed to delete reservation %d: %w", id, err)
	}

	m.logger.Info().Int64("reservation_id", id).Msg("Reservation deleted")
	return nil
}

// DeleteMany removes reservations concurrently over the shared session
func (m *ReservationManager) DeleteMany(ctx context.Context, ids []int64) BatchDeleteResult {
	return batchDelete(ctx, ids, m.Delete)
}
