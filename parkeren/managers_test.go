package parkeren

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/dhparkeren/validate"
)

// stubExecutor answers requests from a route table keyed by "METHOD path"
type stubExecutor struct {
	mu       sync.Mutex
	routes   map[string]Outcome
	requests []Request
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{routes: make(map[string]Outcome)}
}

func (s *stubExecutor) on(method, path string, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = outcome
}

func (s *stubExecutor) Execute(_ context.Context, req Request) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if outcome, ok := s.routes[req.Method+" "+req.Path]; ok {
		return outcome
	}
	return UnknownError(http.StatusNotFound, "")
}

func (s *stubExecutor) sent(method, path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func ok(body string) Outcome {
	return Success(http.StatusOK, []byte(body))
}

func TestAccountGet(t *testing.T) {
	stub := newStubExecutor()
	stub.on(http.MethodGet, accountPath, ok(`{
		"id": 123,
		"debit_minutes": 600,
		"credit_minutes": 120,
		"language": "nl",
		"reservation_count": "2",
		"zone": {"id": "30", "name": "Centrum", "start_time": "2025-03-01T09:00:00+01:00", "end_time": "2025-03-01T21:00:00+01:00"}
	}`))

	account, err := NewAccountManager(stub, zerolog.Nop()).Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(123), account.ID)
	assert.Equal(t, 8*time.Hour, account.Balance())
	assert.Equal(t, FlexInt(2), account.ReservationCount)
	require.NotNil(t, account.Zone)
	assert.Equal(t, "30", account.Zone.ID)

	req := stub.sent(http.MethodGet, accountPath)
	require.Len(t, req, 1)
	assert.True(t, req[0].RequiresAuth)
}

func TestAccountGetPropagatesOutcome(t *testing.T) {
	stub := newStubExecutor()
	stub.on(http.MethodGet, accountPath, AuthFailed(nil))

	_, err := NewAccountManager(stub, zerolog.Nop()).Get(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestHistoryList(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		body      string
		wantLimit string
		wantCount int
	}{
		{
			name:      "bare array with default page",
			body:      `[{"license_plate": "AB123C", "start_time": "2025-02-01T10:00:00Z", "end_time": "2025-02-01T12:00:00Z", "minutes_used": 120}]`,
			wantLimit: "20",
			wantCount: 1,
		},
		{
			name:      "wrapped list",
			page:      Page{Limit: 5, Offset: 10},
			body:      `{"history": [{"license_plate": "AB123C"}, {"license_plate": "XY999Z"}]}`,
			wantLimit: "5",
			wantCount: 2,
		},
		{
			name:      "empty body",
			body:      ``,
			wantLimit: "20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubExecutor()
			stub.on(http.MethodGet, historyPath, ok(tt.body))

			entries, err := NewHistoryManager(stub, zerolog.Nop()).List(context.Background(), tt.page)
			require.NoError(t, err)
			assert.Len(t, entries, tt.wantCount)

			req := stub.sent(http.MethodGet, historyPath)
			require.Len(t, req, 1)
			assert.Equal(t, tt.wantLimit, req[0].Headers["x-data-limit"])
		})
	}
}

func TestHistoryListMissingKey(t *testing.T) {
	stub := newStubExecutor()
	stub.on(http.MethodGet, historyPath, ok(`{"items": []}`))

	_, err := NewHistoryManager(stub, zerolog.Nop()).List(context.Background(), Page{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestReservations(stub *stubExecutor) *ReservationManager {
	return NewReservationManager(stub, zerolog.Nop(), func() time.Time { return testNow })
}

func TestReservationAdd(t *testing.T) {
	stub := newStubExecutor()
	stub.on(http.MethodGet, reservationPath, ok(`{"reservations": [
		{"id": 1, "license_plate": "AB-123-C", "start_time": "2025-03-01T08:00:00Z", "end_time": "2025-03-01T11:00:00Z"},
		{"id": 2, "license_plate": "ZZ999Z", "start_time": "2025-03-01T12:00:00Z", "end_time": "2025-03-01T14:00:00Z"}
	]}`))
	stub.on(http.MethodPost, reservationPath, ok(`{"reservation_id": "77"}`))

	m := newTestReservations(stub)

	id, err := m.Add(context.Background(), NewReservation{
		Name:         "Visit",
		LicensePlate: "ab-123 c",
		StartTime:    "2025-03-01T12:00:00Z",
		EndTime:      "2025-03-01T13:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	posts := stub.sent(http.MethodPost, reservationPath)
	require.Len(t, posts, 1)
	payload, err := json.Marshal(posts[0].Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Visit",
		"license_plate": "AB123C",
		"start_time": "2025-03-01T12:00:00Z",
		"end_time": "2025-03-01T13:00:00Z"
	}`, string(payload))
}

func TestReservationAddRejects(t *testing.T) {
	tests := []struct {
		name    string
		in      NewReservation
		wantErr error
	}{
		{
			name:    "invalid plate",
			in:      NewReservation{LicensePlate: "AB#123", StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T13:00:00Z"},
			wantErr: validate.ErrInvalidInput,
		},
		{
			name:    "start in the past",
			in:      NewReservation{LicensePlate: "AB123C", StartTime: "2025-03-01T09:00:00Z", EndTime: "2025-03-01T13:00:00Z"},
			wantErr: validate.ErrInvalidInput,
		},
		{
			name:    "end before start",
			in:      NewReservation{LicensePlate: "AB123C", StartTime: "2025-03-01T12:00:00Z", EndTime: "2025-03-01T11:00:00Z"},
			wantErr: validate.ErrInvalidInput,
		},
		{
			name:    "not a timestamp",
			in:      NewReservation{LicensePlate: "AB123C", StartTime: "tomorrow", EndTime: "2025-03-01T11:00:00Z"},
			wantErr: validate.ErrInvalidInput,
		},
		{
			name:    "overlaps existing reservation",
			in:      NewReservation{LicensePlate: "ab-123-c", StartTime: "2025-03-01T10:30:00Z", EndTime: "2025-03-01T12:00:00Z"},
			wantErr: ErrOverlappingReservation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubExecutor()
			stub.on(http.MethodGet, reservationPath, ok(`[
				{"id": 1, "license_plate": "AB123C", "start_time": "2025-03-01T08:00:00Z", "end_time": "2025-03-01T11:00:00Z"}
			]`))

			_, err := newTestReservations(stub).Add(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, stub.sent(http.MethodPost, reservationPath))
		})
	}
}

func TestReservationAddInsufficientBalance(t *testing.T) {
	stub := newStubExecutor()
	stub.on(http.MethodGet, reservationPath, ok(`[]`))
	stub.on(http.MethodPost, reservationPath, Classify(http.StatusBadRequest, []byte(`{"code": "PV00052"}`)))

	_, err := newTestReservations(stub).Add(context.Background(), NewReservation{
		LicensePlate: "AB123C",
		StartTime:    "2025-03-01T12:00:00Z",
		EndTime:      "2025-03-01T13:00:00Z",
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsInsufficientBalance())
	assert.Equal(t, "Insufficient balance", apiErr.Message)
}

func TestReservationUpdateEnd(t *testing.T) {
	path := reservationItemPath(5)

	stub := newStubExecutor()
	stub.on(http.MethodGet, path, ok(`{"id": 5, "license_plate": "AB123C", "start_time": "2025-03-01T12:00:00Z", "end_time": "2025-03-01T13:00:00Z"}`))
	stub.on(http.MethodPatch, path, ok(`{}`))

	m := newTestReservations(stub)

	err := m.UpdateEnd(context.Background(), 5, "2025-03-01T11:00:00Z")
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
	assert.Empty(t, stub.sent(http.MethodPatch, path))

	require.NoError(t, m.UpdateEnd(context.Background(), 5, "2025-03-01T15:30:00Z"))
	patches := stub.sent(http.MethodPatch, path)
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]string{"end_time": "2025-03-01T15:30:00Z"}, patches[0].Payload)
}

func TestReservationUpdateEndMissing(t *testing.T) {
	stub := newStubExecutor()

	err := newTestReservations(stub).UpdateEnd(context.Background(), 9, "2025-03-01T15:30:00Z")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestReservationDeleteMany(t *testing.T) {
	stub := newStubExecutor()
	stub.on(http.MethodDelete, reservationItemPath(1), Success(http.StatusNoContent, nil))
	stub.on(http.MethodDelete, reservationItemPath(2), Success(http.StatusNoContent, nil))
	stub.on(http.MethodDelete, reservationItemPath(3), BusinessError(http.StatusBadRequest, "PV00034", "This reservation can no longer be changed"))

	result := newTestReservations(stub).DeleteMany(context.Background(), []int64{1, 2, 3})

	assert.Equal(t, 3, result.Requested)
	assert.ElementsMatch(t, []int64{1, 2}, result.Successful)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, int64(3), result.Failed[0].ID)
	assert.ErrorIs(t, result.Err(), ErrBusiness)
}

func TestFavorites(t *testing.T) {
	stub := newStubExecutor()
	stub.on(http.MethodGet, favoritePath, ok(`{"favorites": [{"id": "4", "name": "Mom", "license_plate": "AB123C"}]}`))
	stub.on(http.MethodPost, favoritePath, ok(`{"id": 5}`))
	stub.on(http.MethodPatch, favoriteItemPath(4), ok(`{}`))
	stub.on(http.MethodDelete, favoriteItemPath(4), Success(http.StatusNoContent, nil))

	m := NewFavoriteManager(stub, zerolog.Nop())
	ctx := context.Background()

	favorites, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, FlexInt(4), favorites[0].ID)
	lists := stub.sent(http.MethodGet, favoritePath)
	require.Len(t, lists, 1)
	assert.Equal(t, "100", lists[0].Headers["x-data-limit"])
	assert.Equal(t, "0", lists[0].Headers["x-data-offset"])

	id, err := m.Add(ctx, "Dad", "xy 99 zz")
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, favoritePayload{Name: "Dad", LicensePlate: "XY99ZZ"}, stub.sent(http.MethodPost, favoritePath)[0].Payload)

	_, err = m.Add(ctx, "Bad", "")
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	require.NoError(t, m.Update(ctx, 4, "Mom", "AB-123-C"))
	require.NoError(t, m.Delete(ctx, 4))

	err = m.Delete(ctx, 6)
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestBatchDeleteEmpty(t *testing.T) {
	called := false
	result := batchDelete(context.Background(), nil, func(context.Context, int64) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.NoError(t, result.Err())
}

func TestDeleteErrorUnwrap(t *testing.T) {
	cause := errors.New("gone")
	err := DeleteError{ID: 3, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, fmt.Sprintf("failed to delete 3: %v", cause), err.Error())
}
