package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/dhparkeren/parkeren"
)

// newFakeService serves the endpoints the commands use and writes a config
// pointing at it
func newFakeService(t *testing.T) (string, *atomic.Int32, *atomic.Int32) {
	t.Helper()

	var logins, deletes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/session" && r.Method == http.MethodGet:
			logins.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
			_, _ = w.Write([]byte(`{}`))
		case r.URL.Path == "/api/session" && r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/account/0":
			_, _ = w.Write([]byte(`{"id": 1, "debit_minutes": 100, "zone": {"id": "30", "name": "Centrum"}}`))
		case r.URL.Path == "/api/reservation" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[
				{"id": 1, "license_plate": "AB123C", "start_time": "2020-01-01T10:00:00Z", "end_time": "2020-01-01T11:00:00Z"},
				{"id": 2, "license_plate": "XY999Z", "start_time": "2099-01-01T10:00:00Z", "end_time": "2099-01-01T11:00:00Z"}
			]`))
		case r.URL.Path == "/api/favorite":
			_, _ = w.Write([]byte(`[{"id": 3, "name": "Mom", "license_plate": "AB123C"}]`))
		case r.Method == http.MethodDelete:
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "account:\n  username: visitor\n  password: secret\n" +
		"client:\n  base_url: " + server.URL + "\n  retry_count: 0\n" +
		"filter:\n  ended: Ended\n" +
		"logging:\n  level: error\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path, &logins, &deletes
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() {
		filterExpr, preset, dryRun, noConfirm = "", "", false, false
	})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	_ = closeApp(rootCmd, nil)
	return err
}

func TestTestCommandSharesOneLogin(t *testing.T) {
	path, logins, _ := newFakeService(t)

	require.NoError(t, runRoot(t, "--config", path, "test"))
	assert.Equal(t, int32(1), logins.Load())
	assert.Nil(t, client, "client must be closed after the command")
}

func TestReservationsDeleteByPreset(t *testing.T) {
	path, _, deletes := newFakeService(t)

	require.NoError(t, runRoot(t, "--config", path, "--yes", "reservations", "delete", "--preset", "ended"))
	assert.Equal(t, int32(1), deletes.Load())
}

func TestReservationsDeleteDryRun(t *testing.T) {
	path, _, deletes := newFakeService(t)

	require.NoError(t, runRoot(t, "--config", path, "--dry-run", "reservations", "delete", "1", "2"))
	assert.Equal(t, int32(0), deletes.Load())
}

func TestReservationsListUnknownPreset(t *testing.T) {
	path, _, _ := newFakeService(t)

	err := runRoot(t, "--config", path, "reservations", "list", "--preset", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preset 'missing' not found")
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "42"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42}, ids)

	_, err = parseIDs([]string{"x"})
	assert.Error(t, err)
}

func TestReportDeletes(t *testing.T) {
	assert.NoError(t, reportDeletes(parkeren.BatchDeleteResult{Requested: 1, Successful: []int64{1}}, "favorite"))

	err := reportDeletes(parkeren.BatchDeleteResult{
		Requested: 2,
		Failed:    []parkeren.DeleteError{{ID: 2, Err: parkeren.ErrTransport}},
	}, "favorite")
	assert.EqualError(t, err, "failed to delete 1 of 2 favorites")
}
