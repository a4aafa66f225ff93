package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uvm-fablab/scheduler/internal/handler"
	"github.com/uvm-fablab/scheduler/internal/logger"
	"github.com/uvm-fablab/scheduler/internal/models"
	"github.com/uvm-fablab/scheduler/internal/service"
	"github.com/uvm-fablab/scheduler/internal/store"
)

// TestScheduler_FullFlow drives the whole stack over a real listener:
// login, create, conflict, move, delete.
func TestScheduler_FullFlow(t *testing.T) {
	dir := t.TempDir()

	st, err := store.NewSQLiteStore(filepath.Join(dir, "bookings.db"))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, st.Close())
	}()

	usersCSV := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(usersCSV, []byte("name,pin,role\nAda Lovelace,1234,Admin\n"), 0o644))

	fleet := &service.FleetConfig{Printers: []models.Printer{{ID: 1, Name: "Prusa MK4"}}}
	reservations := service.NewReservationService(st, fleet)
	auth := service.NewAuthService(service.NewCSVCredentialSource(usersCSV))
	api := handler.NewAPIHandler(reservations, auth, logger.NewWithWriter(&bytes.Buffer{}), "")

	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	post := func(path string, payload any) *http.Response {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		return resp
	}
	do := func(method, path string, payload any) *http.Response {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}
	closeBody := func(resp *http.Response) {
		require.NoError(t, resp.Body.Close())
	}

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Login
	resp := post("/api/login", map[string]string{"name": "ada lovelace", "pin": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	closeBody(resp)
	assert.Equal(t, "admin", user.Role)

	// Create two back-to-back bookings
	resp = post("/api/bookings", map[string]any{
		"id": "morning", "printer": 1, "owner": user.Name,
		"start": start.Format(time.RFC3339), "end": start.Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	closeBody(resp)

	resp = post("/api/bookings", map[string]any{
		"id": "midday", "printer": 1, "owner": user.Name,
		"start": start.Add(time.Hour).Format(time.RFC3339), "end": start.Add(2 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "back-to-back bookings are not conflicts")
	closeBody(resp)

	// Overlapping create is rejected
	resp = post("/api/bookings", map[string]any{
		"id": "overlap", "printer": 1, "owner": user.Name,
		"start": start.Add(30 * time.Minute).Format(time.RFC3339), "end": start.Add(45 * time.Minute).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	closeBody(resp)

	// Move the first booking into the second one's slot: rejected
	resp = do(http.MethodPut, "/api/bookings/morning", map[string]string{
		"start": start.Add(90 * time.Minute).Format(time.RFC3339),
		"end":   start.Add(2 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	closeBody(resp)

	// Move it somewhere free: accepted
	resp = do(http.MethodPut, "/api/bookings/morning", map[string]string{
		"start": start.Add(3 * time.Hour).Format(time.RFC3339),
		"end":   start.Add(4 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	closeBody(resp)

	// List is ordered by start
	resp, err = http.Get(srv.URL + "/api/bookings")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bookings []models.Booking
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bookings))
	closeBody(resp)
	require.Len(t, bookings, 2)
	assert.Equal(t, "midday", bookings[0].ID)
	assert.Equal(t, "morning", bookings[1].ID)

	// Delete twice
	resp = do(http.MethodDelete, "/api/bookings/midday", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	closeBody(resp)

	resp = do(http.MethodDelete, "/api/bookings/midday", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	closeBody(resp)
}

// TestScheduler_ConcurrentCreates checks the no-double-booking property
// end to end: N clients race for the same slot, one wins.
func TestScheduler_ConcurrentCreates(t *testing.T) {
	dir := t.TempDir()

	st, err := store.NewSQLiteStore(filepath.Join(dir, "bookings.db"))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, st.Close())
	}()

	reservations := service.NewReservationService(st, nil)
	auth := service.NewAuthService(service.NewCSVCredentialSource(filepath.Join(dir, "users.csv")))
	api := handler.NewAPIHandler(reservations, auth, logger.NewWithWriter(&bytes.Buffer{}), "")

	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	const clients = 8
	codes := make(chan int, clients)
	for i := 0; i < clients; i++ {
		go func(i int) {
			payload, _ := json.Marshal(map[string]any{
				"id":      fmt.Sprintf("client-%d", i),
				"printer": 1,
				"owner":   "racer",
				"start":   start.Format(time.RFC3339),
				"end":     start.Add(time.Hour).Format(time.RFC3339),
			})
			resp, err := http.Post(srv.URL+"/api/bookings", "application/json", bytes.NewReader(payload))
			if err != nil {
				codes <- -1
				return
			}
			_ = resp.Body.Close()
			codes <- resp.StatusCode
		}(i)
	}

	var ok, conflict int
	for i := 0; i < clients; i++ {
		switch <-codes {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		default:
			t.Fatal("unexpected response")
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, clients-1, conflict)
}
