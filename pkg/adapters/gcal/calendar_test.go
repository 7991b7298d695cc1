package gcal_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/agenda/pkg/adapters/gcal"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

var _ ports.Calendar = (*gcal.Calendar)(nil)

// fakeAPI mimics the two Calendar v3 endpoints the adapter calls.
type fakeAPI struct {
	mu       sync.Mutex
	items    []map[string]any
	status   int
	queries  []string
	inserted []map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, "/calendars/team@example.com/events") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"Forbidden"}}`)
		return
	}

	switch r.Method {
	case http.MethodGet:
		f.queries = append(f.queries, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(map[string]any{"items": f.items})
	case http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.inserted = append(f.inserted, body)
		body["id"] = "evt-42"
		body["htmlLink"] = "https://calendar.google.com/event?eid=42"
		_ = json.NewEncoder(w).Encode(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newCalendar(t *testing.T, api http.Handler) (*gcal.Calendar, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cal, err := gcal.New(context.Background(), "team@example.com",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return cal, srv
}

var friday = time.Date(2026, time.October, 23, 14, 0, 0, 0, time.UTC)

func TestCheckFree(t *testing.T) {
	ctx := context.Background()

	t.Run("no events", func(t *testing.T) {
		api := &fakeAPI{}
		cal, _ := newCalendar(t, api)

		free, err := cal.CheckFree(ctx, friday, domain.SlotDuration)
		require.NoError(t, err)
		assert.True(t, free)

		require.Len(t, api.queries, 1)
		assert.Contains(t, api.queries[0], "timeMin=2026-10-23T14%3A00%3A00Z")
		assert.Contains(t, api.queries[0], "timeMax=2026-10-23T14%3A30%3A00Z")
		assert.Contains(t, api.queries[0], "singleEvents=true")
	})

	t.Run("busy", func(t *testing.T) {
		cal, _ := newCalendar(t, &fakeAPI{items: []map[string]any{{"id": "a", "status": "confirmed"}}})

		free, err := cal.CheckFree(ctx, friday, domain.SlotDuration)
		require.NoError(t, err)
		assert.False(t, free)
	})

	t.Run("transparent and cancelled events do not block", func(t *testing.T) {
		cal, _ := newCalendar(t, &fakeAPI{items: []map[string]any{
			{"id": "a", "status": "cancelled"},
			{"id": "b", "status": "confirmed", "transparency": "transparent"},
		}})

		free, err := cal.CheckFree(ctx, friday, domain.SlotDuration)
		require.NoError(t, err)
		assert.True(t, free)
	})
}

func TestCreateEvent(t *testing.T) {
	api := &fakeAPI{}
	cal, _ := newCalendar(t, api)

	booking, err := cal.CreateEvent(context.Background(), friday, domain.SlotDuration, "Scheduled Appointment")
	require.NoError(t, err)

	assert.Equal(t, "evt-42", booking.EventID)
	assert.Equal(t, "https://calendar.google.com/event?eid=42", booking.Link)
	assert.True(t, friday.Equal(booking.Start))
	assert.Contains(t, booking.Confirmation, "Booked for Friday, Oct 23 at 02:00 PM")
	assert.Contains(t, booking.Confirmation, "(https://calendar.google.com/event?eid=42)")

	require.Len(t, api.inserted, 1)
	body := api.inserted[0]
	assert.Equal(t, "Scheduled Appointment", body["summary"])
	assert.Equal(t, "2026-10-23T14:00:00Z", body["start"].(map[string]any)["dateTime"])
	assert.Equal(t, "2026-10-23T14:30:00Z", body["end"].(map[string]any)["dateTime"])
	assert.Equal(t, "UTC", body["start"].(map[string]any)["timeZone"])
}

func TestErrorClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("api rejection is a backend error", func(t *testing.T) {
		cal, _ := newCalendar(t, &fakeAPI{status: http.StatusForbidden})

		_, err := cal.CheckFree(ctx, friday, domain.SlotDuration)
		assert.ErrorIs(t, err, domain.ErrBackend)

		_, err = cal.CreateEvent(ctx, friday, domain.SlotDuration, "x")
		assert.ErrorIs(t, err, domain.ErrBackend)
	})

	t.Run("unreachable service", func(t *testing.T) {
		cal, srv := newCalendar(t, &fakeAPI{})
		srv.Close()

		_, err := cal.CheckFree(ctx, friday, domain.SlotDuration)
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
		assert.NotErrorIs(t, err, domain.ErrBackend)
	})

	t.Run("deadline", func(t *testing.T) {
		slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		cal, _ := newCalendar(t, slow)

		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err := cal.CheckFree(ctx, friday, domain.SlotDuration)
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	})
}
