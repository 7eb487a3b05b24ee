package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bookhook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testBooking() *models.BookingRecord {
	return &models.BookingRecord{
		BookingID: "BK-ABC1234",
		CreatedAt: "2024-05-01T10:00:00.000Z",
		Domain:    models.DomainBus,
		Details: map[string]any{
			"source_city":      "Hyderabad",
			"destination_city": "Bangalore",
			"travel_date":      "2024-05-01",
			"travel_time":      nil,
			"seat_type":        nil,
			"num_passengers":   nil,
		},
		Passenger: models.Passenger{Name: strPtr("Asha"), Phone: strPtr("9999999999")},
		Raw:       "book a bus from Hyderabad to Bangalore",
	}
}

type capture struct {
	calls  atomic.Int32
	body   []byte
	header http.Header
}

func newCaptureServer(t *testing.T, status int, reply string) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls.Add(1)
		c.header = r.Header.Clone()
		c.body, _ = io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(ts.Close)
	return ts, c
}

func TestForwardBookingWithToken(t *testing.T) {
	ts, c := newCaptureServer(t, http.StatusOK, `{"result":"ok"}`)
	f := NewForwarder(ts.URL, "shared-secret", time.Second)

	reply, err := f.Forward(context.Background(), testBooking())
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"ok"}`, string(reply))

	assert.EqualValues(t, 1, c.calls.Load())
	assert.Equal(t, "application/json", c.header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(c.body, &body))
	assert.Equal(t, "shared-secret", body["token"])
	assert.Equal(t, "BK-ABC1234", body["bookingId"])
	assert.Equal(t, "bus", body["domain"])

	details := body["details"].(map[string]any)
	assert.Equal(t, "Hyderabad", details["source_city"])
	assert.Contains(t, details, "seat_type")
	assert.Nil(t, details["seat_type"])

	passenger := body["passenger"].(map[string]any)
	assert.Equal(t, "Asha", passenger["name"])
	assert.Equal(t, "9999999999", passenger["phone"])
}

func TestForwardWithoutSecretOmitsToken(t *testing.T) {
	ts, c := newCaptureServer(t, http.StatusOK, "")
	f := NewForwarder(ts.URL, "", time.Second)

	rec := &models.CancellationRecord{Action: models.ActionCancel, BookingID: "BK-XYZ9876", CreatedAt: "2024-05-01T10:00:00.000Z", Raw: "cancel BK-XYZ9876"}
	_, err := f.Forward(context.Background(), rec)
	require.NoError(t, err)

	assert.JSONEq(t, `{"action":"CANCEL","bookingId":"BK-XYZ9876","createdAt":"2024-05-01T10:00:00.000Z","raw":"cancel BK-XYZ9876"}`, string(c.body))
}

func TestForwardWithoutURL(t *testing.T) {
	f := NewForwarder("  ", "secret", time.Second)

	_, err := f.Forward(context.Background(), testBooking())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrTransport)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "APPS_SCRIPT_URL", cfgErr.Setting)
}

func TestForwardNon2xx(t *testing.T) {
	ts, c := newCaptureServer(t, http.StatusInternalServerError, "oops")
	f := NewForwarder(ts.URL, "", time.Second)

	_, err := f.Forward(context.Background(), testBooking())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, http.StatusInternalServerError, trErr.StatusCode)
	assert.EqualValues(t, 1, c.calls.Load())
}

func TestForwardNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	f := NewForwarder(url, "", time.Second)
	_, err := f.Forward(context.Background(), testBooking())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	assert.Zero(t, trErr.StatusCode)
}

func TestForwardTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(ts.Close)

	f := NewForwarder(ts.URL, "", 50*time.Millisecond)
	_, err := f.Forward(context.Background(), testBooking())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "ok", Kind(nil))
	assert.Equal(t, "configuration", Kind(&ConfigurationError{Setting: "x"}))
	assert.Equal(t, "transport", Kind(&TransportError{StatusCode: 502}))
	assert.Equal(t, "internal", Kind(errors.New("other")))
}
