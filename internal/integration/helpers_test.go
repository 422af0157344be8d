package integration_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

// Generated ids, timestamps and decimal rendering vary run to run; those
// fields are asserted separately where they matter.
var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
	"startsAt":  {},
	"id":        {},
	"price":     {},
	"amount":    {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

func resetState(t testing.TB, app *TestApp) {
	t.Helper()

	ctx := context.Background()

	_, err := app.DB.Exec(ctx, "TRUNCATE bookings, shows, users CASCADE")
	require.NoError(t, err)

	require.NoError(t, app.Redis.FlushAll(ctx).Err())

	app.Mailer.Reset()
}

func insertShow(t testing.TB, app *TestApp, id uuid.UUID, title string, price string, occupied map[string]string) {
	t.Helper()

	occupiedJSON, err := json.Marshal(occupied)
	require.NoError(t, err)

	_, err = app.DB.Exec(context.Background(),
		`INSERT INTO shows (id, movie_title, starts_at, price, occupied_seats)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, title, time.Now().Add(48*time.Hour).UTC(), decimal.RequireFromString(price), occupiedJSON)
	require.NoError(t, err)
}

func insertUser(t testing.TB, app *TestApp, id, name, email string) {
	t.Helper()

	_, err := app.DB.Exec(context.Background(),
		"INSERT INTO users (id, name, email) VALUES ($1, $2, $3)", id, name, email)
	require.NoError(t, err)
}

// insertBooking writes a booking directly, bypassing the service, so tests
// can fabricate state the running process never produced (e.g. a booking
// left behind by a crash).
func insertBooking(t testing.TB, app *TestApp, b bookingRow) {
	t.Helper()

	_, err := app.DB.Exec(context.Background(),
		`INSERT INTO bookings (id, show_id, user_id, seats, amount, is_paid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.id, b.showID, b.userID, b.seats, decimal.RequireFromString(b.amount), b.isPaid, b.createdAt)
	require.NoError(t, err)
}

type bookingRow struct {
	id        uuid.UUID
	showID    uuid.UUID
	userID    string
	seats     []string
	amount    string
	isPaid    bool
	createdAt time.Time
}

func getOccupiedSeats(t testing.TB, app *TestApp, showID uuid.UUID) map[string]string {
	t.Helper()

	var raw []byte
	err := app.DB.QueryRow(context.Background(),
		"SELECT occupied_seats FROM shows WHERE id = $1", showID).Scan(&raw)
	require.NoError(t, err)

	occupied := map[string]string{}
	require.NoError(t, json.Unmarshal(raw, &occupied))

	return occupied
}

func bookingExists(t testing.TB, app *TestApp, bookingID uuid.UUID) bool {
	t.Helper()

	var exists bool
	err := app.DB.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)", bookingID).Scan(&exists)
	require.NoError(t, err)

	return exists
}

func bookingIsPaid(t testing.TB, app *TestApp, bookingID uuid.UUID) bool {
	t.Helper()

	var isPaid bool
	err := app.DB.QueryRow(context.Background(),
		"SELECT is_paid FROM bookings WHERE id = $1", bookingID).Scan(&isPaid)
	require.NoError(t, err)

	return isPaid
}

func signedCheckoutCompletedEvent(bookingID uuid.UUID) (payload []byte, signature string) {
	payload = []byte(fmt.Sprintf(`{
		"id": "evt_integration_1",
		"object": "event",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_integration_1",
				"object": "checkout.session",
				"metadata": {"booking_id": %q}
			}
		}
	}`, stripe.APIVersion, bookingID))

	timestamp := time.Now().Unix()

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)

	signature = fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))

	return payload, signature
}
