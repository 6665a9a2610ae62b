package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/stub"
)

func runShell(t *testing.T, script string) (string, *stub.Server, *app.State) {
	t.Helper()

	srv := stub.NewServer(nil)
	stub.Seed(srv)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: ts.URL, ReadTimeout: 5 * time.Second},
		Storage: config.StorageConfig{Backend: "memory", Dir: dir},
		Auth:    config.AuthConfig{CredentialDir: dir},
		Booking: config.BookingConfig{RedirectTo: "/bookings"},
	}

	ctx := context.Background()
	state, err := app.New(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })

	var out bytes.Buffer
	require.NoError(t, newShell(state, &out).Run(ctx, strings.NewReader(script)))
	return out.String(), srv, state
}

func TestShell_Cart(t *testing.T) {
	out, _, state := runShell(t, strings.Join([]string{
		"add hw-hammer 2",
		"add hw-hammer 3",
		"add hw-nails",
		"qty hw-nails many",
		"qty hw-drill 2",
		"add nothing",
		"rm hw-nails",
		"cart",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "cart: 2 item(s), total 1700.00")
	assert.Contains(t, out, "cart: 5 item(s), total 4250.00")
	assert.Contains(t, out, "Invalid quantity: quantity must be a whole number")
	assert.Contains(t, out, `"hw-drill" is not in the cart.`)
	assert.Contains(t, out, `No product "nothing".`)
	assert.Contains(t, out, "Total: 4250.00")

	lines := state.Cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestShell_Booking(t *testing.T) {
	out, srv, _ := runShell(t, strings.Join([]string{
		"submit",
		"book shuttle-2 2026-11-02",
		"toggle 1 3 99",
		"submit",
		"login secret",
		"submit",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "Start a booking first")
	assert.Contains(t, out, "Lakeside Shuttle Nairobi -> Kisumu on 2026-11-02, 1200.00 per seat")
	assert.Contains(t, out, "Selected seats 1, 3, total 2400.00")
	assert.Contains(t, out, "This vehicle has no seat 99.")
	assert.Contains(t, out, "Please log in to continue")
	assert.Contains(t, out, "Booking confirmed! Seats 1, 3, total 2400.00")
	assert.Contains(t, out, "Going to /bookings.")

	bookings := srv.Bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, []int{1, 3}, bookings[0].Request.SeatNumbers())
}

func TestShell_BookingConflict(t *testing.T) {
	script := strings.Join([]string{
		"login secret",
		"book coach-1 2026-12-24",
		"toggle 1 2",
		"submit",
		"refresh",
		"submit",
		"quit",
	}, "\n")

	srv := stub.NewServer(nil)
	stub.Seed(srv)
	srv.Book("coach-1", "2026-12-24", 2)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: ts.URL},
		Storage: config.StorageConfig{Backend: "memory", Dir: dir},
		Auth:    config.AuthConfig{CredentialDir: dir},
	}
	state, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer state.Close()

	var out bytes.Buffer
	require.NoError(t, newShell(state, &out).Run(context.Background(), strings.NewReader(script)))

	// seat 2 is already booked when the map is fetched, so only seat 1 is selected
	assert.Contains(t, out.String(), "Seat 2 is already booked.")
	assert.Contains(t, out.String(), "Booking confirmed! Seats 1,")
}

func TestShell_UnknownCommand(t *testing.T) {
	out, _, _ := runShell(t, "dance\nhelp\n")

	assert.Contains(t, out, `Unknown command "dance"`)
	assert.Contains(t, out, "book <vehicle> <date>")
}
