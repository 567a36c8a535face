package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/api"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/hash"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/store"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/app"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/auth"
	"github.com/BRAITOU555/reservationvtc6/internal/common/bus"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
)

type stubNotifier struct{ fail bool }

func (n *stubNotifier) Send(ctx context.Context, to, subject, body string) error {
	if n.fail {
		return domain.ErrCollaborator
	}
	return nil
}

type stubEstimator struct{}

func (stubEstimator) Estimate(ctx context.Context, origin, destination string, departure time.Time) (domain.RouteEstimate, error) {
	return domain.RouteEstimate{DistanceMeters: 5000, DurationSeconds: 900}, nil
}

func newServer(t *testing.T) (*httptest.Server, *bus.Bus) {
	t.Helper()
	logger := log.New("api-test")
	b := bus.New(logger)
	t.Cleanup(b.Close)

	svc := app.NewService(
		logger,
		store.NewFileStore(filepath.Join(t.TempDir(), "db.json"), logger),
		&stubNotifier{},
		hash.NewBcrypt(),
		stubEstimator{},
		b,
		auth.NewManager("test-secret", time.Hour),
		app.Config{BaseURL: "http://localhost:3001", OperatorEmail: "ops@example.com", NotifyTimeout: time.Second},
	)

	srv := httptest.NewServer(api.NewHandler(svc, logger).Router(nil))
	t.Cleanup(srv.Close)
	return srv, b
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestReserveScenario(t *testing.T) {
	srv, _ := newServer(t)

	resp := postJSON(t, srv.URL+"/reserve",
		`{"pickupLocation":"A","dropoffLocation":"B","reservationType":"immediate","discountedFare":12.34}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.Reservation
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.TypeImmediate, created.ReservationType)
	assert.Equal(t, 12.34, created.DiscountedFare)

	listResp, err := http.Get(srv.URL + "/reservations")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var list []domain.Reservation
	decodeBody(t, listResp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestReserveNonNumericFare(t *testing.T) {
	srv, _ := newServer(t)

	resp := postJSON(t, srv.URL+"/reserve",
		`{"pickupLocation":"A","dropoffLocation":"B","reservationType":"immediate","discountedFare":"12.34"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReserveEmptyAddress(t *testing.T) {
	srv, b := newServer(t)
	sub := b.Subscribe()
	defer sub.Cancel()

	resp := postJSON(t, srv.URL+"/reserve",
		`{"pickupLocation":"","dropoffLocation":"B","reservationType":"immediate","discountedFare":1}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	select {
	case ev := <-sub.C:
		t.Fatalf("no push event expected for failed validation, got %v", ev)
	default:
	}
}

func TestReservePublishesToChannel(t *testing.T) {
	srv, b := newServer(t)
	sub := b.Subscribe()
	defer sub.Cancel()

	resp := postJSON(t, srv.URL+"/reserve",
		`{"pickupLocation":"A","dropoffLocation":"B","reservationType":"immediate","discountedFare":5}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	select {
	case ev := <-sub.C:
		update, ok := ev.(domain.ReservationUpdate)
		require.True(t, ok)
		assert.Equal(t, "reservation-update", update.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a reservation-update event")
	}
}

func TestDriverLifecycleOverHTTP(t *testing.T) {
	srv, _ := newServer(t)

	resp := postJSON(t, srv.URL+"/driver-register",
		`{"email":"d@x.com","phone":"0600000000","name":"Dana","password":"secret1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reg struct {
		Success  bool   `json:"success"`
		DriverID string `json:"driverId"`
		Notified bool   `json:"notified"`
	}
	decodeBody(t, resp, &reg)
	assert.True(t, reg.Success)
	assert.True(t, reg.Notified)
	require.NotEmpty(t, reg.DriverID)

	// profile update must fail before verification
	profResp := postJSON(t, srv.URL+"/driver-profile", `{"id":"`+reg.DriverID+`","firstName":"Dana"}`)
	profResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, profResp.StatusCode)
}

func TestVerifyDriverUnknownToken(t *testing.T) {
	srv, _ := newServer(t)

	badResp, err := http.Get(srv.URL + "/verify-driver?token=nope")
	require.NoError(t, err)
	badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func TestAdminRegisterAndLoginOverHTTP(t *testing.T) {
	srv, _ := newServer(t)

	regResp := postJSON(t, srv.URL+"/register", `{"username":"boss","password":"secret1"}`)
	regResp.Body.Close()
	require.Equal(t, http.StatusCreated, regResp.StatusCode)

	okResp := postJSON(t, srv.URL+"/login", `{"username":"boss","password":"secret1"}`)
	require.Equal(t, http.StatusOK, okResp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, okResp, &login)
	assert.NotEmpty(t, login.Token)

	badResp := postJSON(t, srv.URL+"/login", `{"username":"boss","password":"wrong-pass"}`)
	badResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, badResp.StatusCode)
}

func TestEstimateOverHTTP(t *testing.T) {
	srv, _ := newServer(t)

	resp := postJSON(t, srv.URL+"/estimate",
		`{"pickupLocation":"A","dropoffLocation":"B","reservationType":"immediate"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var quote domain.FareQuote
	decodeBody(t, resp, &quote)
	// 5 km, 15 min: 5*1.20 + 0.25*15 = 9.75, minus 15% = 8.2875
	assert.InDelta(t, 9.75, quote.EstimatedFare, 1e-9)
	assert.InDelta(t, 8.2875, quote.DiscountedFare, 1e-9)
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
