package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/internal/donation"
	"lifeline/internal/donor"
	"lifeline/internal/inventory"
	"lifeline/internal/ledger"
	"lifeline/internal/matching"
	"lifeline/internal/notify"
	"lifeline/internal/platform/middleware"
	"lifeline/internal/request"
	"lifeline/internal/stats"
	httptransport "lifeline/internal/transport/http"
	"lifeline/pkg/domain"
)

const testSigningKey = "router-test-signing-key"

// captureSink records dispatched notifications so tests can assert fan-out.
type captureSink struct {
	mu   sync.Mutex
	sent []notify.Contact
}

func (s *captureSink) Send(_ context.Context, contact notify.Contact, _ notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, contact)
	return nil
}

func (s *captureSink) recipients() []notify.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Contact(nil), s.sent...)
}

type testEnv struct {
	handler    http.Handler
	donorStore *donor.InMemoryStore
	requests   *request.Service
	sink       *captureSink
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	donorStore := donor.NewInMemoryStore()
	donors := donor.New(donorStore, donor.WithLogger(log))
	requests := request.New(request.NewInMemoryStore(), request.WithLogger(log))
	inv := inventory.New(inventory.NewInMemoryStore(), inventory.WithLogger(log))

	chainStore := ledger.NewInMemoryStore()
	chain := ledger.New(chainStore, ledger.WithLogger(log), ledger.WithDifficulty(0))
	require.NoError(t, chain.Init(context.Background()))

	donationStore := donation.NewInMemoryStore()
	coordinator := donation.NewCoordinator(donors, requests, inv, chain, donationStore,
		donation.WithLogger(log))

	sink := &captureSink{}
	orchestrator := matching.NewOrchestrator(donorStore, sink, matching.WithLogger(log))

	statistics := stats.New(donationStore, requests, inv, chainStore, stats.WithLogger(log))

	handler := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Validator:    middleware.NewJWTValidator(testSigningKey),
		Donors:       donors,
		Requests:     requests,
		Inventory:    inv,
		Ledger:       chain,
		Coordinator:  coordinator,
		Orchestrator: orchestrator,
		Stats:        statistics,
	})
	return &testEnv{
		handler:    handler,
		donorStore: donorStore,
		requests:   requests,
		sink:       sink,
	}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func (e *testEnv) seedDonor(t *testing.T, bt domain.BloodType, lat, lon float64) donor.Donor {
	t.Helper()
	d := donor.Donor{
		ID:        domain.NewDonorID(),
		UserID:    "user-" + domain.NewDonorID().String(),
		Name:      "Test Donor",
		Email:     "donor@example.com",
		BloodType: bt,
		Latitude:  lat,
		Longitude: lon,
		Available: true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.donorStore.Save(context.Background(), d))
	return d
}

func donorToken(t *testing.T, d donor.Donor) string {
	return signToken(t, jwt.MapClaims{
		"user_id":  d.UserID,
		"donor_id": d.ID.String(),
		"role":     "donor",
	})
}

func hospitalToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{"user_id": "staff-1", "role": "hospital"})
}

func adminToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{"user_id": "admin-1", "role": "admin"})
}

func TestAuthErrors(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name          string
		method        string
		path          string
		token         string
		expectedCode  int
		expectedError string
	}{
		{
			name:          "missing token",
			method:        http.MethodGet,
			path:          "/api/requests/active",
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Missing or invalid Authorization header",
		},
		{
			name:          "garbage token",
			method:        http.MethodGet,
			path:          "/api/requests/active",
			token:         "not-a-jwt",
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid or expired token",
		},
		{
			name:          "wrong key",
			method:        http.MethodGet,
			path:          "/api/requests/active",
			token:         mustSignWithKey(t, "some-other-key"),
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid or expired token",
		},
		{
			name:          "non-admin on admin route",
			method:        http.MethodGet,
			path:          "/api/admin/statistics",
			token:         hospitalToken(t),
			expectedCode:  http.StatusForbidden,
			expectedError: "Admin access required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.expectedCode, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, tt.expectedError, body["error_description"])
		})
	}
}

func mustSignWithKey(t *testing.T, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1"})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestCreateRequest_NotifiesNearbyCompatibleDonors(t *testing.T) {
	env := newEnv(t)

	// Two compatible donors near the hospital, one compatible donor far away,
	// one incompatible donor next door.
	near1 := env.seedDonor(t, domain.BloodONeg, 40.0, 29.0)
	near2 := env.seedDonor(t, domain.BloodAPos, 40.01, 29.0)
	env.seedDonor(t, domain.BloodONeg, 45.0, 29.0) // ~550 km away
	env.seedDonor(t, domain.BloodBPos, 40.0, 29.0) // cannot donate to A+

	rr := env.do(t, http.MethodPost, "/api/requests", hospitalToken(t), map[string]any{
		"hospital_name": "City Hospital",
		"blood_type":    "A+",
		"units_needed":  3,
		"urgency":       "high",
		"latitude":      40.0,
		"longitude":     29.0,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, float64(2), body["donors_notified"])
	assert.Equal(t, float64(0), body["dispatch_failed"])

	req := body["request"].(map[string]any)
	assert.Equal(t, "A+", req["blood_type"])
	assert.Equal(t, "OPEN", req["status"])

	recipients := env.sink.recipients()
	require.Len(t, recipients, 2)
	got := map[string]bool{recipients[0].DonorID: true, recipients[1].DonorID: true}
	assert.True(t, got[near1.ID.String()])
	assert.True(t, got[near2.ID.String()])
}

func TestCreateRequest_InvalidBody(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name          string
		body          map[string]any
		expectedError string
	}{
		{
			name: "unknown blood type",
			body: map[string]any{
				"hospital_name": "H", "blood_type": "Z+", "units_needed": 1, "urgency": "low",
			},
			expectedError: "invalid blood type",
		},
		{
			name: "unknown urgency",
			body: map[string]any{
				"hospital_name": "H", "blood_type": "A+", "units_needed": 1, "urgency": "extreme",
			},
			expectedError: "invalid urgency",
		},
		{
			name: "zero units",
			body: map[string]any{
				"hospital_name": "H", "blood_type": "A+", "units_needed": 0, "urgency": "low",
			},
			expectedError: "units needed must be positive",
		},
		{
			name: "unknown field",
			body: map[string]any{
				"hospital_name": "H", "blood_type": "A+", "units_needed": 1, "urgency": "low",
				"priority": 9,
			},
			expectedError: "invalid request body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/requests", hospitalToken(t), tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, tt.expectedError, body["error_description"])
		})
	}
}

func TestCommitDonation_FullFlow(t *testing.T) {
	env := newEnv(t)
	d := env.seedDonor(t, domain.BloodONeg, 40.0, 29.0)
	token := donorToken(t, d)

	created, err := env.requests.Create(context.Background(), request.CreateParams{
		HospitalName: "City Hospital",
		BloodType:    domain.BloodAPos,
		UnitsNeeded:  2,
		Urgency:      domain.UrgencyHigh,
		Latitude:     40.0,
		Longitude:    29.0,
	})
	require.NoError(t, err)

	rr := env.do(t, http.MethodPost, "/api/donations", token, map[string]any{
		"request_id": created.ID.String(),
		"units":      5,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, float64(2), body["units_applied"]) // clamped to outstanding need
	assert.Equal(t, true, body["request_completed"])

	dv := body["donation"].(map[string]any)
	assert.Equal(t, created.ID.String(), dv["request_id"])
	assert.Equal(t, "O-", dv["blood_type"])
	assert.Equal(t, false, dv["ledger_pending"])

	reward := body["donor"].(map[string]any)
	assert.Equal(t, float64(1), reward["total_donations"])
	assert.Equal(t, float64(donor.PointsPerDonation), reward["points"])
	assert.Contains(t, reward["badges"], "first_hero")

	// History lists the committed donation.
	rr = env.do(t, http.MethodGet, "/api/donations/mine", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	mine := decodeBody(t, rr)["donations"].([]any)
	require.Len(t, mine, 1)

	// The request is now terminal.
	rr = env.do(t, http.MethodGet, "/api/requests/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "FULFILLED", decodeBody(t, rr)["status"])

	// A second commit against the closed request is rejected.
	rr = env.do(t, http.MethodPost, "/api/donations", token, map[string]any{
		"request_id": created.ID.String(),
		"units":      1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "request_closed", decodeBody(t, rr)["error"])
}

func TestCommitDonation_RequiresDonorIdentity(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/api/donations", hospitalToken(t), map[string]any{
		"request_id": domain.NewRequestID().String(),
		"units":      1,
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "donor identity required", decodeBody(t, rr)["error_description"])
}

func TestDonorSelfService(t *testing.T) {
	env := newEnv(t)
	d := env.seedDonor(t, domain.BloodBNeg, 10.0, 10.0)
	token := donorToken(t, d)

	rr := env.do(t, http.MethodGet, "/api/donor/profile", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	profile := decodeBody(t, rr)
	assert.Equal(t, d.ID.String(), profile["id"])
	assert.Equal(t, true, profile["available"])

	rr = env.do(t, http.MethodPost, "/api/donor/location", token, map[string]any{
		"latitude": 41.5, "longitude": 28.9,
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/donor/location", token, map[string]any{
		"latitude": 95.0, "longitude": 28.9,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/donor/availability", token, map[string]any{
		"available": false,
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/donor/profile", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	profile = decodeBody(t, rr)
	assert.Equal(t, 41.5, profile["latitude"])
	assert.Equal(t, false, profile["available"])
}

func TestPublicReads(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodGet, "/api/inventory", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decodeBody(t, rr)["inventory"].([]any)
	assert.Len(t, entries, 8)

	rr = env.do(t, http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/leaderboard?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminInventoryAdjust(t *testing.T) {
	env := newEnv(t)
	token := adminToken(t)

	rr := env.do(t, http.MethodPost, "/api/admin/inventory/adjust", token, map[string]any{
		"blood_type": "A+", "delta": 25,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, float64(25), body["units"])
	assert.Equal(t, "NORMAL", body["level"])

	rr = env.do(t, http.MethodPost, "/api/admin/inventory/adjust", token, map[string]any{
		"blood_type": "A+", "delta": -100,
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "insufficient_inventory", decodeBody(t, rr)["error"])
}

func TestAdminRequestClose(t *testing.T) {
	env := newEnv(t)

	created, err := env.requests.Create(context.Background(), request.CreateParams{
		HospitalName: "H", BloodType: domain.BloodOPos, UnitsNeeded: 4,
		Urgency: domain.UrgencyMedium,
	})
	require.NoError(t, err)

	rr := env.do(t, http.MethodPost, "/api/admin/requests/"+created.ID.String()+"/close", adminToken(t), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "CLOSED", decodeBody(t, rr)["status"])
}

func TestAdminLedgerAndStatistics(t *testing.T) {
	env := newEnv(t)
	token := adminToken(t)

	rr := env.do(t, http.MethodGet, "/api/ledger", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	blocks := decodeBody(t, rr)["blocks"].([]any)
	require.Len(t, blocks, 1) // genesis only

	rr = env.do(t, http.MethodGet, "/api/ledger/verify", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	report := decodeBody(t, rr)
	assert.Equal(t, true, report["ok"])
	assert.Equal(t, float64(1), report["length"])

	rr = env.do(t, http.MethodGet, "/api/admin/statistics", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Contains(t, body, "snapshot")
	require.Contains(t, body, "demand_by_type")
}

func TestNearbyRequests(t *testing.T) {
	env := newEnv(t)
	d := env.seedDonor(t, domain.BloodONeg, 40.0, 29.0)
	token := donorToken(t, d)

	_, err := env.requests.Create(context.Background(), request.CreateParams{
		HospitalName: "Near", BloodType: domain.BloodAPos, UnitsNeeded: 1,
		Urgency: domain.UrgencyLow, Latitude: 40.05, Longitude: 29.0,
	})
	require.NoError(t, err)
	_, err = env.requests.Create(context.Background(), request.CreateParams{
		HospitalName: "Far", BloodType: domain.BloodAPos, UnitsNeeded: 1,
		Urgency: domain.UrgencyLow, Latitude: 48.0, Longitude: 29.0,
	})
	require.NoError(t, err)

	rr := env.do(t, http.MethodGet, "/api/requests/nearby", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	views := decodeBody(t, rr)["requests"].([]any)
	require.Len(t, views, 1)
	near := views[0].(map[string]any)
	assert.Equal(t, "Near", near["hospital_name"])
	assert.Greater(t, near["distance_km"], 0.0)

	rr = env.do(t, http.MethodGet, "/api/requests/nearby?radius_km=junk", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
