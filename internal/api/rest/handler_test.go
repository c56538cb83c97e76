package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotsignals/passage-api/internal/api/middleware"
	"github.com/iotsignals/passage-api/internal/domain"
	"github.com/iotsignals/passage-api/internal/entity"
	"github.com/iotsignals/passage-api/internal/ingest"
	"github.com/iotsignals/passage-api/internal/logger"
	"github.com/iotsignals/passage-api/internal/store"
	"github.com/iotsignals/passage-api/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

type fakeStore struct {
	store.Store

	cameras  map[string]int64
	vehicles map[string]int64
	passages map[uuid.UUID]*schema.Passage
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cameras:  make(map[string]int64),
		vehicles: make(map[string]int64),
		passages: make(map[uuid.UUID]*schema.Passage),
	}
}

func (f *fakeStore) UpsertPassageCamera(_ context.Context, camera *schema.PassageCamera) (int64, bool, error) {
	if id, ok := f.cameras[camera.Hash]; ok {
		return id, false, nil
	}
	f.nextID++
	f.cameras[camera.Hash] = f.nextID
	return f.nextID, true, nil
}

func (f *fakeStore) UpsertPassageVehicle(_ context.Context, vehicle *schema.PassageVehicle) (int64, bool, error) {
	if id, ok := f.vehicles[vehicle.Hash]; ok {
		return id, false, nil
	}
	f.nextID++
	f.vehicles[vehicle.Hash] = f.nextID
	return f.nextID, true, nil
}

func (f *fakeStore) CreatePassage(_ context.Context, passage *schema.Passage) error {
	if _, ok := f.passages[passage.ID]; ok {
		return domain.ErrDuplicatePassage
	}
	f.passages[passage.ID] = passage
	return nil
}

func newTestRouter(t *testing.T, fake *fakeStore, apiKeys ...string) *gin.Engine {
	t.Helper()

	resolver, err := entity.NewResolver(fake, 0)
	require.NoError(t, err)

	router := gin.New()
	handler := NewHandler(ingest.NewIngestor(fake, resolver), fake)
	SetupRoutes(router, handler, middleware.AuthConfig{APIKeys: apiKeys})
	return router
}

func passagePayload(id uuid.UUID) map[string]any {
	return map[string]any{
		"id":                            id.String(),
		"passageAt":                     time.Date(2018, 10, 16, 13, 37, 0, 0, time.UTC).Format(time.RFC3339),
		"version":                       "passage-v1",
		"kentekenNummerBetrouwbaarheid": 940,
		"kentekenLandBetrouwbaarheid":   880,
		"kentekenKaraktersBetrouwbaarheid": []map[string]any{
			{"positie": 1, "betrouwbaarheid": 940},
		},
		"rijrichting":        1,
		"rijstrook":          2,
		"cameraId":           "cam-7",
		"cameraNaam":         "Muiderpoort",
		"cameraKijkrichting": 92.5,
		"kentekenLand":       "NL",
		"voertuigSoort":      "personenauto",
		"inrichting":         "stationwagen",
		"merk":               "Fiat",
		"toegestaneMaximumMassaVoertuig": 3000,
		"datumEersteToelating":           "2020-02-02",
		"datumTenaamstelling":            "2021-06-15",
	}
}

func postPassage(t *testing.T, router *gin.Engine, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v0/milieuzone/passage/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestCreatePassage(t *testing.T) {
	fake := newFakeStore()
	router := newTestRouter(t, fake)

	id := uuid.New()
	recorder := postPassage(t, router, passagePayload(id))
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	stored, ok := fake.passages[id]
	require.True(t, ok)

	// privacy normalization happened before storage
	assert.Nil(t, stored.Merk)
	assert.Nil(t, stored.DatumTenaamstelling)
	require.NotNil(t, stored.ToegestaneMaximumMassaVoertuig)
	assert.Equal(t, 1500, *stored.ToegestaneMaximumMassaVoertuig)
	require.NotNil(t, stored.Inrichting)
	assert.Equal(t, "Personenauto", *stored.Inrichting)
	require.NotNil(t, stored.DatumEersteToelating)
	assert.Equal(t, 2020, stored.DatumEersteToelating.Year())
	assert.Equal(t, time.January, stored.DatumEersteToelating.Month())
}

func TestCreatePassageDuplicateID(t *testing.T) {
	fake := newFakeStore()
	router := newTestRouter(t, fake)

	payload := passagePayload(uuid.New())

	recorder := postPassage(t, router, payload)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = postPassage(t, router, payload)
	require.Equal(t, http.StatusConflict, recorder.Code)

	var response errorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, errCodeDuplicateID, response.Error.Code)
	assert.Len(t, fake.passages, 1)
}

func TestCreatePassageValidationError(t *testing.T) {
	fake := newFakeStore()
	router := newTestRouter(t, fake)

	payload := passagePayload(uuid.New())
	payload["kentekenNummerBetrouwbaarheid"] = 1500

	recorder := postPassage(t, router, payload)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response errorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, errCodeValidationFailed, response.Error.Code)
	assert.Empty(t, fake.passages)
}

func TestCreatePassageInvalidBody(t *testing.T) {
	fake := newFakeStore()
	router := newTestRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/v0/milieuzone/passage/", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExportRequiresAPIKey(t *testing.T) {
	fake := newFakeStore()
	router := newTestRouter(t, fake, "secret-key")

	req := httptest.NewRequest(http.MethodGet, "/v0/milieuzone/passage/export/", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	req = httptest.NewRequest(http.MethodGet, "/v0/milieuzone/passage/export/", nil)
	req.Header.Set("Authorization", "Token wrong-key")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestExportRejectsInvalidQuery(t *testing.T) {
	fake := newFakeStore()
	router := newTestRouter(t, fake, "secret-key")

	req := httptest.NewRequest(http.MethodGet, "/v0/milieuzone/passage/export/?year=twenty", nil)
	req.Header.Set("Authorization", "Token secret-key")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHealthCheck(t *testing.T) {
	fake := newFakeStore()
	router := newTestRouter(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestPreviousWeek(t *testing.T) {
	tests := []struct {
		name           string
		now            time.Time
		expectedMonday time.Time
	}{
		{
			name:           "mid-week",
			now:            time.Date(2018, 10, 17, 15, 0, 0, 0, time.UTC), // Wednesday
			expectedMonday: time.Date(2018, 10, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			name:           "monday",
			now:            time.Date(2018, 10, 15, 0, 30, 0, 0, time.UTC),
			expectedMonday: time.Date(2018, 10, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			name:           "sunday",
			now:            time.Date(2018, 10, 14, 23, 0, 0, 0, time.UTC),
			expectedMonday: time.Date(2018, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:           "across year boundary",
			now:            time.Date(2019, 1, 2, 12, 0, 0, 0, time.UTC), // Wednesday
			expectedMonday: time.Date(2018, 12, 24, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monday, sunday := previousWeek(tt.now)
			assert.Equal(t, tt.expectedMonday, monday)
			assert.Equal(t, tt.expectedMonday.AddDate(0, 0, 6), sunday)
			assert.Equal(t, time.Monday, monday.Weekday())
		})
	}
}
