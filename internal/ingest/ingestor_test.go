package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotsignals/passage-api/internal/domain"
	"github.com/iotsignals/passage-api/internal/entity"
	"github.com/iotsignals/passage-api/internal/store"
	"github.com/iotsignals/passage-api/internal/store/schema"
)

// fakeStore keeps dimension rows and fact rows in memory, deduplicating on
// digest the way the database unique constraint does.
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

func newTestIngestor(t *testing.T, s *fakeStore) *Ingestor {
	t.Helper()
	resolver, err := entity.NewResolver(s, 0)
	require.NoError(t, err)
	return NewIngestor(s, resolver)
}

func TestIngestStoresNormalizedRecord(t *testing.T) {
	fake := newFakeStore()
	ingestor := newTestIngestor(t, fake)

	record := validRecord()
	record.VoertuigSoort = strPtr("personenauto")
	record.Inrichting = strPtr("stationwagen")
	record.Merk = strPtr("Fiat")
	record.ToegestaneMaximumMassaVoertuig = intPtr(3000)
	record.DatumEersteToelating = datePtr(2020, time.February, 2)
	record.DatumTenaamstelling = datePtr(2021, time.June, 15)

	stored, err := ingestor.Ingest(context.Background(), record)
	require.NoError(t, err)

	assert.Equal(t, record.ID, stored.ID)
	assert.True(t, stored.PrivacyCheck)
	assert.Nil(t, stored.Merk)
	assert.Nil(t, stored.DatumTenaamstelling)
	require.NotNil(t, stored.ToegestaneMaximumMassaVoertuig)
	assert.Equal(t, 1500, *stored.ToegestaneMaximumMassaVoertuig)
	require.NotNil(t, stored.Inrichting)
	assert.Equal(t, "Personenauto", *stored.Inrichting)
	require.NotNil(t, stored.DatumEersteToelating)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), *stored.DatumEersteToelating)

	require.NotNil(t, stored.PassageCameraID)
	require.NotNil(t, stored.PassageVehicleID)
	assert.Len(t, fake.cameras, 1)
	assert.Len(t, fake.vehicles, 1)
}

func TestIngestRejectsInvalidConfidence(t *testing.T) {
	fake := newFakeStore()
	ingestor := newTestIngestor(t, fake)

	record := validRecord()
	record.KentekenNummerBetrouwbaarheid = 2000

	_, err := ingestor.Ingest(context.Background(), record)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Empty(t, fake.passages)
	// nothing was resolved for a rejected record
	assert.Empty(t, fake.cameras)
	assert.Empty(t, fake.vehicles)
}

func TestIngestDuplicateID(t *testing.T) {
	fake := newFakeStore()
	ingestor := newTestIngestor(t, fake)

	record := validRecord()
	_, err := ingestor.Ingest(context.Background(), record)
	require.NoError(t, err)

	_, err = ingestor.Ingest(context.Background(), validRecordWithID(record.ID))
	require.ErrorIs(t, err, domain.ErrDuplicatePassage)
	assert.Len(t, fake.passages, 1)
}

func validRecordWithID(id uuid.UUID) *Record {
	record := validRecord()
	record.ID = id
	return record
}

func TestIngestReusesDimensionRows(t *testing.T) {
	fake := newFakeStore()
	ingestor := newTestIngestor(t, fake)

	first := validRecord()
	_, err := ingestor.Ingest(context.Background(), first)
	require.NoError(t, err)

	// same camera and vehicle content, different passage
	second := validRecord()
	stored, err := ingestor.Ingest(context.Background(), second)
	require.NoError(t, err)

	assert.Len(t, fake.cameras, 1)
	assert.Len(t, fake.vehicles, 1)
	assert.Equal(t, *fake.passages[first.ID].PassageCameraID, *stored.PassageCameraID)
	assert.Equal(t, *fake.passages[first.ID].PassageVehicleID, *stored.PassageVehicleID)
}

func TestIngestDistinctVehiclesGetDistinctRows(t *testing.T) {
	fake := newFakeStore()
	ingestor := newTestIngestor(t, fake)

	first := validRecord()
	first.Merk = strPtr("Scania")
	first.ToegestaneMaximumMassaVoertuig = intPtr(12000)
	_, err := ingestor.Ingest(context.Background(), first)
	require.NoError(t, err)

	second := validRecord()
	second.Merk = strPtr("Volvo")
	second.ToegestaneMaximumMassaVoertuig = intPtr(12000)
	_, err = ingestor.Ingest(context.Background(), second)
	require.NoError(t, err)

	assert.Len(t, fake.vehicles, 2)
	assert.Len(t, fake.cameras, 1)
}
