package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotsignals/passage-api/internal/store/schema"
)

// fakeStore assigns ids per digest the way the database unique constraint
// would: the first insert of a digest creates the row, later inserts no-op.
type fakeStore struct {
	cameras        map[string]int64
	vehicles       map[string]int64
	nextID         int64
	cameraUpserts  int
	vehicleUpserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cameras:  make(map[string]int64),
		vehicles: make(map[string]int64),
		nextID:   1,
	}
}

func (f *fakeStore) UpsertPassageCamera(_ context.Context, camera *schema.PassageCamera) (int64, bool, error) {
	f.cameraUpserts++
	if id, ok := f.cameras[camera.Hash]; ok {
		return id, false, nil
	}
	id := f.nextID
	f.nextID++
	f.cameras[camera.Hash] = id
	return id, true, nil
}

func (f *fakeStore) UpsertPassageVehicle(_ context.Context, vehicle *schema.PassageVehicle) (int64, bool, error) {
	f.vehicleUpserts++
	if id, ok := f.vehicles[vehicle.Hash]; ok {
		return id, false, nil
	}
	id := f.nextID
	f.nextID++
	f.vehicles[vehicle.Hash] = id
	return id, true, nil
}

func testCamera() *schema.PassageCamera {
	return &schema.PassageCamera{
		Rijrichting:        1,
		Rijstrook:          2,
		CameraID:           "00856ef3-c6f5-4194-9531-a3267839674a",
		CameraNaam:         "Muntbergweg (s111) nabij afrit (A9) uit oost - Rijstrook 2",
		CameraKijkrichting: 337.5,
	}
}

func testVehicle(land string) *schema.PassageVehicle {
	soort := "Personenauto"
	return &schema.PassageVehicle{
		KentekenLand:  land,
		VoertuigSoort: &soort,
	}
}

func TestResolveCameraCreatesThenReuses(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store, 0)
	require.NoError(t, err)

	first, err := resolver.ResolveCamera(context.Background(), testCamera())
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := resolver.ResolveCamera(context.Background(), testCamera())
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, store.cameraUpserts)
}

func TestResolveCameraFillsHashAndID(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store, 16)
	require.NoError(t, err)

	camera := testCamera()
	res, err := resolver.ResolveCamera(context.Background(), camera)
	require.NoError(t, err)

	assert.Len(t, camera.Hash, 40)
	assert.Equal(t, res.ID, camera.ID)
}

func TestResolveCameraCacheSkipsStore(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store, 16)
	require.NoError(t, err)

	first, err := resolver.ResolveCamera(context.Background(), testCamera())
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := resolver.ResolveCamera(context.Background(), testCamera())
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	// Second resolve was served from the cache
	assert.Equal(t, 1, store.cameraUpserts)
}

func TestResolveCameraLocationDoesNotChangeIdentity(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store, 16)
	require.NoError(t, err)

	a := testCamera()
	a.CameraLocatie = []byte(`{"type":"Point","coordinates":[4.945936,52.301221]}`)
	b := testCamera()
	b.CameraLocatie = []byte(`{"type":"Point","coordinates":[4.945940,52.301225]}`)

	resA, err := resolver.ResolveCamera(context.Background(), a)
	require.NoError(t, err)
	resB, err := resolver.ResolveCamera(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, resA.ID, resB.ID)
}

func TestResolveVehicleDistinctContentDistinctRows(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store, 16)
	require.NoError(t, err)

	nl, err := resolver.ResolveVehicle(context.Background(), testVehicle("NL"))
	require.NoError(t, err)
	de, err := resolver.ResolveVehicle(context.Background(), testVehicle("DE"))
	require.NoError(t, err)

	assert.True(t, nl.Created)
	assert.True(t, de.Created)
	assert.NotEqual(t, nl.ID, de.ID)
}

func TestResolveVehicleNilFieldsMatchAbsent(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store, 0)
	require.NoError(t, err)

	bare := &schema.PassageVehicle{KentekenLand: "NL"}
	explicit := &schema.PassageVehicle{
		KentekenLand: "NL",
		Merk:         nil,
		Diesel:       nil,
	}

	resBare, err := resolver.ResolveVehicle(context.Background(), bare)
	require.NoError(t, err)
	resExplicit, err := resolver.ResolveVehicle(context.Background(), explicit)
	require.NoError(t, err)

	assert.Equal(t, resBare.ID, resExplicit.ID)
	assert.False(t, resExplicit.Created)
}

func TestNewResolverDisablesCacheForNonPositiveSize(t *testing.T) {
	resolver, err := NewResolver(newFakeStore(), -1)
	require.NoError(t, err)
	assert.Nil(t, resolver.cameraCache)
	assert.Nil(t, resolver.vehicleCache)
}
