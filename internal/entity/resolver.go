package entity

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iotsignals/passage-api/internal/store/schema"
)

// Store is the persistence surface the resolver needs: an insert with
// ignore-conflict-on-digest semantics that reports the surviving row's id.
//
// Implementations must guarantee at most one row per digest even under
// concurrent calls, relying on the database unique constraint rather than
// any application-level locking.
type Store interface {
	// UpsertPassageCamera inserts the camera if its digest is new and
	// returns the surviving row's id and whether a row was created
	UpsertPassageCamera(ctx context.Context, camera *schema.PassageCamera) (int64, bool, error)
	// UpsertPassageVehicle inserts the vehicle if its digest is new and
	// returns the surviving row's id and whether a row was created
	UpsertPassageVehicle(ctx context.Context, vehicle *schema.PassageVehicle) (int64, bool, error)
}

// Resolution is the outcome of resolving a candidate dimension record.
type Resolution struct {
	// ID is the id of the surviving row for this content digest
	ID int64
	// Created reports whether this call inserted the row. False means an
	// equivalent row already existed (a cache hit or a conflict no-op).
	Created bool
}

// Resolver deduplicates camera and vehicle dimension records by content
// digest. A bounded LRU cache fronts the database; because dimension rows
// are append-only and never deleted, a stale cache hit is always correct,
// so the cache needs no invalidation.
type Resolver struct {
	store        Store
	cameraCache  *lru.Cache[string, int64]
	vehicleCache *lru.Cache[string, int64]
}

// NewResolver creates a Resolver backed by the given store. cacheSize
// bounds each of the two digest caches; zero or negative disables caching
// entirely, which tests use to exercise the database conflict path.
func NewResolver(store Store, cacheSize int) (*Resolver, error) {
	r := &Resolver{store: store}

	if cacheSize > 0 {
		var err error
		r.cameraCache, err = lru.New[string, int64](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create camera cache: %w", err)
		}
		r.vehicleCache, err = lru.New[string, int64](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create vehicle cache: %w", err)
		}
	}

	return r, nil
}

// ResolveCamera returns the id of the dimension row with the same content
// as the candidate, inserting it first when no such row exists. The
// candidate's Hash and ID fields are filled in.
func (r *Resolver) ResolveCamera(ctx context.Context, camera *schema.PassageCamera) (Resolution, error) {
	digest, err := Digest(camera.Canonical())
	if err != nil {
		return Resolution{}, err
	}
	camera.Hash = digest

	if r.cameraCache != nil {
		if id, ok := r.cameraCache.Get(digest); ok {
			camera.ID = id
			return Resolution{ID: id}, nil
		}
	}

	id, created, err := r.store.UpsertPassageCamera(ctx, camera)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to resolve camera: %w", err)
	}
	camera.ID = id

	if r.cameraCache != nil {
		r.cameraCache.Add(digest, id)
	}

	return Resolution{ID: id, Created: created}, nil
}

// ResolveVehicle returns the id of the dimension row with the same content
// as the candidate, inserting it first when no such row exists. The
// candidate's Hash and ID fields are filled in.
func (r *Resolver) ResolveVehicle(ctx context.Context, vehicle *schema.PassageVehicle) (Resolution, error) {
	digest, err := Digest(vehicle.Canonical())
	if err != nil {
		return Resolution{}, err
	}
	vehicle.Hash = digest

	if r.vehicleCache != nil {
		if id, ok := r.vehicleCache.Get(digest); ok {
			vehicle.ID = id
			return Resolution{ID: id}, nil
		}
	}

	id, created, err := r.store.UpsertPassageVehicle(ctx, vehicle)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to resolve vehicle: %w", err)
	}
	vehicle.ID = id

	if r.vehicleCache != nil {
		r.vehicleCache.Add(digest, id)
	}

	return Resolution{ID: id, Created: created}, nil
}
