package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iotsignals/passage-api/internal/store/schema"
)

// PassageFact is the projection of a fact row consumed by the general
// hourly aggregation.
type PassageFact struct {
	PassageAt                      time.Time
	CameraID                       string
	CameraNaam                     string
	Rijrichting                    int
	CameraKijkrichting             float64
	KentekenLand                   string
	VoertuigSoort                  *string
	EuropeseVoertuigcategorie      *string
	TaxiIndicator                  *bool
	Diesel                         *int
	Gasoline                       *int
	Electric                       *int
	ToegestaneMaximumMassaVoertuig *int
}

// ZonePassageFact is the projection consumed by the cordon-filtered
// aggregations: fact fields joined with the static camera dimension.
type ZonePassageFact struct {
	PassageAt                      time.Time
	KentekenLand                   string
	VoertuigSoort                  *string
	Inrichting                     *string
	ToegestaneMaximumMassaVoertuig *int
	TaxiIndicator                  *bool
	EuropeseVoertuigcategorie      *string

	OrderKaart *int
	OrderNaam  *string
	Cordon     *string
	Richting   *string
	Geom       *string
	Azimuth    *float64
}

// DateRange is an inclusive span of calendar days observed in the fact table.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// ExportFilter scopes the camera/hour export query. Year and Week filter on
// the calendar columns; From/To bound the date column when set.
type ExportFilter struct {
	Year *int
	Week *int
	From *time.Time
	To   *time.Time
}

// Store defines the interface for database operations
type Store interface {
	// UpsertPassageCamera inserts a camera dimension row unless its digest
	// exists, returning the surviving id and whether a row was created
	UpsertPassageCamera(ctx context.Context, camera *schema.PassageCamera) (int64, bool, error)
	// UpsertPassageVehicle inserts a vehicle dimension row unless its digest
	// exists, returning the surviving id and whether a row was created
	UpsertPassageVehicle(ctx context.Context, vehicle *schema.PassageVehicle) (int64, bool, error)

	// CreatePassage inserts a fact row; a duplicate id yields
	// domain.ErrDuplicatePassage and leaves the existing row untouched
	CreatePassage(ctx context.Context, passage *schema.Passage) error
	// GetPassageByID retrieves a fact row by its id
	GetPassageByID(ctx context.Context, id uuid.UUID) (*schema.Passage, error)

	// UnprocessedPassageIDs returns up to limit ids of fact rows that have
	// not yet been privacy-processed
	UnprocessedPassageIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	// AnonymizePassages applies the privacy rewrite to the given rows and
	// marks them processed, returning the number of rows updated
	AnonymizePassages(ctx context.Context, ids []uuid.UUID) (int64, error)
	// AnonymizePassagesForDay applies the privacy rewrite to every fact row
	// of the given calendar day, regardless of the processed flag
	AnonymizePassagesForDay(ctx context.Context, day time.Time) (int64, error)
	// PassageDateRange returns the observed min/max passage dates, or nil
	// when the fact table is empty
	PassageDateRange(ctx context.Context) (*DateRange, error)
	// VacuumPassagePartition reclaims space and refreshes statistics on the
	// given day's fact partition
	VacuumPassagePartition(ctx context.Context, day time.Time) error

	// FetchPassageFacts returns fact projections for the given day
	FetchPassageFacts(ctx context.Context, date time.Time) ([]PassageFact, error)
	// FetchZonePassageFacts returns fact projections for the given day
	// joined against the camera dimension, restricted to the given cordons
	FetchZonePassageFacts(ctx context.Context, date time.Time, cordons []string) ([]ZonePassageFact, error)

	// ReplaceHourAggregations atomically replaces the general rollup rows
	// for the given day, returning deleted and inserted row counts
	ReplaceHourAggregations(ctx context.Context, date time.Time, rows []schema.PassageHourAggregation) (int64, int64, error)
	// ReplaceHeavyTrafficHourAggregations atomically replaces the heavy
	// traffic rollup rows for the given day
	ReplaceHeavyTrafficHourAggregations(ctx context.Context, date time.Time, rows []schema.HeavyTrafficHourAggregation) (int64, int64, error)
	// ReplaceIgorHourAggregations atomically replaces the IGOR rollup rows
	// for the given day
	ReplaceIgorHourAggregations(ctx context.Context, date time.Time, rows []schema.IgorHourAggregation) (int64, int64, error)

	// TaxiExportRows streams per-date taxi passage totals ordered by date
	TaxiExportRows(ctx context.Context) (*sql.Rows, error)
	// CameraHourExportRows streams per-camera hour-bucket totals ordered by
	// bucket, scoped by the filter
	CameraHourExportRows(ctx context.Context, filter ExportFilter) (*sql.Rows, error)
}
