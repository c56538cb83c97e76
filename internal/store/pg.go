package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iotsignals/passage-api/internal/domain"
	"github.com/iotsignals/passage-api/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero-valued settings fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays
// under PostgreSQL's extended-protocol limit of 65535 parameters per query.
// A fixed headroom covers batch-level overhead such as conflict clauses and
// query metadata.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// dayBounds returns the UTC [start, end) interval of the calendar day
// containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// UpsertPassageCamera inserts a camera dimension row with ignore-conflict
// semantics on the content digest. Exactly one row survives per digest even
// under concurrent calls; losers of the insert race look up the winner's id.
func (s *pgStore) UpsertPassageCamera(ctx context.Context, camera *schema.PassageCamera) (int64, bool, error) {
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(camera).Error; err != nil {
		return 0, false, fmt.Errorf("failed to insert passage camera: %w", err)
	}

	// ID 0 means the insert was a conflict no-op; fetch the surviving row.
	if camera.ID != 0 {
		return camera.ID, true, nil
	}

	var existing schema.PassageCamera
	if err := s.db.WithContext(ctx).
		Select("id").
		Where("hash = ?", camera.Hash).
		First(&existing).Error; err != nil {
		return 0, false, fmt.Errorf("failed to get existing passage camera: %w", err)
	}

	return existing.ID, false, nil
}

// UpsertPassageVehicle inserts a vehicle dimension row with ignore-conflict
// semantics on the content digest.
func (s *pgStore) UpsertPassageVehicle(ctx context.Context, vehicle *schema.PassageVehicle) (int64, bool, error) {
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(vehicle).Error; err != nil {
		return 0, false, fmt.Errorf("failed to insert passage vehicle: %w", err)
	}

	if vehicle.ID != 0 {
		return vehicle.ID, true, nil
	}

	var existing schema.PassageVehicle
	if err := s.db.WithContext(ctx).
		Select("id").
		Where("hash = ?", vehicle.Hash).
		First(&existing).Error; err != nil {
		return 0, false, fmt.Errorf("failed to get existing passage vehicle: %w", err)
	}

	return existing.ID, false, nil
}

// CreatePassage inserts a fact row. A duplicate id is detected via
// ignore-conflict insert rather than a raised constraint violation, and is
// reported as domain.ErrDuplicatePassage.
func (s *pgStore) CreatePassage(ctx context.Context, passage *schema.Passage) error {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(passage)
	if result.Error != nil {
		return fmt.Errorf("failed to insert passage: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrDuplicatePassage
	}

	return nil
}

// GetPassageByID retrieves a fact row by its id
func (s *pgStore) GetPassageByID(ctx context.Context, id uuid.UUID) (*schema.Passage, error) {
	var passage schema.Passage
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&passage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get passage: %w", err)
	}
	return &passage, nil
}

// UnprocessedPassageIDs returns up to limit ids of fact rows not yet
// privacy-processed
func (s *pgStore) UnprocessedPassageIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&schema.Passage{}).
		Where("privacy_check = ?", false).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get unprocessed passage ids: %w", err)
	}
	return ids, nil
}

// privacyAssignments are the in-place redaction rules. Every CASE arm reads
// the pre-update column values, so assignment order carries no meaning and
// reapplying the rules to an already-rewritten row is a no-op.
const privacyAssignments = `
	datum_eerste_toelating = date_trunc('year', datum_eerste_toelating),
	datum_tenaamstelling = NULL,
	europese_voertuigcategorie_toevoeging = CASE
		WHEN toegestane_maximum_massa_voertuig <= 3500 THEN NULL
		ELSE europese_voertuigcategorie_toevoeging END,
	merk = CASE
		WHEN toegestane_maximum_massa_voertuig <= 3500 THEN NULL
		ELSE merk END,
	inrichting = CASE
		WHEN lower(voertuig_soort) = 'personenauto' THEN 'Personenauto'
		ELSE inrichting END,
	toegestane_maximum_massa_voertuig = CASE
		WHEN toegestane_maximum_massa_voertuig <= 3500 THEN 1500
		ELSE toegestane_maximum_massa_voertuig END,
	privacy_check = TRUE`

// AnonymizePassages applies the privacy rewrite to the given rows
func (s *pgStore) AnonymizePassages(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Exec(
		fmt.Sprintf("UPDATE passage_passage SET %s WHERE id IN ?", privacyAssignments), ids)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to anonymize passages: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// AnonymizePassagesForDay applies the privacy rewrite to all fact rows of
// the given calendar day
func (s *pgStore) AnonymizePassagesForDay(ctx context.Context, day time.Time) (int64, error) {
	start, end := dayBounds(day)
	result := s.db.WithContext(ctx).Exec(
		fmt.Sprintf("UPDATE passage_passage SET %s WHERE passage_at >= ? AND passage_at < ?", privacyAssignments),
		start, end)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to anonymize passages for day: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PassageDateRange returns the observed min/max passage dates
func (s *pgStore) PassageDateRange(ctx context.Context) (*DateRange, error) {
	var bounds struct {
		Min *time.Time
		Max *time.Time
	}
	err := s.db.WithContext(ctx).
		Model(&schema.Passage{}).
		Select("MIN(passage_at) AS min, MAX(passage_at) AS max").
		Scan(&bounds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get passage date range: %w", err)
	}
	if bounds.Min == nil || bounds.Max == nil {
		return nil, nil
	}
	return &DateRange{Min: *bounds.Min, Max: *bounds.Max}, nil
}

// VacuumPassagePartition runs VACUUM ANALYZE on the given day's fact
// partition. The partition name is derived from the date value, never from
// caller-supplied text; VACUUM does not accept bind parameters.
func (s *pgStore) VacuumPassagePartition(ctx context.Context, day time.Time) error {
	partition := fmt.Sprintf("passage_passage_%s", day.UTC().Format("20060102"))
	if err := s.db.WithContext(ctx).Exec(fmt.Sprintf("VACUUM (ANALYZE) %s", partition)).Error; err != nil {
		return fmt.Errorf("failed to vacuum partition %s: %w", partition, err)
	}
	return nil
}

// FetchPassageFacts returns fact projections for the given day
func (s *pgStore) FetchPassageFacts(ctx context.Context, date time.Time) ([]PassageFact, error) {
	start, end := dayBounds(date)

	var facts []PassageFact
	err := s.db.WithContext(ctx).
		Model(&schema.Passage{}).
		Select(`passage_at, camera_id, camera_naam, rijrichting, camera_kijkrichting,
			kenteken_land, voertuig_soort, europese_voertuigcategorie, taxi_indicator,
			diesel, gasoline, electric, toegestane_maximum_massa_voertuig`).
		Where("passage_at >= ? AND passage_at < ?", start, end).
		Scan(&facts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch passage facts: %w", err)
	}
	return facts, nil
}

// FetchZonePassageFacts returns fact projections for the given day joined
// against the camera dimension on (naam, kijkrichting, rijrichting),
// restricted to cameras whose cordon is in the allow-list.
func (s *pgStore) FetchZonePassageFacts(ctx context.Context, date time.Time, cordons []string) ([]ZonePassageFact, error) {
	start, end := dayBounds(date)

	var facts []ZonePassageFact
	err := s.db.WithContext(ctx).
		Model(&schema.Passage{}).
		Select(`passage_passage.passage_at, passage_passage.kenteken_land,
			passage_passage.voertuig_soort, passage_passage.inrichting,
			passage_passage.toegestane_maximum_massa_voertuig,
			passage_passage.taxi_indicator, passage_passage.europese_voertuigcategorie,
			h.order_kaart, h.order_naam, h.cordon, h.richting, h.geom, h.azimuth`).
		Joins(`LEFT JOIN passage_camera AS h
			ON passage_passage.camera_naam = h.camera_naam
			AND passage_passage.camera_kijkrichting = h.camera_kijkrichting
			AND passage_passage.rijrichting = h.rijrichting`).
		Where("passage_passage.passage_at >= ? AND passage_passage.passage_at < ?", start, end).
		Where("h.cordon IN ?", cordons).
		Scan(&facts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zone passage facts: %w", err)
	}
	return facts, nil
}

// ReplaceHourAggregations atomically replaces the general rollup rows for
// the given day. Delete and insert run in one transaction so a recompute
// failure never leaves a partially deleted or duplicated day.
func (s *pgStore) ReplaceHourAggregations(ctx context.Context, date time.Time, rows []schema.PassageHourAggregation) (int64, int64, error) {
	var deleted, inserted int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("year = ? AND month = ? AND day = ?", date.Year(), int(date.Month()), date.Day()).
			Delete(&schema.PassageHourAggregation{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete hour aggregations: %w", result.Error)
		}
		deleted = result.RowsAffected

		if len(rows) == 0 {
			return nil
		}

		result = tx.CreateInBatches(rows, calculateSafeBatchSize(len(rows), 20))
		if result.Error != nil {
			return fmt.Errorf("failed to insert hour aggregations: %w", result.Error)
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return deleted, inserted, nil
}

// ReplaceHeavyTrafficHourAggregations atomically replaces the heavy traffic
// rollup rows for the given day
func (s *pgStore) ReplaceHeavyTrafficHourAggregations(ctx context.Context, date time.Time, rows []schema.HeavyTrafficHourAggregation) (int64, int64, error) {
	var deleted, inserted int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("passage_at_year = ? AND passage_at_month = ? AND passage_at_day = ?",
				date.Year(), int(date.Month()), date.Day()).
			Delete(&schema.HeavyTrafficHourAggregation{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete heavy traffic aggregations: %w", result.Error)
		}
		deleted = result.RowsAffected

		if len(rows) == 0 {
			return nil
		}

		result = tx.CreateInBatches(rows, calculateSafeBatchSize(len(rows), 19))
		if result.Error != nil {
			return fmt.Errorf("failed to insert heavy traffic aggregations: %w", result.Error)
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return deleted, inserted, nil
}

// ReplaceIgorHourAggregations atomically replaces the IGOR rollup rows for
// the given day
func (s *pgStore) ReplaceIgorHourAggregations(ctx context.Context, date time.Time, rows []schema.IgorHourAggregation) (int64, int64, error) {
	var deleted, inserted int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("passage_at_year = ? AND passage_at_month = ? AND passage_at_day = ?",
				date.Year(), int(date.Month()), date.Day()).
			Delete(&schema.IgorHourAggregation{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete igor aggregations: %w", result.Error)
		}
		deleted = result.RowsAffected

		if len(rows) == 0 {
			return nil
		}

		result = tx.CreateInBatches(rows, calculateSafeBatchSize(len(rows), 17))
		if result.Error != nil {
			return fmt.Errorf("failed to insert igor aggregations: %w", result.Error)
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return deleted, inserted, nil
}

// TaxiExportRows streams per-date taxi passage totals ordered by date
func (s *pgStore) TaxiExportRows(ctx context.Context) (*sql.Rows, error) {
	rows, err := s.db.WithContext(ctx).
		Model(&schema.PassageHourAggregation{}).
		Select(`date AS datum, SUM(count) AS aantal_taxi_passages`).
		Where("taxi_indicator = ?", true).
		Group("date").
		Order("date").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query taxi export: %w", err)
	}
	return rows, nil
}

// CameraHourExportRows streams per-camera hour-bucket totals ordered by
// bucket
func (s *pgStore) CameraHourExportRows(ctx context.Context, filter ExportFilter) (*sql.Rows, error) {
	query := s.db.WithContext(ctx).
		Model(&schema.PassageHourAggregation{}).
		Select(`camera_id, camera_naam, date + make_interval(hours => hour) AS bucket, SUM(count) AS sum`)

	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.Week != nil {
		query = query.Where("week = ?", *filter.Week)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	rows, err := query.
		Group("camera_id, camera_naam, bucket").
		Order("bucket").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query camera hour export: %w", err)
	}
	return rows, nil
}
