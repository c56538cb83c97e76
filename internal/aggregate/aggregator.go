package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/iotsignals/passage-api/internal/logger"
	"github.com/iotsignals/passage-api/internal/store"
	"github.com/iotsignals/passage-api/internal/store/schema"
)

// Variant selects which rollup an aggregation run produces.
type Variant string

const (
	// VariantGeneral recomputes the per-camera hourly rollup
	VariantGeneral Variant = "general"
	// VariantHeavyTraffic recomputes the cordon heavy traffic rollup
	VariantHeavyTraffic Variant = "zwaar-verkeer"
	// VariantIgor recomputes the cordon rollup for IGOR and Druktebeeld
	VariantIgor Variant = "igor"
)

// DefaultCordons are the camera cordons included in the zone rollups.
var DefaultCordons = []string{"S100", "A10"}

// opt is a by-value stand-in for an optional field so it can participate in
// a comparable grouping key.
type opt[T comparable] struct {
	v  T
	ok bool
}

func optOf[T comparable](p *T) opt[T] {
	if p == nil {
		return opt[T]{}
	}
	return opt[T]{v: *p, ok: true}
}

func (o opt[T]) ptr() *T {
	if !o.ok {
		return nil
	}
	v := o.v
	return &v
}

// Aggregator recomputes one rollup variant day by day. Each day is replaced
// wholesale: grouping happens in memory over that day's fact projections and
// the store swaps the day's rows in a single transaction.
type Aggregator struct {
	store   store.Store
	variant Variant
	cordons []string
}

// NewAggregator creates an aggregator for the given rollup variant.
func NewAggregator(s store.Store, variant Variant) (*Aggregator, error) {
	switch variant {
	case VariantGeneral, VariantHeavyTraffic, VariantIgor:
	default:
		return nil, fmt.Errorf("unknown aggregation variant %q", variant)
	}
	return &Aggregator{
		store:   s,
		variant: variant,
		cordons: DefaultCordons,
	}, nil
}

// Aggregate recomputes the rollup for one calendar day, returning the number
// of rows deleted and inserted.
func (a *Aggregator) Aggregate(ctx context.Context, date time.Time) (int64, int64, error) {
	switch a.variant {
	case VariantGeneral:
		facts, err := a.store.FetchPassageFacts(ctx, date)
		if err != nil {
			return 0, 0, err
		}
		return a.store.ReplaceHourAggregations(ctx, date, BuildHourAggregations(date, facts))
	case VariantHeavyTraffic:
		facts, err := a.store.FetchZonePassageFacts(ctx, date, a.cordons)
		if err != nil {
			return 0, 0, err
		}
		return a.store.ReplaceHeavyTrafficHourAggregations(ctx, date, BuildHeavyTrafficHourAggregations(facts))
	case VariantIgor:
		facts, err := a.store.FetchZonePassageFacts(ctx, date, a.cordons)
		if err != nil {
			return 0, 0, err
		}
		return a.store.ReplaceIgorHourAggregations(ctx, date, BuildIgorHourAggregations(facts))
	default:
		return 0, 0, fmt.Errorf("unknown aggregation variant %q", a.variant)
	}
}

// Run recomputes the rollup for every day from fromDate up to and including
// yesterday. A nil fromDate recomputes yesterday only. Today is never
// aggregated: its fact rows are still arriving.
func (a *Aggregator) Run(ctx context.Context, fromDate *time.Time) error {
	runID := ulid.Make().String()
	today := truncateToDay(time.Now().UTC())

	start := today.AddDate(0, 0, -1)
	if fromDate != nil {
		start = truncateToDay(*fromDate)
	}

	for day := start; day.Before(today); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}

		deleted, inserted, err := a.Aggregate(ctx, day)
		if err != nil {
			return fmt.Errorf("aggregation failed for %s: %w", day.Format("2006-01-02"), err)
		}

		logger.InfoCtx(ctx, "recomputed day",
			zap.String("run_id", runID),
			zap.String("variant", string(a.variant)),
			zap.String("date", day.Format("2006-01-02")),
			zap.Int64("deleted", deleted),
			zap.Int64("inserted", inserted))
	}

	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type hourAggregationKey struct {
	hour               int
	cameraID           string
	cameraNaam         string
	rijrichting        int
	cameraKijkrichting float64
	kentekenLand       string
	voertuigSoort      opt[string]
	euCategorie        opt[string]
	taxiIndicator      opt[bool]
	diesel             opt[int]
	gasoline           opt[int]
	electric           opt[int]
	massaKlasse        string
}

// BuildHourAggregations groups one day's fact projections into general
// rollup rows.
func BuildHourAggregations(date time.Time, facts []store.PassageFact) []schema.PassageHourAggregation {
	day := truncateToDay(date)
	counts := make(map[hourAggregationKey]int)
	order := make([]hourAggregationKey, 0)

	for _, f := range facts {
		key := hourAggregationKey{
			hour:               f.PassageAt.UTC().Hour(),
			cameraID:           f.CameraID,
			cameraNaam:         f.CameraNaam,
			rijrichting:        f.Rijrichting,
			cameraKijkrichting: f.CameraKijkrichting,
			kentekenLand:       NationalityBucket(f.KentekenLand),
			voertuigSoort:      optOf(f.VoertuigSoort),
			euCategorie:        optOf(f.EuropeseVoertuigcategorie),
			taxiIndicator:      optOf(f.TaxiIndicator),
			diesel:             optOf(f.Diesel),
			gasoline:           optOf(f.Gasoline),
			electric:           optOf(f.Electric),
			massaKlasse:        GeneralWeightClass(f.ToegestaneMaximumMassaVoertuig),
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	rows := make([]schema.PassageHourAggregation, 0, len(order))
	for _, key := range order {
		rows = append(rows, schema.PassageHourAggregation{
			Date:                           day,
			Year:                           day.Year(),
			Month:                          int(day.Month()),
			Day:                            day.Day(),
			Week:                           isoWeek(day),
			Dow:                            int(day.Weekday()),
			Hour:                           key.hour,
			CameraID:                       key.cameraID,
			CameraNaam:                     key.cameraNaam,
			Rijrichting:                    key.rijrichting,
			CameraKijkrichting:             key.cameraKijkrichting,
			KentekenLand:                   key.kentekenLand,
			VoertuigSoort:                  key.voertuigSoort.ptr(),
			EuropeseVoertuigcategorie:      key.euCategorie.ptr(),
			TaxiIndicator:                  key.taxiIndicator.ptr(),
			Diesel:                         key.diesel.ptr(),
			Gasoline:                       key.gasoline.ptr(),
			Electric:                       key.electric.ptr(),
			ToegestaneMaximumMassaVoertuig: key.massaKlasse,
			Count:                          counts[key],
		})
	}

	return rows
}

type cameraDimensionKey struct {
	orderKaart opt[int]
	orderNaam  opt[string]
	cordon     opt[string]
	richting   opt[string]
	geom       opt[string]
	azimuth    opt[float64]
}

func cameraDimensionOf(f store.ZonePassageFact) cameraDimensionKey {
	return cameraDimensionKey{
		orderKaart: optOf(f.OrderKaart),
		orderNaam:  optOf(f.OrderNaam),
		cordon:     optOf(f.Cordon),
		richting:   optOf(f.Richting),
		geom:       optOf(f.Geom),
		azimuth:    optOf(f.Azimuth),
	}
}

type heavyTrafficKey struct {
	bucket        time.Time
	camera        cameraDimensionKey
	kentekenLand  string
	voertuigSoort opt[string]
	inrichting    opt[string]
	massaKlasse   string
}

// BuildHeavyTrafficHourAggregations groups zone fact projections into heavy
// traffic rollup rows.
func BuildHeavyTrafficHourAggregations(facts []store.ZonePassageFact) []schema.HeavyTrafficHourAggregation {
	counts := make(map[heavyTrafficKey]int)
	order := make([]heavyTrafficKey, 0)

	for _, f := range facts {
		key := heavyTrafficKey{
			bucket:        HourBucket(f.PassageAt),
			camera:        cameraDimensionOf(f),
			kentekenLand:  HeavyTrafficNationalityBucket(f.KentekenLand),
			voertuigSoort: optOf(f.VoertuigSoort),
			inrichting:    optOf(InrichtingOverride(f.VoertuigSoort, f.Inrichting)),
			massaKlasse:   HeavyTrafficWeightClass(f.KentekenLand, f.ToegestaneMaximumMassaVoertuig),
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	rows := make([]schema.HeavyTrafficHourAggregation, 0, len(order))
	for _, key := range order {
		bucket := key.bucket
		klasse := key.massaKlasse
		rows = append(rows, schema.HeavyTrafficHourAggregation{
			PassageAtTimestamp:              bucket,
			PassageAtDate:                   truncateToDay(bucket),
			PassageAtYear:                   bucket.Year(),
			PassageAtMonth:                  int(bucket.Month()),
			PassageAtDay:                    bucket.Day(),
			PassageAtWeek:                   isoWeek(bucket),
			PassageAtDayOfWeek:              DayOfWeekLabel(int(bucket.Weekday())),
			PassageAtHour:                   bucket.Hour(),
			OrderKaart:                      key.camera.orderKaart.ptr(),
			OrderNaam:                       key.camera.orderNaam.ptr(),
			Cordon:                          key.camera.cordon.ptr(),
			Richting:                        key.camera.richting.ptr(),
			Geom:                            key.camera.geom.ptr(),
			Azimuth:                         key.camera.azimuth.ptr(),
			KentekenLand:                    key.kentekenLand,
			VoertuigSoort:                   key.voertuigSoort.ptr(),
			Inrichting:                      key.inrichting.ptr(),
			VoertuigKlasseToegestaanGewicht: &klasse,
			Intensiteit:                     counts[key],
		})
	}

	return rows
}

type igorKey struct {
	bucket       time.Time
	camera       cameraDimensionKey
	kentekenLand string
	taxi         opt[bool]
	euCategorie  opt[string]
}

// BuildIgorHourAggregations groups zone fact projections into IGOR rollup
// rows. The plate country is passed through without bucketing.
func BuildIgorHourAggregations(facts []store.ZonePassageFact) []schema.IgorHourAggregation {
	counts := make(map[igorKey]int)
	order := make([]igorKey, 0)

	for _, f := range facts {
		key := igorKey{
			bucket:       HourBucket(f.PassageAt),
			camera:       cameraDimensionOf(f),
			kentekenLand: f.KentekenLand,
			taxi:         optOf(f.TaxiIndicator),
			euCategorie:  optOf(f.EuropeseVoertuigcategorie),
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	rows := make([]schema.IgorHourAggregation, 0, len(order))
	for _, key := range order {
		bucket := key.bucket
		rows = append(rows, schema.IgorHourAggregation{
			PassageAtTimestamp:        bucket,
			PassageAtDate:             truncateToDay(bucket),
			PassageAtYear:             bucket.Year(),
			PassageAtMonth:            int(bucket.Month()),
			PassageAtDay:              bucket.Day(),
			PassageAtWeek:             isoWeek(bucket),
			PassageAtDayOfWeek:        DayOfWeekLabel(int(bucket.Weekday())),
			PassageAtHour:             bucket.Hour(),
			OrderKaart:                key.camera.orderKaart.ptr(),
			OrderNaam:                 key.camera.orderNaam.ptr(),
			Cordon:                    key.camera.cordon.ptr(),
			Richting:                  key.camera.richting.ptr(),
			Geom:                      key.camera.geom.ptr(),
			Azimuth:                   key.camera.azimuth.ptr(),
			KentekenLand:              key.kentekenLand,
			TaxiIndicator:             key.taxi.ptr(),
			EuropeseVoertuigcategorie: key.euCategorie.ptr(),
			Intensiteit:               counts[key],
		})
	}

	return rows
}
