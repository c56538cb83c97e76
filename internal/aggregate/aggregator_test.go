package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotsignals/passage-api/internal/store"
)

func boolPtr(v bool) *bool {
	return &v
}

func generalFact(passageAt time.Time) store.PassageFact {
	return store.PassageFact{
		PassageAt:                      passageAt,
		CameraID:                       "cam-7",
		CameraNaam:                     "Muiderpoort",
		Rijrichting:                    1,
		CameraKijkrichting:             92.5,
		KentekenLand:                   "NL",
		VoertuigSoort:                  strPtr("Personenauto"),
		EuropeseVoertuigcategorie:      strPtr("M1"),
		TaxiIndicator:                  boolPtr(false),
		ToegestaneMaximumMassaVoertuig: intPtr(1500),
	}
}

func TestBuildHourAggregationsCountsIdenticalFacts(t *testing.T) {
	date := time.Date(2018, 10, 16, 0, 0, 0, 0, time.UTC)

	facts := make([]store.PassageFact, 0, 10)
	for i := range 10 {
		facts = append(facts, generalFact(date.Add(13*time.Hour+time.Duration(i)*time.Minute)))
	}

	rows := BuildHourAggregations(date, facts)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 10, row.Count)
	assert.Equal(t, 13, row.Hour)
	assert.Equal(t, date, row.Date)
	assert.Equal(t, 2018, row.Year)
	assert.Equal(t, 10, row.Month)
	assert.Equal(t, 16, row.Day)
	assert.Equal(t, 42, row.Week)
	// 2018-10-16 was a Tuesday
	assert.Equal(t, 2, row.Dow)
	assert.Equal(t, "NL", row.KentekenLand)
	assert.Equal(t, "klasse01_0-3500", row.ToegestaneMaximumMassaVoertuig)
}

func TestBuildHourAggregationsSplitsOnHourAndDimensions(t *testing.T) {
	date := time.Date(2018, 10, 16, 0, 0, 0, 0, time.UTC)

	early := generalFact(date.Add(8 * time.Hour))
	late := generalFact(date.Add(9 * time.Hour))
	foreign := generalFact(date.Add(8 * time.Hour))
	foreign.KentekenLand = "DE"
	heavy := generalFact(date.Add(8 * time.Hour))
	heavy.ToegestaneMaximumMassaVoertuig = intPtr(12000)

	rows := BuildHourAggregations(date, []store.PassageFact{early, late, foreign, heavy})
	require.Len(t, rows, 4)

	byHour := map[int]int{}
	for _, row := range rows {
		byHour[row.Hour] += row.Count
	}
	assert.Equal(t, map[int]int{8: 3, 9: 1}, byHour)

	lands := map[string]bool{}
	classes := map[string]bool{}
	for _, row := range rows {
		lands[row.KentekenLand] = true
		classes[row.ToegestaneMaximumMassaVoertuig] = true
	}
	assert.Equal(t, map[string]bool{"NL": true, "overig": true}, lands)
	assert.Equal(t, map[string]bool{"klasse01_0-3500": true, "klasse04_10001-20000": true}, classes)
}

func TestBuildHourAggregationsEmptyDay(t *testing.T) {
	rows := BuildHourAggregations(time.Date(2018, 10, 16, 0, 0, 0, 0, time.UTC), nil)
	assert.Empty(t, rows)
}

func TestBuildHourAggregationsNilDimensionsGroupTogether(t *testing.T) {
	date := time.Date(2018, 10, 16, 0, 0, 0, 0, time.UTC)

	a := generalFact(date.Add(10 * time.Hour))
	a.VoertuigSoort = nil
	a.TaxiIndicator = nil
	a.ToegestaneMaximumMassaVoertuig = nil
	b := generalFact(date.Add(10*time.Hour + 30*time.Minute))
	b.VoertuigSoort = nil
	b.TaxiIndicator = nil
	b.ToegestaneMaximumMassaVoertuig = nil

	rows := BuildHourAggregations(date, []store.PassageFact{a, b})
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Count)
	assert.Nil(t, rows[0].VoertuigSoort)
	assert.Nil(t, rows[0].TaxiIndicator)
	assert.Equal(t, "klasse11_80001", rows[0].ToegestaneMaximumMassaVoertuig)
}

func zoneFact(passageAt time.Time) store.ZonePassageFact {
	return store.ZonePassageFact{
		PassageAt:                      passageAt,
		KentekenLand:                   "NL",
		VoertuigSoort:                  strPtr("Bedrijfsauto"),
		Inrichting:                     strPtr("gesloten opbouw"),
		ToegestaneMaximumMassaVoertuig: intPtr(12000),
		TaxiIndicator:                  boolPtr(false),
		EuropeseVoertuigcategorie:      strPtr("N3"),
		OrderKaart:                     intPtr(14),
		OrderNaam:                      strPtr("Stadhouderskade"),
		Cordon:                         strPtr("S100"),
		Richting:                       strPtr("in"),
		Geom:                           strPtr("POINT(4.88 52.36)"),
		Azimuth:                        floatPtr(180),
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestBuildHeavyTrafficHourAggregations(t *testing.T) {
	at := time.Date(2018, 10, 16, 7, 15, 0, 0, time.UTC)

	truck := zoneFact(at)
	sameTruck := zoneFact(at.Add(20 * time.Minute))
	car := zoneFact(at)
	car.VoertuigSoort = strPtr("Personenauto")
	car.Inrichting = strPtr("stationwagen")
	car.ToegestaneMaximumMassaVoertuig = intPtr(2100)
	foreign := zoneFact(at)
	foreign.KentekenLand = "DE"

	rows := BuildHeavyTrafficHourAggregations([]store.ZonePassageFact{truck, sameTruck, car, foreign})
	require.Len(t, rows, 3)

	byKlasse := map[string]int{}
	for _, row := range rows {
		require.NotNil(t, row.VoertuigKlasseToegestaanGewicht)
		byKlasse[*row.VoertuigKlasseToegestaanGewicht] += row.Intensiteit

		assert.Equal(t, time.Date(2018, 10, 16, 7, 0, 0, 0, time.UTC), row.PassageAtTimestamp)
		assert.Equal(t, "2 dinsdag", row.PassageAtDayOfWeek)
		assert.Equal(t, 42, row.PassageAtWeek)
	}
	assert.Equal(t, map[string]int{
		"klasse 3 <= 30000": 2,
		"klasse 0 <= 3500":  1,
		"buitenland":        1,
	}, byKlasse)

	for _, row := range rows {
		if row.KentekenLand == "buitenland" {
			continue
		}
		if row.VoertuigSoort != nil && *row.VoertuigSoort == "Personenauto" {
			require.NotNil(t, row.Inrichting)
			assert.Equal(t, "Personenauto", *row.Inrichting)
		}
	}
}

func TestBuildIgorHourAggregationsPassesCountryThrough(t *testing.T) {
	at := time.Date(2018, 10, 16, 22, 45, 0, 0, time.UTC)

	nl := zoneFact(at)
	de := zoneFact(at)
	de.KentekenLand = "DE"
	taxi := zoneFact(at)
	taxi.TaxiIndicator = boolPtr(true)

	rows := BuildIgorHourAggregations([]store.ZonePassageFact{nl, de, taxi})
	require.Len(t, rows, 3)

	lands := map[string]bool{}
	for _, row := range rows {
		lands[row.KentekenLand] = true
		assert.Equal(t, 22, row.PassageAtHour)
		assert.Equal(t, 1, row.Intensiteit)
	}
	// unbucketed, unlike the other rollups
	assert.Equal(t, map[string]bool{"NL": true, "DE": true}, lands)
}

func TestNewAggregatorRejectsUnknownVariant(t *testing.T) {
	_, err := NewAggregator(nil, Variant("weekly"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown aggregation variant")

	for _, v := range []Variant{VariantGeneral, VariantHeavyTraffic, VariantIgor} {
		_, err := NewAggregator(nil, v)
		assert.NoError(t, err)
	}
}
