package aggregate

import "time"

// DayOfWeekLabel maps a day-of-week number (0 = Sunday, matching
// time.Weekday) to its Dutch report label.
func DayOfWeekLabel(dow int) string {
	switch dow {
	case 0:
		return "7 zondag"
	case 1:
		return "1 maandag"
	case 2:
		return "2 dinsdag"
	case 3:
		return "3 woensdag"
	case 4:
		return "4 donderdag"
	case 5:
		return "5 vrijdag"
	case 6:
		return "6 zaterdag"
	default:
		return "onbekend"
	}
}

// NationalityBucket collapses the plate country to "NL" or "overig" for the
// general rollup.
func NationalityBucket(kentekenLand string) string {
	if kentekenLand == "NL" {
		return "NL"
	}
	return "overig"
}

// HeavyTrafficNationalityBucket collapses the plate country to "NL" or
// "buitenland" for the zone rollups.
func HeavyTrafficNationalityBucket(kentekenLand string) string {
	if kentekenLand == "NL" {
		return "NL"
	}
	return "buitenland"
}

// InrichtingOverride returns the body classification to report: passenger
// cars always report as "Personenauto" regardless of the registered body.
func InrichtingOverride(voertuigSoort, inrichting *string) *string {
	if voertuigSoort != nil && *voertuigSoort == "Personenauto" {
		label := "Personenauto"
		return &label
	}
	return inrichting
}

// GeneralWeightClass buckets the permitted maximum mass into the eleven
// classes of the general rollup. The second class is half-open on the
// right: 7500 kg itself belongs to the third class. An unknown mass lands
// in the top class, keeping the historical series comparable.
func GeneralWeightClass(massaKg *int) string {
	if massaKg == nil {
		return "klasse11_80001"
	}
	m := *massaKg
	switch {
	case m <= 3500:
		return "klasse01_0-3500"
	case m < 7500:
		return "klasse02_3501-7500"
	case m <= 10000:
		return "klasse03_7501-10000"
	case m <= 20000:
		return "klasse04_10001-20000"
	case m <= 30000:
		return "klasse05_20001-30000"
	case m <= 40000:
		return "klasse06_30001-40000"
	case m <= 50000:
		return "klasse07_40001-50000"
	case m <= 60000:
		return "klasse08_50001-60000"
	case m <= 70000:
		return "klasse09_60001-70000"
	case m <= 80000:
		return "klasse10_70001-80000"
	default:
		return "klasse11_80001"
	}
}

// HeavyTrafficWeightClass buckets the permitted maximum mass for the heavy
// traffic rollup. Foreign plates are reported as one "buitenland" bucket
// because their registry data is unreliable; an unknown mass on a Dutch
// plate reports "onbekend".
func HeavyTrafficWeightClass(kentekenLand string, massaKg *int) string {
	if kentekenLand != "NL" {
		return "buitenland"
	}
	if massaKg == nil {
		return "onbekend"
	}
	m := *massaKg
	switch {
	case m <= 3500:
		return "klasse 0 <= 3500"
	case m <= 7500:
		return "klasse 1 <= 7500"
	case m <= 11250:
		return "klasse 2 <= 11250"
	case m <= 30000:
		return "klasse 3 <= 30000"
	case m <= 50000:
		return "klasse 4 <= 50000"
	default:
		return "klasse 5 > 50000"
	}
}

// HourBucket truncates a passage timestamp to the start of its hour in UTC.
func HourBucket(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// isoWeek returns the ISO 8601 week number of t, matching the week numbers
// PostgreSQL's EXTRACT(week ...) produces.
func isoWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}
