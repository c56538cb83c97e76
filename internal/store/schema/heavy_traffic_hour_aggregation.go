package schema

import (
	"time"
)

// HeavyTrafficHourAggregation is the "zwaar verkeer" zone rollup: hourly
// counts for passages seen by cordon cameras, grouped on vehicle kind,
// body classification and permitted-weight class. Fully recomputed per day.
type HeavyTrafficHourAggregation struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	// PassageAtTimestamp is the hour bucket start
	PassageAtTimestamp time.Time `gorm:"column:passage_at_timestamp;not null"`
	PassageAtDate      time.Time `gorm:"column:passage_at_date;not null;type:date"`
	PassageAtYear      int       `gorm:"column:passage_at_year;not null"`
	PassageAtMonth     int       `gorm:"column:passage_at_month;not null"`
	PassageAtDay       int       `gorm:"column:passage_at_day;not null"`
	PassageAtWeek      int       `gorm:"column:passage_at_week;not null"`
	// PassageAtDayOfWeek is a localized label such as "1 maandag"
	PassageAtDayOfWeek string `gorm:"column:passage_at_day_of_week;not null;type:varchar(20)"`
	PassageAtHour      int    `gorm:"column:passage_at_hour;not null"`

	// Camera dimension block, from the static reference table
	OrderKaart *int     `gorm:"column:order_kaart"`
	OrderNaam  *string  `gorm:"column:order_naam;type:text"`
	Cordon     *string  `gorm:"column:cordon;index;type:text"`
	Richting   *string  `gorm:"column:richting;type:varchar(3)"`
	Geom       *string  `gorm:"column:geom;type:text"`
	Azimuth    *float64 `gorm:"column:azimuth"`

	// Vehicle dimension block
	// KentekenLand is bucketed to "NL" or "buitenland"
	KentekenLand  string  `gorm:"column:kenteken_land;not null;type:text"`
	VoertuigSoort *string `gorm:"column:voertuig_soort;type:text"`
	Inrichting    *string `gorm:"column:inrichting;type:text"`
	// VoertuigKlasseToegestaanGewicht is the weight class label,
	// "klasse 0 <= 3500" through "klasse 5 > 50000", or "buitenland"
	VoertuigKlasseToegestaanGewicht *string `gorm:"column:voertuig_klasse_toegestaan_gewicht;type:text"`

	Intensiteit int `gorm:"column:intensiteit;not null"`
}

// TableName specifies the table name for the HeavyTrafficHourAggregation model
func (HeavyTrafficHourAggregation) TableName() string {
	return "passage_heavytraffichouraggregation"
}
