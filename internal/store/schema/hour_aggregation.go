package schema

import (
	"time"
)

// PassageHourAggregation is the general hourly rollup: one row per camera,
// hour and classification-dimension combination for a calendar day. Rows
// for a day are fully recomputed by the aggregation job, never updated
// incrementally.
type PassageHourAggregation struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	Date  time.Time `gorm:"column:date;not null;type:date"`
	Year  int       `gorm:"column:year;not null"`
	Month int       `gorm:"column:month;not null"`
	Day   int       `gorm:"column:day;not null"`
	Week  int       `gorm:"column:week;not null"`
	// Dow is the day of week, 0 = Sunday
	Dow  int `gorm:"column:dow;not null"`
	Hour int `gorm:"column:hour;not null"`

	CameraID           string  `gorm:"column:camera_id;not null;type:text"`
	CameraNaam         string  `gorm:"column:camera_naam;not null;type:text"`
	Rijrichting        int     `gorm:"column:rijrichting;not null"`
	CameraKijkrichting float64 `gorm:"column:camera_kijkrichting;not null"`

	// KentekenLand is bucketed to "NL" or "overig"
	KentekenLand              string  `gorm:"column:kenteken_land;not null;type:text"`
	VoertuigSoort             *string `gorm:"column:voertuig_soort;type:text"`
	EuropeseVoertuigcategorie *string `gorm:"column:europese_voertuigcategorie;type:text"`
	TaxiIndicator             *bool   `gorm:"column:taxi_indicator"`
	Diesel                    *int    `gorm:"column:diesel"`
	Gasoline                  *int    `gorm:"column:gasoline"`
	Electric                  *int    `gorm:"column:electric"`
	// ToegestaneMaximumMassaVoertuig holds the weight class label, not a mass
	ToegestaneMaximumMassaVoertuig string `gorm:"column:toegestane_maximum_massa_voertuig;not null;type:text"`

	Count int `gorm:"column:count;not null"`
}

// TableName specifies the table name for the PassageHourAggregation model
func (PassageHourAggregation) TableName() string {
	return "passage_passagehouraggregation"
}
