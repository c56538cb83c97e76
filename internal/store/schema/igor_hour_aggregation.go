package schema

import (
	"time"
)

// IgorHourAggregation is the cordon-filtered rollup consumed by IGOR and
// the Druktebeeld dashboards. Same calendar and camera dimension blocks as
// the heavy traffic rollup, but grouped on taxi indicator and EU vehicle
// category with the plate country passed through unbucketed.
type IgorHourAggregation struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	PassageAtTimestamp time.Time `gorm:"column:passage_at_timestamp;not null"`
	PassageAtDate      time.Time `gorm:"column:passage_at_date;not null;type:date"`
	PassageAtYear      int       `gorm:"column:passage_at_year;not null"`
	PassageAtMonth     int       `gorm:"column:passage_at_month;not null"`
	PassageAtDay       int       `gorm:"column:passage_at_day;not null"`
	PassageAtWeek      int       `gorm:"column:passage_at_week;not null"`
	PassageAtDayOfWeek string    `gorm:"column:passage_at_day_of_week;not null;type:varchar(20)"`
	PassageAtHour      int       `gorm:"column:passage_at_hour;not null"`

	OrderKaart *int     `gorm:"column:order_kaart"`
	OrderNaam  *string  `gorm:"column:order_naam;type:text"`
	Cordon     *string  `gorm:"column:cordon;index;type:text"`
	Richting   *string  `gorm:"column:richting;type:varchar(3)"`
	Geom       *string  `gorm:"column:geom;type:text"`
	Azimuth    *float64 `gorm:"column:azimuth"`

	KentekenLand              string  `gorm:"column:kenteken_land;not null;type:text"`
	TaxiIndicator             *bool   `gorm:"column:taxi_indicator"`
	EuropeseVoertuigcategorie *string `gorm:"column:europese_voertuigcategorie;type:text"`

	Intensiteit int `gorm:"column:intensiteit;not null"`
}

// TableName specifies the table name for the IgorHourAggregation model
func (IgorHourAggregation) TableName() string {
	return "passage_igorhouraggregation"
}
