package schema

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// PassageVehicle is an append-only dimension row describing the vehicle
// characteristics of a measurement. Same content-addressed lifecycle as
// PassageCamera: one row per distinct content set, never mutated.
type PassageVehicle struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Hash is the content digest over the canonical fields (hex SHA-1)
	Hash string `gorm:"column:hash;not null;uniqueIndex;type:varchar(40)"`

	KentekenLand                            string     `gorm:"column:kenteken_land;not null;type:text"`
	VoertuigSoort                           *string    `gorm:"column:voertuig_soort;type:text"`
	Merk                                    *string    `gorm:"column:merk;type:text"`
	Inrichting                              *string    `gorm:"column:inrichting;type:text"`
	DatumEersteToelating                    *time.Time `gorm:"column:datum_eerste_toelating;type:date"`
	DatumTenaamstelling                     *time.Time `gorm:"column:datum_tenaamstelling;type:date"`
	ToegestaneMaximumMassaVoertuig          *int       `gorm:"column:toegestane_maximum_massa_voertuig"`
	EuropeseVoertuigcategorie               *string    `gorm:"column:europese_voertuigcategorie;type:text"`
	EuropeseVoertuigcategorieToevoeging     *string    `gorm:"column:europese_voertuigcategorie_toevoeging;type:text"`
	TaxiIndicator                           *bool      `gorm:"column:taxi_indicator"`
	MaximaleConstructieSnelheidBromsnorfiets *int16    `gorm:"column:maximale_constructie_snelheid_bromsnorfiets"`

	// Fuel properties
	Brandstoffen datatypes.JSON `gorm:"column:brandstoffen"`
	ExtraData    datatypes.JSON `gorm:"column:extra_data"`
	Diesel       *int16         `gorm:"column:diesel"`
	Gasoline     *int16         `gorm:"column:gasoline"`
	Electric     *int16         `gorm:"column:electric"`

	// VersitKlasse is the TNO Versit emission class
	VersitKlasse *string `gorm:"column:versit_klasse;type:text"`
}

// TableName specifies the table name for the PassageVehicle model
func (PassageVehicle) TableName() string {
	return "passage_passagevehicle"
}

// Canonical returns the business fields that define this vehicle's identity.
// Nil-valued fields are omitted so that an absent key and an explicit null
// digest identically. Dates are rendered as ISO calendar dates.
func (v *PassageVehicle) Canonical() map[string]any {
	fields := map[string]any{
		"kenteken_land": v.KentekenLand,
	}
	putString(fields, "voertuig_soort", v.VoertuigSoort)
	putString(fields, "merk", v.Merk)
	putString(fields, "inrichting", v.Inrichting)
	putDate(fields, "datum_eerste_toelating", v.DatumEersteToelating)
	putDate(fields, "datum_tenaamstelling", v.DatumTenaamstelling)
	if v.ToegestaneMaximumMassaVoertuig != nil {
		fields["toegestane_maximum_massa_voertuig"] = *v.ToegestaneMaximumMassaVoertuig
	}
	putString(fields, "europese_voertuigcategorie", v.EuropeseVoertuigcategorie)
	putString(fields, "europese_voertuigcategorie_toevoeging", v.EuropeseVoertuigcategorieToevoeging)
	if v.TaxiIndicator != nil {
		fields["taxi_indicator"] = *v.TaxiIndicator
	}
	if v.MaximaleConstructieSnelheidBromsnorfiets != nil {
		fields["maximale_constructie_snelheid_bromsnorfiets"] = *v.MaximaleConstructieSnelheidBromsnorfiets
	}
	putJSON(fields, "brandstoffen", v.Brandstoffen)
	putJSON(fields, "extra_data", v.ExtraData)
	if v.Diesel != nil {
		fields["diesel"] = *v.Diesel
	}
	if v.Gasoline != nil {
		fields["gasoline"] = *v.Gasoline
	}
	if v.Electric != nil {
		fields["electric"] = *v.Electric
	}
	putString(fields, "versit_klasse", v.VersitKlasse)
	return fields
}

func putString(fields map[string]any, key string, value *string) {
	if value != nil {
		fields[key] = *value
	}
}

func putDate(fields map[string]any, key string, value *time.Time) {
	if value != nil {
		fields[key] = value.Format("2006-01-02")
	}
}

func putJSON(fields map[string]any, key string, value datatypes.JSON) {
	if len(value) == 0 {
		return
	}
	var decoded any
	if err := json.Unmarshal(value, &decoded); err == nil && decoded != nil {
		fields[key] = decoded
	}
}
