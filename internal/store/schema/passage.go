package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Passage represents the passages table - one row per recorded vehicle
// sighting. Each passing of a license plate through an environment zone
// camera results in exactly one row here, keyed by the client-supplied id.
//
// The table is partitioned per day on passage_at by the storage layer;
// the aggregation and privacy jobs therefore always operate on a single
// calendar day at a time.
type Passage struct {
	// ID is the externally supplied unique passage id
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	// PassageAt is the sighting timestamp (UTC)
	PassageAt time.Time `gorm:"column:passage_at;not null;index"`
	// CreatedAt is the ingestion timestamp
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index"`
	// Version is the payload schema version tag
	Version string `gorm:"column:version;not null;type:text"`

	// Plate recognition confidences, bounded 0..1000
	KentekenNummerBetrouwbaarheid    int16          `gorm:"column:kenteken_nummer_betrouwbaarheid;not null"`
	KentekenLandBetrouwbaarheid      int16          `gorm:"column:kenteken_land_betrouwbaarheid;not null"`
	KentekenKaraktersBetrouwbaarheid datatypes.JSON `gorm:"column:kenteken_karakters_betrouwbaarheid"`

	IndicatieSnelheid      *float64 `gorm:"column:indicatie_snelheid"`
	AutomatischVerwerkbaar *bool    `gorm:"column:automatisch_verwerkbaar"`

	// Camera properties, inlined on the fact row for aggregation
	Straat             *string        `gorm:"column:straat;type:text"`
	Rijrichting        int16          `gorm:"column:rijrichting;not null"`
	Rijstrook          int16          `gorm:"column:rijstrook;not null"`
	CameraID           string         `gorm:"column:camera_id;not null;type:text"`
	CameraNaam         string         `gorm:"column:camera_naam;not null;type:text"`
	CameraKijkrichting float64        `gorm:"column:camera_kijkrichting;not null"`
	CameraLocatie      datatypes.JSON `gorm:"column:camera_locatie"`

	// Vehicle properties, inlined on the fact row for aggregation.
	// These are the privacy-sensitive fields rewritten by the privacy job.
	KentekenLand                            string         `gorm:"column:kenteken_land;not null;type:text"`
	VoertuigSoort                           *string        `gorm:"column:voertuig_soort;type:text"`
	Merk                                    *string        `gorm:"column:merk;type:text"`
	Inrichting                              *string        `gorm:"column:inrichting;type:text"`
	DatumEersteToelating                    *time.Time     `gorm:"column:datum_eerste_toelating;type:date"`
	DatumTenaamstelling                     *time.Time     `gorm:"column:datum_tenaamstelling;type:date"`
	ToegestaneMaximumMassaVoertuig          *int           `gorm:"column:toegestane_maximum_massa_voertuig"`
	EuropeseVoertuigcategorie               *string        `gorm:"column:europese_voertuigcategorie;type:text"`
	EuropeseVoertuigcategorieToevoeging     *string        `gorm:"column:europese_voertuigcategorie_toevoeging;type:text"`
	TaxiIndicator                           *bool          `gorm:"column:taxi_indicator"`
	MaximaleConstructieSnelheidBromsnorfiets *int16        `gorm:"column:maximale_constructie_snelheid_bromsnorfiets"`
	Brandstoffen                            datatypes.JSON `gorm:"column:brandstoffen"`
	ExtraData                               datatypes.JSON `gorm:"column:extra_data"`
	Diesel                                  *int16         `gorm:"column:diesel"`
	Gasoline                                *int16         `gorm:"column:gasoline"`
	Electric                                *int16         `gorm:"column:electric"`
	VersitKlasse                            *string        `gorm:"column:versit_klasse;type:text"`

	// PrivacyCheck marks whether the privacy rewrite has been applied.
	// A row is immutable once this is set.
	PrivacyCheck bool `gorm:"column:privacy_check;not null;default:false;index"`

	// Content-addressed dimension references resolved at ingest time
	PassageCameraID  *int64 `gorm:"column:passage_camera_id"`
	PassageVehicleID *int64 `gorm:"column:passage_vehicle_id"`

	// Associations
	PassageCamera  *PassageCamera  `gorm:"foreignKey:PassageCameraID"`
	PassageVehicle *PassageVehicle `gorm:"foreignKey:PassageVehicleID"`
}

// TableName specifies the table name for the Passage model
func (Passage) TableName() string {
	return "passage_passage"
}
