package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Date is a calendar date without a time component, serialized as
// "2006-01-02" on the wire.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a JSON string as a calendar date
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date as "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

// CharacterConfidence is the recognition confidence of a single plate
// character, bounded 0..1000.
type CharacterConfidence struct {
	Positie         int `json:"positie"`
	Betrouwbaarheid int `json:"betrouwbaarheid"`
}

// Record is an incoming passage measurement as delivered by the camera
// middleware, after the transport layer has normalized its key casing.
type Record struct {
	ID        uuid.UUID `json:"id"`
	PassageAt time.Time `json:"passage_at"`
	Version   string    `json:"version"`

	KentekenNummerBetrouwbaarheid    int                   `json:"kenteken_nummer_betrouwbaarheid"`
	KentekenLandBetrouwbaarheid      int                   `json:"kenteken_land_betrouwbaarheid"`
	KentekenKaraktersBetrouwbaarheid []CharacterConfidence `json:"kenteken_karakters_betrouwbaarheid"`

	IndicatieSnelheid      *float64 `json:"indicatie_snelheid"`
	AutomatischVerwerkbaar *bool    `json:"automatisch_verwerkbaar"`

	Straat             *string         `json:"straat"`
	Rijrichting        int16           `json:"rijrichting"`
	Rijstrook          int16           `json:"rijstrook"`
	CameraID           string          `json:"camera_id"`
	CameraNaam         string          `json:"camera_naam"`
	CameraKijkrichting float64         `json:"camera_kijkrichting"`
	CameraLocatie      json.RawMessage `json:"camera_locatie"`

	KentekenLand                             string          `json:"kenteken_land"`
	VoertuigSoort                            *string         `json:"voertuig_soort"`
	Merk                                     *string         `json:"merk"`
	Inrichting                               *string         `json:"inrichting"`
	DatumEersteToelating                     *Date           `json:"datum_eerste_toelating"`
	DatumTenaamstelling                      *Date           `json:"datum_tenaamstelling"`
	ToegestaneMaximumMassaVoertuig           *int            `json:"toegestane_maximum_massa_voertuig"`
	EuropeseVoertuigcategorie                *string         `json:"europese_voertuigcategorie"`
	EuropeseVoertuigcategorieToevoeging      *string         `json:"europese_voertuigcategorie_toevoeging"`
	TaxiIndicator                            *bool           `json:"taxi_indicator"`
	MaximaleConstructieSnelheidBromsnorfiets *int16          `json:"maximale_constructie_snelheid_bromsnorfiets"`
	Brandstoffen                             json.RawMessage `json:"brandstoffen"`
	ExtraData                                json.RawMessage `json:"extra_data"`
	Diesel                                   *int16          `json:"diesel"`
	Gasoline                                 *int16          `json:"gasoline"`
	Electric                                 *int16          `json:"electric"`
	VersitKlasse                             *string         `json:"versit_klasse"`
}
