package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iotsignals/passage-api/internal/domain"
)

const (
	confidenceMin = 0
	confidenceMax = 1000

	// privacyMassClampKg replaces any permitted mass at or below the
	// light-vehicle threshold, so individual light vehicles cannot be
	// singled out by their exact registered mass
	privacyMassThresholdKg = 3500
	privacyMassClampKg     = 1500

	passengerCarLabel = "Personenauto"
)

// Validate checks the record's schema and range constraints.
func (r *Record) Validate() error {
	if r.ID == uuid.Nil {
		return domain.NewValidationError("id", "is required")
	}
	if r.PassageAt.IsZero() {
		return domain.NewValidationError("passage_at", "is required")
	}
	if err := validConfidence("kenteken_nummer_betrouwbaarheid", r.KentekenNummerBetrouwbaarheid); err != nil {
		return err
	}
	if err := validConfidence("kenteken_land_betrouwbaarheid", r.KentekenLandBetrouwbaarheid); err != nil {
		return err
	}
	for i, c := range r.KentekenKaraktersBetrouwbaarheid {
		field := fmt.Sprintf("kenteken_karakters_betrouwbaarheid[%d]", i)
		if err := validConfidence(field, c.Betrouwbaarheid); err != nil {
			return err
		}
	}
	return nil
}

func validConfidence(field string, value int) error {
	if value < confidenceMin || value > confidenceMax {
		return domain.NewValidationError(field,
			fmt.Sprintf("must be between %d and %d, got %d", confidenceMin, confidenceMax, value))
	}
	return nil
}

// Normalize applies the privacy rules to the record in place, before
// anything is stored. The transform is not reversible: once normalized,
// the original values are gone.
//
// Rules:
//   - first-registration date keeps only its year (January 1st)
//   - name-on-registration date is dropped entirely
//   - a permitted mass of at most 3500 kg is clamped to 1500 kg, and the
//     brand and EU category suffix are dropped with it
//   - passenger cars report the canonical body label regardless of the
//     registered body
//
// Re-applying the transform to an already-normalized record is a no-op.
func (r *Record) Normalize() {
	if r.DatumEersteToelating != nil {
		r.DatumEersteToelating = &Date{Time: truncateToYearStart(r.DatumEersteToelating.Time)}
	}
	r.DatumTenaamstelling = nil

	if r.ToegestaneMaximumMassaVoertuig != nil && *r.ToegestaneMaximumMassaVoertuig <= privacyMassThresholdKg {
		clamped := privacyMassClampKg
		r.ToegestaneMaximumMassaVoertuig = &clamped
		r.Merk = nil
		r.EuropeseVoertuigcategorieToevoeging = nil
	}

	if r.VoertuigSoort != nil && strings.EqualFold(*r.VoertuigSoort, passengerCarLabel) {
		label := passengerCarLabel
		r.Inrichting = &label
	}
}

func truncateToYearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
