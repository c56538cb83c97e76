package schema

import (
	"gorm.io/datatypes"
)

// PassageCamera is an append-only dimension row describing the street
// fixture that made a measurement. Identity is the SHA-1 digest of the
// canonical business fields; rows are created on first sighting of a
// distinct content set and never updated or deleted.
type PassageCamera struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Hash is the content digest over the canonical fields (hex SHA-1)
	Hash string `gorm:"column:hash;not null;uniqueIndex;type:varchar(40)"`

	Straat             *string `gorm:"column:straat;type:text"`
	Rijrichting        int16   `gorm:"column:rijrichting;not null"`
	Rijstrook          int16   `gorm:"column:rijstrook;not null"`
	// CameraID is not the primary key but a unique identifier of the camera equipment itself
	CameraID           string  `gorm:"column:camera_id;not null;type:text"`
	CameraNaam         string  `gorm:"column:camera_naam;not null;type:text"`
	CameraKijkrichting float64 `gorm:"column:camera_kijkrichting;not null"`
	// CameraLocatie is excluded from the content digest: the reported
	// coordinates are too imprecise to distinguish camera configurations.
	CameraLocatie datatypes.JSON `gorm:"column:camera_locatie"`
}

// TableName specifies the table name for the PassageCamera model
func (PassageCamera) TableName() string {
	return "passage_passagecamera"
}

// Canonical returns the business fields that define this camera's identity.
// Nil-valued fields are omitted so that an absent key and an explicit null
// digest identically. CameraLocatie is deliberately left out.
func (c *PassageCamera) Canonical() map[string]any {
	fields := map[string]any{
		"rijrichting":         c.Rijrichting,
		"rijstrook":           c.Rijstrook,
		"camera_id":           c.CameraID,
		"camera_naam":         c.CameraNaam,
		"camera_kijkrichting": c.CameraKijkrichting,
	}
	if c.Straat != nil {
		fields["straat"] = *c.Straat
	}
	return fields
}
