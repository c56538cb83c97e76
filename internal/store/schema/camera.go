package schema

// Camera is the static reference table with one row per physical camera
// configuration, keyed by (camera_naam, camera_kijkrichting, rijrichting).
// It carries cordon membership and display metadata and is maintained from
// an external reference dataset; this service only reads it as a join
// target for the zone aggregations.
type Camera struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	CameraNaam         string   `gorm:"column:camera_naam;not null;index;type:text"`
	Rijrichting        *int     `gorm:"column:rijrichting;index"`
	CameraKijkrichting *float64 `gorm:"column:camera_kijkrichting;index"`

	// OrderKaart and OrderNaam come from the "volgorde" / "straatnaam"
	// columns of the reference sheet
	OrderKaart *int    `gorm:"column:order_kaart"`
	OrderNaam  *string `gorm:"column:order_naam;type:text"`
	// Cordon names the logical camera grouping (e.g. "S100", "A10")
	Cordon   *string  `gorm:"column:cordon;index;type:text"`
	Richting *string  `gorm:"column:richting;type:varchar(10)"`
	Geom     *string  `gorm:"column:geom;type:text"`
	Azimuth  *float64 `gorm:"column:azimuth"`
}

// TableName specifies the table name for the Camera model
func (Camera) TableName() string {
	return "passage_camera"
}
