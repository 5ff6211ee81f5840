package models

// ApplicationSequence holds the per-year counter backing anonymous id
// allocation. Incremented atomically so two submissions can never draw the
// same sequence number.
type ApplicationSequence struct {
	Year    int `gorm:"column:year;primaryKey"`
	LastSeq int `gorm:"column:last_seq;not null;default:0"`
}
