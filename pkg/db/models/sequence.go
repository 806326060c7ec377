package models

// Sequence is a per-business counter backing human-readable ids (F###, M####,
// A####). Incremented atomically with an upsert so concurrent writers in the
// same business never mint the same id.
type Sequence struct {
	BusinessID string `gorm:"column:business_id;primaryKey"`
	Kind       string `gorm:"column:kind;primaryKey"`
	Value      int64  `gorm:"column:value;not null;default:0"`
}
