package models

import (
	"time"
)

type VersionKind string

const (
	KindInit   VersionKind = "init"
	KindUpdate VersionKind = "update"
)

// Version is an immutable history entry for a report. TransactionID is
// unique across the table and serves as the idempotency key when an index
// write is replayed after a partial failure.
type Version struct {
	ID            string      `gorm:"primaryKey"`
	ReportID      string      `gorm:"index;not null"`
	TransactionID string      `gorm:"uniqueIndex;not null"`
	ContentDigest string      `gorm:"not null"`
	Kind          VersionKind `gorm:"not null;default:'update'"`
	CreatedAt     time.Time
}
