package models

import (
	"time"
)

type ReportType string

const (
	TypeJobOrder   ReportType = "job-order"
	TypeWorkReport ReportType = "work-report"
	TypeWageReport ReportType = "wage-report"
)

func ValidReportType(t ReportType) bool {
	switch t {
	case TypeJobOrder, TypeWorkReport, TypeWageReport:
		return true
	}
	return false
}

// Report is a logical document. TransactionID and ContentDigest always point
// at the most recent version. A row with VersionsCount == 0 is a reservation
// made before the ledger anchored anything; it is excluded from listings.
type Report struct {
	ID            string     `gorm:"primaryKey"`
	AuthorID      string     `gorm:"index;not null"`
	Type          ReportType `gorm:"not null"`
	TransactionID string     `gorm:"index"`
	ContentDigest string
	VersionsCount int `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Author   *User     `gorm:"foreignKey:AuthorID"`
	Versions []Version `gorm:"foreignKey:ReportID"`
}
