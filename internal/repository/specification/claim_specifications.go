package specification

import (
	"time"

	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByClaimStatus struct {
	Status string
}

func (s ByClaimStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("claim_status = ?", s.Status)
}

// SubmittedSince keeps submissions at or after Since.
type SubmittedSince struct {
	Since time.Time
}

func (s SubmittedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("submitted_at >= ?", s.Since)
}

// ExcludeTestMode drops submissions made without a CRM.
type ExcludeTestMode struct{}

func (ExcludeTestMode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("test_mode = ?", false)
}
