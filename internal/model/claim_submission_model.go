package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ClaimSubmission struct {
	Id                uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId         string            `gorm:"type:varchar(64);not null;uniqueIndex"`
	ClaimId           string            `gorm:"type:varchar(64);not null;index"`
	CrmLeadId         *string           `gorm:"type:varchar(64)"`
	TestMode          bool              `gorm:"not null;default:false"`
	ClaimStatus       string            `gorm:"type:varchar(32);not null;index"`
	Fields            datatypes.JSONMap `gorm:"type:jsonb;not null"`
	Turns             datatypes.JSON    `gorm:"type:jsonb"`
	DocumentsUploaded int               `gorm:"not null;default:0"`
	DocumentsTotal    int               `gorm:"not null;default:0"`
	SubmittedAt       time.Time         `gorm:"not null;index"`
	CreatedAt         time.Time         `gorm:"default:now();not null"`
}

func (ClaimSubmission) TableName() string {
	return "claim_submissions"
}
