package entity

import (
	"time"

	"github.com/google/uuid"
)

type ClaimTurn struct {
	Speaker   string    `json:"speaker"`
	Utterance string    `json:"utterance"`
	At        time.Time `json:"at"`
}

// ClaimSubmission is the archived outcome of one submit attempt.
type ClaimSubmission struct {
	Id                uuid.UUID
	SessionId         string
	ClaimId           string
	CrmLeadId         string
	TestMode          bool
	ClaimStatus       string
	Fields            map[string]string
	Turns             []ClaimTurn
	DocumentsUploaded int
	DocumentsTotal    int
	SubmittedAt       time.Time
	CreatedAt         time.Time
}
