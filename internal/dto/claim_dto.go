package dto

import "time"

type ClaimReviewResponse struct {
	SessionId     string            `json:"session_id"`
	CollectedData map[string]string `json:"collected_data"`
	Status        string            `json:"status"`
}

type SubmitClaimRequest struct {
	SessionId string            `json:"session_id" validate:"required"`
	ClaimData map[string]string `json:"claim_data"`
}

type SubmitClaimResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	ClaimId           string `json:"claim_id"`
	DocumentsCount    *int   `json:"documents_count,omitempty"`
	DocumentsUploaded *int   `json:"documents_uploaded,omitempty"`
	DocumentsTotal    *int   `json:"documents_total,omitempty"`
}

type EstimateCompensationRequest struct {
	OriginIata string  `json:"origin_iata" validate:"required,len=3"`
	DestIata   string  `json:"dest_iata" validate:"required,len=3"`
	DelayHours float64 `json:"delay_hours" validate:"gte=0"`
}

type ClaimTurnMessage struct {
	Speaker   string    `json:"speaker"`
	Utterance string    `json:"utterance"`
	At        time.Time `json:"at"`
}

// ClaimSubmittedMessage is the in-process event published after a submit
// attempt reached the CRM (or test mode).
type ClaimSubmittedMessage struct {
	SessionId         string             `json:"session_id"`
	ClaimId           string             `json:"claim_id"`
	CrmLeadId         string             `json:"crm_lead_id,omitempty"`
	TestMode          bool               `json:"test_mode"`
	ClaimStatus       string             `json:"claim_status"`
	Fields            map[string]string  `json:"fields"`
	Turns             []ClaimTurnMessage `json:"turns"`
	DocumentsUploaded int                `json:"documents_uploaded"`
	DocumentsTotal    int                `json:"documents_total"`
	SubmittedAt       time.Time          `json:"submitted_at"`
}

type ClaimSubmissionResponse struct {
	Id                string            `json:"id"`
	SessionId         string            `json:"session_id"`
	ClaimId           string            `json:"claim_id"`
	CrmLeadId         string            `json:"crm_lead_id,omitempty"`
	TestMode          bool              `json:"test_mode"`
	ClaimStatus       string            `json:"claim_status"`
	Fields            map[string]string `json:"fields"`
	DocumentsUploaded int               `json:"documents_uploaded"`
	DocumentsTotal    int               `json:"documents_total"`
	SubmittedAt       time.Time         `json:"submitted_at"`
}

// ClaimListQuery filters the admin claim listing.
type ClaimListQuery struct {
	Limit       int       `query:"limit"`
	Offset      int       `query:"offset"`
	Status      string    `query:"status"`
	Since       time.Time `query:"-"`
	ExcludeTest bool      `query:"exclude_test"`
}

type ClaimListResponse struct {
	Items []*ClaimSubmissionResponse `json:"items"`
	Total int64                      `json:"total"`
}
