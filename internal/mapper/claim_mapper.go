package mapper

import (
	"encoding/json"

	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/model"

	"gorm.io/datatypes"
)

type ClaimMapper struct{}

func NewClaimMapper() *ClaimMapper {
	return &ClaimMapper{}
}

func (m *ClaimMapper) ClaimSubmissionToModel(s *entity.ClaimSubmission) *model.ClaimSubmission {
	if s == nil {
		return nil
	}

	fields := make(datatypes.JSONMap, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}

	var turns datatypes.JSON
	if len(s.Turns) > 0 {
		if raw, err := json.Marshal(s.Turns); err == nil {
			turns = raw
		}
	}

	var leadID *string
	if s.CrmLeadId != "" {
		id := s.CrmLeadId
		leadID = &id
	}

	return &model.ClaimSubmission{
		Id:                s.Id,
		SessionId:         s.SessionId,
		ClaimId:           s.ClaimId,
		CrmLeadId:         leadID,
		TestMode:          s.TestMode,
		ClaimStatus:       s.ClaimStatus,
		Fields:            fields,
		Turns:             turns,
		DocumentsUploaded: s.DocumentsUploaded,
		DocumentsTotal:    s.DocumentsTotal,
		SubmittedAt:       s.SubmittedAt,
		CreatedAt:         s.CreatedAt,
	}
}

func (m *ClaimMapper) ClaimSubmissionToEntity(s *model.ClaimSubmission) *entity.ClaimSubmission {
	if s == nil {
		return nil
	}

	fields := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		if str, ok := v.(string); ok {
			fields[k] = str
		}
	}

	var turns []entity.ClaimTurn
	if len(s.Turns) > 0 {
		_ = json.Unmarshal(s.Turns, &turns)
	}

	leadID := ""
	if s.CrmLeadId != nil {
		leadID = *s.CrmLeadId
	}

	return &entity.ClaimSubmission{
		Id:                s.Id,
		SessionId:         s.SessionId,
		ClaimId:           s.ClaimId,
		CrmLeadId:         leadID,
		TestMode:          s.TestMode,
		ClaimStatus:       s.ClaimStatus,
		Fields:            fields,
		Turns:             turns,
		DocumentsUploaded: s.DocumentsUploaded,
		DocumentsTotal:    s.DocumentsTotal,
		SubmittedAt:       s.SubmittedAt,
		CreatedAt:         s.CreatedAt,
	}
}

func (m *ClaimMapper) ClaimSubmissionsToEntities(models []*model.ClaimSubmission) []*entity.ClaimSubmission {
	out := make([]*entity.ClaimSubmission, len(models))
	for i, s := range models {
		out[i] = m.ClaimSubmissionToEntity(s)
	}
	return out
}
