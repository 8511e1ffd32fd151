package contract

import (
	"context"

	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/repository/specification"
)

type ClaimSubmissionRepository interface {
	// Create is idempotent per session: a second archive of the same session
	// is ignored.
	Create(ctx context.Context, submission *entity.ClaimSubmission) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClaimSubmission, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClaimSubmission, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
