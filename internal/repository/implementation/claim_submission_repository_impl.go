package implementation

import (
	"context"
	"errors"

	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/mapper"
	"e261-voice-be/internal/model"
	"e261-voice-be/internal/repository/contract"
	"e261-voice-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClaimSubmissionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ClaimMapper
}

func NewClaimSubmissionRepository(db *gorm.DB) contract.ClaimSubmissionRepository {
	return &ClaimSubmissionRepositoryImpl{
		db:     db,
		mapper: mapper.NewClaimMapper(),
	}
}

func (r *ClaimSubmissionRepositoryImpl) Create(ctx context.Context, submission *entity.ClaimSubmission) error {
	m := r.mapper.ClaimSubmissionToModel(submission)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return err
	}
	*submission = *r.mapper.ClaimSubmissionToEntity(m)
	return nil
}

func (r *ClaimSubmissionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClaimSubmission, error) {
	var m model.ClaimSubmission
	query := specification.ApplyAll(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ClaimSubmissionToEntity(&m), nil
}

func (r *ClaimSubmissionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClaimSubmission, error) {
	var models []*model.ClaimSubmission
	query := specification.ApplyAll(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ClaimSubmissionsToEntities(models), nil
}

func (r *ClaimSubmissionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.ClaimSubmission{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
