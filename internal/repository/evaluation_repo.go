package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// EvaluationRepository defines data operations for judge evaluations.
type EvaluationRepository interface {
	GetByID(ctx context.Context, id uint) (models.Evaluation, error)
	GetBySubmissionAndJudge(ctx context.Context, submissionID, judgeID uint) (models.Evaluation, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Evaluation, error)
	CountByJudge(ctx context.Context, eventID, judgeID uint) (int64, error)
	Upsert(ctx context.Context, evaluation *models.Evaluation) error
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Evaluation{}).Preload("Scores")
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.baseQuery(ctx).First(&evaluation, id).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) GetBySubmissionAndJudge(ctx context.Context, submissionID, judgeID uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.baseQuery(ctx).
		Where("submission_id = ? AND judge_id = ?", submissionID, judgeID).
		First(&evaluation).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	if err := r.baseQuery(ctx).
		Where("submission_id = ?", submissionID).
		Order("judge_id ASC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}

	return evaluations, nil
}

func (r *evaluationRepository) CountByJudge(ctx context.Context, eventID, judgeID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Evaluation{}).
		Where("event_id = ? AND judge_id = ?", eventID, judgeID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Upsert writes a judge's full mark set, replacing any marks the same judge
// recorded for the submission before. The replacement happens in one
// transaction so aggregation never observes a half-written evaluation.
func (r *evaluationRepository) Upsert(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Evaluation
		err := tx.Where("submission_id = ? AND judge_id = ?", evaluation.SubmissionID, evaluation.JudgeID).
			First(&existing).Error

		switch {
		case err == nil:
			if err := tx.Where("evaluation_id = ?", existing.ID).
				Delete(&models.CriterionScore{}).Error; err != nil {
				return err
			}
			evaluation.ID = existing.ID
			evaluation.CreatedAt = existing.CreatedAt
			for i := range evaluation.Scores {
				evaluation.Scores[i].ID = 0
				evaluation.Scores[i].EvaluationID = existing.ID
			}
			return tx.Save(evaluation).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(evaluation).Error
		default:
			return err
		}
	})
}
