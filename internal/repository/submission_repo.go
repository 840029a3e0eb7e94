package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// SubmitCheck is evaluated inside the submit transaction against the round
// row and any existing submission as they stand at commit time. Returning an
// error aborts the write, so a round closing concurrently can never admit a
// late edit.
type SubmitCheck func(round models.Round, existing *models.Submission) error

// SubmissionRepository defines data operations for the submission ledger.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByRoundAndTeam(ctx context.Context, roundID, teamID uint) (models.Submission, error)
	ListByRound(ctx context.Context, roundID uint) ([]models.Submission, error)
	ListByTeam(ctx context.Context, teamID uint) ([]models.Submission, error)
	ListByEvent(ctx context.Context, eventID uint) ([]models.Submission, error)
	Submit(ctx context.Context, draft *models.Submission, check SubmitCheck) error
	Lock(ctx context.Context, id uint, lockedAt time.Time) error
	AttachAnalyzerScore(ctx context.Context, id uint, total float64, report datatypes.JSONMap, analyzedAt time.Time) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByRoundAndTeam(ctx context.Context, roundID, teamID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("round_id = ? AND team_id = ?", roundID, teamID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByRound(ctx context.Context, roundID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByTeam(ctx context.Context, teamID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByEvent(ctx context.Context, eventID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// Submit re-reads the round and any existing submission inside one
// transaction, runs the caller's check against that consistent snapshot, and
// then either bumps the existing version in place or creates version 1.
func (r *submissionRepository) Submit(ctx context.Context, draft *models.Submission, check SubmitCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, draft.RoundID).Error; err != nil {
			return err
		}

		var existing models.Submission
		err := tx.Where("round_id = ? AND team_id = ?", draft.RoundID, draft.TeamID).
			First(&existing).Error

		var existingPtr *models.Submission
		switch {
		case err == nil:
			existingPtr = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if check != nil {
			if err := check(round, existingPtr); err != nil {
				return err
			}
		}

		if existingPtr != nil {
			existing.Version++
			existing.Status = models.SubmissionStatusResubmitted
			existing.Fields = draft.Fields
			existing.SubmittedBy = draft.SubmittedBy
			existing.SubmittedAt = draft.SubmittedAt
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*draft = existing
			return nil
		}

		draft.Version = 1
		draft.Status = models.SubmissionStatusSubmitted
		return tx.Create(draft).Error
	})
}

// Lock is idempotent: locking an already locked submission changes nothing.
func (r *submissionRepository) Lock(ctx context.Context, id uint, lockedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND is_locked = ?", id, false).
		Updates(map[string]interface{}{
			"is_locked": true,
			"locked_at": lockedAt,
			"status":    models.SubmissionStatusLocked,
		}).Error
}

// AttachAnalyzerScore writes only the analyzer columns so the out-of-band
// attach never clobbers a concurrent re-submit.
func (r *submissionRepository) AttachAnalyzerScore(ctx context.Context, id uint, total float64, report datatypes.JSONMap, analyzedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"analyzer_total":  total,
			"analyzer_report": report,
			"analyzed_at":     analyzedAt,
		}).Error
}
