package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// EventFilter narrows event listings.
type EventFilter struct {
	Search    string
	Theme     string
	Status    string
	CreatedBy *uint
	JudgeID   *uint
	Page      int
	PageSize  int
}

// EventRepository defines data operations for events and their rounds.
type EventRepository interface {
	ListWithFilter(ctx context.Context, filter EventFilter) ([]models.Event, int64, error)
	GetByID(ctx context.Context, id uint) (models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	ReplaceRounds(ctx context.Context, eventID uint, rounds []models.Round) error
	TransitionRound(ctx context.Context, roundID uint, status string, lockSubmissions bool, lockedAt time.Time) error
	AddJudge(ctx context.Context, assignment *models.EventJudge) error
	RemoveJudge(ctx context.Context, eventID, judgeID uint) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository instantiates the repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Event{}).
		Preload("Rounds", func(db *gorm.DB) *gorm.DB {
			return db.Order("round_order ASC")
		}).
		Preload("Rounds.Criteria").
		Preload("Judges")
}

func (r *eventRepository) ListWithFilter(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	query := r.baseQuery(ctx)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	if filter.Theme != "" {
		query = query.Where("theme = ?", filter.Theme)
	}

	now := time.Now()
	switch filter.Status {
	case "upcoming":
		query = query.Where("start_date > ?", now)
	case "active":
		query = query.Where("start_date <= ? AND end_date >= ?", now, now)
	case "past":
		query = query.Where("end_date < ?", now)
	}

	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}

	if filter.JudgeID != nil {
		query = query.Where("id IN (?)", r.db.Model(&models.EventJudge{}).
			Select("event_id").
			Where("judge_id = ?", *filter.JudgeID))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var events []models.Event
	if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := r.baseQuery(ctx).First(&event, id).Error; err != nil {
		return models.Event{}, err
	}

	return event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Rounds", "Judges").Save(event).Error
}

func (r *eventRepository) ReplaceRounds(ctx context.Context, eventID uint, rounds []models.Round) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Round
		if err := tx.Where("event_id = ?", eventID).Find(&existing).Error; err != nil {
			return err
		}
		for _, round := range existing {
			if err := tx.Where("round_id = ?", round.ID).Delete(&models.Criterion{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Round{}).Error; err != nil {
			return err
		}
		for i := range rounds {
			rounds[i].ID = 0
			rounds[i].EventID = eventID
			for j := range rounds[i].Criteria {
				rounds[i].Criteria[j].ID = 0
			}
			if err := tx.Create(&rounds[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// TransitionRound stores the new round status and, when the target status
// closes the round, locks every still-unlocked submission in the same
// transaction so the two can never be observed apart.
func (r *eventRepository) TransitionRound(ctx context.Context, roundID uint, status string, lockSubmissions bool, lockedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Round{}).
			Where("id = ?", roundID).
			Update("status", status).Error; err != nil {
			return err
		}

		if !lockSubmissions {
			return nil
		}

		return tx.Model(&models.Submission{}).
			Where("round_id = ? AND is_locked = ?", roundID, false).
			Updates(map[string]interface{}{
				"is_locked": true,
				"locked_at": lockedAt,
				"status":    models.SubmissionStatusLocked,
			}).Error
	})
}

func (r *eventRepository) AddJudge(ctx context.Context, assignment *models.EventJudge) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *eventRepository) RemoveJudge(ctx context.Context, eventID, judgeID uint) error {
	return r.db.WithContext(ctx).
		Where("event_id = ? AND judge_id = ?", eventID, judgeID).
		Delete(&models.EventJudge{}).Error
}
