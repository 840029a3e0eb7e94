package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// LeaderboardRepository persists leaderboard snapshots.
type LeaderboardRepository interface {
	Create(ctx context.Context, snapshot *models.LeaderboardSnapshot) error
	Latest(ctx context.Context, eventID uint) (models.LeaderboardSnapshot, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository instantiates the repository.
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) Create(ctx context.Context, snapshot *models.LeaderboardSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *leaderboardRepository) Latest(ctx context.Context, eventID uint) (models.LeaderboardSnapshot, error) {
	var snapshot models.LeaderboardSnapshot
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("generated_at DESC").
		First(&snapshot).Error; err != nil {
		return models.LeaderboardSnapshot{}, err
	}

	return snapshot, nil
}
