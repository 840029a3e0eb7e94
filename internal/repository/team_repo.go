package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// TeamRepository reads team membership for the scoring core. Roster
// management itself lives in an external collaborator.
type TeamRepository interface {
	GetByID(ctx context.Context, id uint) (models.Team, error)
	GetByMember(ctx context.Context, eventID, userID uint) (models.Team, error)
	ListByEvent(ctx context.Context, eventID uint) ([]models.Team, error)
	Create(ctx context.Context, team *models.Team) error
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository instantiates the repository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Team{}).Preload("Members")
}

func (r *teamRepository) GetByID(ctx context.Context, id uint) (models.Team, error) {
	var team models.Team
	if err := r.baseQuery(ctx).First(&team, id).Error; err != nil {
		return models.Team{}, err
	}

	return team, nil
}

func (r *teamRepository) GetByMember(ctx context.Context, eventID, userID uint) (models.Team, error) {
	var team models.Team
	if err := r.baseQuery(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("teams.event_id = ? AND team_members.user_id = ?", eventID, userID).
		First(&team).Error; err != nil {
		return models.Team{}, err
	}

	return team, nil
}

// ListByEvent returns teams in registration order (ascending ID), which the
// leaderboard relies on for its deterministic tie-break.
func (r *teamRepository) ListByEvent(ctx context.Context, eventID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := r.baseQuery(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&teams).Error; err != nil {
		return nil, err
	}

	return teams, nil
}

func (r *teamRepository) Create(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}
