package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

type memoryEventRepo struct {
	events      map[uint]models.Event
	nextID      uint
	submissions *memorySubmissionRepo
}

func newMemoryEventRepo() *memoryEventRepo {
	return &memoryEventRepo{events: make(map[uint]models.Event), nextID: 1}
}

func (m *memoryEventRepo) ListWithFilter(_ context.Context, filter repository.EventFilter) ([]models.Event, int64, error) {
	results := make([]models.Event, 0, len(m.events))
	for _, event := range m.events {
		if filter.Theme != "" && event.Theme != filter.Theme {
			continue
		}
		results = append(results, event)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryEventRepo) GetByID(_ context.Context, id uint) (models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return models.Event{}, gorm.ErrRecordNotFound
	}
	return event, nil
}

func (m *memoryEventRepo) Create(_ context.Context, event *models.Event) error {
	event.ID = m.nextID
	m.nextID++
	m.assignRoundIDs(event)
	m.events[event.ID] = *event
	return nil
}

func (m *memoryEventRepo) assignRoundIDs(event *models.Event) {
	for i := range event.Rounds {
		round := &event.Rounds[i]
		if round.ID == 0 {
			round.ID = m.nextID
			m.nextID++
		}
		round.EventID = event.ID
		for j := range round.Criteria {
			criterion := &round.Criteria[j]
			if criterion.ID == 0 {
				criterion.ID = m.nextID
				m.nextID++
			}
			criterion.RoundID = round.ID
		}
	}
}

func (m *memoryEventRepo) Update(_ context.Context, event *models.Event) error {
	stored, ok := m.events[event.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	updated := *event
	updated.Rounds = stored.Rounds
	updated.Judges = stored.Judges
	m.events[event.ID] = updated
	return nil
}

func (m *memoryEventRepo) ReplaceRounds(_ context.Context, eventID uint, rounds []models.Round) error {
	event, ok := m.events[eventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	event.Rounds = rounds
	m.assignRoundIDs(&event)
	m.events[eventID] = event
	return nil
}

func (m *memoryEventRepo) TransitionRound(_ context.Context, roundID uint, status string, lockSubmissions bool, lockedAt time.Time) error {
	for id, event := range m.events {
		for i := range event.Rounds {
			if event.Rounds[i].ID != roundID {
				continue
			}
			event.Rounds[i].Status = status
			m.events[id] = event
			if lockSubmissions && m.submissions != nil {
				m.submissions.lockRound(roundID, lockedAt)
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryEventRepo) AddJudge(_ context.Context, assignment *models.EventJudge) error {
	event, ok := m.events[assignment.EventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.ID = m.nextID
	m.nextID++
	event.Judges = append(event.Judges, *assignment)
	m.events[assignment.EventID] = event
	return nil
}

func (m *memoryEventRepo) RemoveJudge(_ context.Context, eventID, judgeID uint) error {
	event, ok := m.events[eventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := event.Judges[:0]
	for _, assignment := range event.Judges {
		if assignment.JudgeID != judgeID {
			kept = append(kept, assignment)
		}
	}
	event.Judges = kept
	m.events[eventID] = event
	return nil
}

func (m *memoryEventRepo) roundByID(roundID uint) (models.Round, bool) {
	for _, event := range m.events {
		for _, round := range event.Rounds {
			if round.ID == roundID {
				return round, true
			}
		}
	}
	return models.Round{}, false
}

type memoryTeamRepo struct {
	teams  map[uint]models.Team
	nextID uint
}

func newMemoryTeamRepo() *memoryTeamRepo {
	return &memoryTeamRepo{teams: make(map[uint]models.Team), nextID: 1}
}

func (m *memoryTeamRepo) GetByID(_ context.Context, id uint) (models.Team, error) {
	team, ok := m.teams[id]
	if !ok {
		return models.Team{}, gorm.ErrRecordNotFound
	}
	return team, nil
}

func (m *memoryTeamRepo) GetByMember(_ context.Context, eventID, userID uint) (models.Team, error) {
	for _, team := range m.teams {
		if team.EventID == eventID && team.HasMember(userID) {
			return team, nil
		}
	}
	return models.Team{}, gorm.ErrRecordNotFound
}

func (m *memoryTeamRepo) ListByEvent(_ context.Context, eventID uint) ([]models.Team, error) {
	results := make([]models.Team, 0, len(m.teams))
	for _, team := range m.teams {
		if team.EventID == eventID {
			results = append(results, team)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryTeamRepo) Create(_ context.Context, team *models.Team) error {
	team.ID = m.nextID
	m.nextID++
	for i := range team.Members {
		team.Members[i].TeamID = team.ID
	}
	m.teams[team.ID] = *team
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
	events      *memoryEventRepo
}

func newMemorySubmissionRepo(events *memoryEventRepo) *memorySubmissionRepo {
	repo := &memorySubmissionRepo{
		submissions: make(map[uint]models.Submission),
		nextID:      1,
		events:      events,
	}
	if events != nil {
		events.submissions = repo
	}
	return repo
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) GetByRoundAndTeam(_ context.Context, roundID, teamID uint) (models.Submission, error) {
	for _, submission := range m.submissions {
		if submission.RoundID == roundID && submission.TeamID == teamID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memorySubmissionRepo) ListByRound(_ context.Context, roundID uint) ([]models.Submission, error) {
	return m.list(func(s models.Submission) bool { return s.RoundID == roundID }), nil
}

func (m *memorySubmissionRepo) ListByTeam(_ context.Context, teamID uint) ([]models.Submission, error) {
	return m.list(func(s models.Submission) bool { return s.TeamID == teamID }), nil
}

func (m *memorySubmissionRepo) ListByEvent(_ context.Context, eventID uint) ([]models.Submission, error) {
	return m.list(func(s models.Submission) bool { return s.EventID == eventID }), nil
}

func (m *memorySubmissionRepo) list(match func(models.Submission) bool) []models.Submission {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if match(submission) {
			results = append(results, submission)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

func (m *memorySubmissionRepo) Submit(ctx context.Context, draft *models.Submission, check repository.SubmitCheck) error {
	round, ok := m.events.roundByID(draft.RoundID)
	if !ok {
		return gorm.ErrRecordNotFound
	}

	var existingPtr *models.Submission
	existing, err := m.GetByRoundAndTeam(ctx, draft.RoundID, draft.TeamID)
	if err == nil {
		existingPtr = &existing
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
		m.submissions[existing.ID] = existing
		*draft = existing
		return nil
	}

	draft.ID = m.nextID
	m.nextID++
	draft.Version = 1
	draft.Status = models.SubmissionStatusSubmitted
	m.submissions[draft.ID] = *draft
	return nil
}

func (m *memorySubmissionRepo) Lock(_ context.Context, id uint, lockedAt time.Time) error {
	submission, ok := m.submissions[id]
	if !ok || submission.IsLocked {
		return nil
	}
	submission.IsLocked = true
	submission.LockedAt = &lockedAt
	submission.Status = models.SubmissionStatusLocked
	m.submissions[id] = submission
	return nil
}

func (m *memorySubmissionRepo) lockRound(roundID uint, lockedAt time.Time) {
	for id, submission := range m.submissions {
		if submission.RoundID == roundID && !submission.IsLocked {
			submission.IsLocked = true
			submission.LockedAt = &lockedAt
			submission.Status = models.SubmissionStatusLocked
			m.submissions[id] = submission
		}
	}
}

func (m *memorySubmissionRepo) AttachAnalyzerScore(_ context.Context, id uint, total float64, report datatypes.JSONMap, analyzedAt time.Time) error {
	submission, ok := m.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.AnalyzerTotal = &total
	submission.AnalyzerReport = report
	submission.AnalyzedAt = &analyzedAt
	m.submissions[id] = submission
	return nil
}

type evaluationKey struct {
	submissionID uint
	judgeID      uint
}

type memoryEvaluationRepo struct {
	evaluations map[evaluationKey]models.Evaluation
	nextID      uint
}

func newMemoryEvaluationRepo() *memoryEvaluationRepo {
	return &memoryEvaluationRepo{evaluations: make(map[evaluationKey]models.Evaluation), nextID: 1}
}

func (m *memoryEvaluationRepo) GetByID(_ context.Context, id uint) (models.Evaluation, error) {
	for _, evaluation := range m.evaluations {
		if evaluation.ID == id {
			return evaluation, nil
		}
	}
	return models.Evaluation{}, gorm.ErrRecordNotFound
}

func (m *memoryEvaluationRepo) GetBySubmissionAndJudge(_ context.Context, submissionID, judgeID uint) (models.Evaluation, error) {
	evaluation, ok := m.evaluations[evaluationKey{submissionID, judgeID}]
	if !ok {
		return models.Evaluation{}, gorm.ErrRecordNotFound
	}
	return evaluation, nil
}

func (m *memoryEvaluationRepo) ListBySubmission(_ context.Context, submissionID uint) ([]models.Evaluation, error) {
	results := make([]models.Evaluation, 0)
	for key, evaluation := range m.evaluations {
		if key.submissionID == submissionID {
			results = append(results, evaluation)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].JudgeID < results[j].JudgeID })
	return results, nil
}

func (m *memoryEvaluationRepo) CountByJudge(_ context.Context, eventID, judgeID uint) (int64, error) {
	var count int64
	for _, evaluation := range m.evaluations {
		if evaluation.EventID == eventID && evaluation.JudgeID == judgeID {
			count++
		}
	}
	return count, nil
}

func (m *memoryEvaluationRepo) Upsert(_ context.Context, evaluation *models.Evaluation) error {
	key := evaluationKey{evaluation.SubmissionID, evaluation.JudgeID}
	if existing, ok := m.evaluations[key]; ok {
		evaluation.ID = existing.ID
		evaluation.CreatedAt = existing.CreatedAt
	} else {
		evaluation.ID = m.nextID
		m.nextID++
	}
	m.evaluations[key] = *evaluation
	return nil
}

type memoryLeaderboardRepo struct {
	snapshots []models.LeaderboardSnapshot
	nextID    uint
}

func newMemoryLeaderboardRepo() *memoryLeaderboardRepo {
	return &memoryLeaderboardRepo{nextID: 1}
}

func (m *memoryLeaderboardRepo) Create(_ context.Context, snapshot *models.LeaderboardSnapshot) error {
	snapshot.ID = m.nextID
	m.nextID++
	m.snapshots = append(m.snapshots, *snapshot)
	return nil
}

func (m *memoryLeaderboardRepo) Latest(_ context.Context, eventID uint) (models.LeaderboardSnapshot, error) {
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].EventID == eventID {
			return m.snapshots[i], nil
		}
	}
	return models.LeaderboardSnapshot{}, gorm.ErrRecordNotFound
}
