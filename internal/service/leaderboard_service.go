package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/observability"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/scoring"
)

const (
	leaderboardSubject    = "arena.leaderboard.updated"
	leaderboardBufferSize = 8
	defaultShortlistLimit = 10
	// Persisted snapshots older than this are treated as misses so a read
	// after cache loss never serves standings from before the last commits.
	snapshotMaxAge = 30 * time.Second
)

var errSnapshotStale = errors.New("leaderboard snapshot is stale")

// LeaderboardService derives, caches, and streams event leaderboards.
type LeaderboardService interface {
	Get(ctx context.Context, eventID uint, role string) (dto.LeaderboardResponse, error)
	Refresh(ctx context.Context, eventID, userID uint) (dto.LeaderboardResponse, error)
	Shortlist(ctx context.Context, eventID uint, limit int) (dto.ShortlistResponse, error)
	Subscribe(eventID uint) (<-chan dto.LeaderboardResponse, func())
	Start(ctx context.Context)
}

type leaderboardService struct {
	events      repository.EventRepository
	teams       repository.TeamRepository
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	snapshots   repository.LeaderboardRepository
	redis       *redis.Client
	cacheTTL    time.Duration
	nats        *nats.Conn
	logger      zerolog.Logger
	tracer      trace.Tracer
	broker      *leaderboardBroker
	nodeID      string
	now         func() time.Time
}

type leaderboardEvent struct {
	Source      string                  `json:"source"`
	Leaderboard dto.LeaderboardResponse `json:"leaderboard"`
	SentAt      time.Time               `json:"sent_at"`
}

type leaderboardBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.LeaderboardResponse]struct{}
}

// NewLeaderboardService builds a new leaderboard service. Redis and NATS are
// optional; without them the service still computes and persists snapshots,
// it just loses the cache and cross-node fan-out.
func NewLeaderboardService(
	events repository.EventRepository,
	teams repository.TeamRepository,
	submissions repository.SubmissionRepository,
	evaluations repository.EvaluationRepository,
	snapshots repository.LeaderboardRepository,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	natsConn *nats.Conn,
	logger zerolog.Logger,
) LeaderboardService {
	return &leaderboardService{
		events:      events,
		teams:       teams,
		submissions: submissions,
		evaluations: evaluations,
		snapshots:   snapshots,
		redis:       redisClient,
		cacheTTL:    cacheTTL,
		nats:        natsConn,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/arena-go-api/internal/service/leaderboard"),
		broker: &leaderboardBroker{
			subscribers: make(map[uint]map[chan dto.LeaderboardResponse]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *leaderboardService) Start(ctx context.Context) {
	if s.nats != nil {
		go s.consumeNATS(ctx)
	}
}

// Get returns the leaderboard for an event, preferring the cache, then the
// latest persisted snapshot, and rebuilding from the ledger as a last resort.
// Participants receive the masked view: rounds that are not yet published
// contribute nothing to their totals and expose no score detail.
func (s *leaderboardService) Get(ctx context.Context, eventID uint, role string) (dto.LeaderboardResponse, error) {
	response, err := s.cached(ctx, eventID)
	if err != nil {
		response, err = s.latestSnapshot(ctx, eventID)
	}
	if err != nil {
		response, err = s.rebuild(ctx, eventID, "read")
		if err != nil {
			return dto.LeaderboardResponse{}, err
		}
	}

	if role == models.RoleParticipant {
		response = maskForParticipants(response)
	}

	return response, nil
}

// Refresh recomputes the leaderboard from the ledger on demand. Only the
// event's creator may force a rebuild.
func (s *leaderboardService) Refresh(ctx context.Context, eventID, userID uint) (dto.LeaderboardResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}
	if !event.IsOwnedBy(userID) {
		return dto.LeaderboardResponse{}, ErrNotEventOwner
	}

	return s.rebuild(ctx, eventID, "manual")
}

// Shortlist returns the top slice of the full leaderboard.
func (s *leaderboardService) Shortlist(ctx context.Context, eventID uint, limit int) (dto.ShortlistResponse, error) {
	if limit <= 0 {
		limit = defaultShortlistLimit
	}

	response, err := s.Get(ctx, eventID, models.RoleOrganizer)
	if err != nil {
		return dto.ShortlistResponse{}, err
	}

	rows := response.Rows
	if len(rows) > limit {
		// Keep whole rank groups: a team tied with the cut-off rank stays in.
		cut := limit
		for cut < len(rows) && rows[cut].Rank == rows[limit-1].Rank {
			cut++
		}
		rows = rows[:cut]
	}

	return dto.ShortlistResponse{
		EventID:     eventID,
		Limit:       limit,
		GeneratedAt: response.GeneratedAt,
		Rows:        rows,
	}, nil
}

func (s *leaderboardService) Subscribe(eventID uint) (<-chan dto.LeaderboardResponse, func()) {
	channel := make(chan dto.LeaderboardResponse, leaderboardBufferSize)

	s.broker.subscribe(eventID, channel)
	observability.LeaderboardClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(eventID, channel)
		observability.LeaderboardClientsActive().Dec()
	}

	return channel, cleanup
}

// rebuild recomputes every team's standing from submissions, evaluations, and
// attached analyzer scores, persists the result as a snapshot, refreshes the
// cache, and fans the update out to live subscribers.
func (s *leaderboardService) rebuild(ctx context.Context, eventID uint, trigger string) (dto.LeaderboardResponse, error) {
	attrs := []attribute.KeyValue{
		attribute.Int64("event.id", int64(eventID)),
		attribute.String("leaderboard.trigger", trigger),
	}
	spanCtx, span := s.tracer.Start(ctx, "leaderboard.rebuild", trace.WithAttributes(attrs...))
	defer span.End()

	event, err := s.getEvent(spanCtx, eventID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	teams, err := s.teams.ListByEvent(spanCtx, eventID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	submissions, err := s.submissions.ListByEvent(spanCtx, eventID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	byRoundAndTeam := make(map[uint]map[uint]models.Submission, len(event.Rounds))
	for _, submission := range submissions {
		if byRoundAndTeam[submission.RoundID] == nil {
			byRoundAndTeam[submission.RoundID] = make(map[uint]models.Submission)
		}
		byRoundAndTeam[submission.RoundID][submission.TeamID] = submission
	}

	entries := make(map[uint][]dto.RoundScoreEntry, len(teams))
	standings := make([]scoring.Standing, 0, len(teams))

	for _, team := range teams {
		var total float64
		rowEntries := make([]dto.RoundScoreEntry, 0, len(event.Rounds))

		for _, round := range event.Rounds {
			entry, weighted, err := s.roundEntry(spanCtx, round, byRoundAndTeam[round.ID], team.ID)
			if err != nil {
				span.RecordError(err)
				return dto.LeaderboardResponse{}, err
			}
			total += weighted
			rowEntries = append(rowEntries, entry)
		}

		entries[team.ID] = rowEntries
		standings = append(standings, scoring.Standing{
			TeamID:     team.ID,
			TotalScore: scoring.Round2(total),
		})
	}

	names := make(map[uint]models.Team, len(teams))
	for _, team := range teams {
		names[team.ID] = team
	}

	rows := make([]dto.LeaderboardRow, 0, len(standings))
	for _, ranked := range scoring.Rank(standings) {
		team := names[ranked.TeamID]
		rows = append(rows, dto.LeaderboardRow{
			Rank:        ranked.Rank,
			TeamID:      ranked.TeamID,
			TeamName:    team.Name,
			TeamCode:    team.Code,
			TotalScore:  ranked.TotalScore,
			RoundScores: entries[ranked.TeamID],
		})
	}

	response := dto.LeaderboardResponse{
		EventID:     eventID,
		EventTitle:  event.Title,
		GeneratedAt: s.now().UTC(),
		Rows:        rows,
	}

	if err := s.persist(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Uint("event_id", eventID).Msg("failed to persist leaderboard snapshot")
	}
	s.cache(spanCtx, response)

	masked := maskForParticipants(response)
	s.broker.broadcast(eventID, masked)
	s.publish(masked)

	observability.LeaderboardRebuildsTotal().WithLabelValues(trigger).Inc()

	s.logger.Info().
		Uint("event_id", eventID).
		Int("teams", len(rows)).
		Str("trigger", trigger).
		Msg("leaderboard rebuilt")

	return response, nil
}

// roundEntry scores one team's standing in one round. A team with no
// submission still gets an entry so every team appears on the board.
func (s *leaderboardService) roundEntry(ctx context.Context, round models.Round, submissions map[uint]models.Submission, teamID uint) (dto.RoundScoreEntry, float64, error) {
	published := round.Status == models.RoundStatusPublished
	entry := dto.RoundScoreEntry{
		RoundOrder:       round.Order,
		RoundName:        round.Name,
		MaxScore:         round.MaxScore,
		WeightagePercent: round.WeightagePercent,
		Published:        published,
	}

	submission, ok := submissions[teamID]
	if !ok {
		zero := 0.0
		entry.FinalRoundScore = &zero
		entry.WeightedScore = &zero
		return entry, 0, nil
	}

	policy, err := scoring.PolicyFor(round)
	if err != nil {
		return dto.RoundScoreEntry{}, 0, err
	}

	evaluations, err := s.evaluations.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.RoundScoreEntry{}, 0, err
	}

	breakdown, err := scoring.Aggregate(policy, evaluations, submission.AnalyzerTotal)
	if err != nil {
		return dto.RoundScoreEntry{}, 0, err
	}

	average := scoring.Round2(breakdown.AverageJudgeScore)
	final := scoring.Round2(breakdown.FinalTotal)
	weighted := scoring.Round2(scoring.WeightedRoundScore(final, round.WeightagePercent))

	entry.AverageJudgeScore = &average
	entry.AnalyzerScore = breakdown.AnalyzerScore
	entry.FinalRoundScore = &final
	entry.WeightedScore = &weighted

	return entry, weighted, nil
}

func (s *leaderboardService) persist(ctx context.Context, response dto.LeaderboardResponse) error {
	rows, err := json.Marshal(response.Rows)
	if err != nil {
		return err
	}

	return s.snapshots.Create(ctx, &models.LeaderboardSnapshot{
		EventID:     response.EventID,
		EventTitle:  response.EventTitle,
		GeneratedAt: response.GeneratedAt,
		Rows:        datatypes.JSON(rows),
	})
}

func (s *leaderboardService) latestSnapshot(ctx context.Context, eventID uint) (dto.LeaderboardResponse, error) {
	snapshot, err := s.snapshots.Latest(ctx, eventID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	if s.now().Sub(snapshot.GeneratedAt) > snapshotMaxAge {
		return dto.LeaderboardResponse{}, errSnapshotStale
	}

	var rows []dto.LeaderboardRow
	if err := json.Unmarshal(snapshot.Rows, &rows); err != nil {
		return dto.LeaderboardResponse{}, err
	}

	return dto.LeaderboardResponse{
		EventID:     snapshot.EventID,
		EventTitle:  snapshot.EventTitle,
		GeneratedAt: snapshot.GeneratedAt,
		Rows:        rows,
	}, nil
}

func (s *leaderboardService) cacheKey(eventID uint) string {
	return fmt.Sprintf("arena:leaderboard:%d", eventID)
}

func (s *leaderboardService) cache(ctx context.Context, response dto.LeaderboardResponse) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, s.cacheKey(response.EventID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache leaderboard")
	}
}

func (s *leaderboardService) cached(ctx context.Context, eventID uint) (dto.LeaderboardResponse, error) {
	if s.redis == nil {
		return dto.LeaderboardResponse{}, redis.Nil
	}

	payload, err := s.redis.Get(ctx, s.cacheKey(eventID)).Bytes()
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	var response dto.LeaderboardResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return dto.LeaderboardResponse{}, err
	}

	return response, nil
}

func (s *leaderboardService) publish(response dto.LeaderboardResponse) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(leaderboardEvent{
		Source:      s.nodeID,
		Leaderboard: response,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return
	}

	if err := s.nats.Publish(leaderboardSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
	}
}

func (s *leaderboardService) consumeNATS(ctx context.Context) {
	updateSub, err := s.nats.Subscribe(leaderboardSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to leaderboard subject")
		return
	}

	analyzedSub, err := s.nats.Subscribe(analyzedSubject, func(msg *nats.Msg) {
		s.handleAnalyzed(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to analyzed subject")
	}

	go func() {
		<-ctx.Done()
		if err := updateSub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain leaderboard subscription")
		}
		if analyzedSub != nil {
			if err := analyzedSub.Drain(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to drain analyzed subscription")
			}
		}
	}()
}

// handleAnalyzed rebuilds the board when an analyzer score lands, so totals
// that include machine scores do not wait for the next read or manual refresh.
func (s *leaderboardService) handleAnalyzed(payload []byte) {
	var event struct {
		EventID uint `json:"event_id"`
	}
	if err := json.Unmarshal(payload, &event); err != nil || event.EventID == 0 {
		s.logger.Warn().Err(err).Msg("invalid analyzed event payload")
		return
	}

	if _, err := s.rebuild(context.Background(), event.EventID, "analyzed"); err != nil {
		s.logger.Warn().Err(err).Uint("event_id", event.EventID).Msg("rebuild after analyzer score failed")
	}
}

func (s *leaderboardService) handleEvent(payload []byte) {
	var event leaderboardEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid leaderboard event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Leaderboard.EventID, event.Leaderboard)
}

func (s *leaderboardService) getEvent(ctx context.Context, id uint) (models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Event{}, ErrEventNotFound
		}

		return models.Event{}, err
	}

	return event, nil
}

// maskForParticipants hides unpublished score detail and re-ranks teams over
// published rounds only, so standings never leak before an organizer
// publishes a round.
func maskForParticipants(response dto.LeaderboardResponse) dto.LeaderboardResponse {
	masked := response
	masked.Rows = make([]dto.LeaderboardRow, len(response.Rows))

	standings := make([]scoring.Standing, 0, len(response.Rows))
	byTeam := make(map[uint]dto.LeaderboardRow, len(response.Rows))

	for i, row := range response.Rows {
		copied := row
		copied.RoundScores = make([]dto.RoundScoreEntry, len(row.RoundScores))
		copy(copied.RoundScores, row.RoundScores)

		var total float64
		for _, entry := range copied.RoundScores {
			if entry.Published && entry.WeightedScore != nil {
				total += *entry.WeightedScore
			}
		}
		copied.TotalScore = scoring.Round2(total)
		copied.MaskUnpublished()

		byTeam[copied.TeamID] = copied
		standings = append(standings, scoring.Standing{
			TeamID:     copied.TeamID,
			TotalScore: copied.TotalScore,
		})
		masked.Rows[i] = copied
	}

	rows := make([]dto.LeaderboardRow, 0, len(standings))
	for _, ranked := range scoring.Rank(standings) {
		row := byTeam[ranked.TeamID]
		row.Rank = ranked.Rank
		rows = append(rows, row)
	}
	masked.Rows = rows

	return masked
}

func (b *leaderboardBroker) subscribe(eventID uint, channel chan dto.LeaderboardResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[eventID] == nil {
		b.subscribers[eventID] = make(map[chan dto.LeaderboardResponse]struct{})
	}
	b.subscribers[eventID][channel] = struct{}{}
}

func (b *leaderboardBroker) unsubscribe(eventID uint, channel chan dto.LeaderboardResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[eventID]; ok {
		delete(subscribers, channel)
		if len(subscribers) == 0 {
			delete(b.subscribers, eventID)
		}
	}
	close(channel)
}

func (b *leaderboardBroker) broadcast(eventID uint, response dto.LeaderboardResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for channel := range b.subscribers[eventID] {
		select {
		case channel <- response:
		default:
			// Slow subscriber; it will catch up on the next update.
		}
	}
}
