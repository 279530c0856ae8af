package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/slayergates/esports-arena/cache"
	"github.com/slayergates/esports-arena/live"
	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
)

const upcomingMatchesLimit = 10

type MatchService interface {
	Schedule(ctx context.Context, input ScheduleMatchInput) (*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListUpcoming(ctx context.Context) ([]*models.Match, error)
	ReportResult(ctx context.Context, matchID int, input MatchResultInput) (*models.Match, error)
}

type ScheduleMatchInput struct {
	TournamentID  int       `json:"tournament_id"`
	Round         int       `json:"round"`
	Team1ID       int       `json:"team1_id"`
	Team2ID       int       `json:"team2_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

type MatchResultInput struct {
	WinnerID int    `json:"winner_id"`
	Score    string `json:"score"`
}

type matchService struct {
	matchRepo        repositories.MatchRepository
	registrationRepo repositories.RegistrationRepository
	leaderboard      *cache.LeaderboardCache
	hub              *live.Hub
	logger           *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	registrationRepo repositories.RegistrationRepository,
	leaderboard *cache.LeaderboardCache,
	hub *live.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:        matchRepo,
		registrationRepo: registrationRepo,
		leaderboard:      leaderboard,
		hub:              hub,
		logger:           logger,
	}
}

func (s *matchService) Schedule(ctx context.Context, input ScheduleMatchInput) (*models.Match, error) {
	if input.Team1ID == input.Team2ID {
		return nil, ErrMatchSameTeam
	}

	registered, err := s.registrationRepo.ExistsForTeams(ctx, input.TournamentID, input.Team1ID, input.Team2ID)
	if err != nil {
		return nil, translateTransient(err)
	}
	if !registered {
		return nil, ErrMatchTeamsNotRegistered
	}

	match := &models.Match{
		TournamentID:  input.TournamentID,
		Round:         input.Round,
		Team1ID:       input.Team1ID,
		Team2ID:       input.Team2ID,
		Status:        models.MatchScheduled,
		ScheduledTime: input.ScheduledTime,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrMatchTeamInvalid):
			return nil, ErrTeamNotFound
		}
		return nil, translateTransient(err)
	}

	s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), live.Event{
		Type:    "MATCH_SCHEDULED",
		Payload: match,
	})
	return match, nil
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, translateTransient(err)
	}
	return match, nil
}

func (s *matchService) ListUpcoming(ctx context.Context) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListUpcoming(ctx, time.Now(), upcomingMatchesLimit)
	if err != nil {
		return nil, translateTransient(err)
	}
	return matches, nil
}

func (s *matchService) ReportResult(ctx context.Context, matchID int, input MatchResultInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, translateTransient(err)
	}
	if input.WinnerID != match.Team1ID && input.WinnerID != match.Team2ID {
		return nil, ErrMatchWinnerInvalid
	}

	if err := s.matchRepo.UpdateResult(ctx, matchID, input.Score, input.WinnerID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, translateTransient(err)
	}

	match.Status = models.MatchCompleted
	match.WinnerID = &input.WinnerID
	match.Score = &input.Score

	// Результат меняет агрегаты лидерборда, кеш больше не актуален.
	if err := s.leaderboard.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache",
			slog.Int("match_id", matchID),
			slog.String("error", err.Error()),
		)
	}

	s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), live.Event{
		Type:    "MATCH_COMPLETED",
		Payload: match,
	})
	return match, nil
}
