package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/slayergates/esports-arena/cache"
	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
)

type LeaderboardService interface {
	Get(ctx context.Context) ([]models.LeaderboardEntry, error)
	// Refresh пересчитывает лидерборд из БД и кладёт его в кеш,
	// минуя проверку кеша.
	Refresh(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type leaderboardService struct {
	matchRepo   repositories.MatchRepository
	leaderboard *cache.LeaderboardCache
	logger      *slog.Logger
}

func NewLeaderboardService(
	matchRepo repositories.MatchRepository,
	leaderboard *cache.LeaderboardCache,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		matchRepo:   matchRepo,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

func (s *leaderboardService) Get(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := s.leaderboard.Get(ctx)
	if err == nil {
		return entries, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// Redis недоступен: отдаём свежий расчёт из БД, не роняя запрос.
		s.logger.Warn("leaderboard cache read failed", slog.String("error", err.Error()))
	}
	return s.Refresh(ctx)
}

func (s *leaderboardService) Refresh(ctx context.Context) ([]models.LeaderboardEntry, error) {
	stats, err := s.matchRepo.ListTeamStats(ctx)
	if err != nil {
		return nil, translateTransient(err)
	}

	entries := buildLeaderboard(stats)

	if err := s.leaderboard.Set(ctx, entries); err != nil {
		s.logger.Warn("leaderboard cache write failed", slog.String("error", err.Error()))
	}
	return entries, nil
}

// buildLeaderboard начисляет очко за победу и сортирует по очкам, при
// равенстве очков выше команда с лучшим процентом побед, дальше по имени.
func buildLeaderboard(stats []repositories.TeamMatchStats) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(stats))
	for _, st := range stats {
		entry := models.LeaderboardEntry{
			TeamID: st.TeamID,
			Name:   st.TeamName,
			Points: st.Wins,
			Wins:   st.Wins,
			Losses: st.Losses,
		}
		if total := st.Wins + st.Losses; total > 0 {
			entry.WinRate = float64(st.Wins) / float64(total)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].WinRate != entries[j].WinRate {
			return entries[i].WinRate > entries[j].WinRate
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
