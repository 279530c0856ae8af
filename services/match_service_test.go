package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slayergates/esports-arena/cache"
	"github.com/slayergates/esports-arena/live"
	"github.com/slayergates/esports-arena/models"
)

type matchFixture struct {
	service   MatchService
	matchRepo *fakeMatchRepo
	regRepo   *fakeRegistrationRepo
	lbCache   *cache.LeaderboardCache
}

func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	lbCache := cache.NewWithClient(client, time.Minute)
	t.Cleanup(func() { _ = lbCache.Close() })

	matchRepo := newFakeMatchRepo()
	regRepo := newFakeRegistrationRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := live.NewHub(logger)

	return &matchFixture{
		service:   NewMatchService(matchRepo, regRepo, lbCache, hub, logger),
		matchRepo: matchRepo,
		regRepo:   regRepo,
		lbCache:   lbCache,
	}
}

func (f *matchFixture) registerTeams(t *testing.T, tournamentID int, teamIDs ...int) {
	t.Helper()
	for _, teamID := range teamIDs {
		require.NoError(t, f.regRepo.Create(context.Background(), nil, &models.Registration{
			TournamentID: tournamentID,
			TeamID:       teamID,
			PlayerIDs:    []int64{1, 2},
		}))
	}
}

func TestScheduleMatch(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()
	f.registerTeams(t, 1, 10, 20)

	input := ScheduleMatchInput{
		TournamentID:  1,
		Round:         1,
		Team1ID:       10,
		Team2ID:       20,
		ScheduledTime: time.Now().Add(time.Hour),
	}

	match, err := f.service.Schedule(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, models.MatchScheduled, match.Status)
	assert.NotZero(t, match.ID)

	t.Run("same team rejected", func(t *testing.T) {
		bad := input
		bad.Team2ID = bad.Team1ID
		_, err := f.service.Schedule(ctx, bad)
		assert.ErrorIs(t, err, ErrMatchSameTeam)
	})

	t.Run("unregistered team rejected", func(t *testing.T) {
		bad := input
		bad.Team2ID = 99
		_, err := f.service.Schedule(ctx, bad)
		assert.ErrorIs(t, err, ErrMatchTeamsNotRegistered)
	})
}

func TestReportResult(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()
	f.registerTeams(t, 1, 10, 20)

	match, err := f.service.Schedule(ctx, ScheduleMatchInput{
		TournamentID:  1,
		Round:         1,
		Team1ID:       10,
		Team2ID:       20,
		ScheduledTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	// Кеш лидерборда есть до результата и должен исчезнуть после.
	require.NoError(t, f.lbCache.Set(ctx, []models.LeaderboardEntry{{TeamID: 10, Name: "Falcons"}}))

	t.Run("winner must play in the match", func(t *testing.T) {
		_, err := f.service.ReportResult(ctx, match.ID, MatchResultInput{WinnerID: 99, Score: "2:0"})
		assert.ErrorIs(t, err, ErrMatchWinnerInvalid)
	})

	completed, err := f.service.ReportResult(ctx, match.ID, MatchResultInput{WinnerID: 10, Score: "2:1"})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, completed.Status)
	require.NotNil(t, completed.WinnerID)
	assert.Equal(t, 10, *completed.WinnerID)

	_, err = f.lbCache.Get(ctx)
	assert.ErrorIs(t, err, cache.ErrCacheMiss, "result must invalidate the leaderboard cache")

	t.Run("missing match", func(t *testing.T) {
		_, err := f.service.ReportResult(ctx, 404, MatchResultInput{WinnerID: 10, Score: "2:0"})
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})
}

func TestListUpcoming_SkipsFinishedAndPast(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, f.matchRepo.Create(ctx, &models.Match{
		TournamentID: 1, Team1ID: 10, Team2ID: 20,
		Status: models.MatchScheduled, ScheduledTime: now.Add(2 * time.Hour),
	}))
	require.NoError(t, f.matchRepo.Create(ctx, &models.Match{
		TournamentID: 1, Team1ID: 30, Team2ID: 40,
		Status: models.MatchScheduled, ScheduledTime: now.Add(time.Hour),
	}))
	require.NoError(t, f.matchRepo.Create(ctx, &models.Match{
		TournamentID: 1, Team1ID: 50, Team2ID: 60,
		Status: models.MatchCompleted, ScheduledTime: now.Add(3 * time.Hour),
	}))

	matches, err := f.service.ListUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	// Ближайший матч первым.
	assert.Equal(t, 30, matches[0].Team1ID)
	assert.Equal(t, 10, matches[1].Team1ID)
}
