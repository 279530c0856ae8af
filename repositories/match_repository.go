package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/slayergates/esports-arena/models"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchTeamInvalid = errors.New("match team conflict or invalid")
)

// TeamMatchStats хранит агрегат завершённых матчей для лидерборда.
type TeamMatchStats struct {
	TeamID   int
	TeamName string
	Wins     int
	Losses   int
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Match, error)
	// UpdateResult записывает счёт и победителя и переводит матч в completed.
	// Завершённый матч не перезаписывается.
	UpdateResult(ctx context.Context, id int, score string, winnerID int) error
	// ListTeamStats возвращает по строке на команду: победы и поражения
	// в завершённых матчах. Команды без матчей тоже попадают в выборку.
	ListTeamStats(ctx context.Context) ([]TeamMatchStats, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, round, team1_id, team2_id, status, scheduled_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Round,
		match.Team1ID,
		match.Team2ID,
		match.Status,
		match.ScheduledTime,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "matches_tournament_id_fkey":
				return ErrTournamentNotFound
			case "matches_team1_id_fkey", "matches_team2_id_fkey":
				return ErrMatchTeamInvalid
			}
		}
		return wrapTransient(fmt.Errorf("failed to create match: %w", err))
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT id, tournament_id, round, team1_id, team2_id, status, winner_id, score, scheduled_time, created_at
		FROM matches
		WHERE id = $1`

	match := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.TournamentID,
		&match.Round,
		&match.Team1ID,
		&match.Team2ID,
		&match.Status,
		&match.WinnerID,
		&match.Score,
		&match.ScheduledTime,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, wrapTransient(err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Match, error) {
	query := `
		SELECT
			m.id, m.tournament_id, m.round, m.team1_id, m.team2_id,
			m.status, m.winner_id, m.score, m.scheduled_time, m.created_at,
			tr.id, tr.title, tr.game, tr.format, tr.players_per_team, tr.max_teams,
			tr.start_date, tr.created_by, tr.created_at,
			t1.id, t1.name, t1.school_id, t1.captain_id, t1.logo_key, t1.created_at,
			t2.id, t2.name, t2.school_id, t2.captain_id, t2.logo_key, t2.created_at
		FROM matches m
		JOIN tournaments tr ON m.tournament_id = tr.id
		JOIN teams t1 ON m.team1_id = t1.id
		JOIN teams t2 ON m.team2_id = t2.id
		WHERE m.status IN ('scheduled', 'in_progress')
		  AND m.scheduled_time >= $1
		ORDER BY m.scheduled_time ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		var tournament models.Tournament
		var team1, team2 models.Team
		if scanErr := rows.Scan(
			&m.ID,
			&m.TournamentID,
			&m.Round,
			&m.Team1ID,
			&m.Team2ID,
			&m.Status,
			&m.WinnerID,
			&m.Score,
			&m.ScheduledTime,
			&m.CreatedAt,
			&tournament.ID,
			&tournament.Title,
			&tournament.Game,
			&tournament.Format,
			&tournament.PlayersPerTeam,
			&tournament.MaxTeams,
			&tournament.StartDate,
			&tournament.CreatedBy,
			&tournament.CreatedAt,
			&team1.ID,
			&team1.Name,
			&team1.SchoolID,
			&team1.CaptainID,
			&team1.LogoKey,
			&team1.CreatedAt,
			&team2.ID,
			&team2.Name,
			&team2.SchoolID,
			&team2.CaptainID,
			&team2.LogoKey,
			&team2.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		m.Tournament = &tournament
		m.Team1 = &team1
		m.Team2 = &team2
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, id int, score string, winnerID int) error {
	query := `
		UPDATE matches
		SET score = $1, winner_id = $2, status = 'completed'
		WHERE id = $3 AND status <> 'completed'`

	result, err := r.db.ExecContext(ctx, query, score, winnerID, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "matches_winner_id_fkey" {
			return ErrMatchTeamInvalid
		}
		return wrapTransient(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListTeamStats(ctx context.Context) ([]TeamMatchStats, error) {
	query := `
		SELECT
			t.id,
			t.name,
			COUNT(m.id) FILTER (WHERE m.winner_id = t.id) AS wins,
			COUNT(m.id) FILTER (WHERE m.winner_id IS NOT NULL AND m.winner_id <> t.id) AS losses
		FROM teams t
		LEFT JOIN matches m
			ON m.status = 'completed' AND (m.team1_id = t.id OR m.team2_id = t.id)
		GROUP BY t.id, t.name
		ORDER BY t.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	stats := make([]TeamMatchStats, 0)
	for rows.Next() {
		var s TeamMatchStats
		if scanErr := rows.Scan(&s.TeamID, &s.TeamName, &s.Wins, &s.Losses); scanErr != nil {
			return nil, scanErr
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
