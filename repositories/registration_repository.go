package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/slayergates/esports-arena/models"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrRegistrationConflict: уникальный индекс (tournament_id, team_id)
	// закрывает повторную регистрацию и на уровне БД.
	ErrRegistrationConflict = errors.New("team is already registered for this tournament")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	FindByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Registration, error)
	ExistsForTeams(ctx context.Context, tournamentID int, teamIDs ...int) (bool, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error {
	query := `
		INSERT INTO tournament_teams (tournament_id, team_id, player_ids)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		registration.TournamentID,
		registration.TeamID,
		pq.Array(registration.PlayerIDs),
	).Scan(&registration.ID, &registration.RegisteredAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "tournament_teams_tournament_id_team_id_key" {
					return ErrRegistrationConflict
				}
			case "23503":
				if pqErr.Constraint == "tournament_teams_tournament_id_fkey" {
					return ErrTournamentNotFound
				}
				if pqErr.Constraint == "tournament_teams_team_id_fkey" {
					return ErrTeamNotFound
				}
			}
		}
		return wrapTransient(fmt.Errorf("failed to create registration: %w", err))
	}
	return nil
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_teams WHERE tournament_id = $1`,
		tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, wrapTransient(err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) FindByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Registration, error) {
	query := `
		SELECT id, tournament_id, team_id, player_ids, registered_at
		FROM tournament_teams
		WHERE tournament_id = $1 AND team_id = $2`

	registration := &models.Registration{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, teamID).Scan(
		&registration.ID,
		&registration.TournamentID,
		&registration.TeamID,
		pq.Array(&registration.PlayerIDs),
		&registration.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, wrapTransient(err)
	}
	return registration, nil
}

// ExistsForTeams сообщает, зарегистрированы ли ВСЕ перечисленные команды
// на турнир (используется при планировании матча).
func (r *postgresRegistrationRepository) ExistsForTeams(ctx context.Context, tournamentID int, teamIDs ...int) (bool, error) {
	if len(teamIDs) == 0 {
		return true, nil
	}

	int64IDs := make([]int64, len(teamIDs))
	for i, id := range teamIDs {
		int64IDs[i] = int64(id)
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT team_id) FROM tournament_teams WHERE tournament_id = $1 AND team_id = ANY($2)`,
		tournamentID, pq.Array(int64IDs),
	).Scan(&count)
	if err != nil {
		return false, wrapTransient(err)
	}
	return count == len(teamIDs), nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	query := `
		SELECT
			tt.id, tt.tournament_id, tt.team_id, tt.player_ids, tt.registered_at,
			t.id, t.name, t.school_id, t.captain_id, t.logo_key, t.created_at
		FROM tournament_teams tt
		JOIN teams t ON tt.team_id = t.id
		WHERE tt.tournament_id = $1
		ORDER BY tt.registered_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var registration models.Registration
		var team models.Team
		if scanErr := rows.Scan(
			&registration.ID,
			&registration.TournamentID,
			&registration.TeamID,
			pq.Array(&registration.PlayerIDs),
			&registration.RegisteredAt,
			&team.ID,
			&team.Name,
			&team.SchoolID,
			&team.CaptainID,
			&team.LogoKey,
			&team.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		registration.Team = &team
		registrations = append(registrations, &registration)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}
