package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slayergates/esports-arena/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// GetByIDForUpdate читает турнир под FOR UPDATE: конкурентные регистрации
	// на последний слот сериализуются на строке турнира.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (title, game, format, players_per_team, max_teams, start_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Title,
		tournament.Game,
		tournament.Format,
		tournament.PlayersPerTeam,
		tournament.MaxTeams,
		tournament.StartDate,
		tournament.CreatedBy,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if err != nil {
		return wrapTransient(fmt.Errorf("failed to create tournament: %w", err))
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `
		SELECT id, title, game, format, players_per_team, max_teams, start_date, created_by, created_at
		FROM tournaments
		WHERE id = $1`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `
		SELECT id, title, game, format, players_per_team, max_teams, start_date, created_by, created_at
		FROM tournaments
		WHERE id = $1
		FOR UPDATE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `
		SELECT
			t.id, t.title, t.game, t.format, t.players_per_team, t.max_teams,
			t.start_date, t.created_by, t.created_at,
			COUNT(tt.id) AS registered_teams
		FROM tournaments t
		LEFT JOIN tournament_teams tt ON tt.tournament_id = t.id
		GROUP BY t.id
		ORDER BY t.start_date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Game,
			&t.Format,
			&t.PlayersPerTeam,
			&t.MaxTeams,
			&t.StartDate,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.RegisteredTeams,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			title = $1,
			game = $2,
			format = $3,
			players_per_team = $4,
			max_teams = $5,
			start_date = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		tournament.Title,
		tournament.Game,
		tournament.Format,
		tournament.PlayersPerTeam,
		tournament.MaxTeams,
		tournament.StartDate,
		tournament.ID,
	)
	if err != nil {
		return wrapTransient(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapTransient(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(
		&t.ID,
		&t.Title,
		&t.Game,
		&t.Format,
		&t.PlayersPerTeam,
		&t.MaxTeams,
		&t.StartDate,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, wrapTransient(err)
	}
	return t, nil
}
