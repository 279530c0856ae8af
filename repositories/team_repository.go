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
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name is already in use")
	ErrTeamSchoolInvalid  = errors.New("team school conflict or invalid")
	ErrMemberConflict     = errors.New("user already belongs to a team")
	ErrTeamMemberNotFound = errors.New("team member not found")
)

// TeamRepository покрывает команды и их составы. Методы, принимающие
// SQLExecutor, участвуют в транзакционных проверках членства: передайте tx,
// чтобы чтение легло в тот же снапшот, что и последующая запись, или nil,
// чтобы выполнить запрос вне транзакции.
type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	SetLogoKey(ctx context.Context, id int, logoKey *string) error

	FindByCaptain(ctx context.Context, exec SQLExecutor, userID int) (*models.Team, error)
	FindMembershipByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.TeamMember, error)
	AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	ListMembers(ctx context.Context, exec SQLExecutor, teamID int) ([]models.TeamMember, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, school_id, captain_id, logo_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		team.Name,
		team.SchoolID,
		team.CaptainID,
		team.LogoKey,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "teams_name_key" {
					return ErrTeamNameConflict
				}
			case "23503":
				if pqErr.Constraint == "teams_school_id_fkey" {
					return ErrTeamSchoolInvalid
				}
			}
		}
		return wrapTransient(err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `
		SELECT
			t.id, t.name, t.school_id, t.captain_id, t.logo_key, t.created_at,
			s.id, s.name, s.city, s.created_at,
			u.id, u.pseudo, u.email, u.role, u.avatar_key, u.created_at
		FROM teams t
		JOIN schools s ON t.school_id = s.id
		JOIN users u ON t.captain_id = u.id
		WHERE t.id = $1`

	row := r.getExecutor(exec).QueryRowContext(ctx, query, id)
	team, err := scanTeamWithDetails(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, wrapTransient(err)
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT
			t.id, t.name, t.school_id, t.captain_id, t.logo_key, t.created_at,
			s.id, s.name, s.city, s.created_at,
			u.id, u.pseudo, u.email, u.role, u.avatar_key, u.created_at
		FROM teams t
		JOIN schools s ON t.school_id = s.id
		JOIN users u ON t.captain_id = u.id
		ORDER BY t.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeamWithDetails(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, *team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) SetLogoKey(ctx context.Context, id int, logoKey *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return wrapTransient(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) FindByCaptain(ctx context.Context, exec SQLExecutor, userID int) (*models.Team, error) {
	query := `
		SELECT id, name, school_id, captain_id, logo_key, created_at
		FROM teams
		WHERE captain_id = $1`

	team := &models.Team{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, userID).Scan(
		&team.ID,
		&team.Name,
		&team.SchoolID,
		&team.CaptainID,
		&team.LogoKey,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, wrapTransient(err)
	}
	return team, nil
}

func (r *postgresTeamRepository) FindMembershipByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, role, created_at
		FROM team_members
		WHERE user_id = $1`

	member := &models.TeamMember{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, userID).Scan(
		&member.ID,
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, wrapTransient(err)
	}
	return member, nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		member.TeamID,
		member.UserID,
		member.Role,
	).Scan(&member.ID, &member.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				// team_members_user_id_key подпирает инвариант
				// "одна команда на пользователя" на уровне БД.
				if pqErr.Constraint == "team_members_user_id_key" {
					return ErrMemberConflict
				}
			case "23503":
				if pqErr.Constraint == "team_members_team_id_fkey" {
					return ErrTeamNotFound
				}
				if pqErr.Constraint == "team_members_user_id_fkey" {
					return ErrUserNotFound
				}
			}
		}
		return wrapTransient(fmt.Errorf("failed to add team member: %w", err))
	}
	return nil
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, exec SQLExecutor, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT
			m.id, m.team_id, m.user_id, m.role, m.created_at,
			u.id, u.pseudo, u.email, u.role, u.avatar_key, u.created_at
		FROM team_members m
		JOIN users u ON m.user_id = u.id
		WHERE m.team_id = $1
		ORDER BY m.role ASC, u.pseudo ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var member models.TeamMember
		var user models.User
		if scanErr := rows.Scan(
			&member.ID,
			&member.TeamID,
			&member.UserID,
			&member.Role,
			&member.CreatedAt,
			&user.ID,
			&user.Pseudo,
			&user.Email,
			&user.Role,
			&user.AvatarKey,
			&user.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		member.User = &user
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTeamWithDetails(row rowScanner) (*models.Team, error) {
	var team models.Team
	var school models.School
	var captain models.User

	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.SchoolID,
		&team.CaptainID,
		&team.LogoKey,
		&team.CreatedAt,
		&school.ID,
		&school.Name,
		&school.City,
		&school.CreatedAt,
		&captain.ID,
		&captain.Pseudo,
		&captain.Email,
		&captain.Role,
		&captain.AvatarKey,
		&captain.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	team.School = &school
	team.Captain = &captain
	return &team, nil
}
