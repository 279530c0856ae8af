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
	ErrJoinRequestNotFound = errors.New("join request not found")
	// ErrJoinRequestPendingConflict: в БД частичный уникальный индекс
	// по user_id WHERE status = 'PENDING', вторая ожидающая заявка
	// пользователя не пройдёт даже при гонке.
	ErrJoinRequestPendingConflict = errors.New("user already has a pending join request")
	ErrJoinRequestAlreadyResolved = errors.New("join request already resolved")
)

type JoinRequestRepository interface {
	Create(ctx context.Context, exec SQLExecutor, request *models.JoinRequest) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error)
	// GetByIDForUpdate читает заявку под блокировкой FOR UPDATE: два
	// конкурентных решения по одной заявке сериализуются на её строке.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error)
	FindPendingByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.JoinRequest, error)
	FindLatestByUserAndTeam(ctx context.Context, exec SQLExecutor, userID, teamID int) (*models.JoinRequest, error)
	ListPendingByTeam(ctx context.Context, teamID int) ([]*models.JoinRequest, error)
	// UpdateStatus переводит заявку из PENDING в терминальный статус.
	// Возвращает ErrJoinRequestAlreadyResolved, если заявка уже не PENDING.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.JoinRequestStatus) error
}

type postgresJoinRequestRepository struct {
	db *sql.DB
}

func NewPostgresJoinRequestRepository(db *sql.DB) JoinRequestRepository {
	return &postgresJoinRequestRepository{db: db}
}

func (r *postgresJoinRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresJoinRequestRepository) Create(ctx context.Context, exec SQLExecutor, request *models.JoinRequest) error {
	query := `
		INSERT INTO team_join_requests (team_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		request.TeamID,
		request.UserID,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "team_join_requests_pending_user_idx" {
					return ErrJoinRequestPendingConflict
				}
			case "23503":
				if pqErr.Constraint == "team_join_requests_team_id_fkey" {
					return ErrTeamNotFound
				}
				if pqErr.Constraint == "team_join_requests_user_id_fkey" {
					return ErrUserNotFound
				}
			}
		}
		return wrapTransient(fmt.Errorf("failed to create join request: %w", err))
	}
	return nil
}

func (r *postgresJoinRequestRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error) {
	query := `
		SELECT id, team_id, user_id, status, created_at, updated_at
		FROM team_join_requests
		WHERE id = $1`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresJoinRequestRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error) {
	query := `
		SELECT id, team_id, user_id, status, created_at, updated_at
		FROM team_join_requests
		WHERE id = $1
		FOR UPDATE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresJoinRequestRepository) FindPendingByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.JoinRequest, error) {
	query := `
		SELECT id, team_id, user_id, status, created_at, updated_at
		FROM team_join_requests
		WHERE user_id = $1 AND status = 'PENDING'`
	return r.findOne(ctx, exec, query, userID)
}

func (r *postgresJoinRequestRepository) FindLatestByUserAndTeam(ctx context.Context, exec SQLExecutor, userID, teamID int) (*models.JoinRequest, error) {
	query := `
		SELECT id, team_id, user_id, status, created_at, updated_at
		FROM team_join_requests
		WHERE user_id = $1 AND team_id = $2
		ORDER BY created_at DESC
		LIMIT 1`
	return r.findOne(ctx, exec, query, userID, teamID)
}

func (r *postgresJoinRequestRepository) ListPendingByTeam(ctx context.Context, teamID int) ([]*models.JoinRequest, error) {
	query := `
		SELECT
			jr.id, jr.team_id, jr.user_id, jr.status, jr.created_at, jr.updated_at,
			u.id, u.pseudo, u.email, u.role, u.avatar_key, u.created_at
		FROM team_join_requests jr
		JOIN users u ON jr.user_id = u.id
		WHERE jr.team_id = $1 AND jr.status = 'PENDING'
		ORDER BY jr.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	requests := make([]*models.JoinRequest, 0)
	for rows.Next() {
		var request models.JoinRequest
		var user models.User
		if scanErr := rows.Scan(
			&request.ID,
			&request.TeamID,
			&request.UserID,
			&request.Status,
			&request.CreatedAt,
			&request.UpdatedAt,
			&user.ID,
			&user.Pseudo,
			&user.Email,
			&user.Role,
			&user.AvatarKey,
			&user.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		request.User = &user
		requests = append(requests, &request)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresJoinRequestRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.JoinRequestStatus) error {
	// Терминальные статусы неизменяемы: строка обновляется только из PENDING.
	query := `
		UPDATE team_join_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'PENDING'`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return wrapTransient(fmt.Errorf("failed to update join request status: %w", err))
	}
	return checkAffectedRows(result, ErrJoinRequestAlreadyResolved)
}

func (r *postgresJoinRequestRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.JoinRequest, error) {
	request := &models.JoinRequest{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(
		&request.ID,
		&request.TeamID,
		&request.UserID,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, wrapTransient(err)
	}
	return request, nil
}
