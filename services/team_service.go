package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
	"github.com/slayergates/esports-arena/storage"
)

type TeamService interface {
	Create(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	ListByCaptain(ctx context.Context, captainID int) ([]models.Team, error)
	ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error)
	UploadLogo(ctx context.Context, captainID, teamID int, contentType string, data io.Reader) (*models.Team, error)
}

type CreateTeamInput struct {
	Name     string `json:"name"`
	SchoolID int    `json:"school_id"`
}

type teamService struct {
	txm      repositories.TxManager
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	guard    *TeamInvariantGuard
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewTeamService(
	txm repositories.TxManager,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	guard *TeamInvariantGuard,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		txm:      txm,
		teamRepo: teamRepo,
		userRepo: userRepo,
		guard:    guard,
		uploader: uploader,
		logger:   logger,
	}
}

// Create создаёт команду и сразу добавляет капитана в состав строкой с ролью
// captain. Обе записи идут в одной транзакции под блокировкой строки
// пользователя, так что капитан не может параллельно вступить куда-то ещё.
func (s *teamService) Create(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{
		Name:      name,
		SchoolID:  input.SchoolID,
		CaptainID: captainID,
	}

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.userRepo.LockByID(ctx, exec, captainID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if err := s.guard.AssertNoExistingAffiliation(ctx, exec, captainID); err != nil {
			return err
		}

		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			switch {
			case errors.Is(err, repositories.ErrTeamNameConflict):
				return ErrTeamNameConflict
			case errors.Is(err, repositories.ErrTeamSchoolInvalid):
				return ErrSchoolNotFound
			}
			return err
		}

		member := &models.TeamMember{
			TeamID: team.ID,
			UserID: captainID,
			Role:   models.TeamRoleCaptain,
		}
		if err := s.teamRepo.AddMember(ctx, exec, member); err != nil {
			if errors.Is(err, repositories.ErrMemberConflict) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translateTransient(err)
	}

	s.logger.Info("team created",
		slog.Int("team_id", team.ID),
		slog.Int("captain_id", captainID),
	)
	return s.GetByID(ctx, team.ID)
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, translateTransient(err)
	}

	members, err := s.teamRepo.ListMembers(ctx, nil, id)
	if err != nil {
		return nil, translateTransient(err)
	}
	team.Members = members

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, translateTransient(err)
	}
	for i := range teams {
		populateTeamLogoURL(&teams[i], s.uploader)
	}
	return teams, nil
}

// ListByCaptain возвращает команды, где пользователь капитан. Инвариант
// допускает максимум одну, но контракт отдаёт список: пустой означает
// "капитаном нигде не является", а не ошибку.
func (s *teamService) ListByCaptain(ctx context.Context, captainID int) ([]models.Team, error) {
	team, err := s.teamRepo.FindByCaptain(ctx, nil, captainID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return []models.Team{}, nil
		}
		return nil, translateTransient(err)
	}

	members, err := s.teamRepo.ListMembers(ctx, nil, team.ID)
	if err != nil {
		return nil, translateTransient(err)
	}
	team.Members = members
	populateTeamLogoURL(team, s.uploader)
	return []models.Team{*team}, nil
}

func (s *teamService) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	if _, err := s.teamRepo.GetByID(ctx, nil, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, translateTransient(err)
	}

	members, err := s.teamRepo.ListMembers(ctx, nil, teamID)
	if err != nil {
		return nil, translateTransient(err)
	}
	for i := range members {
		populateUserAvatarURL(members[i].User, s.uploader)
	}
	return members, nil
}

func (s *teamService) UploadLogo(ctx context.Context, captainID, teamID int, contentType string, data io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, translateTransient(err)
	}
	if team.CaptainID != captainID {
		return nil, ErrCaptainActionForbidden
	}

	key := fmt.Sprintf("team-logos/%d", teamID)
	if _, err := s.uploader.Upload(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	if err := s.teamRepo.SetLogoKey(ctx, teamID, &key); err != nil {
		return nil, translateTransient(err)
	}

	team.LogoKey = &key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}
