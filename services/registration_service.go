package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
)

// RegistrationService регистрирует команды на турниры. Вся проверка и запись
// идут в одной транзакции под FOR UPDATE на строке турнира, поэтому гонка за
// последний слот разрешается детерминированно: один победитель, остальным
// ErrTournamentFull.
type RegistrationService interface {
	RegisterTeam(ctx context.Context, captainID, tournamentID, teamID int, playerIDs []int64) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error)
}

type registrationService struct {
	txm              repositories.TxManager
	tournamentRepo   repositories.TournamentRepository
	teamRepo         repositories.TeamRepository
	registrationRepo repositories.RegistrationRepository
	notifier         Notifier
	logger           *slog.Logger
}

func NewRegistrationService(
	txm repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	registrationRepo repositories.RegistrationRepository,
	notifier Notifier,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		txm:              txm,
		tournamentRepo:   tournamentRepo,
		teamRepo:         teamRepo,
		registrationRepo: registrationRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

// Порядок проверок фиксирован: права капитана, размер состава, принадлежность
// игроков, свободный слот, повторная регистрация. Первый провал определяет
// ошибку, остальные проверки не выполняются.
func (s *registrationService) RegisterTeam(ctx context.Context, captainID, tournamentID, teamID int, playerIDs []int64) (*models.Registration, error) {
	var team *models.Team
	var tournament *models.Tournament
	registration := &models.Registration{
		TournamentID: tournamentID,
		TeamID:       teamID,
		PlayerIDs:    playerIDs,
	}

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}

		team, err = s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if team.CaptainID != captainID {
			return ErrCaptainActionForbidden
		}

		if len(playerIDs) != tournament.PlayersPerTeam {
			return ErrRosterSizeMismatch
		}

		members, err := s.teamRepo.ListMembers(ctx, exec, teamID)
		if err != nil {
			return err
		}
		roster := make(map[int64]bool, len(members))
		for _, m := range members {
			roster[int64(m.UserID)] = true
		}
		seen := make(map[int64]bool, len(playerIDs))
		for _, id := range playerIDs {
			if !roster[id] || seen[id] {
				return ErrInvalidRosterPlayer
			}
			seen[id] = true
		}

		count, err := s.registrationRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if count >= tournament.MaxTeams {
			return ErrTournamentFull
		}

		// Уникальный индекс (tournament_id, team_id) всё равно отклонит
		// дубль на вставке, явная проверка даёт ошибку в нужном месте
		// порядка.
		if _, err := s.registrationRepo.FindByTournamentAndTeam(ctx, exec, tournamentID, teamID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, repositories.ErrRegistrationNotFound) {
			return err
		}

		if err := s.registrationRepo.Create(ctx, exec, registration); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translateTransient(err)
	}

	s.logger.Info("team registered for tournament",
		slog.Int("tournament_id", tournamentID),
		slog.Int("team_id", teamID),
		slog.Int("roster_size", len(playerIDs)),
	)
	s.notifyAsync(ctx, captainID,
		fmt.Sprintf("Team %q is registered for tournament %q", team.Name, tournament.Title))

	return registration, nil
}

// notifyAsync отправляет уведомление вне транзакции и не дожидается
// доставки; отмена исходного запроса на доставку не влияет.
func (s *registrationService) notifyAsync(ctx context.Context, recipientID int, message string) {
	detached := context.WithoutCancel(ctx)
	go s.notifier.Notify(detached, recipientID, message)
}

func (s *registrationService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, translateTransient(err)
	}

	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, translateTransient(err)
	}
	return registrations, nil
}
