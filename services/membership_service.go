package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
)

// MembershipService реализует конечный автомат членства. Статус пары
// (user, team) не хранится, а выводится из team_members, teams.captain_id
// и заявок; каждая мутация выполняется в одной транзакции с блокировкой
// строки пользователя.
type MembershipService interface {
	ComputeStatus(ctx context.Context, userID, teamID int) (*models.MembershipState, error)
	RequestJoin(ctx context.Context, userID, teamID int) (*models.JoinRequest, error)
	ResolveRequest(ctx context.Context, captainID, teamID, requestID int, action models.JoinRequestStatus) (*models.JoinRequest, error)
	ListTeamRequests(ctx context.Context, captainID, teamID int) ([]*models.JoinRequest, error)
}

type membershipService struct {
	txm         repositories.TxManager
	teamRepo    repositories.TeamRepository
	requestRepo repositories.JoinRequestRepository
	userRepo    repositories.UserRepository
	guard       *TeamInvariantGuard
	notifier    Notifier
	logger      *slog.Logger
}

func NewMembershipService(
	txm repositories.TxManager,
	teamRepo repositories.TeamRepository,
	requestRepo repositories.JoinRequestRepository,
	userRepo repositories.UserRepository,
	guard *TeamInvariantGuard,
	notifier Notifier,
	logger *slog.Logger,
) MembershipService {
	return &membershipService{
		txm:         txm,
		teamRepo:    teamRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		guard:       guard,
		notifier:    notifier,
		logger:      logger,
	}
}

// ComputeStatus выполняет все чтения в одной транзакции: статус собирается
// из одного снапшота, а не из последовательности несогласованных запросов.
// Приоритет: капитанство > членство > ожидающая заявка > прошлая заявка >
// ничего; побеждает первое совпадение.
func (s *membershipService) ComputeStatus(ctx context.Context, userID, teamID int) (*models.MembershipState, error) {
	var state *models.MembershipState

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.teamRepo.GetByID(ctx, exec, teamID); err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		captainOf, err := s.teamRepo.FindByCaptain(ctx, exec, userID)
		if err == nil {
			if captainOf.ID == teamID {
				state = &models.MembershipState{Status: models.MembershipCaptain}
			} else {
				state = &models.MembershipState{Status: models.MembershipCaptainOtherTeam}
			}
			return nil
		}
		if !errors.Is(err, repositories.ErrTeamNotFound) {
			return err
		}

		membership, err := s.teamRepo.FindMembershipByUser(ctx, exec, userID)
		if err == nil {
			if membership.TeamID == teamID {
				state = &models.MembershipState{Status: models.MembershipMember}
			} else {
				state = &models.MembershipState{Status: models.MembershipOtherTeam}
			}
			return nil
		}
		if !errors.Is(err, repositories.ErrTeamMemberNotFound) {
			return err
		}

		// Ожидающая заявка блокирует новые запросы независимо от того,
		// в эту команду она подана или в другую.
		pending, err := s.requestRepo.FindPendingByUser(ctx, exec, userID)
		if err == nil {
			state = &models.MembershipState{Status: models.MembershipPending, Request: pending}
			return nil
		}
		if !errors.Is(err, repositories.ErrJoinRequestNotFound) {
			return err
		}

		latest, err := s.requestRepo.FindLatestByUserAndTeam(ctx, exec, userID, teamID)
		if err == nil && latest.Status == models.JoinRequestRejected {
			state = &models.MembershipState{
				Status:     models.MembershipRejected,
				CanRequest: true,
				Request:    latest,
			}
			return nil
		}
		if err != nil && !errors.Is(err, repositories.ErrJoinRequestNotFound) {
			return err
		}

		state = &models.MembershipState{Status: models.MembershipCanRequest, CanRequest: true}
		return nil
	})
	if err != nil {
		return nil, translateTransient(err)
	}
	return state, nil
}

func (s *membershipService) RequestJoin(ctx context.Context, userID, teamID int) (*models.JoinRequest, error) {
	var team *models.Team
	request := &models.JoinRequest{
		TeamID: teamID,
		UserID: userID,
		Status: models.JoinRequestPending,
	}

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		team, err = s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		// Блокировка строки пользователя сериализует конкурентные
		// requestJoin одного пользователя: проигравший увидит уже
		// вставленную PENDING-заявку.
		if err := s.userRepo.LockByID(ctx, exec, userID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if err := s.guard.AssertNoExistingAffiliation(ctx, exec, userID); err != nil {
			return err
		}
		if err := s.guard.AssertNoPendingRequest(ctx, exec, userID); err != nil {
			return err
		}

		if err := s.requestRepo.Create(ctx, exec, request); err != nil {
			if errors.Is(err, repositories.ErrJoinRequestPendingConflict) {
				return ErrDuplicatePending
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translateTransient(err)
	}

	s.notifyAsync(ctx, team.CaptainID,
		fmt.Sprintf("New join request for team %q (request #%d)", team.Name, request.ID))

	return request, nil
}

func (s *membershipService) ResolveRequest(ctx context.Context, captainID, teamID, requestID int, action models.JoinRequestStatus) (*models.JoinRequest, error) {
	if action != models.JoinRequestApproved && action != models.JoinRequestRejected {
		return nil, ErrInvalidResolveAction
	}

	var team *models.Team
	var request *models.JoinRequest

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
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

		request, err = s.requestRepo.GetByIDForUpdate(ctx, exec, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrJoinRequestNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if request.TeamID != teamID {
			return ErrRequestNotFound
		}
		if request.Status != models.JoinRequestPending {
			return ErrAlreadyResolved
		}

		if action == models.JoinRequestApproved {
			if err := s.userRepo.LockByID(ctx, exec, request.UserID); err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					return ErrUserNotFound
				}
				return err
			}

			// Повторная проверка в том же снапшоте: между подачей заявки
			// и её одобрением пользователь мог вступить куда-то ещё.
			if err := s.guard.AssertNoExistingAffiliation(ctx, exec, request.UserID); err != nil {
				if errors.Is(err, ErrAlreadyCaptain) || errors.Is(err, ErrAlreadyMember) {
					return ErrMembershipConflict
				}
				return err
			}

			member := &models.TeamMember{
				TeamID: teamID,
				UserID: request.UserID,
				Role:   models.TeamRoleMember,
			}
			if err := s.teamRepo.AddMember(ctx, exec, member); err != nil {
				if errors.Is(err, repositories.ErrMemberConflict) {
					return ErrMembershipConflict
				}
				return err
			}
		}

		if err := s.requestRepo.UpdateStatus(ctx, exec, requestID, action); err != nil {
			if errors.Is(err, repositories.ErrJoinRequestAlreadyResolved) {
				return ErrAlreadyResolved
			}
			return err
		}
		request.Status = action
		return nil
	})
	if err != nil {
		return nil, translateTransient(err)
	}

	if action == models.JoinRequestApproved {
		s.notifyAsync(ctx, request.UserID,
			fmt.Sprintf("Your request to join team %q has been accepted", team.Name))
	} else {
		s.notifyAsync(ctx, request.UserID,
			fmt.Sprintf("Your request to join team %q has been rejected", team.Name))
	}

	return request, nil
}

func (s *membershipService) ListTeamRequests(ctx context.Context, captainID, teamID int) ([]*models.JoinRequest, error) {
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

	requests, err := s.requestRepo.ListPendingByTeam(ctx, teamID)
	if err != nil {
		return nil, translateTransient(err)
	}
	return requests, nil
}

// notifyAsync отправляет уведомление вне транзакции и не дожидается
// доставки; отмена исходного запроса на доставку не влияет.
func (s *membershipService) notifyAsync(ctx context.Context, recipientID int, message string) {
	detached := context.WithoutCancel(ctx)
	go s.notifier.Notify(detached, recipientID, message)
}
