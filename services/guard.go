package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/slayergates/esports-arena/repositories"
)

// TeamInvariantGuard проверяет глобальные инварианты членства перед любой
// мутацией: пользователь состоит максимум в одной команде (как капитан или
// участник) и имеет максимум одну ожидающую заявку. Обе проверки принимают
// SQLExecutor текущей транзакции, чтобы читать тот же снапшот, в который
// пойдёт запись, иначе между check и act пролезает конкурентный запрос.
type TeamInvariantGuard struct {
	teamRepo    repositories.TeamRepository
	requestRepo repositories.JoinRequestRepository
}

func NewTeamInvariantGuard(
	teamRepo repositories.TeamRepository,
	requestRepo repositories.JoinRequestRepository,
) *TeamInvariantGuard {
	return &TeamInvariantGuard{
		teamRepo:    teamRepo,
		requestRepo: requestRepo,
	}
}

// AssertNoExistingAffiliation возвращает ErrAlreadyCaptain либо
// ErrAlreadyMember, если пользователь уже связан с какой-либо командой.
func (g *TeamInvariantGuard) AssertNoExistingAffiliation(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	_, err := g.teamRepo.FindByCaptain(ctx, exec, userID)
	if err == nil {
		return ErrAlreadyCaptain
	}
	if !errors.Is(err, repositories.ErrTeamNotFound) {
		return fmt.Errorf("failed to check captaincy for user %d: %w", userID, err)
	}

	_, err = g.teamRepo.FindMembershipByUser(ctx, exec, userID)
	if err == nil {
		return ErrAlreadyMember
	}
	if !errors.Is(err, repositories.ErrTeamMemberNotFound) {
		return fmt.Errorf("failed to check membership for user %d: %w", userID, err)
	}

	return nil
}

// AssertNoPendingRequest возвращает ErrDuplicatePending, если у пользователя
// уже есть PENDING-заявка в любую команду.
func (g *TeamInvariantGuard) AssertNoPendingRequest(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	_, err := g.requestRepo.FindPendingByUser(ctx, exec, userID)
	if err == nil {
		return ErrDuplicatePending
	}
	if !errors.Is(err, repositories.ErrJoinRequestNotFound) {
		return fmt.Errorf("failed to check pending requests for user %d: %w", userID, err)
	}
	return nil
}
