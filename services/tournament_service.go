package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
)

type TournamentService interface {
	Create(ctx context.Context, creatorID int, input TournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	Update(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
}

type TournamentInput struct {
	Title          string    `json:"title"`
	Game           string    `json:"game"`
	Format         string    `json:"format"`
	PlayersPerTeam int       `json:"players_per_team"`
	MaxTeams       int       `json:"max_teams"`
	StartDate      time.Time `json:"start_date"`
}

type tournamentService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
) TournamentService {
	return &tournamentService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
	}
}

func validateTournamentInput(input TournamentInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrTournamentTitleRequired
	}
	if input.MaxTeams <= 0 {
		return ErrInvalidTeamCapacity
	}
	if input.PlayersPerTeam <= 0 {
		return ErrInvalidRosterSize
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, creatorID int, input TournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Title:          strings.TrimSpace(input.Title),
		Game:           strings.TrimSpace(input.Game),
		Format:         strings.TrimSpace(input.Format),
		PlayersPerTeam: input.PlayersPerTeam,
		MaxTeams:       input.MaxTeams,
		StartDate:      input.StartDate,
		CreatedBy:      creatorID,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, translateTransient(err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, translateTransient(err)
	}

	registrations, err := s.registrationRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, translateTransient(err)
	}
	tournament.RegisteredTeams = len(registrations)
	tournament.Registrations = make([]models.Registration, 0, len(registrations))
	for _, r := range registrations {
		tournament.Registrations = append(tournament.Registrations, *r)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, translateTransient(err)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, translateTransient(err)
	}

	// Уменьшать лимит ниже текущего числа регистраций нельзя.
	count, err := s.registrationRepo.CountByTournament(ctx, nil, id)
	if err != nil {
		return nil, translateTransient(err)
	}
	if input.MaxTeams < count {
		return nil, ErrInvalidTeamCapacity
	}

	tournament.Title = strings.TrimSpace(input.Title)
	tournament.Game = strings.TrimSpace(input.Game)
	tournament.Format = strings.TrimSpace(input.Format)
	tournament.PlayersPerTeam = input.PlayersPerTeam
	tournament.MaxTeams = input.MaxTeams
	tournament.StartDate = input.StartDate

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, translateTransient(err)
	}
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return translateTransient(err)
	}
	return nil
}
