package models

import "time"

type Tournament struct {
	ID             int       `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Game           string    `json:"game" db:"game"`
	Format         string    `json:"format" db:"format"`
	PlayersPerTeam int       `json:"players_per_team" db:"players_per_team"`
	// MaxTeams ограничивает число зарегистрированных команд, не игроков.
	MaxTeams  int       `json:"max_teams" db:"max_teams"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	CreatedBy int       `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	RegisteredTeams int            `json:"registered_teams" db:"-"`
	Registrations   []Registration `json:"registrations,omitempty" db:"-"`
}

// Registration связывает команду с турниром и фиксирует заявленный состав.
type Registration struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	TeamID       int       `json:"team_id" db:"team_id"`
	PlayerIDs    []int64   `json:"player_ids" db:"player_ids"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
