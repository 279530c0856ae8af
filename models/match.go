package models

import "time"

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCanceled   MatchStatus = "canceled"
)

type Match struct {
	ID            int         `json:"id" db:"id"`
	TournamentID  int         `json:"tournament_id" db:"tournament_id"`
	Round         int         `json:"round" db:"round"`
	Team1ID       int         `json:"team1_id" db:"team1_id"`
	Team2ID       int         `json:"team2_id" db:"team2_id"`
	Status        MatchStatus `json:"status" db:"status"`
	WinnerID      *int        `json:"winner_id,omitempty" db:"winner_id"`
	Score         *string     `json:"score,omitempty" db:"score"`
	ScheduledTime time.Time   `json:"scheduled_time" db:"scheduled_time"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`

	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
	Team1      *Team       `json:"team1,omitempty" db:"-"`
	Team2      *Team       `json:"team2,omitempty" db:"-"`
}
