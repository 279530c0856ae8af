package models

// LeaderboardEntry хранит агрегат по завершённым матчам команды.
// Очки: 1 за победу, 0 за поражение.
type LeaderboardEntry struct {
	TeamID  int     `json:"team_id"`
	Name    string  `json:"name"`
	Points  int     `json:"points"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}
