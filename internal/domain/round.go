package domain

import "time"

// PlayerSummary is a player's revealed state at the end of a round
type PlayerSummary struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Alive bool   `json:"alive"`
}

// RoundSummary describes a concluded round
type RoundSummary struct {
	GameID      string          `json:"gameId"`
	Round       int             `json:"round"`
	Winner      Team            `json:"winner"`
	Players     []PlayerSummary `json:"players"`
	ConcludedAt time.Time       `json:"concludedAt"`
}

// summarize captures the roster before it is reset
func (g *Game) summarize(winner Team) RoundSummary {
	players := make([]PlayerSummary, 0, len(g.order))
	for _, p := range g.roster() {
		players = append(players, PlayerSummary{
			ID:    p.ID,
			Name:  p.Name,
			Role:  p.Role,
			Alive: p.Alive,
		})
	}

	return RoundSummary{
		GameID:      g.ID,
		Round:       g.Round,
		Winner:      winner,
		Players:     players,
		ConcludedAt: time.Now(),
	}
}
