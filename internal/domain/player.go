package domain

import "time"

// Player represents a seat in a game
type Player struct {
	ID       int       `json:"id"`
	Handle   string    `json:"-"`
	Name     string    `json:"name"`
	Alive    bool      `json:"alive"`
	Ready    bool      `json:"ready"`
	Role     Role      `json:"role,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player with the given id, transport handle and name
func NewPlayer(id int, handle, name string) *Player {
	p := &Player{
		ID:       id,
		Handle:   handle,
		Name:     name,
		JoinedAt: time.Now(),
	}
	p.Initialize()
	return p
}

// Initialize resets the per-round state
func (p *Player) Initialize() {
	p.Alive = true
	p.Ready = false
	p.Role = RoleNone
}

// PlayerInfo is a safe view of player data (hides role from other players)
type PlayerInfo struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
	Ready bool   `json:"ready"`
}

// ToInfo converts a Player to PlayerInfo (without role)
func (p *Player) ToInfo() PlayerInfo {
	return PlayerInfo{
		ID:    p.ID,
		Name:  p.Name,
		Alive: p.Alive,
		Ready: p.Ready,
	}
}
