package domain

import (
	"fmt"
	"strings"
)

// Role represents a player's role in a round
type Role string

const (
	RoleNone     Role = ""
	RoleWerewolf Role = "werewolf"
	RoleVillager Role = "villager"
	RoleSeer     Role = "seer"
	RoleWitch    Role = "witch"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsWerewolf returns true if this role is a werewolf
func (r Role) IsWerewolf() bool {
	return r == RoleWerewolf
}

// IsSpecial reports whether the role may appear in a game's special role set
func (r Role) IsSpecial() bool {
	return r == RoleSeer || r == RoleWitch
}

// ParseRole converts user input into a Role
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleWerewolf, RoleVillager, RoleSeer, RoleWitch:
		return r, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q: %w", s, ErrInvalidConfig)
	}
}

// Team is a side that can win a round
type Team string

const (
	TeamWerewolves Team = "werewolves"
	TeamVillagers  Team = "villagers"
)
