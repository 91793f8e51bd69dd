package domain

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
)

// ReadyCommand is the quick reply offered to freshly seated players
const ReadyCommand = "/ready"

// Shuffler permutes n elements by calling swap, like rand.Shuffle
type Shuffler func(n int, swap func(i, j int))

// Option configures a Game
type Option func(*Game)

// WithShuffler replaces the uniform shuffle used for role assignment
func WithShuffler(s Shuffler) Option {
	return func(g *Game) {
		g.shuffle = s
	}
}

// WithRoundObserver registers a callback that receives every concluded round
func WithRoundObserver(fn func(RoundSummary)) Option {
	return func(g *Game) {
		g.observer = fn
	}
}

// Game represents a game room
type Game struct {
	ID        string    `json:"id"`
	Key       string    `json:"-"`
	Phase     Phase     `json:"phase"`
	Round     int       `json:"round"`
	CreatedAt time.Time `json:"createdAt"`

	players             map[int]*Player
	order               []int // player ids in join order
	playerIndexByHandle map[string]int
	nextPlayerID        int

	// zero until configured or defaulted by the first round
	werewolfCount   int
	specialRoles    []Role
	hasSpecialRoles bool

	shuffle  Shuffler
	observer func(RoundSummary)
}

// NewGame creates a new game with the given ID and join password
func NewGame(id, key string, opts ...Option) *Game {
	g := &Game{
		ID:                  id,
		Key:                 key,
		Phase:               PhaseLobby,
		CreatedAt:           time.Now(),
		players:             make(map[int]*Player),
		playerIndexByHandle: make(map[string]int),
		nextPlayerID:        1,
		shuffle:             rand.Shuffle,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Started reports whether a round is in progress
func (g *Game) Started() bool {
	return g.Phase == PhaseInProgress
}

// PlayerCount returns the number of seated players
func (g *Game) PlayerCount() int {
	return len(g.order)
}

// HasHandle reports whether the handle holds a seat in this game
func (g *Game) HasHandle(handle string) bool {
	_, ok := g.playerIndexByHandle[handle]
	return ok
}

// GetPlayer returns a player by ID
func (g *Game) GetPlayer(id int) (*Player, error) {
	p, ok := g.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// GetPlayerInfoList returns every seat in join order, without roles
func (g *Game) GetPlayerInfoList() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(g.order))
	for _, p := range g.roster() {
		infos = append(infos, p.ToInfo())
	}
	return infos
}

// WerewolfCount returns the configured or defaulted werewolf count, 0 if neither
func (g *Game) WerewolfCount() int {
	return g.werewolfCount
}

// SpecialRoles returns the configured or defaulted special roles
func (g *Game) SpecialRoles() []Role {
	return slices.Clone(g.specialRoles)
}

// Initialize returns the room to the lobby and resets every seat
func (g *Game) Initialize() {
	g.Phase = PhaseLobby
	for _, p := range g.players {
		p.Initialize()
	}
}

// AddPlayer seats a new player
func (g *Game) AddPlayer(handle, name string) ([]Event, error) {
	if g.HasHandle(handle) {
		return nil, ErrAlreadySeated
	}
	if g.Phase != PhaseLobby {
		return nil, ErrInvalidState
	}

	var ev Events
	g.broadcast(&ev, fmt.Sprintf("%s has joined.", name))

	others := make([]string, 0, len(g.order))
	for _, p := range g.roster() {
		others = append(others, p.Name)
	}

	id := g.nextPlayerID
	g.nextPlayerID++
	if _, dup := g.players[id]; dup {
		panic(fmt.Sprintf("domain: player id %d assigned twice in game %s", id, g.ID))
	}
	g.players[id] = NewPlayer(id, handle, name)
	g.order = append(g.order, id)
	g.playerIndexByHandle[handle] = id

	welcome := fmt.Sprintf("Welcome to game %s, %s! You are the first one here.", g.ID, name)
	if len(others) > 0 {
		welcome = fmt.Sprintf("Welcome to game %s, %s! Already here: %s.", g.ID, name, strings.Join(others, ", "))
	}
	ev.add(NewEvent(handle, welcome))
	ev.add(NewChoiceEvent(handle, "Send /ready when you are ready to play.", ReadyCommand))

	return ev, nil
}

// Ready marks the player ready and starts the round once everyone is
func (g *Game) Ready(handle string) ([]Event, error) {
	p, err := g.playerByHandle(handle)
	if err != nil {
		return nil, err
	}
	if g.Phase != PhaseLobby {
		return nil, ErrInvalidState
	}

	var ev Events
	p.Ready = true
	g.broadcastExcept(&ev, fmt.Sprintf("%s is ready.", p.Name), p.ID)

	if g.allReady() {
		g.start(&ev)
	} else {
		ev.add(NewEvent(handle, "Waiting for other players..."))
	}

	return ev, nil
}

// Configure overrides the werewolf count and special roles for coming rounds
func (g *Game) Configure(handle string, werewolves int, specials []Role) ([]Event, error) {
	p, err := g.playerByHandle(handle)
	if err != nil {
		return nil, err
	}
	if g.Phase != PhaseLobby {
		return nil, ErrInvalidState
	}
	if werewolves < 1 {
		return nil, fmt.Errorf("need at least one werewolf: %w", ErrInvalidConfig)
	}
	if werewolves > g.PlayerCount() {
		return nil, fmt.Errorf("%s for %d players: %w", werewolfCountText(werewolves), g.PlayerCount(), ErrInvalidConfig)
	}
	for i, r := range specials {
		if !r.IsSpecial() {
			return nil, fmt.Errorf("%s is not a special role: %w", r, ErrInvalidConfig)
		}
		if slices.Contains(specials[:i], r) {
			return nil, fmt.Errorf("%s listed twice: %w", r, ErrInvalidConfig)
		}
	}

	g.werewolfCount = werewolves
	g.specialRoles = slices.Clone(specials)
	g.hasSpecialRoles = true

	var ev Events
	g.broadcast(&ev, fmt.Sprintf("%s changed the setup: %s, %s.",
		p.Name, werewolfCountText(werewolves), specialRolesText(g.specialRoles)))
	return ev, nil
}

// Leave frees the player's seat. The id is not reused.
func (g *Game) Leave(handle string) ([]Event, error) {
	p, err := g.playerByHandle(handle)
	if err != nil {
		return nil, err
	}

	delete(g.players, p.ID)
	delete(g.playerIndexByHandle, handle)
	g.order = slices.DeleteFunc(g.order, func(id int) bool { return id == p.ID })

	var ev Events
	g.broadcast(&ev, fmt.Sprintf("%s has left.", p.Name))

	switch g.Phase {
	case PhaseLobby:
		if g.allReady() {
			g.start(&ev)
		}
	case PhaseInProgress:
		g.checkState(&ev)
	}

	return ev, nil
}

// KillPlayer marks a living player dead and re-evaluates the win condition
func (g *Game) KillPlayer(id int) ([]Event, error) {
	p, err := g.GetPlayer(id)
	if err != nil {
		return nil, err
	}
	if g.Phase != PhaseInProgress {
		return nil, ErrInvalidState
	}
	if !p.Alive {
		return nil, ErrPlayerDead
	}

	var ev Events
	p.Alive = false
	ev.add(NewEvent(p.Handle, "You died."))
	g.broadcastExcept(&ev, fmt.Sprintf("%s died.", p.Name), p.ID)
	g.checkState(&ev)

	return ev, nil
}

// start begins a round; only reached from the all-ready gate
func (g *Game) start(ev *Events) {
	if !g.Phase.CanTransitionTo(PhaseInProgress) {
		panic(fmt.Sprintf("domain: game %s started from phase %s", g.ID, g.Phase))
	}
	g.Phase = PhaseInProgress
	g.Round++

	g.sanitize(ev)
	g.broadcast(ev, "The game has started.")
	g.selectRoles(ev)
	g.checkState(ev)
}

// sanitize fills in defaults the first time a round starts
func (g *Game) sanitize(ev *Events) {
	if g.werewolfCount == 0 {
		g.werewolfCount = len(g.order)/8 + 1
		g.broadcast(ev, fmt.Sprintf("There will be %s.", werewolfCountText(g.werewolfCount)))
	}
	if !g.hasSpecialRoles {
		g.specialRoles = []Role{RoleSeer}
		g.hasSpecialRoles = true
		for _, r := range g.specialRoles {
			g.broadcast(ev, fmt.Sprintf("There is a %s in this game.", r))
		}
	}
}

// selectRoles builds the role pool, shuffles it once and deals it in join order.
// The pool never holds more than n tags; seats may have left since /config.
func (g *Game) selectRoles(ev *Events) {
	n := len(g.order)
	pool := make([]Role, 0, n+len(g.specialRoles))
	for range min(g.werewolfCount, n) {
		pool = append(pool, RoleWerewolf)
	}
	pool = append(pool, g.specialRoles...)
	for len(pool) < n {
		pool = append(pool, RoleVillager)
	}
	pool = pool[:n]

	g.shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for i, p := range g.roster() {
		p.Role = pool[i]
		ev.add(NewEvent(p.Handle, fmt.Sprintf("You are a %s.", p.Role)))
	}
}

// checkState runs both victory checks against the same counts. When nobody
// is alive both fire.
func (g *Game) checkState(ev *Events) {
	alive, wolves := 0, 0
	for _, p := range g.players {
		if !p.Alive {
			continue
		}
		alive++
		if p.Role.IsWerewolf() {
			wolves++
		}
	}

	if wolves >= alive-wolves {
		g.broadcast(ev, "The werewolves have won!")
		g.conclude(ev, TeamWerewolves)
	}
	if wolves == 0 {
		g.broadcast(ev, "The villagers have won!")
		g.conclude(ev, TeamVillagers)
	}
}

// conclude reveals every role and returns the room to the lobby
func (g *Game) conclude(ev *Events, winner Team) {
	summary := g.summarize(winner)

	lines := make([]string, 0, len(g.order)+1)
	lines = append(lines, "The roles were:")
	for _, p := range g.roster() {
		lines = append(lines, fmt.Sprintf("%s was a %s.", p.Name, p.Role))
	}
	g.broadcast(ev, strings.Join(lines, "\n"))

	g.Initialize()
	g.broadcast(ev, "Use /config to change the setup, then send /ready to play again.")

	if g.observer != nil {
		g.observer(summary)
	}
}

func (g *Game) playerByHandle(handle string) (*Player, error) {
	id, ok := g.playerIndexByHandle[handle]
	if !ok {
		return nil, ErrNotSeated
	}
	return g.players[id], nil
}

// roster returns players in join order
func (g *Game) roster() []*Player {
	players := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		players = append(players, g.players[id])
	}
	return players
}

func (g *Game) allReady() bool {
	if len(g.order) == 0 {
		return false
	}
	for _, p := range g.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (g *Game) broadcast(ev *Events, text string) {
	for _, p := range g.roster() {
		ev.add(NewEvent(p.Handle, text))
	}
}

func (g *Game) broadcastExcept(ev *Events, text string, exceptID int) {
	for _, p := range g.roster() {
		if p.ID != exceptID {
			ev.add(NewEvent(p.Handle, text))
		}
	}
}

func werewolfCountText(n int) string {
	if n == 1 {
		return "1 werewolf"
	}
	return fmt.Sprintf("%d werewolves", n)
}

func specialRolesText(roles []Role) string {
	if len(roles) == 0 {
		return "no special roles"
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return "special roles " + strings.Join(names, ", ")
}
