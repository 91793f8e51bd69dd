package domain

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noShuffle keeps the pool order: werewolves, special roles, villagers
func noShuffle(int, func(i, j int)) {}

func handleOf(i int) string {
	return fmt.Sprintf("h%d", i)
}

func newSeatedGame(t *testing.T, n int, opts ...Option) *Game {
	t.Helper()
	g := NewGame("ABCD", "secret", opts...)
	for i := 1; i <= n; i++ {
		_, err := g.AddPlayer(handleOf(i), fmt.Sprintf("P%d", i))
		require.NoError(t, err)
	}
	return g
}

func readyAll(t *testing.T, g *Game, n int) []Event {
	t.Helper()
	var all []Event
	for i := 1; i <= n; i++ {
		ev, err := g.Ready(handleOf(i))
		require.NoError(t, err)
		all = append(all, ev...)
	}
	return all
}

func textsFor(events []Event, recipient string) []string {
	var texts []string
	for _, ev := range events {
		if ev.Recipient == recipient {
			texts = append(texts, ev.Text)
		}
	}
	return texts
}

func countText(events []Event, text string) int {
	n := 0
	for _, ev := range events {
		if ev.Text == text {
			n++
		}
	}
	return n
}

func roleMessages(events []Event) map[Role]int {
	counts := make(map[Role]int)
	for _, ev := range events {
		if role, ok := strings.CutPrefix(ev.Text, "You are a "); ok {
			counts[Role(strings.TrimSuffix(role, "."))]++
		}
	}
	return counts
}

func TestAddPlayer_WelcomeListsEarlierPlayers(t *testing.T) {
	g := newSeatedGame(t, 2)

	ev, err := g.AddPlayer("h3", "Carol")
	require.NoError(t, err)

	require.Len(t, ev, 4)
	assert.Equal(t, NewEvent("h1", "Carol has joined."), ev[0])
	assert.Equal(t, NewEvent("h2", "Carol has joined."), ev[1])
	assert.Equal(t, NewEvent("h3", "Welcome to game ABCD, Carol! Already here: P1, P2."), ev[2])
	assert.Equal(t, NewChoiceEvent("h3", "Send /ready when you are ready to play.", ReadyCommand), ev[3])
}

func TestAddPlayer_FirstPlayer(t *testing.T) {
	g := NewGame("ABCD", "secret")

	ev, err := g.AddPlayer("h1", "Alice")
	require.NoError(t, err)

	require.Len(t, ev, 2)
	assert.Equal(t, "Welcome to game ABCD, Alice! You are the first one here.", ev[0].Text)
	assert.Equal(t, []string{ReadyCommand}, ev[1].Choices)
}

func TestAddPlayer_AssignsSequentialIDs(t *testing.T) {
	g := newSeatedGame(t, 3)

	_, err := g.Leave("h2")
	require.NoError(t, err)
	_, err = g.AddPlayer("h4", "P4")
	require.NoError(t, err)

	ids := make([]int, 0)
	for _, p := range g.GetPlayerInfoList() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 3, 4}, ids)
}

func TestAddPlayer_SameHandleRejected(t *testing.T) {
	g := newSeatedGame(t, 1)

	ev, err := g.AddPlayer("h1", "Again")

	assert.ErrorIs(t, err, ErrAlreadySeated)
	assert.Empty(t, ev)
	assert.Equal(t, 1, g.PlayerCount())
}

func TestAddPlayer_RejectedDuringRound(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))
	readyAll(t, g, 4)
	require.True(t, g.Started())

	_, err := g.AddPlayer("late", "Late")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReady_Waiting(t *testing.T) {
	g := newSeatedGame(t, 3)

	ev, err := g.Ready("h2")
	require.NoError(t, err)

	assert.Equal(t, []Event{
		NewEvent("h1", "P2 is ready."),
		NewEvent("h3", "P2 is ready."),
		NewEvent("h2", "Waiting for other players..."),
	}, ev)
	assert.False(t, g.Started())
}

func TestReady_TwiceRebroadcasts(t *testing.T) {
	g := newSeatedGame(t, 2)

	_, err := g.Ready("h1")
	require.NoError(t, err)
	ev, err := g.Ready("h1")
	require.NoError(t, err)

	assert.Equal(t, []string{"P1 is ready."}, textsFor(ev, "h2"))
	assert.Equal(t, []string{"Waiting for other players..."}, textsFor(ev, "h1"))
	assert.False(t, g.Started())
}

func TestReady_NotSeated(t *testing.T) {
	g := newSeatedGame(t, 1)

	_, err := g.Ready("stranger")

	assert.ErrorIs(t, err, ErrNotSeated)
}

func TestReady_DuringRound(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))
	readyAll(t, g, 4)

	_, err := g.Ready("h1")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSinglePlayerStartsAndConcludes(t *testing.T) {
	var summaries []RoundSummary
	g := newSeatedGame(t, 1, WithRoundObserver(func(s RoundSummary) {
		summaries = append(summaries, s)
	}))

	ev, err := g.Ready("h1")
	require.NoError(t, err)

	assert.Equal(t, map[Role]int{RoleWerewolf: 1}, roleMessages(ev))
	assert.Equal(t, 1, countText(ev, "You are a werewolf."))
	assert.Equal(t, 1, countText(ev, "The game has started."))
	assert.Equal(t, 1, countText(ev, "The werewolves have won!"))
	assert.Zero(t, countText(ev, "The villagers have won!"))
	assert.Zero(t, countText(ev, "Waiting for other players..."))

	assert.False(t, g.Started())
	assert.Equal(t, 1, g.Round)
	require.Len(t, summaries, 1)
	assert.Equal(t, TeamWerewolves, summaries[0].Winner)
	assert.Equal(t, RoleWerewolf, summaries[0].Players[0].Role)
}

func TestEightPlayerDistribution(t *testing.T) {
	g := newSeatedGame(t, 8)

	ev := readyAll(t, g, 8)

	require.True(t, g.Started())
	assert.Equal(t, 2, g.WerewolfCount())
	assert.Equal(t, []Role{RoleSeer}, g.SpecialRoles())
	assert.Equal(t, map[Role]int{RoleWerewolf: 2, RoleSeer: 1, RoleVillager: 5}, roleMessages(ev))

	counts := make(map[Role]int)
	for i := 1; i <= 8; i++ {
		id := g.playerIndexByHandle[handleOf(i)]
		counts[g.players[id].Role]++
	}
	assert.Equal(t, map[Role]int{RoleWerewolf: 2, RoleSeer: 1, RoleVillager: 5}, counts)
}

func TestStartAnnouncesDefaults(t *testing.T) {
	g := newSeatedGame(t, 8)

	ev := readyAll(t, g, 8)

	assert.Equal(t, []string{
		"P8 is ready.",
		"There will be 2 werewolves.",
		"There is a seer in this game.",
		"The game has started.",
	}, textsFor(ev, "h1")[7:11])
}

func TestRoleCountsForAnyRosterSize(t *testing.T) {
	for n := 1; n <= 20; n++ {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			g := newSeatedGame(t, n)

			ev := readyAll(t, g, n)

			assert.Equal(t, n, countText(ev, "The game has started."))
			counts := roleMessages(ev)
			total := 0
			for _, c := range counts {
				total += c
			}
			assert.Equal(t, n, total)
			assert.Equal(t, min(n/8+1, n), counts[RoleWerewolf])
			for i := 1; i <= n; i++ {
				roles := 0
				for _, text := range textsFor(ev, handleOf(i)) {
					if strings.HasPrefix(text, "You are a ") {
						roles++
					}
				}
				assert.Equal(t, 1, roles)
			}
		})
	}
}

func TestKillPlayer_WerewolvesWin(t *testing.T) {
	var summaries []RoundSummary
	g := newSeatedGame(t, 4, WithShuffler(noShuffle), WithRoundObserver(func(s RoundSummary) {
		summaries = append(summaries, s)
	}))
	readyAll(t, g, 4)
	require.True(t, g.Started())
	require.Equal(t, RoleWerewolf, g.players[1].Role)
	require.Equal(t, RoleSeer, g.players[2].Role)

	ev, err := g.KillPlayer(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"You died."}, textsFor(ev, "h3"))
	assert.Equal(t, []string{"P3 died."}, textsFor(ev, "h1"))
	assert.True(t, g.Started())

	ev, err = g.KillPlayer(4)
	require.NoError(t, err)

	assert.Equal(t, 4, countText(ev, "The werewolves have won!"))
	assert.Equal(t, 4, countText(ev, "The roles were:\nP1 was a werewolf.\nP2 was a seer.\nP3 was a villager.\nP4 was a villager."))
	assert.False(t, g.Started())
	for _, p := range g.players {
		assert.True(t, p.Alive)
		assert.False(t, p.Ready)
		assert.Equal(t, RoleNone, p.Role)
	}
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].Players[3].Alive)
}

func TestKillPlayer_VillagersWin(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))
	readyAll(t, g, 4)

	ev, err := g.KillPlayer(1)
	require.NoError(t, err)

	assert.Equal(t, 4, countText(ev, "The villagers have won!"))
	assert.Zero(t, countText(ev, "The werewolves have won!"))
	assert.False(t, g.Started())
}

func TestKillPlayer_Errors(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))

	_, err := g.KillPlayer(2)
	assert.ErrorIs(t, err, ErrInvalidState)

	readyAll(t, g, 4)

	_, err = g.KillPlayer(99)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = g.KillPlayer(3)
	require.NoError(t, err)
	_, err = g.KillPlayer(3)
	assert.ErrorIs(t, err, ErrPlayerDead)
}

func TestConcludeKeepsSeats(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))
	readyAll(t, g, 4)
	_, err := g.KillPlayer(1)
	require.NoError(t, err)

	infos := g.GetPlayerInfoList()
	require.Len(t, infos, 4)
	for i, info := range infos {
		assert.Equal(t, i+1, info.ID)
		assert.Equal(t, fmt.Sprintf("P%d", i+1), info.Name)
		assert.Equal(t, i+1, g.playerIndexByHandle[handleOf(i+1)])
	}
	assert.Equal(t, 5, g.nextPlayerID)
}

func TestDefaultsSurviveRounds(t *testing.T) {
	g := newSeatedGame(t, 1)
	readyAll(t, g, 1)
	require.False(t, g.Started())

	for i := 2; i <= 9; i++ {
		_, err := g.AddPlayer(handleOf(i), fmt.Sprintf("P%d", i))
		require.NoError(t, err)
	}
	ev := readyAll(t, g, 9)

	assert.Equal(t, 1, g.WerewolfCount())
	assert.Zero(t, countText(ev, "There will be 2 werewolves."))
	assert.Equal(t, 1, roleMessages(ev)[RoleWerewolf])
}

func TestInitializeIdempotent(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))
	readyAll(t, g, 4)
	require.True(t, g.Started())

	g.Initialize()
	once := g.GetPlayerInfoList()
	g.Initialize()

	assert.Equal(t, once, g.GetPlayerInfoList())
	assert.Equal(t, PhaseLobby, g.Phase)
	for _, p := range g.players {
		assert.Equal(t, RoleNone, p.Role)
	}
}

func TestCheckState_EmptyRoomFiresBoth(t *testing.T) {
	var winners []Team
	g := NewGame("ABCD", "secret", WithRoundObserver(func(s RoundSummary) {
		winners = append(winners, s.Winner)
	}))
	g.Phase = PhaseInProgress

	var ev Events
	g.checkState(&ev)

	assert.Equal(t, []Team{TeamWerewolves, TeamVillagers}, winners)
	assert.Equal(t, PhaseLobby, g.Phase)
}

func TestConfigure(t *testing.T) {
	g := newSeatedGame(t, 2)

	ev, err := g.Configure("h1", 2, []Role{RoleSeer, RoleWitch})
	require.NoError(t, err)
	assert.Equal(t, 2, countText(ev, "P1 changed the setup: 2 werewolves, special roles seer, witch."))

	ev = readyAll(t, g, 2)
	assert.Zero(t, countText(ev, "There is a seer in this game."))
	assert.Equal(t, map[Role]int{RoleWerewolf: 2}, roleMessages(ev))
}

func TestConfigure_Invalid(t *testing.T) {
	g := newSeatedGame(t, 2)

	_, err := g.Configure("h1", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = g.Configure("h1", 1, []Role{RoleVillager})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = g.Configure("h1", 1, []Role{RoleSeer, RoleSeer})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = g.Configure("nobody", 1, nil)
	assert.ErrorIs(t, err, ErrNotSeated)
}

func TestConfigure_MoreWerewolvesThanPlayers(t *testing.T) {
	g := newSeatedGame(t, 2)

	_, err := g.Configure("h1", 3, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = g.Configure("h1", math.MaxInt, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Zero(t, g.WerewolfCount())

	ev := readyAll(t, g, 2)
	assert.Equal(t, 1, roleMessages(ev)[RoleWerewolf])
}

func TestSelectRoles_CapsWerewolvesAtRoster(t *testing.T) {
	g := newSeatedGame(t, 3, WithShuffler(noShuffle))
	_, err := g.Configure("h1", 3, nil)
	require.NoError(t, err)
	_, err = g.Leave("h3")
	require.NoError(t, err)

	ev := readyAll(t, g, 2)

	assert.Equal(t, map[Role]int{RoleWerewolf: 2}, roleMessages(ev))
	assert.Equal(t, 2, countText(ev, "The werewolves have won!"))
}

func TestConfigure_NoSpecialRoles(t *testing.T) {
	g := newSeatedGame(t, 3, WithShuffler(noShuffle))

	_, err := g.Configure("h1", 1, nil)
	require.NoError(t, err)
	ev := readyAll(t, g, 3)

	assert.Equal(t, map[Role]int{RoleWerewolf: 1, RoleVillager: 2}, roleMessages(ev))
}

func TestLeave_StartsWhenRestReady(t *testing.T) {
	g := newSeatedGame(t, 3)
	readyAll(t, g, 2)

	ev, err := g.Leave("h3")
	require.NoError(t, err)

	assert.Equal(t, []string{"P3 has left."}, textsFor(ev, "h1")[:1])
	assert.Empty(t, textsFor(ev, "h3"))
	assert.Equal(t, 2, countText(ev, "The game has started."))
	assert.False(t, g.HasHandle("h3"))
}

func TestLeave_DuringRoundChecksState(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))
	readyAll(t, g, 4)

	ev, err := g.Leave("h1")
	require.NoError(t, err)

	assert.Equal(t, 3, countText(ev, "The villagers have won!"))
	assert.False(t, g.Started())
}

func TestLeave_NotSeated(t *testing.T) {
	g := newSeatedGame(t, 1)

	_, err := g.Leave("h9")

	assert.ErrorIs(t, err, ErrNotSeated)
}

func TestVote_NoOp(t *testing.T) {
	g := newSeatedGame(t, 4, WithShuffler(noShuffle))
	readyAll(t, g, 4)

	ev, err := g.Vote("h2", 1)
	require.NoError(t, err)
	assert.Empty(t, ev)
	assert.True(t, g.Started())

	_, err = g.Vote("nobody", 1)
	assert.ErrorIs(t, err, ErrNotSeated)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Witch ")
	require.NoError(t, err)
	assert.Equal(t, RoleWitch, r)

	_, err = ParseRole("vampire")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
