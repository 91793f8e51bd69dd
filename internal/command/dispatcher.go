package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"werewolves/internal/app"
	"werewolves/internal/domain"
)

// HelpText lists the available commands
const HelpText = `This is the Werewolves game.
Possible commands are:
/help Show this help message.
/new <password> Create a new game and join it.
/join <id> <password> Join an existing game.
/ready Mark yourself ready to play.
/config <werewolves> [roles...] Change the setup before a round (roles: seer, witch).
/vote <player> Vote against a player.
/leave Leave the current game (also /quit).`

// Dispatcher routes parsed commands to the game hub
type Dispatcher struct {
	hub    *app.GameHub
	logger *slog.Logger
}

// NewDispatcher creates a new command dispatcher
func NewDispatcher(hub *app.GameHub, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		hub:    hub,
		logger: logger,
	}
}

// Handle runs one line of input from client. Game output is delivered through
// the client's session; the returned reply is meant for the sender only.
func (d *Dispatcher) Handle(client app.ClientConnection, name, text string) (string, error) {
	cmd, err := Parse(text)
	if err != nil {
		return "", err
	}
	handle := client.GetHandle()

	d.logger.Debug("command received", "handle", handle, "command", cmd.Name, "args", len(cmd.Args))

	switch cmd.Name {
	case CmdStart, CmdHelp:
		return HelpText, nil
	case CmdNew:
		return d.handleNew(client, name, cmd)
	case CmdJoin:
		return d.handleJoin(client, name, cmd)
	case CmdReady:
		return "", d.withSession(handle, func(s *app.GameSession) error {
			_, err := s.Ready(handle)
			return err
		})
	case CmdVote:
		return "", d.handleVote(handle, cmd)
	case CmdConfig:
		return "", d.handleConfig(handle, cmd)
	case CmdLeave, CmdQuit:
		if _, err := d.hub.Leave(handle); err != nil {
			return "", err
		}
		return "You left the game.", nil
	default:
		return "", ErrUnknownCommand
	}
}

func (d *Dispatcher) handleNew(client app.ClientConnection, name string, cmd Command) (string, error) {
	password := cmd.Rest(0)
	if password == "" {
		return "", &UsageError{Usage: "/new <password>"}
	}

	session, _, err := d.hub.Host(client.GetHandle(), name, password, client)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Created game %s. Others can join with /join %s <password>.",
		session.GetRoomCode(), session.GetRoomCode()), nil
}

func (d *Dispatcher) handleJoin(client app.ClientConnection, name string, cmd Command) (string, error) {
	if len(cmd.Args) < 2 {
		return "", &UsageError{Usage: "/join <id> <password>"}
	}

	_, _, err := d.hub.Join(client.GetHandle(), name, cmd.Args[0], cmd.Rest(1), client)
	return "", err
}

func (d *Dispatcher) handleVote(handle string, cmd Command) error {
	if len(cmd.Args) != 1 {
		return &UsageError{Usage: "/vote <player>"}
	}
	target, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return &UsageError{Usage: "/vote <player>"}
	}

	return d.withSession(handle, func(s *app.GameSession) error {
		_, err := s.Vote(handle, target)
		return err
	})
}

func (d *Dispatcher) handleConfig(handle string, cmd Command) error {
	usage := &UsageError{Usage: "/config <werewolves> [roles...]"}
	if len(cmd.Args) < 1 {
		return usage
	}
	werewolves, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return usage
	}

	specials := make([]domain.Role, 0, len(cmd.Args)-1)
	for _, arg := range cmd.Args[1:] {
		role, err := domain.ParseRole(arg)
		if err != nil {
			return err
		}
		specials = append(specials, role)
	}

	return d.withSession(handle, func(s *app.GameSession) error {
		_, err := s.Configure(handle, werewolves, specials)
		return err
	})
}

func (d *Dispatcher) withSession(handle string, fn func(*app.GameSession) error) error {
	session, ok := d.hub.CurrentGame(handle)
	if !ok {
		return domain.ErrNotSeated
	}
	return fn(session)
}

// ErrorText renders err as a sentence for the user
func ErrorText(err error) string {
	var usage *UsageError
	switch {
	case errors.As(err, &usage):
		return "Usage: " + usage.Usage
	case errors.Is(err, ErrUnknownCommand):
		return "Sorry, I didn't understand that command."
	case errors.Is(err, domain.ErrNotSeated):
		return "You are not in a game. Use /join <id> <password> first."
	case errors.Is(err, domain.ErrAlreadySeated):
		return "You are already in a game. Use /leave first."
	case errors.Is(err, domain.ErrInvalidState):
		return "You can't do that right now."
	case errors.Is(err, domain.ErrLookupFailed):
		return "There is no game with this id and password."
	case errors.Is(err, domain.ErrRegistryFull):
		return "No game could be created right now, please try again later."
	case errors.Is(err, domain.ErrPlayerNotFound):
		return "There is no such player."
	case errors.Is(err, domain.ErrPlayerDead):
		return "That player is already dead."
	case errors.Is(err, domain.ErrInvalidConfig):
		return "That setup is not possible: " + err.Error()
	default:
		return "Something went wrong."
	}
}
