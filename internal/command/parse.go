package command

import (
	"errors"
	"strings"
)

// ErrUnknownCommand is returned for input that is not a known command
var ErrUnknownCommand = errors.New("unknown command")

// Command names
const (
	CmdStart  = "start"
	CmdHelp   = "help"
	CmdNew    = "new"
	CmdJoin   = "join"
	CmdReady  = "ready"
	CmdLeave  = "leave"
	CmdQuit   = "quit"
	CmdVote   = "vote"
	CmdConfig = "config"
)

// Command is one parsed line of chat input
type Command struct {
	Name string
	Args []string
}

// Rest returns the arguments from index i joined by single spaces
func (c Command) Rest(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[i:], " ")
}

// UsageError reports a known command used with the wrong arguments
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

// Parse splits "/name arg..." into a Command. A "@bot" suffix on the name is dropped.
func Parse(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, ErrUnknownCommand
	}

	name := strings.TrimPrefix(fields[0], "/")
	name, _, _ = strings.Cut(name, "@")
	name = strings.ToLower(name)
	if name == "" {
		return Command{}, ErrUnknownCommand
	}

	return Command{Name: name, Args: fields[1:]}, nil
}
