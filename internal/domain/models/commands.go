package models

import "strings"

// CommandType enumerates worker commands accepted over WhatsApp.
type CommandType string

const (
	CommandTasks   CommandType = "tasks"
	CommandDone    CommandType = "done"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command is a parsed worker instruction.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text such as "/done 3f2a..." or "tasks B-042".
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	switch strings.ToLower(strings.TrimPrefix(tokens[0], "/")) {
	case string(CommandTasks), "taches":
		cmd.Type = CommandTasks
	case string(CommandDone), "fait":
		cmd.Type = CommandDone
	case string(CommandHelp), "aide":
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
