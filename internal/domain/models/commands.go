package models

import "strings"

// CommandType enumerates the self-service commands technicians can text.
type CommandType string

const (
	CommandPay     CommandType = "pay"
	CommandWeek    CommandType = "week"
	CommandYTD     CommandType = "ytd"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))

	if normalized == "" {
		return Command{Type: CommandUnknown, Raw: message}
	}

	tokens := strings.Fields(normalized)
	cmd := Command{Raw: message}

	head := strings.TrimPrefix(tokens[0], "/")
	switch head {
	case string(CommandPay), "earnings":
		cmd.Type = CommandPay
	case string(CommandWeek):
		cmd.Type = CommandWeek
	case string(CommandYTD):
		cmd.Type = CommandYTD
	case string(CommandHelp), "start":
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
