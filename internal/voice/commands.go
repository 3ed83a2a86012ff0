package voice

import "strings"

type Command int

const (
	CommandNone Command = iota
	CommandNext
	CommandPrevious
	CommandRepeat
	CommandStop
	CommandHelp
	CommandAnswer
)

var commandWords = []struct {
	word string
	cmd  Command
}{
	{"next", CommandNext},
	{"previous", CommandPrevious},
	{"repeat", CommandRepeat},
	{"stop", CommandStop},
	{"help", CommandHelp},
	{"answer", CommandAnswer},
}

// ParseCommand matches a normalized transcript against the command words by
// substring, first match in table order. Anything else is an answer.
func ParseCommand(transcript string) Command {
	for _, c := range commandWords {
		if strings.Contains(transcript, c.word) {
			return c.cmd
		}
	}
	return CommandNone
}

func normalizeTranscript(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
