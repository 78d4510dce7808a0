package console

import "strings"

// Kind identifies a console command.
type Kind int

const (
	Say Kind = iota // free text, sent to the peer
	List
	Update
	Connect
	Disconnect
	Stop
	ShowChannel
	SetChannel
	ShowUsername
	SetUsername
	Help
	Quit
)

// Command is one parsed input line.
type Command struct {
	Kind Kind
	Arg  string
}

// Parse maps a trimmed input line onto a command.  Keywords must match
// exactly; anything else is chat text.  An empty line parses as Say
// with no text and is ignored by the console.
func Parse(line string) Command {
	text := strings.TrimSpace(line)
	switch text {
	case "list":
		return Command{Kind: List}
	case "update":
		return Command{Kind: Update}
	case "disconnect":
		return Command{Kind: Disconnect}
	case "stop":
		return Command{Kind: Stop}
	case "channel":
		return Command{Kind: ShowChannel}
	case "username":
		return Command{Kind: ShowUsername}
	case "help":
		return Command{Kind: Help}
	case "quit", "exit":
		return Command{Kind: Quit}
	}

	if arg, ok := argOf(text, "connect"); ok {
		return Command{Kind: Connect, Arg: arg}
	}
	if arg, ok := argOf(text, "channel"); ok {
		return Command{Kind: SetChannel, Arg: arg}
	}
	if arg, ok := argOf(text, "username"); ok {
		return Command{Kind: SetUsername, Arg: arg}
	}
	return Command{Kind: Say, Arg: text}
}

// argOf returns the trimmed remainder of "keyword <arg>".
func argOf(text, keyword string) (string, bool) {
	rest, ok := strings.CutPrefix(text, keyword+" ")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
