package engine

import (
	"context"
	"strings"
)

// ChatCommand is a parsed slash command.
type ChatCommand struct {
	Name string   // command name without "/"
	Args []string // arguments after the command
	Raw  string   // original full text
}

// CommandResult holds the response for a handled command.
type CommandResult struct {
	Response string
	Handled  bool // false lets the message fall through to classification
}

// ParseCommand parses a message starting with "/" into a ChatCommand.
// Returns nil for ordinary text.
func ParseCommand(text string) *ChatCommand {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	// Telegram appends the bot username in groups: /menu@evageisesbot.
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return &ChatCommand{Name: name, Args: args, Raw: text}
}

// handleCommand dispatches known commands to the composer. Unrecognized
// commands fall through to intent classification.
func (l *Loop) handleCommand(ctx context.Context, cmd *ChatCommand) CommandResult {
	switch cmd.Name {
	case "start":
		return CommandResult{Response: l.composer.Start(), Handled: true}

	case "menu":
		return CommandResult{Response: l.composer.Menu(), Handled: true}

	case "topics":
		return CommandResult{Response: l.composer.Topics(), Handled: true}

	case "properties":
		return CommandResult{Response: l.composer.Properties(), Handled: true}

	case "help":
		return CommandResult{Response: l.composer.Help(), Handled: true}

	case "stats":
		if l.store == nil {
			return CommandResult{Response: "Statistics are disabled on this deployment.", Handled: true}
		}
		stats, err := l.store.Stats(ctx)
		if err != nil {
			l.logger.Warn("stats query failed", "error", err)
			return CommandResult{Response: "Statistics are unavailable right now.", Handled: true}
		}
		return CommandResult{Response: l.composer.StatsReport(stats), Handled: true}
	}

	return CommandResult{Handled: false}
}
