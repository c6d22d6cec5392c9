package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pfrederiksen/garage-status/internal/logger"
	"github.com/pfrederiksen/garage-status/internal/metrics"
)

var (
	// ErrUnknownCommand is returned for text that names no registered command
	ErrUnknownCommand = errors.New("unknown command")
	// ErrPermissionDenied is returned when the channel's tier is too low
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidArgs is returned when a command rejects its arguments
	ErrInvalidArgs = errors.New("invalid arguments")
)

// Message is an incoming chat message that can be replied to
type Message interface {
	// Channel returns the name used for permission lookups
	Channel() string
	// Reply delivers text back to where the message came from
	Reply(ctx context.Context, text string) error
}

// Command is a chat command the router can dispatch
type Command interface {
	Name() string
	Description() string
	Usage() string
	Permission() Tier
	Validate(ctx context.Context, msg Message, args []string) bool
	Execute(ctx context.Context, msg Message, args []string) error
}

// Router dispatches message text to registered commands
type Router struct {
	commands map[string]Command
	channels ChannelService
	log      *logger.Logger
}

// NewRouter creates a router that checks permissions against channels
func NewRouter(channels ChannelService, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Default()
	}
	return &Router{
		commands: make(map[string]Command),
		channels: channels,
		log:      log,
	}
}

// Register adds a command, replacing any command with the same name
func (r *Router) Register(cmd Command) {
	r.commands[strings.ToLower(cmd.Name())] = cmd
}

// Lookup returns the command registered under name
func (r *Router) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// HasPermission reports whether msg's channel may run cmd
func (r *Router) HasPermission(cmd Command, msg Message) bool {
	return r.channels.HasPermission(msg.Channel(), cmd.Permission())
}

// Dispatch parses text and runs the command it names
func (r *Router) Dispatch(ctx context.Context, msg Message, text string) error {
	name, args := ParseCommand(text)
	if name == "" {
		return ErrUnknownCommand
	}

	cmd, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	fields := logger.Fields{
		"command": cmd.Name(),
		"channel": msg.Channel(),
	}

	if !r.HasPermission(cmd, msg) {
		r.log.Warn("Command not permitted in channel", fields)
		metrics.CommandTotal.WithLabelValues(cmd.Name(), "denied").Inc()
		return fmt.Errorf("%w: %s in %s", ErrPermissionDenied, cmd.Name(), msg.Channel())
	}

	if !cmd.Validate(ctx, msg, args) {
		metrics.CommandTotal.WithLabelValues(cmd.Name(), "invalid").Inc()
		return fmt.Errorf("%w: usage: %s", ErrInvalidArgs, cmd.Usage())
	}

	if err := cmd.Execute(ctx, msg, args); err != nil {
		r.log.Error("Command failed", fields, err)
		metrics.CommandTotal.WithLabelValues(cmd.Name(), "error").Inc()
		return fmt.Errorf("executing %s: %w", cmd.Name(), err)
	}

	r.log.Info("Command executed", fields)
	metrics.CommandTotal.WithLabelValues(cmd.Name(), "ok").Inc()
	return nil
}

// ParseCommand splits message text into a lower-cased command name and its arguments.
// A leading "/" and a trailing "@BotName" on the command are dropped.
func ParseCommand(text string) (string, []string) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil
	}

	name := strings.TrimPrefix(parts[0], "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}

	return strings.ToLower(name), parts[1:]
}
