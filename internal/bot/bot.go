// Package bot runs the Telegram long-polling loop that serves chat commands.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pfrederiksen/garage-status/internal/command"
	"github.com/pfrederiksen/garage-status/internal/logger"
	"github.com/pfrederiksen/garage-status/internal/telegram"
)

// DefaultRetryDelay is the pause after a failed poll
const DefaultRetryDelay = 5 * time.Second

// Transport is the part of the Bot API the loop needs
type Transport interface {
	GetUpdates(ctx context.Context, offset int, timeoutSeconds int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID, text string) error
}

// Bot polls for messages and routes them to commands
type Bot struct {
	transport   Transport
	router      *command.Router
	log         *logger.Logger
	pollTimeout int
	retryDelay  time.Duration
	offset      int
}

// New creates a bot; pollTimeout is the long-poll wait in seconds
func New(transport Transport, router *command.Router, log *logger.Logger, pollTimeout int) *Bot {
	if log == nil {
		log = logger.Default()
	}
	return &Bot{
		transport:   transport,
		router:      router,
		log:         log,
		pollTimeout: pollTimeout,
		retryDelay:  DefaultRetryDelay,
	}
}

// chatMessage adapts a Telegram message to command.Message
type chatMessage struct {
	transport Transport
	chat      telegram.Chat
}

func (m chatMessage) Channel() string {
	return m.chat.Name()
}

func (m chatMessage) Reply(ctx context.Context, text string) error {
	return m.transport.SendMessage(ctx, m.chat.IDString(), text)
}

// Run polls until ctx is done or duration has elapsed
func (b *Bot) Run(ctx context.Context, duration time.Duration) error {
	b.log.Info("Starting long polling loop", logger.Fields{
		"duration":     duration.String(),
		"poll_timeout": b.pollTimeout,
	})

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	for {
		if ctx.Err() != nil {
			b.log.Info("Polling loop finished", logger.Fields{"offset": b.offset})
			return nil
		}

		if err := b.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.log.Error("Error getting updates", logger.Fields{"offset": b.offset}, err)
			select {
			case <-ctx.Done():
			case <-time.After(b.retryDelay):
			}
		}
	}
}

// PollOnce fetches one batch of updates and handles each of them
func (b *Bot) PollOnce(ctx context.Context) error {
	updates, err := b.transport.GetUpdates(ctx, b.offset, b.pollTimeout)
	if err != nil {
		return err
	}

	for _, update := range updates {
		b.HandleUpdate(ctx, update)

		// Update offset to mark this update as processed
		if update.UpdateID >= b.offset {
			b.offset = update.UpdateID + 1
		}
	}

	return nil
}

// HandleUpdate routes a single update's message text
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	if update.Message == nil {
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	msg := chatMessage{transport: b.transport, chat: update.Message.Chat}
	err := b.router.Dispatch(ctx, msg, text)

	switch {
	case err == nil, errors.Is(err, command.ErrUnknownCommand):
	case errors.Is(err, command.ErrPermissionDenied):
		b.log.Debug("Ignoring command from channel without permission", logger.Fields{
			"chat": msg.Channel(),
			"from": update.Message.From.Username,
		})
	default:
		b.log.Error("Error handling message", logger.Fields{
			"chat":      msg.Channel(),
			"update_id": update.UpdateID,
		}, err)
	}
}

// Offset returns the next update ID the bot will ask for
func (b *Bot) Offset() int {
	return b.offset
}
