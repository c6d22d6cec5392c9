package notifier

import (
	"context"
	"fmt"
)

// MessageSender sends a text message to a chat
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TelegramNotifier sends the report to one Telegram chat
type TelegramNotifier struct {
	sender MessageSender
	chatID string
}

// NewTelegramNotifier creates a notifier for chatID
func NewTelegramNotifier(sender MessageSender, chatID string) (*TelegramNotifier, error) {
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}
	return &TelegramNotifier{sender: sender, chatID: chatID}, nil
}

// Notify sends the report
func (n *TelegramNotifier) Notify(report string) error {
	if err := n.sender.SendMessage(context.Background(), n.chatID, report); err != nil {
		return fmt.Errorf("failed to send report to chat %s: %w", n.chatID, err)
	}
	return nil
}
