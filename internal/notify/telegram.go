package notify

import (
	"context"

	"github.com/agamariel/virtshop/internal/telegram"
)

// TelegramSender отправляет уведомления через sendMessage.
type TelegramSender struct {
	client *telegram.Client
}

func NewTelegramSender(client *telegram.Client) *TelegramSender {
	return &TelegramSender{client: client}
}

func (s *TelegramSender) Send(ctx context.Context, recipient int64, text string) error {
	return s.client.SendMessage(ctx, recipient, text, nil)
}
