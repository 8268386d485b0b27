package services

import "context"

// Notifier доставляет короткие сообщения пользователям Telegram.
// Доставка не гарантируется, ошибки не возвращаются.
type Notifier interface {
	Notify(ctx context.Context, recipient int64, text string)
}
