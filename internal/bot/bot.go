// Package bot связывает Telegram с диалогом оформления заявок и командами администратора.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/agamariel/virtshop/internal/catalog"
	"github.com/agamariel/virtshop/internal/conversation"
	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/telegram"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Messenger - исходящие вызовы Bot API.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, alert bool) error
}

// Dialog - конечный автомат диалога.
type Dialog interface {
	Handle(ctx context.Context, userID int64, ev conversation.Event) conversation.View
}

// OrderLister читает заявки с правами бота.
type OrderLister interface {
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
}

// AdminAPI - операции сервиса заявок с правами администратора.
type AdminAPI interface {
	OrderLister
	ApproveOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	RejectOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	AmendOrder(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error)
	Ban(ctx context.Context, req models.BanRequest) (*models.BanRecord, error)
	Unban(ctx context.Context, userID int64) (bool, error)
	ListBans(ctx context.Context) ([]*models.BanRecord, error)
}

// Config - параметры бота.
type Config struct {
	AdminUserID     int64
	SupportUsername string
}

// Bot обрабатывает обновления Telegram.
type Bot struct {
	messenger Messenger
	dialog    Dialog
	users     OrderLister
	admin     AdminAPI
	render    *renderer
	cfg       Config
	logger    *zap.SugaredLogger
}

// New создаёт бота. users работает с ролью бота, admin - с ролью администратора.
func New(messenger Messenger, dialog Dialog, users OrderLister, admin AdminAPI, cat *catalog.Catalog, cfg Config, logger *zap.SugaredLogger) *Bot {
	return &Bot{
		messenger: messenger,
		dialog:    dialog,
		users:     users,
		admin:     admin,
		render:    &renderer{catalog: cat, support: cfg.SupportUsername},
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleUpdate реализует telegram.UpdateHandler.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.From != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	cmd, ok := parseCommand(msg.Text)
	if !ok {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch cmd {
	case "start":
		view := b.dialog.Handle(ctx, userID, conversation.Event{Kind: conversation.EventHome, Username: msg.From.Username})
		text, markup := b.render.render(view)
		b.send(ctx, chatID, text, markup)
	case "help":
		b.reply(ctx, chatID, fmt.Sprintf(helpText, b.cfg.SupportUsername))
	case "stats":
		b.userStats(ctx, chatID, msg.From)
	default:
		b.handleAdmin(ctx, chatID, userID, cmd)
	}
}

func (b *Bot) userStats(ctx context.Context, chatID int64, user *telegram.User) {
	uid := user.ID
	orders, err := b.users.ListOrders(ctx, models.OrderFilter{UserID: &uid, Source: models.SourceBot})
	if err != nil {
		b.logger.Warnw("failed to load user orders", "user_id", uid, "error", err)
		b.reply(ctx, chatID, apiFailure)
		return
	}

	username := "Не указано"
	if user.Username != "" {
		username = user.Username
	}
	b.reply(ctx, chatID, fmt.Sprintf("<b>📊 Ваша статистика\n\n👤 Пользователь: %s\n📝 Username: @%s\n📦 Количество заявок: %d</b>",
		html.EscapeString(user.FirstName), username, len(orders)))
}

func (b *Bot) handleCallback(ctx context.Context, q *telegram.CallbackQuery) {
	ev, ok := parseCallback(q.Data)
	if !ok {
		b.answer(ctx, q.ID, "", false)
		return
	}
	ev.Username = q.From.Username

	view := b.dialog.Handle(ctx, q.From.ID, ev)
	text, markup := b.render.render(view)

	if q.Message != nil {
		err := b.messenger.EditMessageText(ctx, q.Message.Chat.ID, q.Message.MessageID, text, markup)
		switch {
		case err == nil, errors.Is(err, telegram.ErrNotModified):
		default:
			b.logger.Debugw("edit failed, sending new message", "error", err)
			b.send(ctx, q.Message.Chat.ID, text, markup)
		}
	} else {
		b.send(ctx, q.From.ID, text, markup)
	}

	b.answer(ctx, q.ID, view.Alert, view.Alert != "")
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	if err := b.messenger.SendMessage(ctx, chatID, text, markup); err != nil {
		b.logger.Warnw("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, chatID, text, nil)
}

func (b *Bot) answer(ctx context.Context, id, text string, alert bool) {
	if err := b.messenger.AnswerCallbackQuery(ctx, id, text, alert); err != nil {
		b.logger.Debugw("failed to answer callback", "error", err)
	}
}

// parseCommand возвращает имя команды без "/" и суффикса "@botname".
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd, cmd != ""
}

// parseCallback разбирает callback_data кнопок.
func parseCallback(data string) (conversation.Event, bool) {
	switch data {
	case "back_to_main":
		return conversation.Event{Kind: conversation.EventHome}, true
	case "back_to_projects", "back_to_servers":
		return conversation.Event{Kind: conversation.EventBack}, true
	case "amount_custom":
		return conversation.Event{Kind: conversation.EventCustomAmount}, true
	}

	prefix, rest, ok := strings.Cut(data, "_")
	if !ok || rest == "" {
		return conversation.Event{}, false
	}

	switch prefix {
	case "action":
		t := models.OrderType(rest)
		if !t.Valid() {
			return conversation.Event{}, false
		}
		return conversation.Event{Kind: conversation.EventChooseAction, Action: t}, true
	case "project":
		return conversation.Event{Kind: conversation.EventChooseProject, Project: rest}, true
	case "server":
		project, server, ok := strings.Cut(rest, "_")
		if !ok || project == "" || server == "" {
			return conversation.Event{}, false
		}
		return conversation.Event{Kind: conversation.EventChooseServer, Project: project, Server: server}, true
	case "amount":
		// старые кнопки несут цену после второго "_", она пересчитывается
		kk, _, _ := strings.Cut(rest, "_")
		blocks, err := strconv.ParseUint(kk, 10, 64)
		if err != nil {
			return conversation.Event{}, false
		}
		return conversation.Event{Kind: conversation.EventChooseAmount, Blocks: blocks}, true
	case "info":
		return conversation.Event{Kind: conversation.EventInfo, Topic: rest}, true
	}
	return conversation.Event{}, false
}
