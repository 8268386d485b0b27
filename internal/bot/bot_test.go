package bot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/agamariel/virtshop/internal/catalog"
	"github.com/agamariel/virtshop/internal/conversation"
	"github.com/agamariel/virtshop/internal/logger"
	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/telegram"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID int64 = 1
	userID  int64 = 42
)

type sentMessage struct {
	chatID    int64
	messageID int64
	text      string
	markup    *telegram.InlineKeyboardMarkup
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	edited  []sentMessage
	answers []string
	editErr error
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, markup: markup})
	return nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edited = append(f.edited, sentMessage{chatID: chatID, messageID: messageID, text: text, markup: markup})
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, _ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) lastSent(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeDialog struct {
	events []conversation.Event
	view   conversation.View
}

func (d *fakeDialog) Handle(_ context.Context, _ int64, ev conversation.Event) conversation.View {
	d.events = append(d.events, ev)
	return d.view
}

type fakeOrders struct {
	ListOrdersFunc func(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
}

func (f *fakeOrders) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	if f.ListOrdersFunc != nil {
		return f.ListOrdersFunc(ctx, filter)
	}
	return nil, nil
}

func newTestBot(dialog Dialog, users OrderLister, admin AdminAPI) (*Bot, *fakeMessenger) {
	m := &fakeMessenger{}
	if admin == nil {
		admin = &fakeAdminAPI{}
	}
	if users == nil {
		users = &fakeOrders{}
	}
	b := New(m, dialog, users, admin, catalog.Default(), Config{AdminUserID: adminID, SupportUsername: "support"}, logger.Nop())
	return b, m
}

func messageUpdate(from int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: from, FirstName: "Ivan", Username: "ivan"},
		Chat: telegram.Chat{ID: from},
		Text: text,
	}}
}

func callbackUpdate(from int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:      "cb",
		From:    telegram.User{ID: from, Username: "ivan"},
		Message: &telegram.Message{MessageID: 7, Chat: telegram.Chat{ID: from}},
		Data:    data,
	}}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want conversation.Event
		ok   bool
	}{
		{"action_buy", conversation.Event{Kind: conversation.EventChooseAction, Action: models.OrderTypeBuy}, true},
		{"action_sell", conversation.Event{Kind: conversation.EventChooseAction, Action: models.OrderTypeSell}, true},
		{"action_steal", conversation.Event{}, false},
		{"project_GTA5RP", conversation.Event{Kind: conversation.EventChooseProject, Project: "GTA5RP"}, true},
		{"server_GTA5RP_LA PUERTA", conversation.Event{Kind: conversation.EventChooseServer, Project: "GTA5RP", Server: "LA PUERTA"}, true},
		{"server_Majestic_New_York", conversation.Event{Kind: conversation.EventChooseServer, Project: "Majestic", Server: "New_York"}, true},
		{"server_GTA5RP", conversation.Event{}, false},
		{"amount_5", conversation.Event{Kind: conversation.EventChooseAmount, Blocks: 5}, true},
		{"amount_5_3450", conversation.Event{Kind: conversation.EventChooseAmount, Blocks: 5}, true},
		{"amount_x", conversation.Event{}, false},
		{"amount_custom", conversation.Event{Kind: conversation.EventCustomAmount}, true},
		{"back_to_main", conversation.Event{Kind: conversation.EventHome}, true},
		{"back_to_projects", conversation.Event{Kind: conversation.EventBack}, true},
		{"back_to_servers", conversation.Event{Kind: conversation.EventBack}, true},
		{"info_rules", conversation.Event{Kind: conversation.EventInfo, Topic: "rules"}, true},
		{"garbage", conversation.Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, ok := parseCallback(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"/start", "start", true},
		{"/start@virtshop_bot", "start", true},
		{"  /approve_1b4e28ba  ", "approve_1b4e28ba", true},
		{"/stats extra words", "stats", true},
		{"hello", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestBot_StartSendsMainMenu(t *testing.T) {
	dialog := &fakeDialog{view: conversation.View{Screen: conversation.ScreenMain}}
	b, m := newTestBot(dialog, nil, nil)

	b.HandleUpdate(context.Background(), messageUpdate(userID, "/start"))

	require.Len(t, dialog.events, 1)
	assert.Equal(t, conversation.EventHome, dialog.events[0].Kind)

	msg := m.lastSent(t)
	assert.Equal(t, userID, msg.chatID)
	assert.Equal(t, welcomeText, msg.text)
	require.NotNil(t, msg.markup)
	require.Len(t, msg.markup.InlineKeyboard, 3)
	assert.Equal(t, "action_buy", msg.markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "https://t.me/support", msg.markup.InlineKeyboard[1][1].URL)
}

func TestBot_CallbackEditsMessageAndAnswersAlert(t *testing.T) {
	dialog := &fakeDialog{view: conversation.View{Screen: conversation.ScreenProjects, Alert: "Проект не найден"}}
	b, m := newTestBot(dialog, nil, nil)

	b.HandleUpdate(context.Background(), callbackUpdate(userID, "project_Nope"))

	require.Len(t, dialog.events, 1)
	assert.Equal(t, "ivan", dialog.events[0].Username)
	require.Len(t, m.edited, 1)
	assert.Equal(t, int64(7), m.edited[0].messageID)
	assert.Equal(t, projectsText, m.edited[0].text)
	assert.Equal(t, []string{"Проект не найден"}, m.answers)
}

func TestBot_CallbackEditFailureFallsBackToSend(t *testing.T) {
	dialog := &fakeDialog{view: conversation.View{Screen: conversation.ScreenMain}}
	b, m := newTestBot(dialog, nil, nil)
	m.editErr = errors.New("message to edit not found")

	b.HandleUpdate(context.Background(), callbackUpdate(userID, "back_to_main"))
	assert.Len(t, m.sent, 1)

	m.editErr = telegram.ErrNotModified
	b.HandleUpdate(context.Background(), callbackUpdate(userID, "back_to_main"))
	assert.Len(t, m.sent, 1, "not modified is not an error")
}

func TestBot_UnknownCallbackOnlyAnswers(t *testing.T) {
	dialog := &fakeDialog{}
	b, m := newTestBot(dialog, nil, nil)

	b.HandleUpdate(context.Background(), callbackUpdate(userID, "what"))
	assert.Empty(t, dialog.events)
	assert.Len(t, m.answers, 1)
	assert.Empty(t, m.edited)
}

func TestBot_UserStats(t *testing.T) {
	orders := &fakeOrders{ListOrdersFunc: func(_ context.Context, f models.OrderFilter) ([]*models.Order, error) {
		require.NotNil(t, f.UserID)
		assert.Equal(t, userID, *f.UserID)
		assert.Equal(t, models.SourceBot, f.Source)
		return []*models.Order{{ID: uuid.New()}, {ID: uuid.New()}}, nil
	}}
	b, m := newTestBot(&fakeDialog{}, orders, nil)

	b.HandleUpdate(context.Background(), messageUpdate(userID, "/stats"))
	assert.Contains(t, m.lastSent(t).text, "Количество заявок: 2")
	assert.Contains(t, m.lastSent(t).text, "@ivan")
}

func TestBot_HelpMentionsSupport(t *testing.T) {
	b, m := newTestBot(&fakeDialog{}, nil, nil)
	b.HandleUpdate(context.Background(), messageUpdate(userID, "/help"))
	assert.Contains(t, m.lastSent(t).text, "@support")
}

func TestRender_ServersAndAmounts(t *testing.T) {
	cat := catalog.Default()
	r := &renderer{catalog: cat, support: "support"}
	gta, _ := cat.Project("GTA5RP")

	v := conversation.View{
		Screen:  conversation.ScreenServers,
		Action:  models.OrderTypeBuy,
		Project: gta,
		Servers: []conversation.ServerOption{
			{Name: "DOWNTOWN", Sellers: 2, Amount: 7 * models.UnitsPerBlock, HasStats: true},
			{Name: "STRAWBERRY"},
			{Name: "VINEWOOD"},
		},
	}
	text, markup := r.render(v)
	assert.Contains(t, text, "продавцов")
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "DOWNTOWN (2чел, 7кк)", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "server_GTA5RP_STRAWBERRY", markup.InlineKeyboard[0][1].CallbackData)
	assert.Len(t, markup.InlineKeyboard[1], 1)
	assert.Equal(t, "back_to_projects", markup.InlineKeyboard[2][0].CallbackData)

	rate := decimal.NewFromInt(690)
	amounts := make([]conversation.AmountOption, 0, len(catalog.PresetBlocks))
	for _, b := range catalog.PresetBlocks {
		amounts = append(amounts, conversation.AmountOption{Blocks: b, Price: rate.Mul(decimal.NewFromInt(int64(b)))})
	}
	text, markup = r.render(conversation.View{
		Screen: conversation.ScreenAmounts, Action: models.OrderTypeBuy, Project: gta, Server: "DOWNTOWN", UnitRate: rate, Amounts: amounts,
	})
	assert.Contains(t, text, "Цена за 1кк: 690₽")
	// 11 вариантов по 3 в ряд, затем "Другая сумма" и "Назад"
	require.Len(t, markup.InlineKeyboard, 6)
	assert.Len(t, markup.InlineKeyboard[0], 3)
	assert.Len(t, markup.InlineKeyboard[3], 2)
	assert.Equal(t, "5кк - 3450₽", markup.InlineKeyboard[1][1].Text)
	assert.Equal(t, "amount_5", markup.InlineKeyboard[1][1].CallbackData)
	assert.Equal(t, "amount_custom", markup.InlineKeyboard[4][0].CallbackData)
}

func TestRender_OrderCreatedAndBanned(t *testing.T) {
	cat := catalog.Default()
	r := &renderer{catalog: cat, support: "support"}
	gta, _ := cat.Project("GTA5RP")

	text, markup := r.render(conversation.View{
		Screen:  conversation.ScreenOrderCreated,
		Project: gta,
		Order: &models.Order{ID: uuid.New(), OrderType: models.OrderTypeBuy, Project: "GTA5RP", ServerName: "DOWNTOWN",
			Amount: 5 * models.UnitsPerBlock, Price: decimal.NewFromInt(3450)},
	})
	assert.Contains(t, text, "К оплате: 3450₽")
	assert.Contains(t, text, "GTA 5 RP, DOWNTOWN, куплю 5kk")
	assert.Equal(t, "https://t.me/support", markup.InlineKeyboard[0][0].URL)

	text, markup = r.render(conversation.View{Screen: conversation.ScreenBanned, Ban: models.BanStatus{Banned: true}})
	assert.Contains(t, text, "бессрочная")
	assert.Nil(t, markup)

	text, _ = r.render(conversation.View{Screen: conversation.ScreenInfo, Topic: "unknown"})
	assert.Equal(t, notFoundInfo, text)
}

func TestRender_Subscribe(t *testing.T) {
	r := &renderer{catalog: catalog.Default(), support: "support"}

	text, markup := r.render(conversation.View{Screen: conversation.ScreenSubscribe, Channel: "PatrickVirts"})
	assert.Contains(t, text, "подпишитесь на канал")
	assert.Contains(t, text, "@PatrickVirts")
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "📢 Подписаться", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "https://t.me/PatrickVirts", markup.InlineKeyboard[0][0].URL)
}

func TestRender_EscapesServerName(t *testing.T) {
	r := &renderer{catalog: catalog.Default(), support: "support"}

	text, _ := r.render(conversation.View{Screen: conversation.ScreenAmounts, Action: models.OrderTypeBuy, Server: "<x>"})
	assert.Contains(t, text, "Сервер: &lt;x&gt;")

	text, _ = r.render(conversation.View{Screen: conversation.ScreenOrderCreated, Order: &models.Order{
		ID: uuid.New(), OrderType: models.OrderTypeSell, Project: "a&b", ServerName: "<x>", Amount: models.UnitsPerBlock,
	}})
	assert.Contains(t, text, "Проект: a&amp;b")
	assert.Contains(t, text, "Сервер: &lt;x&gt;")
	assert.NotContains(t, text, "<x>")
}
