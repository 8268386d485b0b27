package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/agamariel/virtshop/internal/catalog"
	"github.com/agamariel/virtshop/internal/conversation"
	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/telegram"
)

const (
	serverColumns = 2
	amountColumns = 3
	dateLayout    = "02.01.2006 15:04"
)

// renderer превращает экраны диалога в текст и клавиатуру.
type renderer struct {
	catalog *catalog.Catalog
	support string
}

func (r *renderer) supportURL() string {
	return "https://t.me/" + r.support
}

func (r *renderer) render(v conversation.View) (string, *telegram.InlineKeyboardMarkup) {
	switch v.Screen {
	case conversation.ScreenProjects:
		return projectsText, r.projectsMenu()
	case conversation.ScreenServers:
		return r.servers(v)
	case conversation.ScreenAmounts:
		return r.amounts(v)
	case conversation.ScreenOrderCreated:
		return r.orderCreated(v)
	case conversation.ScreenCustomAmount:
		return r.customAmount(v)
	case conversation.ScreenInfo:
		text, ok := infoTexts[v.Topic]
		if !ok {
			text = notFoundInfo
		}
		return text, backToMainMenu()
	case conversation.ScreenBanned:
		return r.banned(v.Ban), nil
	case conversation.ScreenSubscribe:
		return fmt.Sprintf(subscribeText, html.EscapeString(v.Channel)), &telegram.InlineKeyboardMarkup{
			InlineKeyboard: [][]telegram.InlineKeyboardButton{{telegram.URLButton("📢 Подписаться", "https://t.me/"+v.Channel)}},
		}
	default:
		return welcomeText, r.mainMenu()
	}
}

func (r *renderer) mainMenu() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{
			telegram.CallbackButton("💰 Купить", "action_buy"),
			telegram.CallbackButton("💸 Продать", "action_sell"),
		},
		{
			telegram.CallbackButton("🛡 Гарантии", "info_guarantees"),
			telegram.URLButton("💬 Поддержка", r.supportURL()),
		},
		{telegram.CallbackButton("📋 Правила", "info_rules")},
	}}
}

func (r *renderer) projectsMenu() *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	for _, p := range r.catalog.Projects() {
		rows = append(rows, []telegram.InlineKeyboardButton{telegram.CallbackButton("🎮 "+p.Name, "project_"+p.Key)})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{telegram.CallbackButton("◀️ Назад", "back_to_main")})
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (r *renderer) servers(v conversation.View) (string, *telegram.InlineKeyboardMarkup) {
	text := serversText
	if v.Action == models.OrderTypeBuy {
		text += statsHint
		if v.Degraded {
			text += statsMissing
		}
	}
	if v.Project == nil {
		return text, backToMainMenu()
	}

	buttons := make([]telegram.InlineKeyboardButton, 0, len(v.Servers))
	for _, s := range v.Servers {
		label := s.Name
		if s.HasStats {
			label = fmt.Sprintf("%s (%dчел, %sкк)", s.Name, s.Sellers, models.FormatBlocks(s.Amount))
		}
		buttons = append(buttons, telegram.CallbackButton(label, fmt.Sprintf("server_%s_%s", v.Project.Key, s.Name)))
	}

	rows := grid(buttons, serverColumns)
	rows = append(rows, []telegram.InlineKeyboardButton{telegram.CallbackButton("◀️ Назад", "back_to_projects")})
	return text, &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (r *renderer) amounts(v conversation.View) (string, *telegram.InlineKeyboardMarkup) {
	var text string
	if v.Action == models.OrderTypeSell {
		text = fmt.Sprintf("<b>🎮 Сервер: %s\n💰 Вы получите за 1кк: %s₽\n\nВыбери количество виртов для продажи:</b>", html.EscapeString(v.Server), v.UnitRate)
	} else {
		text = fmt.Sprintf("<b>🎮 Сервер: %s\n💰 Цена за 1кк: %s₽\n\nВыбери нужное количество виртов:</b>", html.EscapeString(v.Server), v.UnitRate)
	}

	buttons := make([]telegram.InlineKeyboardButton, 0, len(v.Amounts))
	for _, a := range v.Amounts {
		buttons = append(buttons, telegram.CallbackButton(fmt.Sprintf("%dкк - %s₽", a.Blocks, a.Price), fmt.Sprintf("amount_%d", a.Blocks)))
	}

	rows := grid(buttons, amountColumns)
	rows = append(rows,
		[]telegram.InlineKeyboardButton{telegram.CallbackButton("💰 Другая сумма", "amount_custom")},
		[]telegram.InlineKeyboardButton{telegram.CallbackButton("◀️ Назад", "back_to_servers")},
	)
	return text, &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (r *renderer) orderCreated(v conversation.View) (string, *telegram.InlineKeyboardMarkup) {
	o := v.Order
	name := html.EscapeString(projectName(v.Project, o.Project))
	server := html.EscapeString(o.ServerName)
	blocks := models.FormatBlocks(o.Amount)

	var text string
	if o.OrderType == models.OrderTypeSell {
		text = fmt.Sprintf("<b>✅ Заявка на продажу отправлена на модерацию!</b>\n\n🎮 Проект: %s\n🏠 Сервер: %s\n💎 Количество: %sкк\n💵 Вы получите: %s₽\n\nОжидайте подтверждения от администратора.",
			name, server, blocks, o.Price)
	} else {
		text = fmt.Sprintf("<b>✅ Заявка на покупку создана!</b>\n\n🎮 Проект: %s\n🏠 Сервер: %s\n💎 Количество: %sкк\n💵 К оплате: %s₽\n\nДля завершения сделки нажмите «Купить» и напишите:\n%s, %s, куплю %skk",
			name, server, blocks, o.Price, name, server, blocks)
	}

	return text, &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{telegram.URLButton("✅ "+actionButton(o.OrderType), r.supportURL())},
		{telegram.CallbackButton("◀️ В главное меню", "back_to_main")},
	}}
}

func (r *renderer) customAmount(v conversation.View) (string, *telegram.InlineKeyboardMarkup) {
	word := "куплю"
	if v.Action == models.OrderTypeSell {
		word = "продам"
	}
	btn := actionButton(v.Action)
	name := projectName(v.Project, "")
	server := html.EscapeString(v.Server)

	text := fmt.Sprintf("<b>Для завершения нажмите «%s».\n\n"+
		"1️⃣ Проект и сервер: %s, %s\n"+
		"2️⃣ Количество виртов: укажите нужное количество\n"+
		"3️⃣ Способ оплаты (Сбербанк/Тинькофф, СБП, Карта KZT, Крипта, Скины).\n\n"+
		"Пример сообщения: %s, %s, %s [количество]kk ✅</b>",
		btn, name, server, name, server, word)

	return text, &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{telegram.URLButton("✅ "+btn, r.supportURL())},
		{telegram.CallbackButton("◀️ Назад", "back_to_main")},
	}}
}

func (r *renderer) banned(status models.BanStatus) string {
	var b strings.Builder
	b.WriteString("<b>🚫 Вы заблокированы</b>\n\n")
	if status.BannedUntil != nil {
		fmt.Fprintf(&b, "Блокировка действует до %s UTC.\n", formatDate(*status.BannedUntil))
	} else {
		b.WriteString("Блокировка бессрочная.\n")
	}
	fmt.Fprintf(&b, "По вопросам: @%s", r.support)
	return b.String()
}

func backToMainMenu() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{telegram.CallbackButton("◀️ В главное меню", "back_to_main")},
	}}
}

// grid раскладывает кнопки по строкам заданной ширины.
func grid(buttons []telegram.InlineKeyboardButton, columns int) [][]telegram.InlineKeyboardButton {
	rows := make([][]telegram.InlineKeyboardButton, 0, (len(buttons)+columns-1)/columns)
	for i := 0; i < len(buttons); i += columns {
		end := i + columns
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}

func actionButton(t models.OrderType) string {
	if t == models.OrderTypeSell {
		return "Продать"
	}
	return "Купить"
}

func projectName(p *catalog.Project, fallback string) string {
	if p != nil {
		return p.Name
	}
	return fallback
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
