package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/agamariel/virtshop/internal/conversation"
	"github.com/agamariel/virtshop/internal/models"
	"github.com/shopspring/decimal"
)

const (
	recentLimit   = 20
	filteredLimit = 15
)

var errOrderNotFound = errors.New("order not found")

// adminCommand сообщает, относится ли команда к панели администратора.
func adminCommand(cmd string) bool {
	switch cmd {
	case "admin", "orders", "orders_buy", "orders_sell", "orders_pending", "prices", "bans":
		return true
	}
	for _, p := range []string{"approve_", "reject_", "delete_", "edit_", "ban_", "unban_"} {
		if strings.HasPrefix(cmd, p) {
			return true
		}
	}
	return false
}

func (b *Bot) handleAdmin(ctx context.Context, chatID, userID int64, cmd string) {
	if !adminCommand(cmd) {
		return
	}
	if b.cfg.AdminUserID == 0 || userID != b.cfg.AdminUserID {
		b.reply(ctx, chatID, accessDenied)
		return
	}

	var text string
	switch cmd {
	case "admin":
		text = adminText
	case "orders":
		text = b.listOrders(ctx, models.OrderFilter{}, recentLimit, "<b>📋 Последние заявки:</b>\n\n", "<b>📋 Нет активных заявок</b>", formatFull)
	case "orders_buy":
		text = b.listOrders(ctx, models.OrderFilter{OrderType: models.OrderTypeBuy}, filteredLimit, "<b>🛒 Заявки на покупку:</b>\n\n", "<b>🛒 Нет заявок на покупку</b>", formatShort)
	case "orders_sell":
		text = b.listOrders(ctx, models.OrderFilter{OrderType: models.OrderTypeSell}, filteredLimit, "<b>💰 Заявки на продажу:</b>\n\n", "<b>💰 Нет заявок на продажу</b>", formatWithStatus)
	case "orders_pending":
		text = b.listOrders(ctx, models.OrderFilter{Status: models.OrderStatusPending}, filteredLimit, "<b>⏳ Заявки на модерации:</b>\n\n", "<b>✅ Нет заявок ожидающих модерации</b>", formatPending)
	case "prices":
		text = b.prices()
	case "bans":
		text = b.listBans(ctx)
	default:
		text = b.orderAction(ctx, userID, cmd)
	}
	b.reply(ctx, chatID, text)
}

func (b *Bot) orderAction(ctx context.Context, adminID int64, cmd string) string {
	name, arg, _ := strings.Cut(cmd, "_")
	switch name {
	case "approve":
		return b.decide(ctx, arg, true)
	case "reject":
		return b.decide(ctx, arg, false)
	case "delete":
		return b.deleteOrder(ctx, arg)
	case "edit":
		return b.editOrder(ctx, arg)
	case "ban":
		return b.ban(ctx, adminID, arg)
	case "unban":
		return b.unban(ctx, arg)
	}
	return badFormat
}

// resolveOrder ищет заявку по префиксу идентификатора среди всех заявок.
func (b *Bot) resolveOrder(ctx context.Context, short string) (*models.Order, error) {
	short = strings.ToLower(strings.TrimSpace(short))
	if short == "" {
		return nil, errOrderNotFound
	}
	orders, err := b.admin.ListOrders(ctx, models.OrderFilter{})
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if strings.HasPrefix(o.ID.String(), short) {
			return o, nil
		}
	}
	return nil, errOrderNotFound
}

func (b *Bot) decide(ctx context.Context, short string, approve bool) string {
	order, err := b.resolveOrder(ctx, short)
	if err != nil {
		return b.failure("resolve order", err)
	}

	if approve {
		updated, err := b.admin.ApproveOrder(ctx, order.ID)
		if err != nil {
			return b.failure("approve order", err)
		}
		b.logger.Infow("order approved from bot", "order_id", updated.ID)
		return fmt.Sprintf("<b>✅ Заявка одобрена</b>\n\n👤 %s\n🎮 %s - %s\n💎 %sкк\n💵 %s₽",
			displayUsername(updated), html.EscapeString(updated.Project), html.EscapeString(updated.ServerName), models.FormatBlocks(updated.Amount), updated.Price)
	}

	updated, err := b.admin.RejectOrder(ctx, order.ID)
	if err != nil {
		return b.failure("reject order", err)
	}
	b.logger.Infow("order rejected from bot", "order_id", updated.ID)
	return fmt.Sprintf("<b>❌ Заявка отклонена</b>\n\n👤 %s\n🎮 %s - %s\n💎 %sкк",
		displayUsername(updated), html.EscapeString(updated.Project), html.EscapeString(updated.ServerName), models.FormatBlocks(updated.Amount))
}

func (b *Bot) deleteOrder(ctx context.Context, short string) string {
	order, err := b.resolveOrder(ctx, short)
	if err != nil {
		return b.failure("resolve order", err)
	}
	existed, err := b.admin.DeleteOrder(ctx, order.ID)
	if err != nil {
		return b.failure("delete order", err)
	}
	if !existed {
		return orderNotFound
	}
	return fmt.Sprintf("<b>🗑 Заявка удалена</b>\n\n👤 %s\n🎮 %s - %s\n💎 %sкк",
		displayUsername(order), html.EscapeString(order.Project), html.EscapeString(order.ServerName), models.FormatBlocks(order.Amount))
}

// editOrder меняет количество и пересчитывает цену пропорционально.
func (b *Bot) editOrder(ctx context.Context, arg string) string {
	short, kkStr, ok := strings.Cut(arg, "_")
	kk, err := strconv.ParseUint(kkStr, 10, 64)
	if !ok || err != nil || kk == 0 {
		return "<b>❌ Неверный формат. Используйте: /edit_[id]_[новое_кол-во_в_кк]</b>"
	}

	order, err := b.resolveOrder(ctx, short)
	if err != nil {
		return b.failure("resolve order", err)
	}

	amount := kk * models.UnitsPerBlock
	price := RecomputePrice(order.Price, order.Amount, amount)

	updated, err := b.admin.AmendOrder(ctx, order.ID, models.OrderPatch{Amount: &amount, Price: &price})
	if err != nil {
		return b.failure("amend order", err)
	}
	return fmt.Sprintf("<b>✏️ Заявка обновлена</b>\n\n👤 %s\n🎮 %s - %s\n💎 Было: %sкк → Стало: %sкк\n💵 Было: %s₽ → Стало: %s₽",
		displayUsername(order), html.EscapeString(order.Project), html.EscapeString(order.ServerName),
		models.FormatBlocks(order.Amount), models.FormatBlocks(updated.Amount), order.Price, updated.Price)
}

// RecomputePrice сохраняет цену за единицу при смене количества.
func RecomputePrice(oldPrice decimal.Decimal, oldAmount, newAmount uint64) decimal.Decimal {
	if oldAmount == 0 {
		return decimal.Zero
	}
	return oldPrice.
		Mul(decimal.NewFromInt(int64(newAmount))).
		Div(decimal.NewFromInt(int64(oldAmount))).
		Round(2)
}

func (b *Bot) ban(ctx context.Context, adminID int64, arg string) string {
	userStr, daysStr, hasDays := strings.Cut(arg, "_")
	userID, err := strconv.ParseInt(userStr, 10, 64)
	if err != nil || userID == 0 {
		return badFormat
	}

	req := models.BanRequest{UserID: userID, BannedBy: fmt.Sprintf("admin:%d", adminID)}
	if hasDays {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 0 {
			return badFormat
		}
		req.Days = &days
	}

	record, err := b.admin.Ban(ctx, req)
	if err != nil {
		return b.failure("ban user", err)
	}
	b.logger.Infow("user banned from bot", "user_id", userID, "admin_id", adminID)

	if record.BannedUntil == nil {
		return fmt.Sprintf("<b>🚫 Пользователь <code>%d</code> заблокирован бессрочно</b>", userID)
	}
	return fmt.Sprintf("<b>🚫 Пользователь <code>%d</code> заблокирован до %s UTC</b>", userID, formatDate(*record.BannedUntil))
}

func (b *Bot) unban(ctx context.Context, arg string) string {
	userID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || userID == 0 {
		return badFormat
	}
	existed, err := b.admin.Unban(ctx, userID)
	if err != nil {
		return b.failure("unban user", err)
	}
	if !existed {
		return fmt.Sprintf("<b>ℹ️ Пользователь <code>%d</code> не был заблокирован</b>", userID)
	}
	return fmt.Sprintf("<b>✅ Блокировка <code>%d</code> снята</b>", userID)
}

func (b *Bot) listBans(ctx context.Context) string {
	bans, err := b.admin.ListBans(ctx)
	if err != nil {
		return b.failure("list bans", err)
	}
	if len(bans) == 0 {
		return "<b>✅ Нет активных блокировок</b>"
	}

	var sb strings.Builder
	sb.WriteString("<b>🚫 Активные блокировки:</b>\n\n")
	for _, r := range bans {
		name := "без_username"
		if r.Username != nil && *r.Username != "" {
			name = "@" + html.EscapeString(*r.Username)
		}
		until := "навсегда"
		if r.BannedUntil != nil {
			until = "до " + formatDate(*r.BannedUntil)
		}
		fmt.Fprintf(&sb, "<code>%d</code> %s | %s\n/unban_%d\n\n", r.UserID, name, until, r.UserID)
	}
	return sb.String()
}

func (b *Bot) prices() string {
	var sb strings.Builder
	for i, p := range b.render.catalog.Projects() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "<b>💰 Цены %s (₽ за 1кк):</b>\n\n", p.Name)
		for _, server := range p.Servers {
			pr := b.render.catalog.Price(p.Key, server)
			fmt.Fprintf(&sb, "%s: покупка %s₽ | продажа %s₽\n", server, pr.SellPrice, pr.BuyPrice)
		}
	}
	return sb.String()
}

type orderFormatter func(o *models.Order) string

func (b *Bot) listOrders(ctx context.Context, filter models.OrderFilter, limit int, header, empty string, format orderFormatter) string {
	orders, err := b.admin.ListOrders(ctx, filter)
	if err != nil {
		return b.failure("list orders", err)
	}
	if len(orders) == 0 {
		return empty
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}

	var sb strings.Builder
	sb.WriteString(header)
	for _, o := range orders {
		sb.WriteString(format(o))
	}
	return sb.String()
}

func formatFull(o *models.Order) string {
	return fmt.Sprintf("<b>%s</b> %s\n👤 %s | 🎮 %s - %s\n💎 %sкк | 💵 %s₽\n📅 %s\n🆔 <code>%s</code>\n\n",
		actionTitle(o.OrderType), statusEmoji(o.Status), displayUsername(o), html.EscapeString(o.Project), html.EscapeString(o.ServerName),
		models.FormatBlocks(o.Amount), o.Price, formatDate(o.CreatedAt), conversation.ShortID(o))
}

func formatShort(o *models.Order) string {
	return fmt.Sprintf("<b>🆔</b> <code>%s</code>\n%s | %s | %sкк | %s₽\n\n",
		conversation.ShortID(o), displayUsername(o), html.EscapeString(o.ServerName), models.FormatBlocks(o.Amount), o.Price)
}

func formatWithStatus(o *models.Order) string {
	return fmt.Sprintf("<b>🆔</b> <code>%s</code> | %s\n%s | %s | %sкк | %s₽\n\n",
		conversation.ShortID(o), statusText(o.Status), displayUsername(o), html.EscapeString(o.ServerName), models.FormatBlocks(o.Amount), o.Price)
}

func formatPending(o *models.Order) string {
	short := conversation.ShortID(o)
	return fmt.Sprintf("<b>%s</b>\n🆔 <code>%s</code>\n%s | %s | %sкк | %s₽\n/approve_%s | /reject_%s\n\n",
		actionTitle(o.OrderType), short, displayUsername(o), html.EscapeString(o.ServerName), models.FormatBlocks(o.Amount), o.Price, short, short)
}

func actionTitle(t models.OrderType) string {
	if t == models.OrderTypeSell {
		return "💰 Продажа"
	}
	return "🛒 Покупка"
}

func statusEmoji(s models.OrderStatus) string {
	switch s {
	case models.OrderStatusApproved:
		return "✅"
	case models.OrderStatusPending:
		return "⏳"
	default:
		return "❌"
	}
}

func statusText(s models.OrderStatus) string {
	switch s {
	case models.OrderStatusApproved:
		return "✅ Одобрено"
	case models.OrderStatusPending:
		return "⏳ Ожидает"
	default:
		return "❌ Отклонено"
	}
}

func displayUsername(o *models.Order) string {
	if o.Username != nil && *o.Username != "" {
		return "@" + html.EscapeString(*o.Username)
	}
	return "без_username"
}

// failure логирует ошибку и возвращает текст для администратора.
func (b *Bot) failure(op string, err error) string {
	switch {
	case errors.Is(err, errOrderNotFound), errors.Is(err, models.ErrOrderNotFound):
		return orderNotFound
	case errors.Is(err, models.ErrValidation):
		return "<b>❌ Неверные данные:</b> " + html.EscapeString(err.Error())
	}
	b.logger.Errorw("admin command failed", "op", op, "error", err)
	return apiFailure
}
