package conversation

import (
	"fmt"
	"html"

	"github.com/agamariel/virtshop/internal/models"
)

// ModerationNote - сообщение администратору о новой заявке.
func ModerationNote(o *models.Order) string {
	title := "🆕 Новая заявка на покупку"
	if o.OrderType == models.OrderTypeSell {
		title = "🆕 Новая заявка на продажу"
	}

	username := "без_username"
	if o.Username != nil && *o.Username != "" {
		username = "@" + html.EscapeString(*o.Username)
	}

	short := ShortID(o)
	return fmt.Sprintf(
		"<b>%s</b>\n\n👤 %s (<code>%d</code>)\n🎮 %s - %s\n💎 %sкк\n💵 %s₽\n🆔 <code>%s</code>\n\n/approve_%s | /reject_%s",
		title, username, o.UserID, html.EscapeString(o.Project), html.EscapeString(o.ServerName),
		models.FormatBlocks(o.Amount), o.Price.String(), short, short, short,
	)
}

// ShortID - первые 8 символов идентификатора заявки.
func ShortID(o *models.Order) string {
	return o.ID.String()[:8]
}
