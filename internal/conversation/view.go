package conversation

import (
	"github.com/agamariel/virtshop/internal/catalog"
	"github.com/agamariel/virtshop/internal/models"
	"github.com/shopspring/decimal"
)

// Screen - экран, который бот должен показать пользователю.
type Screen string

const (
	ScreenMain         Screen = "main"
	ScreenProjects     Screen = "projects"
	ScreenServers      Screen = "servers"
	ScreenAmounts      Screen = "amounts"
	ScreenOrderCreated Screen = "order_created"
	ScreenCustomAmount Screen = "custom_amount"
	ScreenInfo         Screen = "info"
	ScreenBanned       Screen = "banned"
	ScreenSubscribe    Screen = "subscribe"
)

// ServerOption - кнопка сервера. Для покупки может нести подсказку о продавцах.
type ServerOption struct {
	Name     string
	Sellers  int
	Amount   uint64
	HasStats bool
}

// AmountOption - готовый вариант количества с ценой.
type AmountOption struct {
	Blocks uint64
	Price  decimal.Decimal
}

// View - результат обработки события. Отрисовкой занимается транспорт.
type View struct {
	Screen   Screen
	Action   models.OrderType
	Project  *catalog.Project
	Server   string
	UnitRate decimal.Decimal
	Servers  []ServerOption
	Amounts  []AmountOption
	Order    *models.Order
	Topic    string
	Ban      models.BanStatus
	Channel  string
	// Alert - короткое уведомление поверх экрана, например об ошибке.
	Alert string
	// Degraded - подсказки по серверам не получены.
	Degraded bool
}
