package models

import (
	"encoding/json"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType описывает направление заявки.
type OrderType string

const (
	OrderTypeBuy  OrderType = "buy"
	OrderTypeSell OrderType = "sell"
)

// Valid сообщает, известен ли тип заявки.
func (t OrderType) Valid() bool {
	return t == OrderTypeBuy || t == OrderTypeSell
}

// OrderStatus описывает статус модерации заявки.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
)

// OrderSource отмечает канал, из которого пришла заявка.
type OrderSource string

const (
	SourceBot    OrderSource = "bot"
	SourceWebApp OrderSource = "webapp"
	SourceAdmin  OrderSource = "admin"
)

// UnitsPerBlock - количество базовых единиц в одном "кк".
const UnitsPerBlock uint64 = 1_000_000

// MaxAmount - наибольшее количество, которое помещается в BIGINT хранилища.
const MaxAmount uint64 = math.MaxInt64

// PriceScale - число знаков после запятой в цене, как у NUMERIC(14,2).
const PriceScale = 2

// MaxPrice - граница цены для NUMERIC(14,2), не включительно.
var MaxPrice = decimal.New(1, 12)

// Order представляет заявку на покупку или продажу виртов.
type Order struct {
	ID         uuid.UUID       `db:"id"`
	OrderType  OrderType       `db:"order_type"`
	Project    string          `db:"project"`
	ServerName string          `db:"server_name"`
	UserID     int64           `db:"user_id"`
	Username   *string         `db:"username"`
	Amount     uint64          `db:"amount"`
	Price      decimal.Decimal `db:"price"`
	Status     OrderStatus     `db:"status"`
	Source     OrderSource     `db:"source"`
	Extra      map[string]any  `db:"extra"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// Blocks возвращает количество в "кк" (целая часть).
func (o *Order) Blocks() uint64 {
	return o.Amount / UnitsPerBlock
}

// FormatBlocks печатает количество базовых единиц в "кк", сохраняя дробную часть.
func FormatBlocks(amount uint64) string {
	units := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	return units.Div(decimal.NewFromInt(int64(UnitsPerBlock))).String()
}

// orderCore - фиксированная часть JSON-представления заявки.
type orderCore struct {
	ID         uuid.UUID       `json:"id"`
	OrderType  OrderType       `json:"order_type"`
	Project    string          `json:"project"`
	ServerName string          `json:"server_name"`
	UserID     int64           `json:"user_id"`
	Username   *string         `json:"username"`
	Amount     uint64          `json:"amount"`
	Price      decimal.Decimal `json:"price"`
	Status     OrderStatus     `json:"status"`
	Source     OrderSource     `json:"source"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

var orderCoreKeys = []string{
	"id", "order_type", "project", "server_name", "user_id", "username",
	"amount", "price", "status", "source", "created_at", "updated_at",
}

// MarshalJSON выкладывает дополнительные поля на верхний уровень объекта.
// Ключи ядра имеют приоритет над одноимёнными ключами из Extra.
func (o Order) MarshalJSON() ([]byte, error) {
	core, err := json.Marshal(orderCore{
		ID:         o.ID,
		OrderType:  o.OrderType,
		Project:    o.Project,
		ServerName: o.ServerName,
		UserID:     o.UserID,
		Username:   o.Username,
		Amount:     o.Amount,
		Price:      o.Price,
		Status:     o.Status,
		Source:     o.Source,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	})
	if err != nil || len(o.Extra) == 0 {
		return core, err
	}

	merged := make(map[string]json.RawMessage, len(o.Extra)+len(orderCoreKeys))
	for k, v := range o.Extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	var coreFields map[string]json.RawMessage
	if err := json.Unmarshal(core, &coreFields); err != nil {
		return nil, err
	}
	for k, v := range coreFields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON собирает неизвестные ключи в Extra.
func (o *Order) UnmarshalJSON(data []byte) error {
	var core orderCore
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}
	extra, err := extractExtra(data, orderCoreKeys)
	if err != nil {
		return err
	}

	*o = Order{
		ID:         core.ID,
		OrderType:  core.OrderType,
		Project:    core.Project,
		ServerName: core.ServerName,
		UserID:     core.UserID,
		Username:   core.Username,
		Amount:     core.Amount,
		Price:      core.Price,
		Status:     core.Status,
		Source:     core.Source,
		Extra:      extra,
		CreatedAt:  core.CreatedAt,
		UpdatedAt:  core.UpdatedAt,
	}
	return nil
}

// OrderRequest - запрос на создание заявки.
type OrderRequest struct {
	OrderType  OrderType       `json:"order_type"`
	Project    string          `json:"project"`
	ServerName string          `json:"server_name"`
	UserID     int64           `json:"user_id"`
	Username   *string         `json:"username,omitempty"`
	Amount     uint64          `json:"amount"`
	Price      decimal.Decimal `json:"price"`
	Source     OrderSource     `json:"source,omitempty"`
	Extra      map[string]any  `json:"-"`
}

type orderRequestCore OrderRequest

var orderRequestKeys = []string{
	"order_type", "project", "server_name", "user_id", "username",
	"amount", "price", "source",
	// поля, которые назначает сервер, в Extra не попадают
	"id", "status", "created_at", "updated_at",
}

// MarshalJSON добавляет Extra к полям запроса.
func (r OrderRequest) MarshalJSON() ([]byte, error) {
	core, err := json.Marshal(orderRequestCore(r))
	if err != nil || len(r.Extra) == 0 {
		return core, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(core, &fields); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, taken := fields[k]; taken {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[k] = raw
	}
	return json.Marshal(fields)
}

// UnmarshalJSON принимает произвольные дополнительные поля.
func (r *OrderRequest) UnmarshalJSON(data []byte) error {
	var core orderRequestCore
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}
	extra, err := extractExtra(data, orderRequestKeys)
	if err != nil {
		return err
	}
	*r = OrderRequest(core)
	r.Extra = extra
	return nil
}

// OrderPatch - частичное изменение заявки. nil означает "не менять".
type OrderPatch struct {
	Amount *uint64          `json:"amount,omitempty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
}

// Empty сообщает, что в патче нет ни одного поля.
func (p OrderPatch) Empty() bool {
	return p.Amount == nil && p.Price == nil
}

// OrderFilter - фильтры списка заявок. Пустые поля не ограничивают выборку.
type OrderFilter struct {
	UserID    *int64
	OrderType OrderType
	Status    OrderStatus
	Project   string
	Source    OrderSource
}

// Matches проверяет заявку по всем заданным фильтрам (логическое И).
func (f OrderFilter) Matches(o *Order) bool {
	if f.UserID != nil && o.UserID != *f.UserID {
		return false
	}
	if f.OrderType != "" && o.OrderType != f.OrderType {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Project != "" && o.Project != f.Project {
		return false
	}
	if f.Source != "" && o.Source != f.Source {
		return false
	}
	return true
}

// ServerStat - агрегат ожидающих заявок на продажу по серверу.
type ServerStat struct {
	ServerName   string `json:"server_name"`
	TotalSellers int    `json:"total_sellers"`
	TotalAmount  uint64 `json:"total_amount"`
}

func extractExtra(data []byte, known []string) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
