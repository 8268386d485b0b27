package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService определяет интерфейс работы с заявками.
type OrderService interface {
	Create(ctx context.Context, req models.OrderRequest) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Amend(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ServerStats(ctx context.Context, project string) models.StatsResult
}

// OrderServiceImpl реализует OrderService.
type OrderServiceImpl struct {
	orderStorage storage.OrderStorage
	notifier     Notifier
	support      string
	logger       *zap.SugaredLogger
}

// NewOrderService создаёт новый сервис заявок.
// notifier может быть nil, тогда решения модерации никому не отправляются.
func NewOrderService(orderStorage storage.OrderStorage, notifier Notifier, support string, logger *zap.SugaredLogger) *OrderServiceImpl {
	return &OrderServiceImpl{
		orderStorage: orderStorage,
		notifier:     notifier,
		support:      support,
		logger:       logger,
	}
}

// Create проверяет запрос и сохраняет новую заявку в статусе pending.
func (s *OrderServiceImpl) Create(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if !req.OrderType.Valid() {
		return nil, invalid("order_type", "must be buy or sell")
	}
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := checkPrice(req.Price); err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = models.SourceBot
	}

	order := &models.Order{
		ID:         uuid.New(),
		OrderType:  req.OrderType,
		Project:    req.Project,
		ServerName: req.ServerName,
		UserID:     req.UserID,
		Username:   req.Username,
		Amount:     req.Amount,
		Price:      req.Price.Round(models.PriceScale),
		Status:     models.OrderStatusPending,
		Source:     source,
		Extra:      req.Extra,
	}

	if err := s.orderStorage.Create(ctx, order); err != nil {
		return nil, upstream("create order", err)
	}

	s.logger.Infow("order created",
		"id", order.ID,
		"type", order.OrderType,
		"project", order.Project,
		"server", order.ServerName,
		"user_id", order.UserID,
	)
	return order, nil
}

// Get возвращает заявку по идентификатору.
func (s *OrderServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderStorage.GetByID(ctx, id)
	if err != nil {
		return nil, upstream("get order", err)
	}
	return order, nil
}

// List возвращает заявки по фильтру, новые первыми.
func (s *OrderServiceImpl) List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	orders, err := s.orderStorage.List(ctx, filter)
	if err != nil {
		return nil, upstream("list orders", err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// Approve одобряет заявку. Повторная смена статуса разрешена.
func (s *OrderServiceImpl) Approve(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.decide(ctx, id, models.OrderStatusApproved)
}

// Reject отклоняет заявку. Повторная смена статуса разрешена.
func (s *OrderServiceImpl) Reject(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.decide(ctx, id, models.OrderStatusRejected)
}

func (s *OrderServiceImpl) decide(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	order, err := s.orderStorage.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, upstream("update order status", err)
	}

	s.logger.Infow("order status changed", "id", order.ID, "status", status)

	if s.notifier != nil {
		s.notifier.Notify(ctx, order.UserID, DecisionText(order, s.support))
	}
	return order, nil
}

// Amend частично меняет количество и цену. Статус не трогается,
// согласованность цены и количества не проверяется.
func (s *OrderServiceImpl) Amend(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	if patch.Amount != nil {
		if err := checkAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.Price != nil {
		if err := checkPrice(*patch.Price); err != nil {
			return nil, err
		}
		price := patch.Price.Round(models.PriceScale)
		patch.Price = &price
	}

	var (
		order *models.Order
		err   error
	)
	if patch.Empty() {
		order, err = s.orderStorage.GetByID(ctx, id)
	} else {
		order, err = s.orderStorage.Update(ctx, id, patch)
	}
	if err != nil {
		return nil, upstream("amend order", err)
	}
	return order, nil
}

// Delete удаляет заявку и сообщает, существовала ли она.
func (s *OrderServiceImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	existed, err := s.orderStorage.Delete(ctx, id)
	if err != nil {
		return false, upstream("delete order", err)
	}
	if existed {
		s.logger.Infow("order deleted", "id", id)
	}
	return existed, nil
}

// ServerStats считает ожидающие заявки на продажу по серверам.
// При ошибке хранилища возвращает пустой результат с признаком Degraded.
func (s *OrderServiceImpl) ServerStats(ctx context.Context, project string) models.StatsResult {
	stats, err := s.orderStorage.PendingSellStats(ctx, project)
	if err != nil {
		s.logger.Warnw("server stats unavailable", "project", project, "error", err)
		return models.StatsResult{Stats: []models.ServerStat{}, Degraded: true}
	}

	out := make([]models.ServerStat, 0, len(stats))
	for _, st := range stats {
		if st.TotalSellers == 0 && st.TotalAmount == 0 {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerName < out[j].ServerName })

	return models.StatsResult{Stats: out}
}

// DecisionText формирует уведомление автору заявки о решении модерации.
func DecisionText(order *models.Order, support string) string {
	action := "покупку"
	if order.OrderType == models.OrderTypeSell {
		action = "продажу"
	}
	blocks := models.FormatBlocks(order.Amount)

	if order.Status == models.OrderStatusApproved {
		return fmt.Sprintf("<b>✅ Ваша заявка на %s одобрена!</b>\n\n🎮 %s - %s\n💎 %sкк\n💵 %s₽\n\nСвяжитесь с @%s для завершения сделки.",
			action, order.Project, order.ServerName, blocks, order.Price.String(), support)
	}
	return fmt.Sprintf("<b>❌ Ваша заявка на %s отклонена</b>\n\n🎮 %s - %s\n💎 %sкк\n\nСвяжитесь с @%s для уточнения деталей.",
		action, order.Project, order.ServerName, blocks, support)
}

func checkAmount(amount uint64) error {
	switch {
	case amount == 0:
		return invalid("amount", "must be positive")
	case amount > models.MaxAmount:
		return invalid("amount", "is too large")
	}
	return nil
}

// checkPrice проверяет цену до округления до копеек.
func checkPrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return invalid("price", "must not be negative")
	case price.Round(models.PriceScale).GreaterThanOrEqual(models.MaxPrice):
		return invalid("price", "is too large")
	}
	return nil
}
