package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/google/uuid"
)

// MemoryOrderStorage хранит заказы в памяти процесса.
// Используется, когда DATABASE_URI не задан, и в тестах.
type MemoryOrderStorage struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*models.Order
	seq    map[uuid.UUID]int
	next   int
	now    func() time.Time
}

// NewMemoryOrderStorage создаёт пустое хранилище.
func NewMemoryOrderStorage() *MemoryOrderStorage {
	return &MemoryOrderStorage{
		orders: make(map[uuid.UUID]*models.Order),
		seq:    make(map[uuid.UUID]int),
		now:    time.Now,
	}
}

func (s *MemoryOrderStorage) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.orders[order.ID] = cloneOrder(order)
	s.seq[order.ID] = s.next
	s.next++
	return nil
}

func (s *MemoryOrderStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает заказы от новых к старым; при равном времени
// порядок определяется очерёдностью вставки.
func (s *MemoryOrderStorage) List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []*models.Order
	for _, o := range s.orders {
		if filter.Matches(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return s.seq[orders[i].ID] > s.seq[orders[j].ID]
	})
	return orders, nil
}

func (s *MemoryOrderStorage) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = s.now()
	return cloneOrder(order), nil
}

func (s *MemoryOrderStorage) Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if patch.Amount != nil {
		order.Amount = *patch.Amount
	}
	if patch.Price != nil {
		order.Price = *patch.Price
	}
	order.UpdatedAt = s.now()
	return cloneOrder(order), nil
}

func (s *MemoryOrderStorage) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	delete(s.seq, id)
	return true, nil
}

func (s *MemoryOrderStorage) PendingSellStats(ctx context.Context, project string) ([]models.ServerStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		sellers map[int64]struct{}
		amount  uint64
	}
	byServer := make(map[string]*agg)
	for _, o := range s.orders {
		if o.OrderType != models.OrderTypeSell || o.Status != models.OrderStatusPending {
			continue
		}
		if project != "" && o.Project != project {
			continue
		}
		a, ok := byServer[o.ServerName]
		if !ok {
			a = &agg{sellers: make(map[int64]struct{})}
			byServer[o.ServerName] = a
		}
		a.sellers[o.UserID] = struct{}{}
		a.amount += o.Amount
	}

	stats := make([]models.ServerStat, 0, len(byServer))
	for name, a := range byServer {
		stats = append(stats, models.ServerStat{
			ServerName:   name,
			TotalSellers: len(a.sellers),
			TotalAmount:  a.amount,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ServerName < stats[j].ServerName })
	return stats, nil
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	if o.Username != nil {
		name := *o.Username
		c.Username = &name
	}
	if o.Extra != nil {
		c.Extra = make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// MemoryBanStorage хранит блокировки в памяти процесса.
type MemoryBanStorage struct {
	mu      sync.RWMutex
	records map[int64]*models.BanRecord
	order   []int64
}

// NewMemoryBanStorage создаёт пустой реестр.
func NewMemoryBanStorage() *MemoryBanStorage {
	return &MemoryBanStorage{records: make(map[int64]*models.BanRecord)}
}

func (s *MemoryBanStorage) Get(ctx context.Context, userID int64) (*models.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID]
	if !ok {
		return nil, ErrBanNotFound
	}
	return cloneBan(record), nil
}

func (s *MemoryBanStorage) Upsert(ctx context.Context, record *models.BanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.UserID]; !ok {
		s.order = append(s.order, record.UserID)
	}
	s.records[record.UserID] = cloneBan(record)
	return nil
}

func (s *MemoryBanStorage) Delete(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[userID]; !ok {
		return false, nil
	}
	delete(s.records, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// List возвращает записи в порядке первой блокировки.
func (s *MemoryBanStorage) List(ctx context.Context) ([]*models.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*models.BanRecord, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, cloneBan(s.records[id]))
	}
	return records, nil
}

func cloneBan(b *models.BanRecord) *models.BanRecord {
	c := *b
	if b.Username != nil {
		name := *b.Username
		c.Username = &name
	}
	if b.BannedUntil != nil {
		until := *b.BannedUntil
		c.BannedUntil = &until
	}
	return &c
}
