package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = models.ErrOrderNotFound
)

// OrderStorage определяет интерфейс для работы с заказами.
type OrderStorage interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	PendingSellStats(ctx context.Context, project string) ([]models.ServerStat, error)
}

const orderColumns = `id, order_type, project, server_name, user_id, username, amount, price, status, source, extra, created_at, updated_at`

// PostgresOrderStorage реализует OrderStorage для PostgreSQL.
type PostgresOrderStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStorage создаёт новый экземпляр PostgresOrderStorage.
func NewPostgresOrderStorage(pool *pgxpool.Pool) *PostgresOrderStorage {
	return &PostgresOrderStorage{pool: pool}
}

// Create сохраняет новый заказ. ID и статус назначает вызывающий код.
func (s *PostgresOrderStorage) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, order_type, project, server_name, user_id, username, amount, price, status, source, extra, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	extra := order.Extra
	if extra == nil {
		extra = map[string]any{}
	}

	err := s.pool.QueryRow(ctx, query,
		order.ID,
		order.OrderType,
		order.Project,
		order.ServerName,
		order.UserID,
		order.Username,
		int64(order.Amount),
		order.Price.String(),
		order.Status,
		order.Source,
		extra,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (s *PostgresOrderStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(s.pool.QueryRow(ctx, query, id))
}

// List возвращает заказы по фильтру (сортировка по created_at DESC).
func (s *PostgresOrderStorage) List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.OrderType != "" {
		add("order_type = $%d", filter.OrderType)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Project != "" {
		add("project = $%d", filter.Project)
	}
	if filter.Source != "" {
		add("source = $%d", filter.Source)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return orders, nil
}

// UpdateStatus выставляет статус без проверки предыдущего значения.
func (s *PostgresOrderStorage) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + orderColumns

	return scanOrder(s.pool.QueryRow(ctx, query, status, id))
}

// Update применяет частичное изменение количества и цены.
func (s *PostgresOrderStorage) Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	query := `
		UPDATE orders
		SET amount = COALESCE($1, amount), price = COALESCE($2, price), updated_at = NOW()
		WHERE id = $3
		RETURNING ` + orderColumns

	amount := sql.NullInt64{}
	if patch.Amount != nil {
		amount = sql.NullInt64{Valid: true, Int64: int64(*patch.Amount)}
	}
	price := sql.NullString{}
	if patch.Price != nil {
		price = sql.NullString{Valid: true, String: patch.Price.String()}
	}

	return scanOrder(s.pool.QueryRow(ctx, query, amount, price, id))
}

// Delete удаляет заказ и сообщает, существовал ли он.
func (s *PostgresOrderStorage) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// PendingSellStats агрегирует ожидающие заявки на продажу по серверам.
func (s *PostgresOrderStorage) PendingSellStats(ctx context.Context, project string) ([]models.ServerStat, error) {
	query := `
		SELECT server_name, COUNT(DISTINCT user_id), COALESCE(SUM(amount), 0)::bigint
		FROM orders
		WHERE order_type = 'sell' AND status = 'pending' AND ($1 = '' OR project = $1)
		GROUP BY server_name
		ORDER BY server_name
	`

	rows, err := s.pool.Query(ctx, query, project)
	if err != nil {
		return nil, fmt.Errorf("failed to query server stats: %w", err)
	}
	defer rows.Close()

	var stats []models.ServerStat
	for rows.Next() {
		var (
			stat   models.ServerStat
			amount int64
		)
		if err := rows.Scan(&stat.ServerName, &stat.TotalSellers, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan server stat: %w", err)
		}
		stat.TotalAmount = uint64(amount)
		stats = append(stats, stat)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return stats, nil
}

// scanOrder помогает читать заказ из строки результата.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order    models.Order
		amount   int64
		priceStr string
	)

	err := row.Scan(
		&order.ID,
		&order.OrderType,
		&order.Project,
		&order.ServerName,
		&order.UserID,
		&order.Username,
		&amount,
		&priceStr,
		&order.Status,
		&order.Source,
		&order.Extra,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	order.Amount = uint64(amount)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order price %q: %w", priceStr, err)
	}
	order.Price = price
	if len(order.Extra) == 0 {
		order.Extra = nil
	}

	return &order, nil
}
