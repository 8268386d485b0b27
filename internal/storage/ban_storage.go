package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrBanNotFound = models.ErrBanNotFound
)

// BanStorage определяет интерфейс реестра блокировок.
type BanStorage interface {
	Get(ctx context.Context, userID int64) (*models.BanRecord, error)
	Upsert(ctx context.Context, record *models.BanRecord) error
	Delete(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]*models.BanRecord, error)
}

const banColumns = `user_id, username, banned_at, banned_until, banned_by`

// PostgresBanStorage реализует BanStorage для PostgreSQL.
type PostgresBanStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresBanStorage создаёт новый экземпляр PostgresBanStorage.
func NewPostgresBanStorage(pool *pgxpool.Pool) *PostgresBanStorage {
	return &PostgresBanStorage{pool: pool}
}

// Get возвращает запись о блокировке пользователя.
func (s *PostgresBanStorage) Get(ctx context.Context, userID int64) (*models.BanRecord, error) {
	query := `SELECT ` + banColumns + ` FROM banned_users WHERE user_id = $1`
	return scanBan(s.pool.QueryRow(ctx, query, userID))
}

// Upsert полностью заменяет запись пользователя.
func (s *PostgresBanStorage) Upsert(ctx context.Context, record *models.BanRecord) error {
	query := `
		INSERT INTO banned_users (user_id, username, banned_at, banned_until, banned_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
			banned_at = EXCLUDED.banned_at,
			banned_until = EXCLUDED.banned_until,
			banned_by = EXCLUDED.banned_by
	`

	_, err := s.pool.Exec(ctx, query,
		record.UserID,
		record.Username,
		record.BannedAt,
		record.BannedUntil,
		record.BannedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ban: %w", err)
	}

	return nil
}

// Delete снимает блокировку и сообщает, была ли запись.
func (s *PostgresBanStorage) Delete(ctx context.Context, userID int64) (bool, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM banned_users WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete ban: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// List возвращает все записи, включая истёкшие.
func (s *PostgresBanStorage) List(ctx context.Context) ([]*models.BanRecord, error) {
	query := `SELECT ` + banColumns + ` FROM banned_users ORDER BY banned_at, user_id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bans: %w", err)
	}
	defer rows.Close()

	var records []*models.BanRecord
	for rows.Next() {
		record, err := scanBan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return records, nil
}

func scanBan(row pgx.Row) (*models.BanRecord, error) {
	var record models.BanRecord

	err := row.Scan(
		&record.UserID,
		&record.Username,
		&record.BannedAt,
		&record.BannedUntil,
		&record.BannedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBanNotFound
		}
		return nil, fmt.Errorf("failed to scan ban: %w", err)
	}

	return &record, nil
}
