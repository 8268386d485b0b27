package services

import (
	"context"
	"errors"
	"time"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/storage"
	"go.uber.org/zap"
)

// BanService определяет интерфейс реестра блокировок.
type BanService interface {
	IsBanned(ctx context.Context, userID int64) models.BanStatus
	Ban(ctx context.Context, req models.BanRequest) (*models.BanRecord, error)
	Unban(ctx context.Context, userID int64) (bool, error)
	ListActive(ctx context.Context) models.BanList
}

// BanServiceImpl реализует BanService.
type BanServiceImpl struct {
	banStorage storage.BanStorage
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewBanService создаёт сервис блокировок.
func NewBanService(banStorage storage.BanStorage, logger *zap.SugaredLogger) *BanServiceImpl {
	return &BanServiceImpl{
		banStorage: banStorage,
		logger:     logger,
		now:        time.Now,
	}
}

// IsBanned проверяет блокировку. Истёкшая запись удаляется при чтении.
// Ошибка хранилища даёт "не заблокирован" с признаком Degraded.
func (s *BanServiceImpl) IsBanned(ctx context.Context, userID int64) models.BanStatus {
	record, err := s.banStorage.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrBanNotFound) {
			return models.BanStatus{}
		}
		s.logger.Warnw("ban check failed, allowing user", "user_id", userID, "error", err)
		return models.BanStatus{Degraded: true}
	}

	if record.ExpiredAt(s.now()) {
		s.purge(ctx, userID)
		return models.BanStatus{}
	}

	return models.BanStatus{
		Banned:      true,
		BannedUntil: record.BannedUntil,
		Username:    record.Username,
	}
}

// Ban создаёт или заменяет запись о блокировке.
func (s *BanServiceImpl) Ban(ctx context.Context, req models.BanRequest) (*models.BanRecord, error) {
	if req.UserID == 0 {
		return nil, invalid("user_id", "required")
	}

	now := s.now().UTC()
	record := &models.BanRecord{
		UserID:   req.UserID,
		Username: req.Username,
		BannedAt: now,
		BannedBy: req.BannedBy,
	}
	if record.BannedBy == "" {
		record.BannedBy = "admin"
	}
	if req.Days != nil && *req.Days > 0 {
		until := now.Add(time.Duration(*req.Days) * 24 * time.Hour)
		record.BannedUntil = &until
	}

	if err := s.banStorage.Upsert(ctx, record); err != nil {
		return nil, upstream("ban user", err)
	}

	s.logger.Infow("user banned", "user_id", record.UserID, "until", record.BannedUntil, "by", record.BannedBy)
	return record, nil
}

// Unban снимает блокировку и сообщает, была ли она.
func (s *BanServiceImpl) Unban(ctx context.Context, userID int64) (bool, error) {
	existed, err := s.banStorage.Delete(ctx, userID)
	if err != nil {
		return false, upstream("unban user", err)
	}
	if existed {
		s.logger.Infow("user unbanned", "user_id", userID)
	}
	return existed, nil
}

// ListActive возвращает действующие блокировки, попутно удаляя истёкшие.
func (s *BanServiceImpl) ListActive(ctx context.Context) models.BanList {
	records, err := s.banStorage.List(ctx)
	if err != nil {
		s.logger.Warnw("ban list unavailable", "error", err)
		return models.BanList{Bans: []*models.BanRecord{}, Degraded: true}
	}

	now := s.now()
	active := make([]*models.BanRecord, 0, len(records))
	for _, r := range records {
		if r.ExpiredAt(now) {
			s.purge(ctx, r.UserID)
			continue
		}
		active = append(active, r)
	}
	return models.BanList{Bans: active}
}

func (s *BanServiceImpl) purge(ctx context.Context, userID int64) {
	if _, err := s.banStorage.Delete(ctx, userID); err != nil {
		s.logger.Warnw("failed to purge expired ban", "user_id", userID, "error", err)
	}
}
