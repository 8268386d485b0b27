package models

import "time"

// BanRecord - запись о блокировке пользователя. Одна запись на user_id.
type BanRecord struct {
	UserID      int64      `db:"user_id" json:"user_id"`
	Username    *string    `db:"username" json:"username"`
	BannedAt    time.Time  `db:"banned_at" json:"banned_at"`
	BannedUntil *time.Time `db:"banned_until" json:"banned_until"`
	BannedBy    string     `db:"banned_by" json:"banned_by"`
}

// Permanent сообщает, что блокировка бессрочная.
func (b *BanRecord) Permanent() bool {
	return b.BannedUntil == nil
}

// ExpiredAt сообщает, истекла ли блокировка к моменту now.
func (b *BanRecord) ExpiredAt(now time.Time) bool {
	return b.BannedUntil != nil && b.BannedUntil.Before(now)
}

// BanRequest - запрос на блокировку. Days <= 0 или nil - бессрочно.
type BanRequest struct {
	UserID   int64   `json:"user_id"`
	Username *string `json:"username,omitempty"`
	Days     *int    `json:"days,omitempty"`
	BannedBy string  `json:"banned_by"`
}

// BanStatus - ответ на проверку блокировки.
// Degraded выставляется, когда хранилище недоступно и ответ "не заблокирован"
// получен по политике fail-open.
type BanStatus struct {
	Banned      bool       `json:"banned"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
	Username    *string    `json:"username,omitempty"`
	Degraded    bool       `json:"-"`
}

// BanList - список активных блокировок.
type BanList struct {
	Bans     []*BanRecord
	Degraded bool
}

// StatsResult - статистика по серверам с признаком деградации.
type StatsResult struct {
	Stats    []ServerStat
	Degraded bool
}
