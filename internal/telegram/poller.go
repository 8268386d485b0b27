package telegram

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UpdateHandler обрабатывает одно обновление.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// UpdateSource - источник обновлений long polling.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
}

// Poller получает обновления и раздаёт их обработчику.
// Обновления одного отправителя обрабатываются по очереди в порядке получения,
// разные отправители обрабатываются параллельно.
type Poller struct {
	source     UpdateSource
	handler    UpdateHandler
	logger     *zap.SugaredLogger
	errorPause time.Duration
	wg         sync.WaitGroup

	mu sync.Mutex
	// очереди отправителей, у которых есть активный обработчик
	lanes map[int64][]Update
}

// NewPoller создаёт poller.
func NewPoller(source UpdateSource, handler UpdateHandler, logger *zap.SugaredLogger) *Poller {
	return &Poller{
		source:     source,
		handler:    handler,
		logger:     logger,
		errorPause: 3 * time.Second,
		lanes:      make(map[int64][]Update),
	}
}

// Run опрашивает Telegram до отмены ctx и дожидается активных обработчиков.
func (p *Poller) Run(ctx context.Context) {
	defer p.wg.Wait()

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := p.source.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warnw("getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.errorPause):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.dispatch(ctx, u)
		}
	}
}

// dispatch ставит обновление в очередь отправителя и при необходимости запускает её обработчик.
func (p *Poller) dispatch(ctx context.Context, u Update) {
	sender := u.SenderID()

	p.mu.Lock()
	if queue, busy := p.lanes[sender]; busy {
		p.lanes[sender] = append(queue, u)
		p.mu.Unlock()
		return
	}
	p.lanes[sender] = nil
	p.mu.Unlock()

	p.wg.Add(1)
	go p.drain(ctx, sender, u)
}

func (p *Poller) drain(ctx context.Context, sender int64, u Update) {
	defer p.wg.Done()
	for {
		p.handle(ctx, u)

		p.mu.Lock()
		queue := p.lanes[sender]
		if len(queue) == 0 {
			delete(p.lanes, sender)
			p.mu.Unlock()
			return
		}
		u = queue[0]
		p.lanes[sender] = queue[1:]
		p.mu.Unlock()
	}
}

func (p *Poller) handle(ctx context.Context, u Update) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("update handler panicked", "update_id", u.UpdateID, "panic", r)
		}
	}()
	p.handler.HandleUpdate(ctx, u)
}
