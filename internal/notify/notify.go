package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sender доставляет одно сообщение получателю.
type Sender interface {
	Send(ctx context.Context, recipient int64, text string) error
}

// Nop ничего не отправляет.
type Nop struct{}

func (Nop) Notify(context.Context, int64, string) {}

type message struct {
	recipient int64
	text      string
}

// Dispatcher - ограниченный пул отправки уведомлений.
// Notify не блокируется: при переполненной очереди сообщение отбрасывается.
// Ошибки доставки логируются, повторов нет.
type Dispatcher struct {
	sender  Sender
	logger  *zap.SugaredLogger
	timeout time.Duration
	workers int

	mu     sync.RWMutex
	queue  chan message
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher создаёт пул. Воркеры запускаются в Start.
func NewDispatcher(sender Sender, workers, queueSize int, timeout time.Duration, logger *zap.SugaredLogger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 10
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		timeout: timeout,
		workers: workers,
		queue:   make(chan message, queueSize),
	}
}

// Start запускает воркеры.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Notify ставит сообщение в очередь.
func (d *Dispatcher) Notify(_ context.Context, recipient int64, text string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warnw("notifier stopped, dropping message", "recipient", recipient)
		return
	}

	select {
	case d.queue <- message{recipient: recipient, text: text}:
	default:
		d.logger.Warnw("notification queue full, dropping message", "recipient", recipient)
	}
}

// Stop закрывает очередь и ждёт отправки оставшихся сообщений.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for msg := range d.queue {
		// очередь дочитывается и после отмены ctx, до Stop
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		err := d.sender.Send(sendCtx, msg.recipient, msg.text)
		cancel()

		if err != nil {
			d.logger.Warnw("notification failed", "worker", id, "recipient", msg.recipient, "error", err)
			continue
		}
		d.logger.Debugw("notification sent", "worker", id, "recipient", msg.recipient)
	}
}
