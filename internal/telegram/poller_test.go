package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agamariel/virtshop/internal/logger"
	"github.com/stretchr/testify/assert"
)

type scriptedSource struct {
	mu      sync.Mutex
	calls   int
	offsets []int64
	batches [][]Update
	cancel  context.CancelFunc
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offsets = append(s.offsets, offset)
	s.calls++
	switch {
	case s.calls == 1:
		return nil, errors.New("network down")
	case s.calls-2 < len(s.batches):
		return s.batches[s.calls-2], nil
	default:
		s.cancel()
		return nil, ctx.Err()
	}
}

type collectingHandler struct {
	mu  sync.Mutex
	ids []int64
}

func (h *collectingHandler) HandleUpdate(_ context.Context, u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, u.UpdateID)
}

func TestPoller_AdvancesOffsetAndSurvivesErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{
		batches: [][]Update{
			{{UpdateID: 10}, {UpdateID: 11}},
			{{UpdateID: 12}},
		},
		cancel: cancel,
	}
	h := &collectingHandler{}

	p := NewPoller(src, h, logger.Nop())
	p.errorPause = time.Millisecond

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	assert.Equal(t, []int64{0, 0, 12, 13}, src.offsets)
	assert.ElementsMatch(t, []int64{10, 11, 12}, h.ids)
}

type batchSource struct {
	mu     sync.Mutex
	batch  []Update
	served bool
}

func (s *batchSource) GetUpdates(ctx context.Context, _ int64) ([]Update, error) {
	s.mu.Lock()
	if !s.served {
		s.served = true
		s.mu.Unlock()
		return s.batch, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

// gatedHandler задерживает обновление 1, пока не закрыт gate.
type gatedHandler struct {
	mu       sync.Mutex
	started  []int64
	finished []int64
	gate     chan struct{}
}

func (h *gatedHandler) HandleUpdate(_ context.Context, u Update) {
	h.mu.Lock()
	h.started = append(h.started, u.UpdateID)
	h.mu.Unlock()

	if u.UpdateID == 1 {
		<-h.gate
	}

	h.mu.Lock()
	h.finished = append(h.finished, u.UpdateID)
	h.mu.Unlock()
}

func (h *gatedHandler) snapshot() (started, finished []int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.started...), append([]int64(nil), h.finished...)
}

func callbackFrom(updateID, userID int64) Update {
	return Update{UpdateID: updateID, CallbackQuery: &CallbackQuery{ID: "cb", From: User{ID: userID}}}
}

func TestPoller_SameSenderHandledInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &batchSource{batch: []Update{
		callbackFrom(1, 7),
		callbackFrom(2, 7),
		callbackFrom(3, 8),
	}}
	h := &gatedHandler{gate: make(chan struct{})}
	p := NewPoller(src, h, logger.Nop())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// другой отправитель не ждёт, пока освободится первый
	assert.Eventually(t, func() bool {
		_, finished := h.snapshot()
		return len(finished) == 1 && finished[0] == 3
	}, 2*time.Second, 5*time.Millisecond)

	started, _ := h.snapshot()
	assert.NotContains(t, started, int64(2), "second update of the same sender started early")

	close(h.gate)
	assert.Eventually(t, func() bool {
		_, finished := h.snapshot()
		return len(finished) == 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	_, finished := h.snapshot()
	assert.Equal(t, []int64{3, 1, 2}, finished)

	p.mu.Lock()
	assert.Empty(t, p.lanes)
	p.mu.Unlock()
}

func TestUpdate_SenderID(t *testing.T) {
	assert.Equal(t, int64(7), callbackFrom(1, 7).SenderID())
	assert.Equal(t, int64(5), Update{Message: &Message{From: &User{ID: 5}, Chat: Chat{ID: 9}}}.SenderID())
	assert.Equal(t, int64(9), Update{Message: &Message{Chat: Chat{ID: 9}}}.SenderID())
	assert.Equal(t, int64(0), Update{}.SenderID())
}
