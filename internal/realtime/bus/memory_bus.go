package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/relocation-intake/internal/realtime"
)

// memoryBus delivers in-process. It is used when REDIS_ADDR is unset.
type memoryBus struct {
	mu     sync.RWMutex
	subs   []func(realtime.SSEMessage)
	closed bool
}

func NewMemoryBus() Bus { return &memoryBus{} }

func (b *memoryBus) Publish(_ context.Context, msg realtime.SSEMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("bus closed")
	}
	for _, fn := range b.subs {
		fn(msg)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bus closed")
	}
	var stopped bool
	var mu sync.Mutex
	b.subs = append(b.subs, func(m realtime.SSEMessage) {
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			onMsg(m)
		}
	})
	go func() {
		<-ctx.Done()
		mu.Lock()
		stopped = true
		mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.subs = nil
	b.mu.Unlock()
	return nil
}
