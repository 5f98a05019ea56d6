package event

import (
	"sync"
	"time"

	"github.com/blues/cds/internal/logger"
	"github.com/panjf2000/ants/v2"
)

// Handler 事件处理函数
type Handler func(Event)

// Bus 事件总线，订阅者的处理函数在协程池中异步执行，
// 发布方不等待处理结果，台账操作不会被慢订阅者拖住
type Bus struct {
	pool *ants.Pool

	mu   sync.RWMutex
	subs map[Type][]Handler
}

// NewBus 创建事件总线
func NewBus(workerCount int) (*Bus, error) {
	if workerCount <= 0 {
		workerCount = 8
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, err
	}
	return &Bus{
		pool: pool,
		subs: make(map[Type][]Handler),
	}, nil
}

// Subscribe 订阅指定类型的事件
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], h)
}

// Publish 发布事件，分发给所有订阅者
func (b *Bus) Publish(t Type, payload interface{}) {
	evt := Event{Type: t, At: time.Now(), Payload: payload}

	b.mu.RLock()
	handlers := make([]Handler, len(b.subs[t]))
	copy(handlers, b.subs[t])
	b.mu.RUnlock()

	for _, h := range handlers {
		h := h
		if err := b.pool.Submit(func() { h(evt) }); err != nil {
			logger.Error("Failed to dispatch event %s: %v", t, err)
		}
	}
}

// Close 关闭事件总线，释放协程池
func (b *Bus) Close() {
	b.pool.Release()
}
