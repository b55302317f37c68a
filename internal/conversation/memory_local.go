package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// turnRing is a fixed capacity circular buffer of turns.
type turnRing struct {
	buf  []Turn
	head int
	size int
}

func newTurnRing(capacity int) *turnRing {
	return &turnRing{buf: make([]Turn, capacity)}
}

func (r *turnRing) push(t Turn) {
	if len(r.buf) == 0 {
		return
	}
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = t
		r.size++
		return
	}
	r.buf[r.head] = t
	r.head = (r.head + 1) % len(r.buf)
}

func (r *turnRing) last(n int) []Turn {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return []Turn{}
	}
	out := make([]Turn, n)
	offset := r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.head+offset+i)%len(r.buf)]
	}
	return out
}

type localWindow struct {
	mu   sync.Mutex
	ring *turnRing
}

// LocalMemoryConfig bounds the in-process memory.
type LocalMemoryConfig struct {
	MaxTurns         int
	MaxConversations int
	TTL              time.Duration
}

// LocalMemory stores windows in process memory. Inactive conversations expire
// after TTL and the least recently written ones are evicted past
// MaxConversations.
type LocalMemory struct {
	mu       sync.Mutex
	cache    *expirable.LRU[string, *localWindow]
	maxTurns int
	now      func() time.Time
}

func NewLocalMemory(cfg LocalMemoryConfig) *LocalMemory {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 50
	}
	if cfg.MaxConversations < 0 {
		cfg.MaxConversations = 0
	}
	return &LocalMemory{
		cache:    expirable.NewLRU[string, *localWindow](cfg.MaxConversations, nil, cfg.TTL),
		maxTurns: cfg.MaxTurns,
		now:      time.Now,
	}
}

func (m *LocalMemory) lookup(key string, create bool) *localWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.cache.Get(key); ok {
		return w
	}
	if !create {
		return nil
	}
	w := &localWindow{ring: newTurnRing(m.maxTurns)}
	m.cache.Add(key, w)
	return w
}

func (m *LocalMemory) AppendTurn(ctx context.Context, key, role, text string) error {
	if err := validateTurn(key, role); err != nil {
		return err
	}
	w := m.lookup(key, true)
	w.mu.Lock()
	w.ring.push(Turn{Role: role, Text: text, At: m.now().UTC()})
	w.mu.Unlock()

	// re-adding refreshes recency and expiry
	m.mu.Lock()
	m.cache.Add(key, w)
	m.mu.Unlock()
	return nil
}

func (m *LocalMemory) RecentContext(ctx context.Context, key string, n int) ([]Turn, error) {
	w := m.lookup(key, false)
	if w == nil || n <= 0 {
		return []Turn{}, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ring.last(n), nil
}

func (m *LocalMemory) Window(ctx context.Context, key string) ([]Turn, error) {
	return m.RecentContext(ctx, key, m.maxTurns)
}

func (m *LocalMemory) Len(ctx context.Context, key string) (int, error) {
	w := m.lookup(key, false)
	if w == nil {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ring.size, nil
}

func (m *LocalMemory) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	m.cache.Remove(key)
	m.mu.Unlock()
	return nil
}

// Conversations reports how many windows are currently held.
func (m *LocalMemory) Conversations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}
