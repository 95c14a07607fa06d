// Package cache 提供按值相等去重的记忆表，生命周期由调用方在每次渲染开始时重置。
package cache

import (
	"sync"

	"github.com/ByLCY/folio/gfx"
)

// Table 以可比较的键缓存计算结果。并发安全。
type Table[K comparable, V any] struct {
	mu     sync.Mutex
	items  map[K]V
	hits   int
	misses int
}

func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{items: make(map[K]V)}
}

// Get returns the cached value for k, computing it with fn on a miss.
func (t *Table[K, V]) Get(k K, fn func() V) V {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.items[k]; ok {
		t.hits++
		return v
	}
	t.misses++
	if t.items == nil {
		t.items = make(map[K]V)
	}
	v := fn()
	t.items[k] = v
	return v
}

// Intern returns the first stored value equal to v. Only meaningful when K == V.
func Intern[T comparable](t *Table[T, T], v T) T {
	return t.Get(v, func() T { return v })
}

func (t *Table[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Stats returns hit and miss counts since the last Clear.
func (t *Table[K, V]) Stats() (hits, misses int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hits, t.misses
}

// Clear drops every entry.
func (t *Table[K, V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.items)
	t.hits, t.misses = 0, 0
}

// Metrics 缓存 FontProvider 返回的字体度量，避免重复解析字体。
type Metrics struct {
	Provider gfx.FontProvider
	table    Table[gfx.Font, gfx.FontMetrics]
}

var _ gfx.FontProvider = (*Metrics)(nil)

func NewMetrics(p gfx.FontProvider) *Metrics {
	return &Metrics{Provider: p}
}

func (m *Metrics) Metrics(f gfx.Font) gfx.FontMetrics {
	return m.table.Get(f, func() gfx.FontMetrics { return m.Provider.Metrics(f) })
}

// Clear drops cached metrics; called at the start of each render.
func (m *Metrics) Clear() { m.table.Clear() }
