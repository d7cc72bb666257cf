package memo

import (
	"context"
	"sync"

	"github.com/kadirpekel/streamtree/element"
)

// memoEventual wraps an Eventual so its resolved value is computed once
// and recursively memoized, and every awaiter observes that same
// memoized Node (spec.md §4.D).
type memoEventual struct {
	once   sync.Once
	inner  element.Eventual
	cache  *Cache
	result element.Node
	err    error
}

func wrapEventual(c *Cache, inner element.Eventual) element.Eventual {
	return &memoEventual{inner: inner, cache: c}
}

func (m *memoEventual) Await(ctx context.Context) (element.Node, error) {
	m.once.Do(func() {
		result, err := m.inner.Await(ctx)
		if err == nil {
			result = Wrap(m.cache, result)
		}
		m.result, m.err = result, err
	})
	return m.result, m.err
}
