package memo

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/kadirpekel/streamtree/element"
)

// memoProducer is the shared driver behind every view handed out for one
// underlying Producer (spec.md §4.D "replays the previously observed
// frames to late joiners from an internal append-only buffer, then
// awaits the next real frame. Exactly one underlying next is outstanding
// at a time; concurrent consumers share it.").
type memoProducer struct {
	inner element.Producer
	cache *Cache

	mu         sync.Mutex
	frames     []element.Node
	done       bool
	finalValue element.Node
	finalErr   error

	group    singleflight.Group
	refcount atomic.Int64
}

// producerView is a per-consumer cursor into a memoProducer's buffer.
type producerView struct {
	shared *memoProducer
	idx    int
}

func wrapProducer(c *Cache, inner element.Producer) element.Producer {
	c.mu.Lock()
	if c.producers == nil {
		c.producers = make(map[element.Producer]*memoProducer)
	}
	shared, ok := c.producers[inner]
	if !ok {
		shared = &memoProducer{inner: inner, cache: c}
		c.producers[inner] = shared
	}
	c.mu.Unlock()

	shared.refcount.Add(1)
	return &producerView{shared: shared}
}

func (v *producerView) Next(ctx context.Context) (element.Node, bool, error) {
	return v.shared.next(ctx, &v.idx)
}

func (v *producerView) Close() {
	// spec.md §5: "memoized producers decrement their consumer count —
	// the underlying iterator is closed only when the count reaches
	// zero". We approximate "AND the context is being torn down" by
	// closing as soon as the last view goes away, since a Cache's own
	// lifetime is already scoped to one render context (see cache.go).
	if v.shared.refcount.Add(-1) == 0 {
		v.shared.inner.Close()
	}
}

func (p *memoProducer) next(ctx context.Context, idx *int) (element.Node, bool, error) {
	for {
		p.mu.Lock()
		if *idx < len(p.frames) {
			val := p.frames[*idx]
			*idx++
			p.mu.Unlock()
			return val, false, nil
		}
		if p.done {
			p.mu.Unlock()
			return p.finalValue, true, p.finalErr
		}
		p.mu.Unlock()

		// Exactly one underlying Next is outstanding at a time; any
		// consumer that arrives while a pull is in flight shares its
		// result instead of issuing a second pull (spec.md §5
		// Backpressure).
		_, err, _ := p.group.Do("pull", func() (any, error) {
			val, done, perr := p.inner.Next(ctx)
			p.mu.Lock()
			switch {
			case perr != nil:
				p.done, p.finalErr = true, perr
			case done:
				p.done, p.finalValue = true, Wrap(p.cache, val)
			default:
				p.frames = append(p.frames, Wrap(p.cache, val))
			}
			p.mu.Unlock()
			return nil, nil
		})
		if err != nil {
			return nil, true, err
		}
		// Loop: re-check frames/done against the now-updated state.
	}
}
