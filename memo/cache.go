// Package memo implements the memoization facility of spec.md §4.D: a
// per-render-context cache that makes an element, eventual, or lazy
// producer idempotent, so a non-idempotent underlying operation (an LLM
// call) is performed at most once per context regardless of how many
// times the memoized Node is observed.
package memo

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kadirpekel/streamtree/element"
)

var (
	evaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamtree_memo_evaluations_total",
		Help: "Number of distinct underlying element/producer evaluations performed by memo.",
	})
	replaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamtree_memo_replays_total",
		Help: "Number of times a memoized observation was served from cache instead of evaluating.",
	})
)

// Cache is the per-render-context weak mapping from element identity to
// cached result spec.md §3 describes ("Memoization record"). Its
// lifetime is tied to whatever holds a reference to it — ordinarily a
// single render.RenderContext, which is spec.md §9's sanctioned
// fallback for languages without true weak maps: "attach the cache to
// the context and discard with it".
type Cache struct {
	mu        sync.Mutex
	elements  map[*element.Element]*elementEntry
	producers map[element.Producer]*memoProducer
}

// NewCache returns an empty cache, one per render context.
func NewCache() *Cache {
	return &Cache{elements: make(map[*element.Element]*elementEntry)}
}

// elementEntry holds one result per rendering context, not one result
// overall: spec.md §4.D keys the weak mapping on ctx, and §4.D Scope
// requires that "a node memoized under one context and rendered under
// another re-evaluates" (a Provider push hands components a new,
// distinct element.Context, so the same memoized element surfacing both
// inside and outside that provider must evaluate once per side).
type elementEntry struct {
	mu    sync.Mutex
	byCtx map[string]*contextResult
}

type contextResult struct {
	once   sync.Once
	result element.Node
	err    error
}

func (c *Cache) entryFor(el *element.Element) *elementEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.elements[el]; ok {
		return e
	}
	e := &elementEntry{byCtx: make(map[string]*contextResult)}
	c.elements[el] = e
	return e
}

func (e *elementEntry) resultFor(ctxID string) *contextResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.byCtx[ctxID]; ok {
		return r
	}
	r := &contextResult{}
	e.byCtx[ctxID] = r
	return r
}

// Wrap returns a Node behaviorally equivalent to n but idempotent under
// c (spec.md §4.D). It recurses structurally into scalars and
// sequences, and special-cases elements, eventuals, and producers.
func Wrap(c *Cache, n element.Node) element.Node {
	switch element.KindOf(n) {
	case element.KindSequence:
		seq := n.([]element.Node)
		out := make([]element.Node, len(seq))
		for i, child := range seq {
			out[i] = Wrap(c, child)
		}
		return out
	case element.KindElement:
		return wrapElement(c, n.(*element.Element))
	case element.KindEventual:
		return wrapEventual(c, n.(element.Eventual))
	case element.KindProducer:
		return wrapProducer(c, n.(element.Producer))
	default:
		// Leaves (including nil) and indirect nodes pass through:
		// indirection is collaborator-defined and the core does not
		// know enough to safely cache its resolution.
		return n
	}
}

func wrapElement(c *Cache, el *element.Element) *element.Element {
	// spec.md §4.D: "a flag symbol on memoized elements short-circuits
	// re-wrapping" — memo(memo(x)) is observationally equal to memo(x).
	if el.IsMemoWrapped() {
		return el
	}

	entry := c.entryFor(el)
	debugID := uuid.NewString()

	render := func(ctx element.Context) (element.Node, error) {
		cr := entry.resultFor(ctx.ID())
		first := false
		cr.once.Do(func() {
			first = true
			result, err := el.Invoke(ctx)
			if err == nil {
				result = Wrap(c, result)
			}
			cr.result, cr.err = result, err
		})
		if first {
			evaluationsTotal.Inc()
		} else {
			replaysTotal.Inc()
		}
		return cr.result, cr.err
	}

	return element.NewMemoElement(el.Tag(), render, debugID)
}
