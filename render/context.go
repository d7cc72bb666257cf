// Package render implements the render context (spec.md §4.B) and the
// streaming render engine (spec.md §4.C) together. The two are split
// into separate files (context.go / engine.go / stream.go) but share one
// package: a RenderContext's bound render/memo helpers must call back
// into the engine, and the engine's component-facing ComponentContext
// IS the RenderContext, so the two sides are genuinely circular and the
// teacher's own packages (reasoning <-> component <-> agent) show the
// same willingness to keep tightly-coupled concerns in one package
// rather than force an artificial split.
package render

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/streamtree/element"
	"github.com/kadirpekel/streamtree/logging"
	"github.com/kadirpekel/streamtree/memo"
)

// RenderContext is the scoped bag of bindings carried through the tree
// (spec.md §4.B). It implements element.Context so it can be handed
// directly to component render functions without an extra adapter
// layer — adapting would give every component invocation a distinct
// Context identity, which would break per-context memoization (see
// memo package doc).
type RenderContext struct {
	id       string
	bindings map[element.Key]element.Node
	logger   zerolog.Logger
	cache    *memo.Cache
	span     trace.Span
	done     <-chan struct{}
	cancel   context.Context
}

// Options configure a freshly created root RenderContext.
type Options struct {
	// Logger is nil by default, in which case a no-op logger is bound
	// (spec.md §4.B "logger: Logger | default no-op").
	Logger          *zerolog.Logger
	InitialContexts map[element.Key]element.Node
	// Signal is the cooperative cancellation context for the whole
	// render call (spec.md §5 "a single signal per top-level render
	// call").
	Signal context.Context
}

// CreateRenderContext yields a fresh root context (spec.md §4.B).
func CreateRenderContext(opts Options) *RenderContext {
	logger := noopLogger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Signal == nil {
		opts.Signal = context.Background()
	}
	bindings := make(map[element.Key]element.Node, len(opts.InitialContexts))
	for k, v := range opts.InitialContexts {
		bindings[k] = v
	}
	return &RenderContext{
		id:       uuid.NewString(),
		bindings: bindings,
		logger:   logger,
		cache:    memo.NewCache(),
		done:     opts.Signal.Done(),
		cancel:   opts.Signal,
	}
}

// ID returns a per-context id; memo uses it as the key of its
// per-context cache entries.
func (rc *RenderContext) ID() string { return rc.id }

// GetContext returns the bound value of key along the provider chain,
// or key's default if unbound (spec.md §4.B).
func (rc *RenderContext) GetContext(key element.Key) element.Node {
	if v, ok := rc.bindings[key]; ok {
		return v
	}
	return key.Default()
}

// PushContext returns a derived context with key rebound for the
// subtree; it does not mutate rc (spec.md §4.B, §3 Invariants). The
// derived context gets its own memo cache: spec.md §4.D documents this
// as deliberate ("re-evaluation under a different provider is correct").
func (rc *RenderContext) PushContext(key element.Key, value element.Node) *RenderContext {
	next := make(map[element.Key]element.Node, len(rc.bindings)+1)
	for k, v := range rc.bindings {
		next[k] = v
	}
	next[key] = value
	return &RenderContext{
		id:       uuid.NewString(),
		bindings: next,
		logger:   rc.logger,
		cache:    memo.NewCache(),
		span:     rc.span,
		done:     rc.done,
		cancel:   rc.cancel,
	}
}

// withSpan returns a shallow copy of rc carrying span, used internally
// by the engine to attribute nested renders to the right trace span
// without affecting bindings/cache identity.
func (rc *RenderContext) withSpan(span trace.Span) *RenderContext {
	cp := *rc
	cp.span = span
	return &cp
}

// Memo returns a Node that is behaviorally equivalent to n but
// idempotent under rc (spec.md §4.D).
func (rc *RenderContext) Memo(n element.Node) element.Node {
	return memo.Wrap(rc.cache, n)
}

// Render fully renders n to its final string under rc (used by
// components that want to render a child inline rather than returning
// it, spec.md §4.B "render" helper).
func (rc *RenderContext) Render(n element.Node) (string, error) {
	return Render(rc.cancel, rc, n, RenderOptions{})
}

// Logger returns the logger bound to rc.
func (rc *RenderContext) Logger() zerolog.Logger { return rc.logger }

// Done returns the cooperative-cancellation channel for the enclosing
// render call.
func (rc *RenderContext) Done() <-chan struct{} { return rc.done }

// Signal returns the underlying cancellation context.Context, for
// collaborators that need to pass it on to a downstream API call.
func (rc *RenderContext) Signal() context.Context { return rc.cancel }

// CreateContext returns a fresh context key plus an intrinsic Provider
// element factory (spec.md §4.B). defaultValue is returned by
// GetContext for any context that never saw a matching Provider.
func CreateContext(name string, defaultValue element.Node) (element.Key, element.ProviderFactory) {
	key := element.NewKey(name, defaultValue)
	return key, element.NewProviderFactory(key)
}

// noopLogger is used by CreateRenderContext when the caller doesn't
// supply one (spec.md §4.B "logger: Logger | default no-op").
var noopLogger = logging.Noop()
