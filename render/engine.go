package render

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/element"
)

var tracer = otel.Tracer("github.com/kadirpekel/streamtree/render")

// RenderOptions configures one top-level render call (spec.md §4.C).
type RenderOptions struct {
	// Stop, when non-nil, arrests expansion at any *element.Element for
	// which it returns true; that element surfaces opaque (as a Part
	// carrying the element itself) instead of being invoked (spec.md §4.C
	// "Return shape when stop is present", §8 S6/S7).
	Stop func(*element.Element) bool
	// AppendOnly forces delta-mode output from RenderStream regardless of
	// whether the root node natively declares itself append-only
	// (spec.md §4.C step 6).
	AppendOnly bool
}

// frameSource is the engine's internal pull-based unit of composition: a
// single cumulative Frame per call, monotonically growing, until done
// (spec.md §9 "implement as a pull-based object with next()").
type frameSource interface {
	next(ctx context.Context) (Frame, bool, error)
}

// appendOnlyAware lets the engine discover, after a source's first real
// pull, whether it was an append-only producer at the root (spec.md §4.C
// "If the node's root is marked append-only the stream is append-only").
type appendOnlyAware interface {
	appendOnly() (isAppendOnly, known bool)
}

// Render fully renders node to its final string under rc (spec.md §4.C).
// It does not accept a Stop predicate: a predicate that can leave opaque
// elements in the result has no single string to collapse to, so callers
// needing that shape use RenderParts.
func Render(ctx context.Context, rc *RenderContext, node element.Node, opts RenderOptions) (string, error) {
	if opts.Stop != nil {
		return "", aierrors.Userf(aierrors.CodeInvalidProps, "render: RenderOptions.Stop requires RenderParts, not Render")
	}
	frame, err := RenderParts(ctx, rc, node, opts)
	if err != nil {
		return "", err
	}
	return frame.String(), nil
}

// RenderParts fully renders node to completion and returns its final
// Frame, preserving any opaque elements a Stop predicate left unexpanded
// (spec.md §4.C "the result type in that case is an ordered sequence of
// interleaved strings and un-rendered elements").
func RenderParts(ctx context.Context, rc *RenderContext, node element.Node, opts RenderOptions) (Frame, error) {
	src := buildSource(ctx, rc, node, opts)
	var last Frame
	for {
		frame, done, err := src.next(ctx)
		if err != nil {
			return nil, err
		}
		last = frame
		if done {
			return last, nil
		}
	}
}

// renderToString is RenderParts flattened to text, used internally
// wherever the algorithm needs the fully-settled text of a sub-node (a
// producer's yielded value, spec.md §4.C step 3).
func renderToString(ctx context.Context, rc *RenderContext, node element.Node, opts RenderOptions) (string, error) {
	frame, err := RenderParts(ctx, rc, node, opts)
	if err != nil {
		return "", err
	}
	return frame.String(), nil
}

// buildSource constructs the frameSource for n's dynamic Kind, recursing
// into children as needed (spec.md §4.C steps 1-6). It does not itself
// pull; construction only wires goroutines for sequence children, which
// begin working immediately.
func buildSource(ctx context.Context, rc *RenderContext, n element.Node, opts RenderOptions) frameSource {
	if ind, ok := n.(element.Indirect); ok {
		resolved, ok := ind.Resolve()
		if !ok {
			return &onceSource{frame: textFrame("")}
		}
		return buildSource(ctx, rc, resolved, opts)
	}

	switch element.KindOf(n) {
	case element.KindSequence:
		return newSequenceSource(ctx, rc, n.([]element.Node), opts)
	case element.KindElement:
		return newElementSource(ctx, rc, n.(*element.Element), opts)
	case element.KindEventual:
		return newEventualSource(ctx, rc, n.(element.Eventual), opts)
	case element.KindProducer:
		return newProducerSource(ctx, rc, n.(element.Producer), opts)
	default:
		return &onceSource{frame: textFrame(stringifyLeaf(n))}
	}
}

// onceSource yields a single precomputed Frame and is immediately done;
// it backs leaves and the opaque-element case (spec.md §4.C step 1, and
// the Stop-arrested case in newElementSource).
type onceSource struct {
	frame Frame
	err   error
}

func (o *onceSource) next(ctx context.Context) (Frame, bool, error) {
	if o.err != nil {
		return nil, true, o.err
	}
	return o.frame, true, nil
}

func (o *onceSource) appendOnly() (bool, bool) { return false, true }

// sequenceSource composes n independently-advancing children positionally
// (spec.md §4.C step 2: "the running output is the concatenation of each
// child's current frame, in order"). Children are pumped by dedicated
// goroutines started at construction; next blocks until any child's
// frame has changed since the caller's last observation.
//
// Composition only ever exposes a settled prefix plus the in-progress
// frame of the single child currently "at bat" (frozenUpTo): a right
// sibling that finishes first makes no difference to the emitted
// frame until every child to its left has also settled, so the
// composite frame a caller observes is prefix-monotone over time even
// though children race internally (spec.md §4.C step 2, §8 invariant 2).
type sequenceSource struct {
	mu      sync.Mutex
	cond    *sync.Cond
	frames  []Frame
	errs    []error
	doneAt  []bool
	pending int
	version uint64
	seen    uint64
	ctxErr  error

	frozenUpTo int   // index of the first not-yet-settled child
	frozen     Frame // concatenation of every settled child's final frame
}

func newSequenceSource(ctx context.Context, rc *RenderContext, children []element.Node, opts RenderOptions) *sequenceSource {
	s := &sequenceSource{
		frames:  make([]Frame, len(children)),
		errs:    make([]error, len(children)),
		doneAt:  make([]bool, len(children)),
		pending: len(children),
	}
	s.cond = sync.NewCond(&s.mu)

	if len(children) == 0 {
		// spec.md §4.C step 2: "rendering an empty sequence yields a
		// single empty frame and completes".
		s.pending = 0
		return s
	}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.ctxErr == nil {
			s.ctxErr = ctx.Err()
			s.version++
			s.cond.Broadcast()
		}
		s.mu.Unlock()
	}()

	for i, child := range children {
		go s.pump(ctx, rc, i, child, opts)
	}
	return s
}

func (s *sequenceSource) pump(ctx context.Context, rc *RenderContext, idx int, child element.Node, opts RenderOptions) {
	src := buildSource(ctx, rc, child, opts)
	for {
		frame, done, err := src.next(ctx)
		s.mu.Lock()
		if err != nil {
			s.errs[idx] = err
			s.doneAt[idx] = true
			s.pending--
			s.version++
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		s.frames[idx] = frame
		if done {
			s.doneAt[idx] = true
			s.pending--
		}
		s.version++
		s.cond.Broadcast()
		s.mu.Unlock()
		if done {
			return
		}
	}
}

func (s *sequenceSource) next(ctx context.Context) (Frame, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.version == s.seen && s.pending > 0 && s.ctxErr == nil {
		s.cond.Wait()
	}
	s.seen = s.version
	if s.ctxErr != nil {
		return nil, true, aierrors.Runtimef(aierrors.CodeCancelled, s.ctxErr, "render: cancelled")
	}
	for _, e := range s.errs {
		if e != nil {
			return nil, true, e
		}
	}

	for s.frozenUpTo < len(s.doneAt) && s.doneAt[s.frozenUpTo] {
		s.frozen = append(s.frozen, s.frames[s.frozenUpTo]...)
		s.frozenUpTo++
	}

	if s.pending == 0 {
		return s.frozen, true, nil
	}

	composite := make(Frame, len(s.frozen), len(s.frozen)+len(s.frames[s.frozenUpTo]))
	copy(composite, s.frozen)
	composite = append(composite, s.frames[s.frozenUpTo]...)
	return composite, false, nil
}

func (s *sequenceSource) appendOnly() (bool, bool) { return false, true }

// eventualSource suspends until the wrapped Eventual resolves, then
// delegates to the resolved value's own source (spec.md §4.C step 4: "the
// sub-tree's frame is the empty string until resolution").
type eventualSource struct {
	ctx   context.Context
	rc    *RenderContext
	opts  RenderOptions
	inner element.Eventual
	child frameSource
}

func newEventualSource(ctx context.Context, rc *RenderContext, inner element.Eventual, opts RenderOptions) *eventualSource {
	return &eventualSource{ctx: ctx, rc: rc, opts: opts, inner: inner}
}

func (e *eventualSource) next(ctx context.Context) (Frame, bool, error) {
	if e.child == nil {
		val, err := e.inner.Await(ctx)
		if err != nil {
			return nil, true, err
		}
		e.child = buildSource(ctx, e.rc, val, e.opts)
	}
	return e.child.next(ctx)
}

func (e *eventualSource) appendOnly() (bool, bool) {
	if e.child == nil {
		return false, false
	}
	if a, ok := e.child.(appendOnlyAware); ok {
		return a.appendOnly()
	}
	return false, true
}

// producerSource drives an element.Producer frame by frame. A Producer's
// default contribution replaces the prior frame entirely; one that
// yields element.AppendOnlySentinel first switches to delta accumulation
// (spec.md §4.C steps 3 and 6).
type producerSource struct {
	ctx          context.Context
	rc           *RenderContext
	opts         RenderOptions
	p            element.Producer
	sawFirst     bool
	isAppendOnly bool
	cumulative   string
}

func newProducerSource(ctx context.Context, rc *RenderContext, p element.Producer, opts RenderOptions) *producerSource {
	return &producerSource{ctx: ctx, rc: rc, opts: opts, p: p}
}

func (ps *producerSource) next(ctx context.Context) (Frame, bool, error) {
	val, done, err := ps.p.Next(ctx)
	if err != nil {
		ps.p.Close()
		if ctx.Err() != nil {
			return nil, true, aierrors.Runtimef(aierrors.CodeCancelled, err, "render: producer cancelled")
		}
		return nil, true, err
	}

	if !ps.sawFirst {
		ps.sawFirst = true
		if element.IsAppendOnlySentinel(val) {
			ps.isAppendOnly = true
			if done {
				return textFrame(""), true, nil
			}
			return ps.next(ctx)
		}
	}

	// spec.md §4.C step 3: "A lazy producer that yields no values before
	// returning behaves as if it yielded the empty string" — val is nil
	// and renders to "".
	text, rerr := renderToString(ctx, ps.rc, val, ps.opts)
	if rerr != nil {
		return nil, true, rerr
	}
	if ps.isAppendOnly {
		ps.cumulative += text
	} else {
		ps.cumulative = text
	}
	return textFrame(ps.cumulative), done, nil
}

func (ps *producerSource) appendOnly() (bool, bool) { return ps.isAppendOnly, ps.sawFirst }

// newElementSource handles *element.Element: Stop-predicate arrest,
// Provider binding (spec.md §4.B), span-per-element instrumentation, and
// invocation (spec.md §4.C "a component whose body throws surfaces as a
// rendering error with the failing element tag attached").
func newElementSource(ctx context.Context, rc *RenderContext, el *element.Element, opts RenderOptions) frameSource {
	if opts.Stop != nil && opts.Stop(el) {
		return &onceSource{frame: Frame{{Element: el}}}
	}

	if binding, ok := element.AsProvider(el); ok {
		childRC := rc.PushContext(binding.Key, binding.Value)
		return buildSource(ctx, childRC, binding.Children, opts)
	}

	spanCtx, span := tracer.Start(ctx, elementSpanName(el),
		trace.WithAttributes(attribute.String("streamtree.element.tag", elementSpanName(el))))

	node, err := el.Invoke(rc.withSpan(span))
	if err != nil {
		span.RecordError(err)
		span.End()
		return &onceSource{err: wrapRenderError(err, el)}
	}

	return &spanClosingSource{
		inner: buildSource(spanCtx, rc, node, opts),
		span:  span,
	}
}

// spanClosingSource ends the element's span once its child source is
// fully drained, so the span covers the whole subtree render, not just
// the synchronous invocation.
type spanClosingSource struct {
	inner  frameSource
	span   trace.Span
	closed bool
}

func (s *spanClosingSource) next(ctx context.Context) (Frame, bool, error) {
	frame, done, err := s.inner.next(ctx)
	if err != nil && !s.closed {
		s.span.RecordError(err)
	}
	if (done || err != nil) && !s.closed {
		s.closed = true
		s.span.End()
	}
	return frame, done, err
}

func (s *spanClosingSource) appendOnly() (bool, bool) {
	if a, ok := s.inner.(appendOnlyAware); ok {
		return a.appendOnly()
	}
	return false, true
}

func elementSpanName(el *element.Element) string {
	switch t := el.Tag().(type) {
	case element.ComponentFunc:
		return "component"
	default:
		_ = t
		return "element"
	}
}

// wrapRenderError implements spec.md §4.C's "a component whose body
// throws surfaces as a rendering error with the failing element tag
// attached".
func wrapRenderError(err error, el *element.Element) error {
	var aerr *aierrors.Error
	if e, ok := err.(*aierrors.Error); ok {
		aerr = e
	} else {
		aerr = aierrors.Runtimef(aierrors.CodeRenderFailed, err, "render: component failed: %v", err)
	}
	return aerr.WithTag(elementSpanName(el))
}
