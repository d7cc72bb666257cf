// Package element implements the Node and Element model of the render
// tree (spec.md §3, §4.A): immutable records, tag-based discrimination,
// and the small set of hooks (Eventual, Producer, Indirect) a render
// context needs to recognize while walking a tree. It deliberately does
// not depend on package render — the Context interface
// below is the narrow abstraction those packages satisfy, so that a
// component's render function can take "some context" without element
// importing the concrete context implementation.
package element

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Node is any renderable value: a scalar leaf (string, number, bool,
// nil), an ordered sequence ([]Node), an *Element, an Eventual, or a
// Producer. Node carries no static guarantee beyond "one of those
// shapes"; KindOf performs the discrimination the renderer needs.
type Node = any

// Kind discriminates the dynamic shape of a Node.
type Kind int

const (
	KindLeaf Kind = iota
	KindSequence
	KindElement
	KindEventual
	KindProducer
	KindIndirect
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSequence:
		return "sequence"
	case KindElement:
		return "element"
	case KindEventual:
		return "eventual"
	case KindProducer:
		return "producer"
	case KindIndirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// KindOf classifies n the way the renderer's structural recursion needs
// to (spec.md §4.C step 1-3). Order matters: a *Element could in theory
// also satisfy Eventual/Producer/Indirect if a collaborator embedded it
// oddly, so the concrete shapes are checked before the narrower
// interfaces.
func KindOf(n Node) Kind {
	switch n.(type) {
	case nil:
		return KindLeaf
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return KindLeaf
	case []Node:
		return KindSequence
	case *Element:
		return KindElement
	}
	switch n.(type) {
	case Eventual:
		return KindEventual
	case Producer:
		return KindProducer
	case Indirect:
		return KindIndirect
	}
	return KindLeaf
}

// Eventual is a promise-like single-value future resolving to a Node
// (spec.md §3 "an eventual").
type Eventual interface {
	Await(ctx context.Context) (Node, error)
}

// Producer is a pull-based analogue of an async iterator (spec.md §9:
// "implement as a pull-based object with next() -> (value, done)").
// Next blocks until a value is ready, ctx is done, or the producer is
// exhausted. When done is true, value holds the iterator's final return
// value (spec.md §4.C: "the final return value of the iterator, if any,
// replaces the last frame"); it may be nil.
type Producer interface {
	Next(ctx context.Context) (value Node, done bool, err error)
	// Close releases resources and signals the producer to stop; it is
	// called on cancellation and on early termination by a stop
	// predicate or by memo discarding a consumer (spec.md §5).
	Close()
}

// Indirect is the open-ended hook spec.md §9 calls isIndirectNode: "a
// Node that delegates its rendering to another hidden Node". The core
// calls Resolve exactly once per render observation and never
// interprets the result beyond recursing into it; everything about why
// a collaborator wants indirection is collaborator-defined.
type Indirect interface {
	Resolve() (Node, bool)
}

// IndirectFunc adapts a plain function to Indirect.
type IndirectFunc func() (Node, bool)

func (f IndirectFunc) Resolve() (Node, bool) { return f() }

// IsIndirectNode reports whether n implements Indirect.
func IsIndirectNode(n Node) bool {
	_, ok := n.(Indirect)
	return ok
}

// appendOnlyMarker is an unexported sentinel type so AppendOnlySentinel
// is recognized by its type (IsAppendOnlySentinel), never by string
// equality with some text a producer might legitimately yield.
type appendOnlyMarker struct{}

// AppendOnlySentinel is the module-wide APPEND_ONLY value (spec.md §4.C
// step 6, §6). A Producer declares itself append-only by yielding this
// value as its first yield.
var AppendOnlySentinel Node = appendOnlyMarker{}

// IsAppendOnlySentinel reports whether n is the APPEND_ONLY marker.
func IsAppendOnlySentinel(n Node) bool {
	_, ok := n.(appendOnlyMarker)
	return ok
}

// Key identifies a context slot created by a call to a context factory
// (render.CreateContext). Keys are comparable and process-unique
// (spec.md §4.B, §9: "unique symbol"/"process-unique tokens").
type Key struct {
	id   uint64
	name string
	def  Node
}

var keySeq atomic.Uint64

// NewKey mints a fresh, process-unique context key with the given
// default value. It lives here (rather than in render) because
// the Provider element below needs to embed it without creating an
// import cycle.
func NewKey(name string, def Node) Key {
	return Key{id: keySeq.Add(1), name: name, def: def}
}

func (k Key) String() string { return fmt.Sprintf("ctxkey(%s#%d)", k.name, k.id) }

// Name returns the human-readable name the key was created with.
func (k Key) Name() string { return k.name }

// Default returns the value bound to this key outside any Provider.
func (k Key) Default() Node { return k.def }

// Tag is either a ComponentFunc or one of the intrinsic sentinel tags
// below (fragmentTag, providerTag).
type Tag interface{}

// ComponentFunc is the shape every user-defined component satisfies
// (spec.md §4.A "Components are stateless callables", §6 "A component
// is a callable (props, componentContext) -> Node | AsyncIterator<Node>").
// The AsyncIterator case is represented by returning a Node that
// happens to be a Producer.
type ComponentFunc func(props Props, cc Context) (Node, error)

// Props is the keyed mapping of arbitrary values passed to a component,
// including the distinguished "children" entry.
type Props map[string]any

// ChildrenKey is the distinguished props entry createElement populates
// from its variadic children.
const ChildrenKey = "children"

// Children extracts the children Node from props, or nil if absent.
func (p Props) Children() Node {
	if p == nil {
		return nil
	}
	return p[ChildrenKey]
}

// stamp is the private marker Element carries so IsElement can
// discriminate structurally without relying on a type assertion leaking
// through an interface boundary (spec.md §4.A "a private symbol stamp
// on element records").
type stamp struct{}

var elementStamp = stamp{}

// Context is the narrow surface a component's render function needs
// from its caller: scoped context lookups, the bound render/memo
// helpers, and a logger (spec.md §4.B "ComponentContext"). The concrete
// implementation is render.RenderContext; Context exists here, not
// there, purely to break the element<->render import cycle.
type Context interface {
	// GetContext returns the value bound to key along the provider
	// chain, or key's default if unbound.
	GetContext(key Key) Node
	// Memo returns a Node that is behaviorally equivalent to n but
	// idempotent under this context (spec.md §4.D).
	Memo(n Node) Node
	// Render fully renders n to its final string under this context with
	// default render options: the top-level call's Stop predicate and
	// AppendOnly setting are not carried over.
	Render(n Node) (string, error)
	// Logger returns the logger bound to this context.
	Logger() zerolog.Logger
	// Done returns the cooperative-cancellation channel for the
	// render call this component is participating in.
	Done() <-chan struct{}
	// ID uniquely identifies this context among its siblings and
	// ancestors, distinguishing a provider-scoped derived context from
	// the one it was pushed from. memo keys its per-context cache
	// entries on this (spec.md §4.D "a weak mapping keyed by ctx").
	ID() string
}

// Element is an immutable record carrying a tag, props, and a render
// function bound at construction time (spec.md §3 "Element"). Elements
// are value-equal by identity (spec.md §3 Invariants) — Go pointer
// identity gives us that for free, so Element deliberately has no
// Equal method.
type Element struct {
	tag    Tag
	props  Props
	render func(ctx Context) (Node, error)
	stamp  stamp

	// memoWrapped marks an element produced by memo.Memo so repeated
	// wrapping is a no-op (spec.md §4.D "a flag symbol on memoized
	// elements short-circuits re-wrapping").
	memoWrapped bool
	// debugID is optional, assigned only by memo wrapping, purely for
	// log correlation (spec.md §9 "monotonically increasing integer
	// used to distinguish memoized wrappers in debug output").
	debugID string
}

// Tag returns the element's tag (a ComponentFunc or an intrinsic
// sentinel).
func (e *Element) Tag() Tag { return e.tag }

// Props returns the element's props.
func (e *Element) Props() Props { return e.props }

// IsMemoWrapped reports whether this element was produced by memo.Memo.
func (e *Element) IsMemoWrapped() bool { return e.memoWrapped }

// DebugID returns the correlation id memo assigned this element, or ""
// for an ordinary element (spec.md §9, optional debug aid).
func (e *Element) DebugID() string { return e.debugID }

// NewMemoElement constructs the idempotent wrapper element.md §4.D
// describes. It is exported only for package memo: the wrapper's render
// function is a closure over memo's cache, not a bind(tag, props)
// dispatch, so it bypasses CreateElement. originalTag is preserved so a
// stop predicate comparing tags still recognizes the wrapped element as
// the same logical component (spec.md §8 S7 must keep working under
// memo).
func NewMemoElement(originalTag Tag, render func(ctx Context) (Node, error), debugID string) *Element {
	return &Element{
		tag:         originalTag,
		props:       Props{},
		render:      render,
		stamp:       elementStamp,
		memoWrapped: true,
		debugID:     debugID,
	}
}

// Invoke runs the element's bound render function. Only the renderer
// (package render) and memo (package memo) are expected to call this;
// ordinary callers construct elements and hand them to Render/RenderStream.
func (e *Element) Invoke(ctx Context) (Node, error) { return e.render(ctx) }

// CreateElement constructs an Element by binding tag to props plus the
// given children, merged into props[ChildrenKey] (spec.md §4.A).
// Elements with a nil tag are rejected.
func CreateElement(tag Tag, props Props, children ...Node) (*Element, error) {
	if tag == nil {
		return nil, errNilTag()
	}
	if props == nil {
		props = Props{}
	} else {
		cp := make(Props, len(props)+1)
		for k, v := range props {
			cp[k] = v
		}
		props = cp
	}
	props[ChildrenKey] = mergeChildren(children)

	render, err := bind(tag, props)
	if err != nil {
		return nil, err
	}

	return &Element{tag: tag, props: props, render: render, stamp: elementStamp}, nil
}

// MustCreateElement panics instead of returning an error; convenient for
// example programs and tests building literal trees, mirroring the
// teacher's Must-prefixed constructors used in example code.
func MustCreateElement(tag Tag, props Props, children ...Node) *Element {
	el, err := CreateElement(tag, props, children...)
	if err != nil {
		panic(err)
	}
	return el
}

func mergeChildren(children []Node) Node {
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		seq := make([]Node, len(children))
		copy(seq, children)
		return seq
	}
}

// bind partially applies tag to props, producing the element's render
// function (spec.md §4.A "the element's render field is computed by
// binding tag to props").
func bind(tag Tag, props Props) (func(ctx Context) (Node, error), error) {
	switch t := tag.(type) {
	case ComponentFunc:
		return func(ctx Context) (Node, error) { return t(props, ctx) }, nil
	case fragmentTag:
		return func(ctx Context) (Node, error) { return props.Children(), nil }, nil
	case providerTag:
		return bindProvider(t, props)
	default:
		return nil, errUnknownTag(tag)
	}
}

// IsElement is the structural discriminant spec.md §4.A calls for.
func IsElement(n Node) bool {
	e, ok := n.(*Element)
	return ok && e != nil && e.stamp == elementStamp
}
