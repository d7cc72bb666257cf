package memo

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kadirpekel/streamtree/element"
)

type stubContext struct {
	id string
}

func (s stubContext) GetContext(key element.Key) element.Node { return key.Default() }
func (s stubContext) Memo(n element.Node) element.Node        { return n }
func (s stubContext) Render(n element.Node) (string, error)   { return "", nil }
func (s stubContext) Logger() zerolog.Logger                  { return zerolog.Nop() }
func (s stubContext) Done() <-chan struct{}                   { return nil }
func (s stubContext) ID() string                              { return s.id }

func TestWrapElementEvaluatesOnceUnderOneContext(t *testing.T) {
	var calls int
	tag := element.ComponentFunc(func(props element.Props, cc element.Context) (element.Node, error) {
		calls++
		return "value", nil
	})
	el := element.MustCreateElement(tag, element.Props{})

	cache := NewCache()
	wrapped := Wrap(cache, el).(*element.Element)

	out1, err := wrapped.Invoke(stubContext{id: "ctx-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out2, err := wrapped.Invoke(stubContext{id: "ctx-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out1 != "value" || out2 != "value" {
		t.Errorf("got %v, %v; want both value", out1, out2)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// TestWrapElementReevaluatesUnderDifferentContext is the regression test
// for spec.md §4.D Scope: "a node memoized under one context and
// rendered under another re-evaluates". The weak mapping memo keeps is
// keyed by context, not by the wrapped element alone.
func TestWrapElementReevaluatesUnderDifferentContext(t *testing.T) {
	var calls int
	tag := element.ComponentFunc(func(props element.Props, cc element.Context) (element.Node, error) {
		calls++
		return "value", nil
	})
	el := element.MustCreateElement(tag, element.Props{})

	cache := NewCache()
	wrapped := Wrap(cache, el).(*element.Element)

	if _, err := wrapped.Invoke(stubContext{id: "ctx-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := wrapped.Invoke(stubContext{id: "ctx-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second call under ctx-1 must still replay rather than re-evaluate.
	if _, err := wrapped.Invoke(stubContext{id: "ctx-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one per distinct context)", calls)
	}
}

func TestWrapElementIsIdempotentUnderRewrap(t *testing.T) {
	tag := element.ComponentFunc(func(props element.Props, cc element.Context) (element.Node, error) {
		return "x", nil
	})
	el := element.MustCreateElement(tag, element.Props{})
	cache := NewCache()

	once := Wrap(cache, el).(*element.Element)
	twice := Wrap(cache, once).(*element.Element)
	if once != twice {
		t.Error("Wrap(cache, Wrap(cache, el)) produced a distinct element, want the same pointer")
	}
}

func TestWrapElementPreservesTagForStopPredicates(t *testing.T) {
	tag := element.ComponentFunc(func(props element.Props, cc element.Context) (element.Node, error) {
		return "x", nil
	})
	el := element.MustCreateElement(tag, element.Props{})
	cache := NewCache()

	wrapped := Wrap(cache, el).(*element.Element)
	fn, ok := wrapped.Tag().(element.ComponentFunc)
	if !ok || fn == nil {
		t.Error("wrapped.Tag() did not preserve the original ComponentFunc")
	}
}

type countingProducer struct {
	values []element.Node
	pulls  int
	idx    int
}

func (p *countingProducer) Next(ctx context.Context) (element.Node, bool, error) {
	p.pulls++
	if p.idx >= len(p.values) {
		return nil, true, nil
	}
	v := p.values[p.idx]
	p.idx++
	return v, p.idx == len(p.values), nil
}

func (p *countingProducer) Close() {}

func TestWrapProducerSharesUnderlyingPulls(t *testing.T) {
	inner := &countingProducer{values: []element.Node{"a", "b", "c"}}
	cache := NewCache()

	view1 := Wrap(cache, inner).(element.Producer)
	view2 := Wrap(cache, inner).(element.Producer)

	ctx := context.Background()
	v1a, done1a, err := view1.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done1a {
		t.Fatal("view1.Next() reported done on the first pull")
	}
	if v1a != "a" {
		t.Errorf("v1a = %v, want a", v1a)
	}

	// view2 joins late and replays the buffered frame instead of causing
	// a second underlying pull.
	v2a, done2a, err := view2.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done2a {
		t.Fatal("view2.Next() reported done on the first pull")
	}
	if v2a != "a" {
		t.Errorf("v2a = %v, want a", v2a)
	}

	if inner.pulls != 1 {
		t.Errorf("inner.pulls = %d, want 1", inner.pulls)
	}
}
