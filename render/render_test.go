package render

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/element"
)

func newRC() *RenderContext {
	return CreateRenderContext(Options{})
}

func TestRenderLeaf(t *testing.T) {
	out, err := Render(context.Background(), newRC(), "hello", RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("Render() = %q, want %q", out, "hello")
	}
}

func TestRenderSequenceConcatenatesInOrder(t *testing.T) {
	out, err := Render(context.Background(), newRC(), []element.Node{"a", "b", "c"}, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "abc" {
		t.Errorf("Render() = %q, want %q", out, "abc")
	}
}

func TestRenderEmptySequence(t *testing.T) {
	out, err := Render(context.Background(), newRC(), []element.Node{}, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("Render() = %q, want empty string", out)
	}
}

func greet(props element.Props, cc element.Context) (element.Node, error) {
	return []element.Node{"hi ", props["name"]}, nil
}

func TestRenderElementInvokesComponent(t *testing.T) {
	el := element.MustCreateElement(element.ComponentFunc(greet), element.Props{"name": "world"})
	out, err := Render(context.Background(), newRC(), el, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hi world" {
		t.Errorf("Render() = %q, want %q", out, "hi world")
	}
}

var errFailingComponent = errorString("component boom")

type errorString string

func (e errorString) Error() string { return string(e) }

func failingComponent(props element.Props, cc element.Context) (element.Node, error) {
	return nil, errFailingComponent
}

func TestRenderElementErrorCarriesTag(t *testing.T) {
	el := element.MustCreateElement(element.ComponentFunc(failingComponent), element.Props{})
	_, err := Render(context.Background(), newRC(), el, RenderOptions{})
	if err == nil {
		t.Fatal("expected an error")
	}
	var aerr *aierrors.Error
	if !errors.As(err, &aerr) || aerr.Tag == "" {
		t.Errorf("err = %v, want an *aierrors.Error with a non-empty Tag", err)
	}
}

type staticEventual struct {
	value element.Node
}

func (s staticEventual) Await(ctx context.Context) (element.Node, error) { return s.value, nil }

func TestRenderEventual(t *testing.T) {
	out, err := Render(context.Background(), newRC(), staticEventual{value: "resolved"}, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "resolved" {
		t.Errorf("Render() = %q, want %q", out, "resolved")
	}
}

type sliceProducer struct {
	values []element.Node
	idx    int
}

func (p *sliceProducer) Next(ctx context.Context) (element.Node, bool, error) {
	if p.idx >= len(p.values) {
		return nil, true, nil
	}
	v := p.values[p.idx]
	p.idx++
	return v, p.idx == len(p.values), nil
}

func (p *sliceProducer) Close() {}

func TestRenderProducerCumulativeReplacesEachFrame(t *testing.T) {
	p := &sliceProducer{values: []element.Node{"a", "ab", "abc"}}
	out, err := Render(context.Background(), newRC(), p, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "abc" {
		t.Errorf("Render() = %q, want %q", out, "abc")
	}
}

func drainStream(t *testing.T, stream *Stream) []string {
	t.Helper()
	var frames []string
	ctx := context.Background()
	for {
		frame, done, err := stream.Next(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		frames = append(frames, frame)
		if done {
			return frames
		}
	}
}

func TestRenderStreamAppendOnlyYieldsDeltas(t *testing.T) {
	p := &sliceProducer{values: []element.Node{element.AppendOnlySentinel, "x", "y", "z"}}
	stream, err := RenderStream(context.Background(), newRC(), p, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frames := drainStream(t, stream)
	want := []string{"x", "y", "z"}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %v, want %v", frames, want)
	}
}

func TestRenderStreamCumulativeYieldsFullFrames(t *testing.T) {
	p := &sliceProducer{values: []element.Node{"a", "ab", "abc"}}
	stream, err := RenderStream(context.Background(), newRC(), p, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frames := drainStream(t, stream)
	want := []string{"a", "ab", "abc"}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %v, want %v", frames, want)
	}
}

func TestRenderPartsStopsAtPredicate(t *testing.T) {
	inner := element.MustCreateElement(element.ComponentFunc(greet), element.Props{"name": "world"})
	seq := []element.Node{"prefix ", inner}

	stopped := false
	parts, err := RenderParts(context.Background(), newRC(), seq, RenderOptions{
		Stop: func(el *element.Element) bool {
			stopped = true
			return true
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stopped {
		t.Error("Stop predicate was never invoked")
	}
	if len(parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(parts))
	}
	if parts[0].Text != "prefix " {
		t.Errorf("parts[0].Text = %q, want %q", parts[0].Text, "prefix ")
	}
	if parts[1].Element != inner {
		t.Errorf("parts[1].Element = %v, want the same pointer as inner", parts[1].Element)
	}
}

func TestProviderRebindsContext(t *testing.T) {
	key, factory := CreateContext("name", "default")

	reader := element.ComponentFunc(func(props element.Props, cc element.Context) (element.Node, error) {
		return cc.GetContext(key), nil
	})

	el := factory.New("bound", element.MustCreateElement(reader, element.Props{}))
	out, err := Render(context.Background(), newRC(), el, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "bound" {
		t.Errorf("Render() = %q, want %q", out, "bound")
	}
}

// TestMemoUnderDifferentContextReevaluates is the end-to-end regression
// test for spec.md §4.D Scope: a node memoized under one context and
// then rendered under a context derived via PushContext (e.g. a sibling
// on the other side of a Provider) must re-evaluate rather than replay
// the first context's cached result.
func TestMemoUnderDifferentContextReevaluates(t *testing.T) {
	var calls int
	tag := element.ComponentFunc(func(props element.Props, cc element.Context) (element.Node, error) {
		calls++
		return "v", nil
	})
	el := element.MustCreateElement(tag, element.Props{})

	rc := newRC()
	memoed := rc.Memo(el)

	if _, err := Render(context.Background(), rc, memoed, RenderOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	child := rc.PushContext(element.NewKey("unrelated", nil), "x")
	if _, err := Render(context.Background(), child, memoed, RenderOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one per distinct rendering context)", calls)
	}
}

// blockingLeaf is an Eventual whose Await blocks until release is
// closed, used to force a slower left sibling in
// TestSequenceFrameIsPrefixMonotone.
type blockingLeaf struct {
	release chan struct{}
	text    string
}

func (b blockingLeaf) Await(ctx context.Context) (element.Node, error) {
	<-b.release
	return b.text, nil
}

// TestSequenceFrameIsPrefixMonotone exercises spec.md §4.C step 2 / §8
// invariant 2: a sequence's emitted frame must never go backwards under
// the prefix relation, even when a right sibling settles before a left
// one does.
func TestSequenceFrameIsPrefixMonotone(t *testing.T) {
	release := make(chan struct{})
	seq := []element.Node{
		blockingLeaf{release: release, text: "a"},
		"1",
	}

	rc := newRC()
	stream, err := RenderStream(context.Background(), rc, seq, RenderOptions{AppendOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mu sync.Mutex
	var frames []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := context.Background()
		for {
			frame, d, ferr := stream.Next(ctx)
			if ferr != nil {
				t.Errorf("unexpected error: %v", ferr)
				return
			}
			mu.Lock()
			frames = append(frames, frame)
			mu.Unlock()
			if d {
				return
			}
		}
	}()

	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	full := ""
	for _, f := range frames {
		full += f
	}
	if full != "a1" {
		t.Fatalf("final text = %q, want %q", full, "a1")
	}
}
