package element

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type stubContext struct{}

func (stubContext) GetContext(key Key) Node       { return key.Default() }
func (stubContext) Memo(n Node) Node              { return n }
func (stubContext) Render(n Node) (string, error) { return "", nil }
func (stubContext) Logger() zerolog.Logger        { return zerolog.Nop() }
func (stubContext) Done() <-chan struct{}         { return nil }
func (stubContext) ID() string                    { return "stub" }

func echoComponent(props Props, cc Context) (Node, error) {
	return props["text"], nil
}

func TestKindOf(t *testing.T) {
	el := MustCreateElement(ComponentFunc(echoComponent), Props{"text": "x"})
	var indirectFn IndirectFunc = func() (Node, bool) { return "resolved", true }

	tests := []struct {
		name string
		node Node
		want Kind
	}{
		{"nil leaf", nil, KindLeaf},
		{"string leaf", "hi", KindLeaf},
		{"int leaf", 42, KindLeaf},
		{"bool leaf", true, KindLeaf},
		{"sequence", []Node{"a", "b"}, KindSequence},
		{"element", el, KindElement},
		{"indirect", indirectFn, KindIndirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.node); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.node, got, tt.want)
			}
		})
	}
}

func TestCreateElementRejectsNilTag(t *testing.T) {
	if _, err := CreateElement(nil, nil); err == nil {
		t.Fatal("expected an error for a nil tag")
	}
}

func TestCreateElementMergesChildren(t *testing.T) {
	el, err := CreateElement(ComponentFunc(echoComponent), Props{}, "a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	children := el.Props().Children()
	if !reflect.DeepEqual(children, []Node{"a", "b"}) {
		t.Errorf("children = %v, want [a b]", children)
	}
}

func TestElementInvoke(t *testing.T) {
	el := MustCreateElement(ComponentFunc(echoComponent), Props{"text": "hello"})
	out, err := el.Invoke(stubContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("Invoke() = %v, want hello", out)
	}
}

func TestIsElement(t *testing.T) {
	el := MustCreateElement(ComponentFunc(echoComponent), Props{})
	if !IsElement(el) {
		t.Error("IsElement(el) = false, want true")
	}
	if IsElement("not an element") {
		t.Error("IsElement(string) = true, want false")
	}
	if IsElement(nil) {
		t.Error("IsElement(nil) = true, want false")
	}
}

func TestFragmentPassesChildrenThrough(t *testing.T) {
	frag := CreateFragment("a", "b")
	out, err := frag.Invoke(stubContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out, []Node{"a", "b"}) {
		t.Errorf("Invoke() = %v, want [a b]", out)
	}
}

func TestAppendOnlySentinel(t *testing.T) {
	if !IsAppendOnlySentinel(AppendOnlySentinel) {
		t.Error("IsAppendOnlySentinel(AppendOnlySentinel) = false, want true")
	}
	if IsAppendOnlySentinel("text") {
		t.Error("IsAppendOnlySentinel(\"text\") = true, want false")
	}
}

func TestContextKeyDefault(t *testing.T) {
	key := NewKey("greeting", "hello")
	if key.Default() != "hello" {
		t.Errorf("Default() = %v, want hello", key.Default())
	}
	if key.Name() != "greeting" {
		t.Errorf("Name() = %v, want greeting", key.Name())
	}
}

func TestProviderRoundTrip(t *testing.T) {
	key := NewKey("name", "default")
	factory := NewProviderFactory(key)
	el := factory.New("bound-value", "child")

	binding, ok := AsProvider(el)
	if !ok {
		t.Fatal("AsProvider() ok = false, want true")
	}
	if binding.Key != key {
		t.Errorf("binding.Key = %v, want %v", binding.Key, key)
	}
	if binding.Value != "bound-value" {
		t.Errorf("binding.Value = %v, want bound-value", binding.Value)
	}
	if binding.Children != "child" {
		t.Errorf("binding.Children = %v, want child", binding.Children)
	}
}

func TestMemoElementPreservesOriginalTag(t *testing.T) {
	tag := ComponentFunc(echoComponent)
	original := MustCreateElement(tag, Props{"text": "x"})

	wrapped := NewMemoElement(original.Tag(), func(ctx Context) (Node, error) {
		return "wrapped", nil
	}, "debug-1")

	if !wrapped.IsMemoWrapped() {
		t.Error("IsMemoWrapped() = false, want true")
	}
	if wrapped.DebugID() != "debug-1" {
		t.Errorf("DebugID() = %v, want debug-1", wrapped.DebugID())
	}
	out, err := wrapped.Invoke(stubContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "wrapped" {
		t.Errorf("Invoke() = %v, want wrapped", out)
	}
}
