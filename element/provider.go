package element

// providerTag is the intrinsic sentinel the renderer recognizes to
// rebind a context key for a subtree (spec.md §4.B "Provider").
type providerTag struct{ key Key }

// providerValueKey is the props entry holding a Provider element's bound
// value; it is not exported because collaborators construct providers
// through ProviderFactory.New, never by hand.
const providerValueKey = "__streamtree_provider_value"

// ProviderFactory is returned by a context factory (see
// render.CreateContext) and builds Provider elements that rebind
// Key for their subtree.
type ProviderFactory struct {
	key Key
}

// NewProviderFactory is exported for render, which owns
// CreateContext; element itself never manufactures keys on its own
// initiative.
func NewProviderFactory(key Key) ProviderFactory { return ProviderFactory{key: key} }

// Key returns the context key this factory provides.
func (f ProviderFactory) Key() Key { return f.key }

// New builds a Provider element rebinding f's key to value for children.
func (f ProviderFactory) New(value Node, children ...Node) *Element {
	return MustCreateElement(providerTag{key: f.key}, Props{providerValueKey: value}, children...)
}

// ProviderBinding is what the renderer extracts from a Provider element
// to derive the child context (spec.md §4.B "the renderer uses the
// element's {key, value} to derive the child context").
type ProviderBinding struct {
	Key      Key
	Value    Node
	Children Node
}

// AsProvider reports whether el is a Provider element and, if so,
// returns its binding.
func AsProvider(el *Element) (ProviderBinding, bool) {
	pt, ok := el.tag.(providerTag)
	if !ok {
		return ProviderBinding{}, false
	}
	return ProviderBinding{
		Key:      pt.key,
		Value:    el.props[providerValueKey],
		Children: el.props.Children(),
	}, true
}

func bindProvider(t providerTag, props Props) (func(ctx Context) (Node, error), error) {
	// A Provider's own render is never invoked directly by the
	// structural recursion: the renderer special-cases Provider
	// elements (AsProvider) to derive a child context before recursing
	// into Children. This binding exists only so an Element value is
	// always safely Invoke-able (e.g. by a stop-predicate consumer that
	// chooses to render it anyway).
	return func(ctx Context) (Node, error) {
		return props.Children(), nil
	}, nil
}
