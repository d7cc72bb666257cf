package docqa

import (
	"context"
	"strings"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/element"
)

// Build receives the query and its retrieved context (the concatenated
// text of the top-k chunks) and returns the Node to render in their
// place — ordinarily a provider ChatModel element whose messages splice
// context in as a system or leading user message.
type Build func(query, context string) (element.Node, error)

// queryRender retrieves props["query"]'s top-k chunks from props["store"]
// and hands them to props["build"].
func queryRender(props element.Props, cc element.Context) (element.Node, error) {
	query, _ := props["query"].(string)
	if query == "" {
		return nil, aierrors.Userf(CodeEmptyQuery, "docqa.Query: query prop is required").WithTag("docqa.Query")
	}
	store, _ := props["store"].(*Store)
	if store == nil {
		return nil, aierrors.Userf(aierrors.CodeInvalidProps, "docqa.Query: store prop is required").WithTag("docqa.Query")
	}
	build, _ := props["build"].(Build)
	if build == nil {
		return nil, aierrors.Userf(aierrors.CodeInvalidProps, "docqa.Query: build prop is required").WithTag("docqa.Query")
	}

	ctx, cancel := boundContext(cc)
	defer cancel()

	chunks, err := store.Retrieve(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.Text)
	}

	return build(query, b.String())
}

var queryTag = element.ComponentFunc(queryRender)

// NewQuery constructs the <DocQA query={query}> element SPEC_FULL.md
// §3.F describes.
func NewQuery(store *Store, query string, build Build) (*element.Element, error) {
	return element.CreateElement(queryTag, element.Props{
		"store": store,
		"query": query,
		"build": build,
	})
}

// boundContext derives a context.Context that cancels when cc's render
// call is cancelled, bridging element.Context's narrow Done() channel to
// the context.Context the chromem-go store's methods expect.
func boundContext(cc element.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-cc.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
