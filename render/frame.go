package render

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/streamtree/element"
)

// Part is one piece of a Frame: either a text run or, when a stop
// predicate arrested expansion, the opaque *element.Element itself
// (spec.md §4.C "Return shape when stop is present").
type Part struct {
	Text    string
	Element *element.Element
}

// Frame is the ordered composition of Parts a sub-tree currently
// contributes (spec.md GLOSSARY "Frame").
type Frame []Part

// String flattens a Frame to its textual content, dropping any opaque
// elements. Used whenever the caller asked for pure text (no Stop
// predicate was supplied, so no Part.Element should ever be present,
// but the flattening is total regardless).
func (f Frame) String() string {
	var b strings.Builder
	for _, p := range f {
		if p.Element == nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func textFrame(s string) Frame { return Frame{{Text: s}} }

// stringifyLeaf implements spec.md §4.C step 1: strings verbatim,
// nullish/bool empty, numbers stringified.
func stringifyLeaf(n element.Node) string {
	switch v := n.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
