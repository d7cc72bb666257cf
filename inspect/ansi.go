// Package inspect implements the terminal inspector collaborator
// (SPEC_FULL.md §3.F): a consumer of render.RenderStream that reprints
// frames to a terminal, redrawing via ANSI cursor control when the
// underlying element tree is not append-only, and rendering Markdown
// output through a goldmark NodeRenderer that emits ANSI escapes instead
// of HTML tags.
package inspect

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// ANSI SGR codes used by ansiRenderer. Named instead of inlined so the
// escape sequences built up across render funcs stay legible.
const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiDim       = "\x1b[2m"
	ansiItalic    = "\x1b[3m"
	ansiUnderline = "\x1b[4m"
	ansiStrike    = "\x1b[9m"
	ansiReverse   = "\x1b[7m"
)

// ansiRenderer is a goldmark renderer.NodeRenderer that emits ANSI
// terminal escapes in place of HTML tags. It mirrors the structure of
// nevindra-oasis's telegramRenderer (frontend/telegram/markdown.go) —
// one render func registered per ast.NodeKind — substituting ANSI SGR
// sequences and plain-text list/quote prefixes for Telegram's HTML
// subset.
type ansiRenderer struct {
	listCounter []int // one counter per nested ordered-list level
}

func (r *ansiRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindDocument, r.renderDocument)
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(ast.KindParagraph, r.renderParagraph)
	reg.Register(ast.KindBlockquote, r.renderBlockquote)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindList, r.renderList)
	reg.Register(ast.KindListItem, r.renderListItem)
	reg.Register(ast.KindTextBlock, r.renderTextBlock)
	reg.Register(ast.KindThematicBreak, r.renderThematicBreak)
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)

	reg.Register(ast.KindText, r.renderText)
	reg.Register(ast.KindString, r.renderString)
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
	reg.Register(ast.KindEmphasis, r.renderEmphasis)
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)

	reg.Register(extast.KindStrikethrough, r.renderStrikethrough)
}

func (r *ansiRenderer) renderDocument(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderHeading(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.WriteString(ansiBold)
	} else {
		w.WriteString(ansiReset)
		w.WriteString("\n\n")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderParagraph(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		w.WriteString("\n\n")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderBlockquote(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.WriteString(ansiDim)
		w.WriteString("| ")
	} else {
		w.WriteString(ansiReset)
		w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := n.(*ast.FencedCodeBlock)
	w.WriteString(ansiDim)
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		w.Write(line.Value(source))
	}
	w.WriteString(ansiReset)
	w.WriteString("\n")
	return ast.WalkSkipChildren, nil
}

func (r *ansiRenderer) renderCodeBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := n.(*ast.CodeBlock)
	w.WriteString(ansiDim)
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		w.Write(line.Value(source))
	}
	w.WriteString(ansiReset)
	w.WriteString("\n")
	return ast.WalkSkipChildren, nil
}

func (r *ansiRenderer) renderList(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	list := n.(*ast.List)
	if entering {
		start := 0
		if list.IsOrdered() {
			start = list.Start
		}
		r.listCounter = append(r.listCounter, start)
	} else {
		r.listCounter = r.listCounter[:len(r.listCounter)-1]
		w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderListItem(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	depth := len(r.listCounter)
	for i := 1; i < depth; i++ {
		w.WriteString("  ")
	}
	top := depth - 1
	if top >= 0 && r.listCounter[top] > 0 {
		w.WriteString(strconv.Itoa(r.listCounter[top]) + ". ")
		r.listCounter[top]++
	} else {
		w.WriteString("• ")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderTextBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering && n.NextSibling() != nil {
		w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderThematicBreak(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.WriteString(ansiDim + "────────────" + ansiReset + "\n\n")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderHTMLBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}

func (r *ansiRenderer) renderText(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	node := n.(*ast.Text)
	w.Write(node.Segment.Value(source))
	if node.SoftLineBreak() {
		w.WriteString(" ")
	}
	if node.HardLineBreak() {
		w.WriteString("\n")
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderString(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	node := n.(*ast.String)
	w.Write(node.Value)
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderCodeSpan(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.WriteString(ansiReverse)
	} else {
		w.WriteString(ansiReset)
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderEmphasis(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	node := n.(*ast.Emphasis)
	code := ansiItalic
	if node.Level == 2 {
		code = ansiBold
	}
	if entering {
		w.WriteString(code)
	} else {
		w.WriteString(ansiReset)
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderLink(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	node := n.(*ast.Link)
	if entering {
		w.WriteString(ansiUnderline)
	} else {
		w.WriteString(ansiReset)
		fmt.Fprintf(w, " (%s)", node.Destination)
	}
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderAutoLink(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	node := n.(*ast.AutoLink)
	w.WriteString(ansiUnderline)
	w.Write(node.URL(source))
	w.WriteString(ansiReset)
	return ast.WalkContinue, nil
}

func (r *ansiRenderer) renderImage(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	node := n.(*ast.Image)
	fmt.Fprintf(w, "[image: %s]", node.Destination)
	return ast.WalkSkipChildren, nil
}

func (r *ansiRenderer) renderRawHTML(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}

func (r *ansiRenderer) renderStrikethrough(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.WriteString(ansiStrike)
	} else {
		w.WriteString(ansiReset)
	}
	return ast.WalkContinue, nil
}

// RenderMarkdown converts md to a terminal-ready string with ANSI SGR
// escapes in place of HTML tags, using the same goldmark construction
// nevindra-oasis's telegram package uses for its HTML output.
func RenderMarkdown(md string) (string, error) {
	r := renderer.NewRenderer(renderer.WithNodeRenderers(util.Prioritized(&ansiRenderer{}, 1)))
	gm := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithRenderer(r),
	)

	var buf bytes.Buffer
	if err := gm.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
