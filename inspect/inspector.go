package inspect

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// FrameSource is the subset of *render.Stream's method set Inspector
// needs. *render.Stream satisfies it without any wiring on render's
// side; tests can satisfy it with a fake instead of driving a real
// element tree through render.RenderStream.
type FrameSource interface {
	Next(ctx context.Context) (frame string, done bool, err error)
}

// Inspector watches a FrameSource (ordinarily the *render.Stream
// returned by render.RenderStream) and reprints its frames to an
// io.Writer (ordinarily os.Stdout), the way cmd/hector/chat_direct.go
// prints assistant turns interactively — except chat_direct.go gets
// away with a bare fmt.Print because A2A task deltas are append-only by
// construction; RenderStream makes no such guarantee for an arbitrary
// element tree, so Inspector redraws via ANSI cursor control whenever it
// was not constructed in append-only mode, or markdown rendering is on.
type Inspector struct {
	w          io.Writer
	markdown   bool
	buffer     strings.Builder
	appendOnly bool
	lastLines  int
	printed    bool
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithMarkdown renders each settled frame through RenderMarkdown before
// printing it, instead of printing raw text.
func WithMarkdown() Option {
	return func(i *Inspector) { i.markdown = true }
}

// New constructs an Inspector writing to w. appendOnly should match the
// render.RenderOptions.AppendOnly (or the auto-detected append-only-ness
// render.RenderStream settles on) of the stream it will watch: true
// means each Next() frame is an incremental delta to append, false
// means each frame is the full cumulative text so far.
func New(w io.Writer, appendOnly bool, opts ...Option) *Inspector {
	ins := &Inspector{w: w, appendOnly: appendOnly}
	for _, opt := range opts {
		opt(ins)
	}
	return ins
}

// Watch drains source to completion, reprinting after every frame, and
// returns the final accumulated text (or the error the stream settled
// on, mirroring render.Stream.Next's own (string, bool, error) shape).
func (i *Inspector) Watch(ctx context.Context, source FrameSource) (string, error) {
	for {
		frame, done, err := source.Next(ctx)
		if err != nil {
			return i.buffer.String(), err
		}

		if i.appendOnly {
			i.buffer.WriteString(frame)
		} else {
			i.buffer.Reset()
			i.buffer.WriteString(frame)
		}

		if err := i.redraw(frame); err != nil {
			return i.buffer.String(), err
		}

		if done {
			fmt.Fprintln(i.w)
			return i.buffer.String(), nil
		}
	}
}

// redraw prints the current buffer. Plain append-only text needs no
// redraw at all: every character already on screen is still correct, so
// it prints only the frame just appended. Everything else — a
// cumulative (non-append-only) stream, or markdown mode re-parsing the
// whole buffer on every tick because a half-open ``` fence renders
// differently once closed — erases the previously printed output first.
func (i *Inspector) redraw(frame string) error {
	if i.appendOnly && !i.markdown {
		fmt.Fprint(i.w, frame)
		return nil
	}

	text := i.buffer.String()
	if i.markdown {
		rendered, err := RenderMarkdown(text)
		if err != nil {
			return err
		}
		text = rendered
	}

	if i.printed {
		i.clear(i.lastLines)
	}
	fmt.Fprint(i.w, text)
	i.lastLines = strings.Count(text, "\n")
	i.printed = true
	return nil
}

// clear moves the cursor up n lines, returns it to column zero, and
// erases from there to the end of the screen — the standard ANSI redraw
// idiom for terminal UIs that reprint rather than append (CSI n A =
// cursor up, CR = column zero, CSI J = erase display from cursor). The
// carriage return matters even when n is zero: the previous print never
// ended in a newline, so the cursor sits mid-line until this resets it.
func (i *Inspector) clear(n int) {
	if n > 0 {
		fmt.Fprintf(i.w, "\x1b[%dA", n)
	}
	fmt.Fprint(i.w, "\r\x1b[J")
}
