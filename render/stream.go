package render

import (
	"context"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/element"
)

// Stream is the pull-based incremental render result RenderStream
// returns (spec.md §9: "implement as a pull-based object with next()").
// It emits cumulative frames by default; when the root is append-only
// (natively, or because RenderOptions.AppendOnly forced it), it emits
// deltas instead (spec.md §4.C step 6, §8 S4/S5).
type Stream struct {
	events chan streamEvent
}

type streamEvent struct {
	frame string
	done  bool
	err   error
}

// Next returns the next frame. done is true on the final frame (or on
// error); the caller's loop ends there and need not call Next again.
func (s *Stream) Next(ctx context.Context) (frame string, done bool, err error) {
	select {
	case <-ctx.Done():
		return "", true, ctx.Err()
	case ev, ok := <-s.events:
		if !ok {
			return "", true, nil
		}
		return ev.frame, ev.done || ev.err != nil, ev.err
	}
}

// RenderStream renders node incrementally under rc (spec.md §4.C). It
// rejects a non-nil opts.Stop: a predicate that can leave opaque
// elements mid-tree has no delta/cumulative text shape to stream, so
// that case goes through RenderParts instead.
func RenderStream(ctx context.Context, rc *RenderContext, node element.Node, opts RenderOptions) (*Stream, error) {
	if opts.Stop != nil {
		return nil, aierrors.Userf(aierrors.CodeInvalidProps, "render: RenderOptions.Stop is not supported by RenderStream")
	}

	events := make(chan streamEvent, 1)
	stream := &Stream{events: events}

	go func() {
		defer close(events)

		src := buildSource(ctx, rc, node, opts)

		frame, done, err := src.next(ctx)
		if err != nil {
			events <- streamEvent{done: true, err: err}
			return
		}

		appendOnly := opts.AppendOnly
		if a, ok := src.(appendOnlyAware); ok {
			if native, known := a.appendOnly(); known && native {
				appendOnly = true
			}
		}

		previous := ""
		for {
			current := frame.String()
			out := current
			if appendOnly {
				out = diffSuffix(previous, current)
			}
			previous = current
			events <- streamEvent{frame: out, done: done}
			if done {
				return
			}
			frame, done, err = src.next(ctx)
			if err != nil {
				events <- streamEvent{done: true, err: err}
				return
			}
		}
	}()

	return stream, nil
}

// diffSuffix returns the suffix of next beyond prev. Every cumulative
// frame the engine produces only ever grows by concatenation (spec.md
// §4.C invariant 2), so next is always prev plus some tail; diffSuffix
// recovers that tail for append-only output mode.
func diffSuffix(prev, next string) string {
	if len(next) >= len(prev) && next[:len(prev)] == prev {
		return next[len(prev):]
	}
	return next
}
