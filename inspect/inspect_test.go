package inspect

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdownAppliesANSIEscapes(t *testing.T) {
	out, err := RenderMarkdown("# Title\n\n**bold** and *italic* and `code`.\n")
	require.NoError(t, err)
	assert.Contains(t, out, ansiBold)
	assert.Contains(t, out, ansiItalic)
	assert.Contains(t, out, ansiReverse)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "code")
}

func TestRenderMarkdownList(t *testing.T) {
	out, err := RenderMarkdown("- one\n- two\n")
	require.NoError(t, err)
	assert.Contains(t, out, "• one")
	assert.Contains(t, out, "• two")
}

// fakeSource is a FrameSource driven from a fixed slice of frames,
// standing in for the *render.Stream an Inspector watches in
// production.
type fakeSource struct {
	frames []string
	i      int
}

func (f *fakeSource) Next(ctx context.Context) (string, bool, error) {
	frame := f.frames[f.i]
	f.i++
	return frame, f.i == len(f.frames), nil
}

func TestInspectorAppendOnlyPrintsDeltasDirectly(t *testing.T) {
	var buf bytes.Buffer
	ins := New(&buf, true)

	final, err := ins.Watch(context.Background(), &fakeSource{frames: []string{"Hello", ", ", "world"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", final)
	assert.Equal(t, "Hello, world\n", buf.String())
}

func TestInspectorCumulativeRedrawsWithoutDuplicating(t *testing.T) {
	var buf bytes.Buffer
	ins := New(&buf, false)

	final, err := ins.Watch(context.Background(), &fakeSource{frames: []string{"Hel", "Hello", "Hello world"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", final)
	assert.Contains(t, buf.String(), "\x1b[")
	assert.True(t, strings.HasSuffix(strings.TrimRight(buf.String(), "\n"), "Hello world"))
}

func TestInspectorMarkdownModeRendersANSI(t *testing.T) {
	var buf bytes.Buffer
	ins := New(&buf, true, WithMarkdown())

	_, err := ins.Watch(context.Background(), &fakeSource{frames: []string{"**bold**"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), ansiBold)
}
