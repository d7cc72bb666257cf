package docqa

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/element"
)

func TestHashEmbedIsNormalized(t *testing.T) {
	vec, err := hashEmbed(context.Background(), "the quick brown fox")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestHashEmbedEmptyTextIsZeroVector(t *testing.T) {
	vec, err := hashEmbed(context.Background(), "")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(config.DocQAConfig{CollectionName: "test", TopK: 2})
	require.NoError(t, err)
	return store
}

func TestStoreIndexAndRetrieve(t *testing.T) {
	store := newTestStore(t)
	err := store.Index(context.Background(), []Chunk{
		{ID: "1", Text: "the capital of France is Paris"},
		{ID: "2", Text: "the capital of Japan is Tokyo"},
		{ID: "3", Text: "bananas are yellow"},
	})
	require.NoError(t, err)

	chunks, err := store.Retrieve(context.Background(), "capital of France", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "1", chunks[0].ID)
}

func TestStoreRetrieveOnEmptyStoreReturnsNil(t *testing.T) {
	store := newTestStore(t)
	chunks, err := store.Retrieve(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStoreRetrieveRejectsEmptyQuery(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Retrieve(context.Background(), "", 0)
	require.Error(t, err)
}

// fakeContext is a minimal element.Context stub; queryRender only uses
// Done(), so the rest return zero values.
type fakeContext struct {
	done chan struct{}
}

func (f *fakeContext) GetContext(key element.Key) element.Node { return nil }
func (f *fakeContext) Memo(n element.Node) element.Node        { return n }
func (f *fakeContext) Render(n element.Node) (string, error)   { return "", nil }
func (f *fakeContext) Logger() zerolog.Logger                  { return zerolog.Nop() }
func (f *fakeContext) Done() <-chan struct{}                   { return f.done }
func (f *fakeContext) ID() string                              { return "fake" }

func TestNewQueryRendersRetrievedContext(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Index(context.Background(), []Chunk{
		{ID: "1", Text: "the capital of France is Paris"},
	}))

	var gotQuery, gotContext string
	build := func(query, ctx string) (element.Node, error) {
		gotQuery, gotContext = query, ctx
		return "answer", nil
	}

	el, err := NewQuery(store, "capital of France", build)
	require.NoError(t, err)

	result, err := el.Invoke(&fakeContext{done: make(chan struct{})})
	require.NoError(t, err)
	assert.Equal(t, "answer", result)
	assert.Equal(t, "capital of France", gotQuery)
	assert.Contains(t, gotContext, "Paris")
}

func TestNewQueryRejectsMissingStore(t *testing.T) {
	el, err := NewQuery(nil, "q", func(query, ctx string) (element.Node, error) { return "", nil })
	require.NoError(t, err)

	_, err = el.Invoke(&fakeContext{done: make(chan struct{})})
	require.Error(t, err)
}
