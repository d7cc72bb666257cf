// Package docqa implements the retrieval-augmented document-QA
// collaborator (SPEC_FULL.md §3.F): a <DocQA query={...}> component that
// retrieves the top-k most relevant chunks for a query from an embedded
// chromem-go store and splices them into a provider ChatModel element's
// context.
package docqa

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/config"
)

// Collaborator error codes (aierrors.go: "collaborators mint their own
// codes starting at CollaboratorCodeBase"); offset by 100 so docqa's
// codes don't collide with toolrun's.
const (
	CodeIndexFailed    aierrors.Code = aierrors.CollaboratorCodeBase + 100 + iota
	CodeRetrieveFailed
	CodeEmptyQuery
)

// Chunk is one unit of retrievable text.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Store is an embedded, optionally file-persisted chromem-go collection,
// grounded directly on hector's pkg/vector.ChromemProvider: the same
// lazy-create-directory-and-load-or-create-db persistence shape, and the
// same chromem.Document{ID, Content, Metadata} / chromem.Result{ID,
// Similarity, Content, Metadata} conversion — narrowed from
// ChromemProvider's general multi-collection Provider interface down to
// the one collection a DocQA component needs, and using hashEmbed instead
// of externally precomputed vectors since docqa has no embedder
// collaborator of its own to delegate to.
type Store struct {
	mu          sync.Mutex
	db          *chromem.DB
	col         *chromem.Collection
	persistPath string
	topK        int
}

// New opens (or creates) the collection named by cfg.CollectionName,
// loading it from cfg.PersistPath if a database file already exists
// there (mirrors ChromemProvider's load-existing-or-create-new logic).
func New(cfg config.DocQAConfig) (*Store, error) {
	var db *chromem.DB

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0o755); err != nil {
			return nil, fmt.Errorf("docqa: failed to create persist directory: %w", err)
		}
		dbPath := filepath.Join(cfg.PersistPath, "docqa.gob")
		if _, statErr := os.Stat(dbPath); statErr == nil {
			loaded, err := chromem.NewPersistentDB(dbPath, false)
			if err != nil {
				return nil, fmt.Errorf("docqa: failed to load persisted store: %w", err)
			}
			db = loaded
		} else {
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(cfg.CollectionName, nil, hashEmbed)
	if err != nil {
		return nil, fmt.Errorf("docqa: failed to open collection %q: %w", cfg.CollectionName, err)
	}

	return &Store{db: db, col: col, persistPath: cfg.PersistPath, topK: cfg.TopK}, nil
}

// Index adds chunks to the store, persisting afterward if PersistPath is
// configured.
func (s *Store) Index(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{ID: c.ID, Content: c.Text, Metadata: c.Metadata}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return aierrors.Runtimef(CodeIndexFailed, err, "docqa: failed to index %d chunks", len(chunks))
	}
	return s.persist()
}

// Retrieve returns the topK chunks most relevant to query (or s.topK if
// topK <= 0).
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]Chunk, error) {
	if query == "" {
		return nil, aierrors.Userf(CodeEmptyQuery, "docqa: query must not be empty")
	}
	if topK <= 0 {
		topK = s.topK
	}

	s.mu.Lock()
	count := s.col.Count()
	s.mu.Unlock()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, aierrors.Runtimef(CodeRetrieveFailed, err, "docqa: retrieval failed for query %q", query)
	}

	out := make([]Chunk, len(results))
	for i, r := range results {
		out[i] = Chunk{ID: r.ID, Text: r.Content, Metadata: r.Metadata}
	}
	return out, nil
}

// Close persists the store if PersistPath is configured.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

func (s *Store) persist() error {
	if s.persistPath == "" {
		return nil
	}
	dbPath := filepath.Join(s.persistPath, "docqa.gob")
	//nolint:staticcheck // Export is chromem-go's documented persistence API.
	if err := s.db.Export(dbPath, false, ""); err != nil {
		return fmt.Errorf("docqa: failed to persist store: %w", err)
	}
	return nil
}
