package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

var errNoEmbeddingFunc = errors.New("chromem index only accepts precomputed vectors")

// ChromemIndex is an in-process VectorIndex with one collection per kind, so
// belief and memory vectors of different dimensions never share a collection.
// Rows keep their vector_ref across restarts, so a server index must persist.
type ChromemIndex struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromemIndex opens an index persisted under path. An empty path keeps
// everything in memory, which only suits tests and dry runs.
func NewChromemIndex(path string) (*ChromemIndex, error) {
	db := chromem.NewDB()
	if path != "" {
		var err error
		if db, err = chromem.NewPersistentDB(path, false); err != nil {
			return nil, fmt.Errorf("open chromem index %s: %w", path, err)
		}
	}
	c := &ChromemIndex{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}
	for name, col := range db.ListCollections() {
		c.collections[name] = col
	}
	return c, nil
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

func (c *ChromemIndex) collection(kind string) (*chromem.Collection, error) {
	if kind == "" {
		kind = "belief"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.collections[kind]; ok {
		return col, nil
	}
	col, err := c.db.GetOrCreateCollection(kind, nil, refuseEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	c.collections[kind] = col
	return col, nil
}

func (c *ChromemIndex) Upsert(ctx context.Context, vectorID string, vector []float32, metadata map[string]string) error {
	col, err := c.collection(metadata["kind"])
	if err != nil {
		return err
	}
	content := metadata["text"]
	if content == "" {
		content = vectorID
	}

	return col.AddDocument(ctx, chromem.Document{
		ID:        vectorID,
		Content:   content,
		Metadata:  metadata,
		Embedding: vector,
	})
}

func (c *ChromemIndex) Count(_ context.Context, kind string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind != "" {
		col, ok := c.collections[kind]
		if !ok {
			return 0, nil
		}
		return col.Count(), nil
	}
	total := 0
	for _, col := range c.collections {
		total += col.Count()
	}
	return total, nil
}
