package similarity

import (
	"encoding/json"
	"os"

	"github.com/coder/hnsw"
)

type cacheFile struct {
	Model   string       `json:"model"`
	Entries []cacheEntry `json:"entries"`
}

type cacheEntry struct {
	Hash      string    `json:"hash"`
	Row       string    `json:"row"`
	Embedding []float32 `json:"embedding"`
}

// SaveCache writes the indexed rows and their vectors to disk so later
// runs against the same sample skip re-embedding.
func (g *Guard) SaveCache(path string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entries := make([]cacheEntry, 0, len(g.rows))
	for hash, row := range g.rows {
		vec, ok := g.graph.Lookup(hash)
		if !ok {
			continue
		}
		entries = append(entries, cacheEntry{
			Hash:      hash,
			Row:       row,
			Embedding: vec,
		})
	}

	data, err := json.Marshal(cacheFile{
		Model:   g.embedder.Model(),
		Entries: entries,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadCache restores a previously saved index from disk. A cache written
// by a different embedding model is silently skipped.
func (g *Guard) LoadCache(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return err
	}

	if cf.Model != g.embedder.Model() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]hnsw.Node[string], 0, len(cf.Entries))
	for _, e := range cf.Entries {
		nodes = append(nodes, hnsw.MakeNode(e.Hash, e.Embedding))
		g.rows[e.Hash] = e.Row
	}

	if len(nodes) > 0 {
		g.graph.Add(nodes...)
	}

	return nil
}
