// Package similarity screens generated rows against the sample they were
// modeled on, flagging near-duplicates by embedding distance. It is an
// advisory layer: screening failures never stall generation.
package similarity

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/hnsw"
	"golang.org/x/sync/errgroup"

	"tabforge"
)

const (
	// primeBatchSize is how many rows go into one embeddings request.
	primeBatchSize = 32

	// primeParallelism bounds concurrent embeddings requests while priming.
	primeParallelism = 4
)

// Guard flags generated rows that sit too close to a sample row in
// embedding space. The action decides what happens to a flagged row:
// ActionWarn logs it and keeps it, ActionReject drops it.
type Guard struct {
	embedder  *Embedder
	threshold float64
	action    string

	mu    sync.RWMutex
	graph *hnsw.Graph[string] // keyed by row hash
	rows  map[string]string   // hash -> sample row text
}

// NewGuard creates a guard with the given policy. It holds no vectors
// until Prime is called.
func NewGuard(embedder *Embedder, threshold float64, action string) *Guard {
	return &Guard{
		embedder:  embedder,
		threshold: threshold,
		action:    action,
		graph:     hnsw.NewGraph[string](),
		rows:      make(map[string]string),
	}
}

// Prime embeds the given sample rows and indexes them. Rows are embedded
// in batches over a bounded worker group; any batch failure aborts the
// prime and leaves the index unchanged.
func (g *Guard) Prime(ctx context.Context, rows []string) error {
	// Drop empties, duplicates and rows already indexed, e.g. restored
	// from a cache file. First occurrence order is kept.
	seen := make(map[string]bool, len(rows))
	var todo []string
	g.mu.RLock()
	for _, row := range rows {
		if row == "" || seen[row] {
			continue
		}
		seen[row] = true
		if _, exists := g.graph.Lookup(rowHash(row)); exists {
			continue
		}
		todo = append(todo, row)
	}
	g.mu.RUnlock()
	if len(todo) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(todo)+primeBatchSize-1)/primeBatchSize)
	for i := 0; i < len(todo); i += primeBatchSize {
		end := i + primeBatchSize
		if end > len(todo) {
			end = len(todo)
		}
		batches = append(batches, todo[i:end])
	}

	vectors := make([][][]float32, len(batches))
	grp, gCtx := errgroup.WithContext(ctx)
	grp.SetLimit(primeParallelism)
	for slot, batch := range batches {
		slot, batch := slot, batch
		grp.Go(func() error {
			vecs, err := g.embedder.EmbedBatch(gCtx, batch)
			if err != nil {
				return fmt.Errorf("embed sample rows: %w", err)
			}
			vectors[slot] = vecs
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	// Single graph insertion under one write lock.
	var nodes []hnsw.Node[string]
	texts := make(map[string]string, len(todo))
	for slot, batch := range batches {
		for j, row := range batch {
			hash := rowHash(row)
			nodes = append(nodes, hnsw.MakeNode(hash, vectors[slot][j]))
			texts[hash] = row
		}
	}

	g.mu.Lock()
	g.graph.Add(nodes...)
	for k, v := range texts {
		g.rows[k] = v
	}
	g.mu.Unlock()
	return nil
}

// Len returns the number of indexed sample rows.
func (g *Guard) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph.Len()
}

// Screen checks a generated batch against the indexed sample rows and
// returns the lines to keep. A nil guard, an unprimed guard, or an
// embedding failure passes the batch through unchanged.
func (g *Guard) Screen(ctx context.Context, lines []string) []string {
	if g == nil || len(lines) == 0 || g.Len() == 0 {
		return lines
	}

	vectors, err := g.embedder.EmbedBatch(ctx, lines)
	if err != nil {
		slog.Warn("similarity screening skipped", "error", err)
		return lines
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	keep := make([]string, 0, len(lines))
	for i, line := range lines {
		neighbors := g.graph.Search(vectors[i], 1)
		if len(neighbors) == 0 {
			keep = append(keep, line)
			continue
		}
		sim := 1 - float64(hnsw.CosineDistance(vectors[i], neighbors[0].Value))
		if sim < g.threshold {
			keep = append(keep, line)
			continue
		}
		if g.action == tabforge.ActionReject {
			slog.Warn("near-duplicate row rejected",
				"row", line, "sample", g.rows[neighbors[0].Key], "similarity", sim)
			continue
		}
		slog.Warn("near-duplicate row",
			"row", line, "sample", g.rows[neighbors[0].Key], "similarity", sim)
		keep = append(keep, line)
	}
	return keep
}

func rowHash(row string) string {
	h := sha256.Sum256([]byte(row))
	return fmt.Sprintf("%x", h)
}
