package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"crustdata.com/support-chatbot/internal/chunking"
	"crustdata.com/support-chatbot/internal/logging"
	"crustdata.com/support-chatbot/internal/store"
)

const (
	DefaultPauseEvery = 99
	DefaultPause      = 60 * time.Second
)

// Indexer splits text, embeds each chunk and appends it to the vector
// store, pausing periodically to stay under the embedding quota.
type Indexer struct {
	splitter   *chunking.Splitter
	embedder   Embedder
	store      store.VectorStore
	pauseEvery int
	pause      time.Duration
	sleep      func(context.Context, time.Duration) error
}

type IndexerOption func(*Indexer)

// WithPacing pauses for d after every n stored chunks. n <= 0 disables it.
func WithPacing(n int, d time.Duration) IndexerOption {
	return func(ix *Indexer) {
		ix.pauseEvery = n
		ix.pause = d
	}
}

func NewIndexer(splitter *chunking.Splitter, embedder Embedder, vs store.VectorStore, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		splitter:   splitter,
		embedder:   embedder,
		store:      vs,
		pauseEvery: DefaultPauseEvery,
		pause:      DefaultPause,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// IndexText stores every chunk of text and returns how many were stored.
// The first failure stops indexing; chunks stored before it stay.
func (ix *Indexer) IndexText(ctx context.Context, source, text string) (int, error) {
	chunks := ix.splitter.Split(text)
	if len(chunks) == 0 {
		log.Printf("No chunks generated from %s.", source)
		return 0, nil
	}
	log.Printf("Generated %d chunks from %s. Now embedding (this may take a while)...", len(chunks), source)

	count := 0
	for i, c := range chunks {
		embedding, err := ix.embedder.Embed(ctx, c.Text)
		if err != nil {
			return count, fmt.Errorf("failed to embed chunk %d (%q): %w", i+1, logging.Preview(c.Text, 50), err)
		}

		metadata := c.Metadata
		metadata["source"] = source
		doc := store.DocumentChunk{
			Content:   c.Text,
			Metadata:  metadata,
			Embedding: embedding,
		}
		if err := ix.store.AddChunk(ctx, &doc); err != nil {
			return count, fmt.Errorf("failed to store chunk %d: %w", i+1, err)
		}
		count++
		logging.Debugf("Stored chunk %d/%d %s", count, len(chunks), doc.ID)

		if ix.pauseEvery > 0 && count%ix.pauseEvery == 0 && count < len(chunks) {
			log.Printf("Ingested %d/%d chunks, pausing %s for the embedding rate limit...", count, len(chunks), ix.pause)
			if err := ix.sleep(ctx, ix.pause); err != nil {
				return count, err
			}
		}
	}
	log.Printf("Successfully ingested %d chunks from %s.", count, source)
	return count, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
