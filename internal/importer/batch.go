package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultChunkSize is the number of items processed concurrently per chunk
const DefaultChunkSize = 50

// BatchProcessor runs per-item work in fixed-size sequential chunks, each
// chunk executed with internal parallelism. Chunking is a throughput and
// backpressure control; per-item isolation is the callback's responsibility.
type BatchProcessor struct {
	chunkSize int
	logger    *logrus.Entry
}

// NewBatchProcessor creates a processor; sizes <= 0 fall back to the default
func NewBatchProcessor(chunkSize int, logger *logrus.Entry) *BatchProcessor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &BatchProcessor{chunkSize: chunkSize, logger: logger}
}

// Process invokes fn once per index. Indices are split into consecutive
// chunks; within a chunk every fn runs concurrently and the whole chunk is
// awaited before the next starts. The first error any fn returns fails the
// chunk and stops processing.
func (p *BatchProcessor) Process(ctx context.Context, label string, total int, fn func(ctx context.Context, index int) error) error {
	if total == 0 {
		return nil
	}
	chunks := (total + p.chunkSize - 1) / p.chunkSize

	for chunk := 0; chunk < chunks; chunk++ {
		start := chunk * p.chunkSize
		end := start + p.chunkSize
		if end > total {
			end = total
		}

		chunkStart := time.Now()
		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error

		for i := start; i < end; i++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				if err := fn(ctx, index); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		if firstErr != nil {
			return fmt.Errorf("%s: chunk %d/%d failed: %w", label, chunk+1, chunks, firstErr)
		}
		p.logger.WithFields(logrus.Fields{
			"label":   label,
			"chunk":   chunk + 1,
			"chunks":  chunks,
			"items":   end - start,
			"elapsed": time.Since(chunkStart).Round(time.Millisecond).String(),
		}).Debug("batch chunk completed")
	}
	return nil
}
