package transcribe

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mgpai22/fillercut/internal/audio"
	"github.com/mgpai22/fillercut/internal/transcript"
)

// holds the result of transcribing a chunk
type chunkResult struct {
	Index    int
	Words    []transcript.Word
	Language string
	Error    error
}

// transcribes a single chunk and shifts its words onto the full timeline
func transcribeChunk(
	ctx context.Context,
	t Transcriber,
	chunk audio.ChunkInfo,
) (*Result, error) {
	result, err := t.Transcribe(ctx, chunk.Path)
	if err != nil {
		return nil, err
	}

	offset := transcript.DurationToMs(chunk.StartTime)
	words := make([]transcript.Word, len(result.Words))
	for i, w := range result.Words {
		words[i] = transcript.Word{
			Text:    w.Text,
			StartMs: w.StartMs + offset,
			EndMs:   w.EndMs + offset,
		}
	}

	return &Result{Words: words, Language: result.Language}, nil
}

// transcribes chunks in parallel and stitches the words back in order.
// The first failure cancels the remaining chunks.
func transcribeChunks(
	ctx context.Context,
	t Transcriber,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan audio.ChunkInfo)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case chunk, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					res, err := transcribeChunk(ctx, t, chunk)
					if err != nil {
						cancel()
						resultChan <- chunkResult{Index: chunk.Index, Error: err}
						continue
					}
					resultChan <- chunkResult{
						Index:    chunk.Index,
						Words:    res.Words,
						Language: res.Language,
					}
				}
			}
		})
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]chunkResult, 0, len(chunks))
	var firstErr error
	for result := range resultChan {
		if result.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf(
				"chunk %d failed: %w",
				result.Index,
				result.Error,
			)
			cancel()
		}
		if result.Error == nil {
			results = append(results, result)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(results) < len(chunks) {
		return nil, err
	}

	return mergeChunkResults(results, chunks[len(chunks)-1].EndTime), nil
}

func mergeChunkResults(results []chunkResult, total time.Duration) *Result {
	// sort by index to maintain order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	merged := &Result{Duration: total}
	for _, r := range results {
		merged.Words = append(merged.Words, r.Words...)
		if merged.Language == "" {
			merged.Language = r.Language
		}
	}
	return merged
}

// ChunkedTranscriber compresses the input for upload and, when it is longer
// than the chunk duration, splits it and transcribes the pieces in parallel.
type ChunkedTranscriber struct {
	inner         ConcurrentTranscriber
	chunkDuration time.Duration
	concurrency   int
}

func NewChunkedTranscriber(
	inner ConcurrentTranscriber,
	chunkDuration time.Duration,
	concurrency int,
) *ChunkedTranscriber {
	return &ChunkedTranscriber{
		inner:         inner,
		chunkDuration: chunkDuration,
		concurrency:   concurrency,
	}
}

func (c *ChunkedTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	duration, err := audio.GetDuration(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "fillercut-upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	upload := filepath.Join(tempDir, "upload.mp3")
	if err := audio.PrepareForTranscription(ctx, audioPath, upload, audio.DefaultCompressionOptions()); err != nil {
		return nil, err
	}

	if c.chunkDuration <= 0 || duration <= c.chunkDuration {
		result, err := c.inner.Transcribe(ctx, upload)
		if err != nil {
			return nil, err
		}
		if result.Duration == 0 {
			result.Duration = duration
		}
		return result, nil
	}

	chunks, err := audio.ChunkAudio(ctx, upload, c.chunkDuration, filepath.Join(tempDir, "chunks"), c.concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to split audio: %w", err)
	}
	defer audio.CleanupChunks(chunks)

	return c.inner.TranscribeWithChunks(ctx, chunks, c.concurrency)
}

func (c *ChunkedTranscriber) Close() error {
	if closer, ok := c.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
