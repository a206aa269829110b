package transcribe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mgpai22/fillercut/internal/transcript"
)

// FileTranscriber serves a transcript that already exists on disk, for
// edits against a reviewed transcript and for offline runs.
type FileTranscriber struct {
	path string
}

func NewFileTranscriber(path string) (*FileTranscriber, error) {
	if path == "" {
		return nil, fmt.Errorf("transcript path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("transcript not found: %s", path)
	}
	return &FileTranscriber{path: path}, nil
}

// Transcribe ignores audioPath and loads the transcript file.
func (t *FileTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tr, err := transcript.Load(t.path)
	if err != nil {
		return nil, err
	}

	var duration time.Duration
	if n := len(tr.Words); n > 0 {
		duration = time.Duration(tr.Words[n-1].EndMs) * time.Millisecond
	}

	return &Result{
		Words:    tr.Words,
		Language: tr.Language,
		Duration: duration,
	}, nil
}
