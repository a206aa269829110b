package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/fillercut/internal/audio"
	"github.com/mgpai22/fillercut/internal/transcript"
)

// transcription result
type Result struct {
	Words    []transcript.Word
	Language string
	Duration time.Duration
}

// interface for word-level audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcriber that can split long recordings across parallel requests
type ConcurrentTranscriber interface {
	Transcriber
	TranscribeWithChunks(
		ctx context.Context,
		chunks []audio.ChunkInfo,
		concurrency int,
	) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderWhisper Provider = "whisper" // local faster-whisper
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
	ProviderFile    Provider = "file" // existing transcript file
)

// DefaultPrompt primes the recognizer to write out hesitations instead of
// silently dropping them.
const DefaultPrompt = "Umm, uhh, hmm, er, ah, like, you know, I mean, well, right, so"

// transcription options
type Options struct {
	Language string // Source language of audio, detected when empty
	Model    string
	Prompt   string // DefaultPrompt when empty
	Device   string // auto|cpu|cuda, local only
	Python   string // interpreter for the local helper
	Path     string // transcript file for ProviderFile
}

func (o Options) prompt() string {
	if o.Prompt != "" {
		return o.Prompt
	}
	return DefaultPrompt
}

// Error is a failed transcription. The run stops and nothing is written.
type Error struct {
	Provider Provider
	Err      error
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("transcription failed: %v", e.Err)
	}
	return fmt.Sprintf("transcription failed (%s): %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(provider Provider, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Provider: provider, Err: err}
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderWhisper:
		return NewFasterWhisperTranscriber(opts), nil
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	case ProviderFile:
		return NewFileTranscriber(opts.Path)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// reports whether the provider needs an API key
func (p Provider) NeedsAPIKey() bool {
	return p == ProviderOpenAI || p == ProviderGemini
}
