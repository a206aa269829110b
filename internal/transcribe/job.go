package transcribe

import (
	"context"
	"errors"
	"sync"
)

// Job is a transcription running in the background. Waiting callers can
// give up at any time; the job itself stops on Cancel.
type Job struct {
	provider Provider
	cancel   context.CancelFunc
	done     chan struct{}

	once   sync.Once
	result *Result
	err    error
}

// starts t on audioPath in its own goroutine
func Start(ctx context.Context, t Transcriber, audioPath string) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		provider: providerOf(t),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(j.done)
		defer cancel()

		result, err := t.Transcribe(ctx, audioPath)
		if err == nil && result == nil {
			err = errors.New("transcriber returned no result")
		}
		j.result, j.err = result, wrapError(j.provider, err)
	}()

	return j
}

// Wait blocks until the job finishes or ctx is done. Leaving early abandons
// the result without stopping the job; call Cancel for that.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		if j.err != nil {
			return nil, j.err
		}
		return j.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job) Cancel() {
	j.once.Do(j.cancel)
}

func (j *Job) Done() <-chan struct{} {
	return j.done
}

func providerOf(t Transcriber) Provider {
	switch x := t.(type) {
	case *ChunkedTranscriber:
		return providerOf(x.inner)
	case *FasterWhisperTranscriber:
		return ProviderWhisper
	case *OpenAITranscriber:
		return ProviderOpenAI
	case *GeminiTranscriber:
		return ProviderGemini
	case *FileTranscriber:
		return ProviderFile
	default:
		return ""
	}
}
