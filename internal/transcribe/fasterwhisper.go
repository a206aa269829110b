package transcribe

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mgpai22/fillercut/internal/transcript"
)

//go:embed assets/faster_whisper.py
var fasterWhisperScript []byte

// model sizes the local helper accepts
var FasterWhisperModels = []string{"base", "small", "medium", "large-v2"}

// FasterWhisperTranscriber runs faster-whisper through a bundled python helper.
type FasterWhisperTranscriber struct {
	model   string
	device  string
	python  string
	options Options
}

func NewFasterWhisperTranscriber(opts Options) *FasterWhisperTranscriber {
	model := opts.Model
	if model == "" {
		model = "base"
	}
	device := opts.Device
	if device == "" {
		device = "auto"
	}
	python := opts.Python
	if python == "" {
		python = os.Getenv("FILLERCUT_PYTHON")
	}
	if python == "" {
		python = "python3"
	}

	return &FasterWhisperTranscriber{
		model:   model,
		device:  device,
		python:  python,
		options: opts,
	}
}

type fasterWhisperOutput struct {
	Language string            `json:"language"`
	Duration float64           `json:"duration"`
	Words    []transcript.Word `json:"words"`
}

func (t *FasterWhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	script, err := os.CreateTemp("", "fillercut-faster-whisper-*.py")
	if err != nil {
		return nil, fmt.Errorf("failed to create helper script: %w", err)
	}
	defer os.Remove(script.Name())

	if _, err := script.Write(fasterWhisperScript); err != nil {
		_ = script.Close()
		return nil, fmt.Errorf("failed to write helper script: %w", err)
	}
	if err := script.Close(); err != nil {
		return nil, fmt.Errorf("failed to write helper script: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.python, t.args(script.Name(), audioPath)...)
	cmd.Env = os.Environ()

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("faster-whisper failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("failed to run %s: %w", t.python, err)
	}

	return parseFasterWhisperOutput(out)
}

func (t *FasterWhisperTranscriber) args(scriptPath, audioPath string) []string {
	args := []string{
		scriptPath,
		"--audio", audioPath,
		"--model", t.model,
		"--device", t.device,
		"--prompt", t.options.prompt(),
	}
	if t.options.Language != "" {
		args = append(args, "--language", t.options.Language)
	}
	return args
}

func parseFasterWhisperOutput(out []byte) (*Result, error) {
	var parsed fasterWhisperOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf(
			"failed to parse helper output: %w (output: %s)",
			err,
			truncateString(string(out), 200),
		)
	}

	words := cleanWords(parsed.Words)
	if err := transcript.Validate(words); err != nil {
		return nil, fmt.Errorf("helper returned invalid words: %w", err)
	}

	return &Result{
		Words:    words,
		Language: parsed.Language,
		Duration: time.Duration(parsed.Duration * float64(time.Second)),
	}, nil
}

// trims word text and drops words that are empty after trimming
func cleanWords(words []transcript.Word) []transcript.Word {
	out := make([]transcript.Word, 0, len(words))
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
