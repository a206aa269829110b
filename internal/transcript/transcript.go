package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// one recognized word with its timing in milliseconds
type Word struct {
	Text    string `json:"text"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
}

// UnmarshalJSON accepts both {"text","start_ms","end_ms"} and the
// recognizer form {"word","start","end"} with seconds.
func (w *Word) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text    *string  `json:"text"`
		Word    *string  `json:"word"`
		StartMs *int     `json:"start_ms"`
		EndMs   *int     `json:"end_ms"`
		Start   *float64 `json:"start"`
		End     *float64 `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Text != nil:
		w.Text = *raw.Text
	case raw.Word != nil:
		w.Text = *raw.Word
	default:
		return errors.New("word is missing text")
	}

	switch {
	case raw.StartMs != nil && raw.EndMs != nil:
		w.StartMs, w.EndMs = *raw.StartMs, *raw.EndMs
	case raw.Start != nil && raw.End != nil:
		w.StartMs, w.EndMs = SecondsToMs(*raw.Start), SecondsToMs(*raw.End)
	default:
		return fmt.Errorf("word %q is missing timestamps", w.Text)
	}
	return nil
}

// converts recognizer seconds to whole milliseconds, truncating like int(s*1000)
func SecondsToMs(seconds float64) int {
	return int(math.Floor(seconds*1000 + 1e-6))
}

func DurationToMs(d time.Duration) int {
	return int(d / time.Millisecond)
}

// word sequence of one recording
type Transcript struct {
	Words    []Word `json:"words"`
	Language string `json:"language,omitempty"`
}

// Validate checks per-word timing; the sequence itself is trusted to be ordered.
func Validate(words []Word) error {
	for i, w := range words {
		if w.StartMs < 0 {
			return fmt.Errorf("word %d (%q) starts before zero", i, w.Text)
		}
		if w.EndMs < w.StartMs {
			return fmt.Errorf(
				"word %d (%q) ends before it starts (%d < %d)",
				i, w.Text, w.EndMs, w.StartMs,
			)
		}
	}
	return nil
}

// Load reads a transcript from JSON (object with "words" or a bare array),
// SRT or VTT where every cue is one word.
func Load(path string) (*Transcript, error) {
	var (
		tr  *Transcript
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		tr, err = loadJSON(path)
	case ".srt":
		tr, err = loadSRT(path)
	case ".vtt":
		tr, err = loadVTT(path)
	default:
		return nil, fmt.Errorf("unsupported transcript format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(tr.Words); err != nil {
		return nil, fmt.Errorf("invalid transcript %s: %w", path, err)
	}
	return tr, nil
}

func loadJSON(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var words []Word
		if err := json.Unmarshal(data, &words); err != nil {
			return nil, fmt.Errorf("failed to parse transcript: %w", err)
		}
		return &Transcript{Words: words}, nil
	}

	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return &tr, nil
}

// Save writes tr as indented JSON.
func Save(path string, tr *Transcript) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
