package transcribe

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/fillercut/internal/transcript"
)

func TestParseFasterWhisperOutput(t *testing.T) {
	out := []byte(`{
		"language": "en",
		"duration": 2.5,
		"device": "cpu",
		"words": [
			{"word": "umm", "start": 0.12, "end": 0.48},
			{"word": " ", "start": 0.5, "end": 0.5},
			{"word": "okay", "start": 0.6, "end": 1.0}
		]
	}`)

	got, err := parseFasterWhisperOutput(out)
	if err != nil {
		t.Fatalf("parseFasterWhisperOutput() error = %v", err)
	}

	want := []transcript.Word{
		{Text: "umm", StartMs: 120, EndMs: 480},
		{Text: "okay", StartMs: 600, EndMs: 1000},
	}
	if diff := cmp.Diff(want, got.Words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}
	if got.Duration != 2500*time.Millisecond {
		t.Errorf("Duration = %v, want 2.5s", got.Duration)
	}
}

func TestParseFasterWhisperOutputGarbage(t *testing.T) {
	if _, err := parseFasterWhisperOutput([]byte("Traceback (most recent call last)")); err == nil {
		t.Error("expected error for non-JSON output")
	}
}

func TestFasterWhisperDefaults(t *testing.T) {
	t.Setenv("FILLERCUT_PYTHON", "")

	tr := NewFasterWhisperTranscriber(Options{})
	if tr.model != "base" || tr.device != "auto" || tr.python != "python3" {
		t.Errorf("defaults = %q %q %q", tr.model, tr.device, tr.python)
	}

	args := tr.args("helper.py", "in.wav")
	want := []string{
		"helper.py",
		"--audio", "in.wav",
		"--model", "base",
		"--device", "auto",
		"--prompt", DefaultPrompt,
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestFasterWhisperLanguageAndPython(t *testing.T) {
	t.Setenv("FILLERCUT_PYTHON", "/opt/venv/bin/python")

	tr := NewFasterWhisperTranscriber(Options{Model: "small", Device: "cuda", Language: "de"})
	if tr.python != "/opt/venv/bin/python" {
		t.Errorf("python = %q, want the env override", tr.python)
	}
	args := tr.args("helper.py", "in.wav")
	if !slices.Contains(args, "--language") || args[len(args)-1] != "de" {
		t.Errorf("args = %v, want a trailing --language de", args)
	}
}

func TestFasterWhisperMissingAudio(t *testing.T) {
	tr := NewFasterWhisperTranscriber(Options{})
	if _, err := tr.Transcribe(t.Context(), "/does/not/exist.wav"); err == nil {
		t.Error("expected error for missing audio")
	}
}

func TestEmbeddedHelper(t *testing.T) {
	script := string(fasterWhisperScript)
	for _, want := range []string{"word_timestamps=True", "vad_filter=True", "repetition_penalty=1.2"} {
		if !strings.Contains(script, want) {
			t.Errorf("helper script is missing %s", want)
		}
	}
}
