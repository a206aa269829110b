package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/fillercut/internal/audio"
	"github.com/mgpai22/fillercut/internal/detect"
	"github.com/mgpai22/fillercut/internal/report"
	"github.com/mgpai22/fillercut/internal/review"
	"github.com/mgpai22/fillercut/internal/splice"
	"github.com/mgpai22/fillercut/internal/transcribe"
	"github.com/mgpai22/fillercut/internal/transcript"
)

var testFormat = audio.PCMFormat{SampleRate: 8000, Channels: 1, BitDepth: 16}

type stubTranscriber struct {
	words []transcript.Word
	err   error
	block bool // wait for cancellation
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &transcribe.Result{Words: s.words, Language: "en"}, nil
}

type stubReviewer struct {
	findings []review.Finding
	err      error
}

func (s *stubReviewer) Review(ctx context.Context, words []transcript.Word) ([]review.Finding, error) {
	return s.findings, s.err
}

// writes ms milliseconds of a constant non-zero signal as WAV
func writeInput(t *testing.T, ms int) string {
	t.Helper()

	frames := testFormat.SampleRate * ms / 1000
	data := make([]int, frames)
	for i := range data {
		data[i] = 1000 + i%50
	}
	buf, err := audio.NewBuffer(testFormat, data)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "talk.wav")
	if err := audio.Export(t.Context(), buf, path, audio.FormatWAV); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func loadOutput(t *testing.T, path string) *audio.Buffer {
	t.Helper()
	buf, err := audio.Load(t.Context(), path, t.TempDir())
	if err != nil {
		t.Fatalf("failed to load %s: %v", path, err)
	}
	return buf
}

func TestCleanNoDisfluencies(t *testing.T) {
	input := writeInput(t, 2000)
	before, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}

	tr := &stubTranscriber{words: []transcript.Word{
		{Text: "a", StartMs: 100, EndMs: 200},
		{Text: "plain", StartMs: 300, EndMs: 600},
		{Text: "sentence", StartMs: 700, EndMs: 1200},
	}}
	p := New(tr, Options{Mode: splice.ModeCut}, nil)

	res, err := p.Clean(t.Context(), input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if !res.Unchanged {
		t.Error("expected unchanged result")
	}
	if res.Status != StatusNoDisfluencies {
		t.Errorf("Status = %q, want %q", res.Status, StatusNoDisfluencies)
	}
	if res.OutputPath != input {
		t.Errorf("OutputPath = %q, want input %q", res.OutputPath, input)
	}

	after, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("input file was modified")
	}

	entries, err := os.ReadDir(filepath.Dir(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the input in its directory, got %d entries", len(entries))
	}
}

func TestCleanCutMode(t *testing.T) {
	input := writeInput(t, 2000)
	tr := &stubTranscriber{words: []transcript.Word{
		{Text: "Um,", StartMs: 500, EndMs: 800},
		{Text: "a", StartMs: 900, EndMs: 950},
		{Text: "test", StartMs: 1000, EndMs: 1500},
	}}
	p := New(tr, Options{Mode: splice.ModeCut, LookbackMs: 100, PaddingMs: 50}, nil)

	res, err := p.Clean(t.Context(), input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if res.Unchanged {
		t.Fatal("expected a rendered output")
	}
	if res.Fillers != 1 || res.Stutters != 0 {
		t.Errorf("fillers/stutters = %d/%d, want 1/0", res.Fillers, res.Stutters)
	}
	if diff := cmp.Diff([]splice.Interval{{StartMs: 400, EndMs: 850}}, res.Cuts); diff != "" {
		t.Errorf("Cuts mismatch (-want +got):\n%s", diff)
	}

	if !strings.HasPrefix(filepath.Base(res.OutputPath), "talk_cleaned_") ||
		filepath.Ext(res.OutputPath) != ".wav" {
		t.Errorf("unexpected output name %q", res.OutputPath)
	}
	if filepath.Dir(res.OutputPath) != filepath.Dir(input) {
		t.Errorf("output written to %q, want the input's directory", filepath.Dir(res.OutputPath))
	}

	out := loadOutput(t, res.OutputPath)
	if got, want := out.DurationMs(), 2000-450; got != want {
		t.Errorf("output duration = %d ms, want %d", got, want)
	}
	if res.OutputDurationMs != out.DurationMs() {
		t.Errorf("OutputDurationMs = %d, want %d", res.OutputDurationMs, out.DurationMs())
	}

	wantStatus := "Found 1 fillers and 0 stutters.\nDone! CUTTING 1 total disfluencies."
	if res.Status != wantStatus {
		t.Errorf("Status = %q, want %q", res.Status, wantStatus)
	}
}

func TestCleanBeepModeKeepsDuration(t *testing.T) {
	input := writeInput(t, 1500)
	tr := &stubTranscriber{words: []transcript.Word{
		{Text: "I", StartMs: 0, EndMs: 100},
		{Text: "I", StartMs: 150, EndMs: 250},
		{Text: "think", StartMs: 300, EndMs: 600},
		{Text: "uh", StartMs: 700, EndMs: 900},
	}}
	p := New(tr, Options{}, nil)

	res, err := p.Clean(t.Context(), input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if res.Fillers != 1 || res.Stutters != 1 {
		t.Errorf("fillers/stutters = %d/%d, want 1/1", res.Fillers, res.Stutters)
	}
	if !strings.Contains(res.Status, "Done! BEEPING 2 total disfluencies.") {
		t.Errorf("Status = %q", res.Status)
	}
	if !strings.Contains(res.Status, "--mode cut") {
		t.Errorf("beep status should explain how to cut, got %q", res.Status)
	}

	in := loadOutput(t, input)
	out := loadOutput(t, res.OutputPath)
	if out.DurationMs() != in.DurationMs() {
		t.Errorf("beep changed duration: %d -> %d ms", in.DurationMs(), out.DurationMs())
	}
	if out.Equal(in) {
		t.Error("beep mode left the audio untouched")
	}
}

func TestCleanWithReviewer(t *testing.T) {
	input := writeInput(t, 2000)
	words := []transcript.Word{
		{Text: "it", StartMs: 0, EndMs: 100},
		{Text: "was", StartMs: 150, EndMs: 300},
		{Text: "like", StartMs: 400, EndMs: 600},
		{Text: "huge", StartMs: 700, EndMs: 1000},
	}

	tests := []struct {
		name           string
		reviewer       *stubReviewer
		words          []transcript.Word // default sentence when nil
		wantContextual int
		wantUnchanged  bool
	}{
		{
			name:           "flagged word is cut",
			reviewer:       &stubReviewer{findings: []review.Finding{{Index: 2, Reason: "hesitation"}}},
			wantContextual: 1,
		},
		{
			name:          "review failure is not fatal",
			reviewer:      &stubReviewer{err: errors.New("rate limited")},
			wantUnchanged: true,
		},
		{
			name:          "excluded words are never cut",
			reviewer:      &stubReviewer{findings: []review.Finding{{Index: 1}}},
			words:         []transcript.Word{{Text: "it", StartMs: 0, EndMs: 100}, {Text: "And", StartMs: 150, EndMs: 300}},
			wantUnchanged: true,
		},
		{
			name:          "lexical detection is not counted twice",
			reviewer:      &stubReviewer{findings: []review.Finding{{Index: 1}}},
			words:         []transcript.Word{{Text: "it", StartMs: 0, EndMs: 100}, {Text: "um", StartMs: 150, EndMs: 300}},
			wantUnchanged: false,
		},
		{
			name:          "out of range finding is ignored",
			reviewer:      &stubReviewer{findings: []review.Finding{{Index: 9}}},
			wantUnchanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := words
			if tt.words != nil {
				ws = tt.words
			}
			p := New(&stubTranscriber{words: ws}, Options{Mode: splice.ModeCut}, nil).
				WithReviewer(tt.reviewer)

			res, err := p.Clean(t.Context(), input)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if res.Contextual != tt.wantContextual {
				t.Errorf("Contextual = %d, want %d", res.Contextual, tt.wantContextual)
			}
			if res.Unchanged != tt.wantUnchanged {
				t.Errorf("Unchanged = %v, want %v", res.Unchanged, tt.wantUnchanged)
			}
		})
	}
}

func TestCleanTranscriptionFailure(t *testing.T) {
	input := writeInput(t, 500)
	p := New(&stubTranscriber{err: errors.New("model not found")}, Options{}, nil)

	_, err := p.Clean(t.Context(), input)
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("error = %v, want ErrTranscription", err)
	}

	entries, _ := os.ReadDir(filepath.Dir(input))
	if len(entries) != 1 {
		t.Errorf("nothing should be written on failure, found %d entries", len(entries))
	}
}

func TestCleanAudioLoadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.wav")
	tr := &stubTranscriber{words: []transcript.Word{{Text: "um", StartMs: 0, EndMs: 100}}}

	_, err := New(tr, Options{}, nil).Clean(t.Context(), path)
	if !errors.Is(err, ErrAudioLoad) {
		t.Fatalf("error = %v, want ErrAudioLoad", err)
	}
}

func TestCleanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(&stubTranscriber{block: true}, Options{}, nil).Clean(ctx, writeInput(t, 200))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestEdit(t *testing.T) {
	words := []transcript.Word{
		{Text: "so", StartMs: 0, EndMs: 200},
		{Text: "basically", StartMs: 300, EndMs: 700},
		{Text: "yes", StartMs: 800, EndMs: 1000},
	}

	t.Run("removes selected words", func(t *testing.T) {
		input := writeInput(t, 1200)
		tr := &stubTranscriber{}
		p := New(tr, Options{Mode: splice.ModeCut}, nil)

		res, err := p.Edit(t.Context(), input, words, "[0, 1]")
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if tr.calls != 0 {
			t.Error("transcriber should not run when words are given")
		}

		want := "Successfully removed the following segments (words selected by user): so, basically"
		if res.Status != want {
			t.Errorf("Status = %q, want %q", res.Status, want)
		}
		if filepath.Base(res.OutputPath) != "talk_edited.wav" {
			t.Errorf("OutputPath = %q", res.OutputPath)
		}
		if got := loadOutput(t, res.OutputPath).DurationMs(); got != 600 {
			t.Errorf("output duration = %d ms, want 600", got)
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		input := writeInput(t, 1200)
		res, err := New(&stubTranscriber{}, Options{}, nil).Edit(t.Context(), input, words, "[]")
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if !res.Unchanged || res.Status != StatusNoSelection {
			t.Errorf("got unchanged=%v status=%q", res.Unchanged, res.Status)
		}
	})

	t.Run("transcribes when words are missing", func(t *testing.T) {
		input := writeInput(t, 1200)
		tr := &stubTranscriber{words: words}
		res, err := New(tr, Options{Mode: splice.ModeCut}, nil).Edit(t.Context(), input, nil, "2")
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if tr.calls != 1 {
			t.Errorf("transcriber calls = %d, want 1", tr.calls)
		}
		if res.Selected != 1 {
			t.Errorf("Selected = %d, want 1", res.Selected)
		}
	})

	for _, sel := range []string{"[0, 7]", "one,two", "[-1]"} {
		t.Run("malformed "+sel, func(t *testing.T) {
			_, err := New(&stubTranscriber{}, Options{}, nil).Edit(t.Context(), "unused.wav", words, sel)
			if !errors.Is(err, ErrMalformedSelection) {
				t.Errorf("error = %v, want ErrMalformedSelection", err)
			}
		})
	}
}

func TestCleanWritesReport(t *testing.T) {
	input := writeInput(t, 1000)
	reportPath := filepath.Join(t.TempDir(), "talk.json")
	tr := &stubTranscriber{words: []transcript.Word{{Text: "hmm", StartMs: 200, EndMs: 400}}}

	res, err := New(tr, Options{Mode: splice.ModeCut, ReportPath: reportPath}, nil).Clean(t.Context(), input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var got report.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}

	if got.Output != res.OutputPath || got.Mode != splice.ModeCut {
		t.Errorf("report output/mode = %q/%q", got.Output, got.Mode)
	}
	if diff := cmp.Diff(res.Cuts, got.Cuts); diff != "" {
		t.Errorf("report cuts mismatch (-want +got):\n%s", diff)
	}
	if len(got.Detections) != 1 || got.Detections[0].Kind != detect.KindFiller {
		t.Errorf("unexpected detections %+v", got.Detections)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, dir, suffix string
		format             audio.Format
		want               string
	}{
		{"/media/talk.wav", "", "_edited", audio.FormatWAV, "/media/talk_edited.wav"},
		{"/media/talk.m4a", "", "_cleaned_ab12cd34", audio.FormatMP3, "/media/talk_cleaned_ab12cd34.mp3"},
		{"/media/talk.flac", "/out", "_edited", audio.FormatFLAC, "/out/talk_edited.flac"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.input, tt.dir, tt.suffix, tt.format); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.input, tt.dir, got, tt.want)
		}
	}
}
