package audio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestOutputFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"talk.mp3", FormatMP3},
		{"talk.WAV", FormatWAV},
		{"talk.flac", FormatFLAC},
		{"talk.m4a", FormatMP3},
		{"talk.ogg", FormatMP3},
		{"talk", FormatMP3},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := OutputFormatFor(tt.path); got != tt.want {
				t.Errorf("OutputFormatFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestWAVRoundTrip(t *testing.T) {
	format := PCMFormat{SampleRate: 8000, Channels: 2, BitDepth: 16}
	src := Tone(format, 440, 250, -3)

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := Export(context.Background(), src, path, FormatWAV); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	got, err := Load(context.Background(), path, t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.Format() != format {
		t.Errorf("format = %+v, want %+v", got.Format(), format)
	}
	if !got.Equal(src) {
		t.Error("decoded samples differ from encoded samples")
	}
}

// writes raw unsigned 8-bit mono samples the way an 8-bit WAV stores them
func write8BitWAV(t *testing.T, path string, sampleRate int, raw []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, sampleRate, 8, 1, 1)
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           raw,
		SourceBitDepth: 8,
	}
	if err := enc.Write(pcm); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEightBitWAVIsCentredOnZero(t *testing.T) {
	raw := []int{128, 128, 255, 0, 192, 64}
	path := filepath.Join(t.TempDir(), "quiet.wav")
	write8BitWAV(t, path, 8000, raw)

	buf, err := Load(context.Background(), path, t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := []int{0, 0, 127, -128, 64, -64}
	got := buf.Samples()
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	ws := &memWriteSeeker{}
	if err := EncodeWAV(ws, buf); err != nil {
		t.Fatalf("EncodeWAV returned error: %v", err)
	}
	dec := wav.NewDecoder(bytes.NewReader(ws.data))
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("failed to read encoded WAV: %v", err)
	}
	for i := range raw {
		if pcm.Data[i] != raw[i] {
			t.Errorf("encoded sample[%d] = %d, want %d", i, pcm.Data[i], raw[i])
		}
	}
}

func TestEightBitToneAndSilence(t *testing.T) {
	format := PCMFormat{SampleRate: 8000, Channels: 1, BitDepth: 8}

	silence := Silence(format, 10)
	beeped, err := silence.Overlay(Tone(format, 1000, 10, -6), 0)
	if err != nil {
		t.Fatal(err)
	}

	peak := 0
	for _, v := range beeped.Samples() {
		peak = max(peak, v, -v)
	}
	// -6 dB of 127
	if peak < 60 || peak > 64 {
		t.Errorf("tone peak = %d, want about 63", peak)
	}
}

// in-memory io.WriteSeeker for the WAV encoder
type memWriteSeeker struct {
	data []byte
	pos  int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	copy(m.data[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		m.pos = int(offset)
	case 1:
		m.pos += int(offset)
	case 2:
		m.pos = len(m.data) + int(offset)
	}
	return int64(m.pos), nil
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := decodeWAVFile(path); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func TestParseProbeDuration(t *testing.T) {
	got, err := parseProbeDuration([]byte(`{"format": {"duration": "12.500000"}}`))
	if err != nil {
		t.Fatalf("parseProbeDuration returned error: %v", err)
	}
	if got != 12500*time.Millisecond {
		t.Errorf("duration = %v, want 12.5s", got)
	}

	if _, err := parseProbeDuration([]byte(`{"format": {}}`)); err == nil {
		t.Error("expected error for missing duration")
	}
}

func TestPlanChunks(t *testing.T) {
	spans := planChunks(150, 60)
	want := [][2]float64{{0, 60}, {60, 120}, {120, 150}}
	if len(spans) != len(want) {
		t.Fatalf("planChunks = %v, want %v", spans, want)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %v, want %v", i, spans[i], want[i])
		}
	}

	if got := planChunks(0, 60); len(got) != 0 {
		t.Errorf("planChunks(0) = %v, want none", got)
	}
}

func TestIdentifyFallsBackToExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := Export(context.Background(), Silence(msFormat, 5), path, FormatWAV); err != nil {
		t.Fatal(err)
	}
	got := Identify(path)
	if got.Extension != "wav" || got.ContentType != "audio/wav" {
		t.Errorf("Identify = %+v", got)
	}
}

func TestMediaFileChecks(t *testing.T) {
	if !IsAudioFile("a.FLAC") || IsAudioFile("a.mp4") {
		t.Error("IsAudioFile misclassified")
	}
	if !IsVideoFile("a.mkv") || IsVideoFile("a.mp3") {
		t.Error("IsVideoFile misclassified")
	}
	if IsMediaFile("notes.txt") {
		t.Error("IsMediaFile accepted a text file")
	}
}
