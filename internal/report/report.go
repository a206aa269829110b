package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/fillercut/internal/detect"
	"github.com/mgpai22/fillercut/internal/splice"
)

// detection report format
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatJSON Format = "json"
)

// what one run found and cut, for auditing a beep preview before cutting
type Report struct {
	Input      string             `json:"input"`
	Output     string             `json:"output"`
	Mode       splice.Mode        `json:"mode"`
	DurationMs int                `json:"duration_ms"`
	Detections []detect.Detection `json:"detections"`
	Cuts       []splice.Interval  `json:"cuts"`
	Status     string             `json:"status"`
}

type Writer interface {
	Write(r *Report, path string) error
}

// SubRip cues, one per detection
type SRTWriter struct{}

// WebVTT cues, one per detection
type VTTWriter struct{}

// full report as indented JSON
type JSONWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatJSON:
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// writes the report to path in the format matching its extension
func WriteFile(r *Report, path string) error {
	w, err := NewWriter(FormatFromExtension(path))
	if err != nil {
		return err
	}
	return w.Write(r, path)
}

func (w *SRTWriter) Write(r *Report, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	for i, d := range r.Detections {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(d.Word.StartMs),
			formatSRTTime(d.Word.EndMs)))

		sb.WriteString(cueText(d))
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func (w *VTTWriter) Write(r *Report, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder

	// VTT header
	sb.WriteString("WEBVTT\n\n")
	if r.Status != "" {
		sb.WriteString("NOTE\n")
		sb.WriteString(r.Status)
		sb.WriteString("\n\n")
	}

	for i, d := range r.Detections {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00.000 --> 00:00:00.000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(d.Word.StartMs),
			formatVTTTime(d.Word.EndMs)))

		sb.WriteString(cueText(d))
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func (w *JSONWriter) Write(r *Report, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	out := *r
	if out.Detections == nil {
		out.Detections = []detect.Detection{}
	}
	if out.Cuts == nil {
		out.Cuts = []splice.Interval{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// "[filler] um" or "[stutter] STUTTER: so"
func cueText(d detect.Detection) string {
	return fmt.Sprintf("[%s] %s", d.Kind, d.Label)
}

func formatSRTTime(ms int) string {
	return formatClock(ms, ',')
}

func formatVTTTime(ms int) string {
	return formatClock(ms, '.')
}

func formatClock(ms int, sep byte) string {
	hours := ms / 3_600_000
	minutes := ms / 60_000 % 60
	seconds := ms / 1000 % 60
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// report format based on file extension
func FormatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		return FormatVTT
	case ".json":
		return FormatJSON
	default:
		return FormatSRT
	}
}
