package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// matches "00:00:01,250 --> 00:00:01,600" (SRT) and "00:01.250 --> 00:01.600" (VTT)
var cueTimingRegex = regexp.MustCompile(
	`(?:(\d{2,}):)?(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(?:(\d{2,}):)?(\d{2}):(\d{2})[,.](\d{3})`,
)

func loadSRT(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer f.Close()

	words, err := parseCues(f, false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SRT file: %w", err)
	}
	return &Transcript{Words: words}, nil
}

func loadVTT(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VTT file: %w", err)
	}
	defer f.Close()

	words, err := parseCues(f, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse VTT file: %w", err)
	}
	return &Transcript{Words: words}, nil
}

// parseCues turns each timed cue into one Word. Cue numbers, the WEBVTT
// header and NOTE/STYLE blocks are skipped.
func parseCues(r io.Reader, vtt bool) ([]Word, error) {
	scanner := bufio.NewScanner(r)

	var (
		words   []Word
		current *Word
		text    []string
		lineNum int
		skip    bool
	)

	flush := func() {
		if current != nil && len(text) > 0 {
			current.Text = strings.Join(text, " ")
			words = append(words, *current)
		}
		current, text = nil, nil
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if line == "" {
			flush()
			skip = false
			continue
		}
		if skip {
			continue
		}

		if vtt && current == nil {
			if strings.HasPrefix(line, "WEBVTT") ||
				strings.HasPrefix(line, "NOTE") ||
				strings.HasPrefix(line, "STYLE") {
				skip = true
				continue
			}
		}

		if m := cueTimingRegex.FindStringSubmatch(line); m != nil {
			flush()
			start, err := cueMs(m[1], m[2], m[3], m[4])
			if err != nil {
				return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
			}
			end, err := cueMs(m[5], m[6], m[7], m[8])
			if err != nil {
				return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
			}
			current = &Word{StartMs: start, EndMs: end}
			continue
		}

		// cue number or identifier before the timing line
		if current == nil {
			continue
		}
		text = append(text, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

func cueMs(hours, minutes, seconds, millis string) (int, error) {
	h := 0
	if hours != "" {
		var err error
		if h, err = strconv.Atoi(hours); err != nil {
			return 0, err
		}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	return ((h*60+m)*60+s)*1000 + ms, nil
}
