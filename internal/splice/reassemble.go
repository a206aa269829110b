package splice

import (
	"fmt"
	"strings"

	"github.com/mgpai22/fillercut/internal/audio"
)

// what happens to cut spans
type Mode string

const (
	// remove cut spans and join the rest
	ModeCut Mode = "cut"
	// keep the timeline and mark cut spans with a tone
	ModeBeep Mode = "beep"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCut:
		return ModeCut, nil
	case ModeBeep, "debug":
		return ModeBeep, nil
	default:
		return "", fmt.Errorf("unknown mode %q: use cut or beep", s)
	}
}

const (
	DefaultToneHz     = 1000
	DefaultToneGainDB = -6
)

type Options struct {
	Mode        Mode
	CrossfadeMs int
	ToneHz      float64 // beep frequency, DefaultToneHz when zero
	ToneGainDB  float64 // beep level, DefaultToneGainDB when zero
}

// Reassemble applies the disjoint, ordered cuts to buf. With no cuts the
// original buffer is returned as is.
func Reassemble(buf *audio.Buffer, cuts []Interval, opts Options) (*audio.Buffer, error) {
	if len(cuts) == 0 {
		return buf, nil
	}

	switch opts.Mode {
	case ModeBeep:
		return beep(buf, cuts, opts)
	case ModeCut, "":
		return cut(buf, cuts, opts.CrossfadeMs)
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
}

func beep(buf *audio.Buffer, cuts []Interval, opts Options) (*audio.Buffer, error) {
	hz := opts.ToneHz
	if hz == 0 {
		hz = DefaultToneHz
	}
	gain := opts.ToneGainDB
	if gain == 0 {
		gain = DefaultToneGainDB
	}

	out := buf
	for _, c := range cuts {
		if c.Duration() < 1 {
			continue
		}
		tone := audio.Tone(buf.Format(), hz, c.Duration(), gain)
		var err error
		if out, err = out.Overlay(tone, c.StartMs); err != nil {
			return nil, fmt.Errorf("failed to overlay tone at %s: %w", c, err)
		}
	}
	return out, nil
}

func cut(buf *audio.Buffer, cuts []Interval, crossfadeMs int) (*audio.Buffer, error) {
	out := audio.Empty(buf.Format())

	for _, k := range Kept(cuts, buf.SpanMs()) {
		fade := 0
		if crossfadeMs > 0 && out.Frames() > 0 {
			fade = crossfadeMs
		}
		next, err := out.Append(buf.Slice(k.StartMs, k.EndMs), fade)
		if err != nil {
			return nil, fmt.Errorf("failed to append %s: %w", k, err)
		}
		out = next
	}
	return out, nil
}
