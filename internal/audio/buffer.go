package audio

import (
	"fmt"
	"math"
	"slices"
)

// PCM layout shared by every buffer derived from one source
type PCMFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func (f PCMFormat) validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
}

func (f PCMFormat) maxSample() int {
	return 1<<(f.BitDepth-1) - 1
}

func (f PCMFormat) minSample() int {
	return -(1 << (f.BitDepth - 1))
}

// number of frames covering ms milliseconds
func (f PCMFormat) framesFor(ms int) int {
	return int(int64(ms) * int64(f.SampleRate) / 1000)
}

// Buffer is an immutable PCM timeline. Every operation returns a new Buffer;
// the receiver's samples are never modified.
type Buffer struct {
	format PCMFormat
	data   []int // interleaved samples, len = frames * channels
}

// wraps interleaved samples; data is copied
func NewBuffer(format PCMFormat, data []int) (*Buffer, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if len(data)%format.Channels != 0 {
		return nil, fmt.Errorf(
			"sample count %d is not a multiple of %d channels",
			len(data),
			format.Channels,
		)
	}
	return &Buffer{format: format, data: slices.Clone(data)}, nil
}

// zero-length buffer in the given format
func Empty(format PCMFormat) *Buffer {
	return &Buffer{format: format}
}

// digital silence lasting ms milliseconds
func Silence(format PCMFormat, ms int) *Buffer {
	if ms < 0 {
		ms = 0
	}
	return &Buffer{
		format: format,
		data:   make([]int, format.framesFor(ms)*format.Channels),
	}
}

// Tone is a sine wave at hz, gainDB relative to full scale, lasting ms milliseconds.
func Tone(format PCMFormat, hz float64, ms int, gainDB float64) *Buffer {
	if ms < 0 {
		ms = 0
	}
	frames := format.framesFor(ms)
	amplitude := float64(format.maxSample()) * math.Pow(10, gainDB/20)
	data := make([]int, frames*format.Channels)
	for i := 0; i < frames; i++ {
		v := int(math.Round(amplitude * math.Sin(2*math.Pi*hz*float64(i)/float64(format.SampleRate))))
		for c := 0; c < format.Channels; c++ {
			data[i*format.Channels+c] = v
		}
	}
	return &Buffer{format: format, data: data}
}

func (b *Buffer) Format() PCMFormat {
	return b.format
}

func (b *Buffer) Frames() int {
	return len(b.data) / b.format.Channels
}

// length rounded to the nearest millisecond
func (b *Buffer) DurationMs() int {
	sr := int64(b.format.SampleRate)
	return int((int64(b.Frames())*1000 + sr/2) / sr)
}

// length rounded up to whole milliseconds; [0, SpanMs) reaches the last frame
func (b *Buffer) SpanMs() int {
	sr := int64(b.format.SampleRate)
	return int((int64(b.Frames())*1000 + sr - 1) / sr)
}

// copy of the interleaved samples
func (b *Buffer) Samples() []int {
	return slices.Clone(b.data)
}

// reports whether both buffers hold the same format and samples
func (b *Buffer) Equal(other *Buffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.format == other.format && slices.Equal(b.data, other.data)
}

func (b *Buffer) frameAt(ms int) int {
	return min(max(b.format.framesFor(ms), 0), b.Frames())
}

// Slice returns [startMs, endMs) clamped to the buffer bounds.
func (b *Buffer) Slice(startMs, endMs int) *Buffer {
	start := b.frameAt(startMs)
	end := b.frameAt(endMs)
	if end < start {
		end = start
	}
	ch := b.format.Channels
	return &Buffer{
		format: b.format,
		data:   slices.Clone(b.data[start*ch : end*ch]),
	}
}

// Append concatenates other after b. With crossfadeMs > 0 the tail of b and the
// head of other overlap by that amount, so the result is shorter than the sum.
// The crossfade is clamped to the shorter of the two buffers.
func (b *Buffer) Append(other *Buffer, crossfadeMs int) (*Buffer, error) {
	if b.format != other.format {
		return nil, fmt.Errorf(
			"cannot append %+v audio to %+v audio",
			other.format,
			b.format,
		)
	}

	ch := b.format.Channels
	fade := 0
	if crossfadeMs > 0 {
		fade = min(b.format.framesFor(crossfadeMs), b.Frames(), other.Frames())
	}

	out := make([]int, 0, len(b.data)+len(other.data)-fade*ch)
	head := b.Frames() - fade
	out = append(out, b.data[:head*ch]...)

	for i := 0; i < fade; i++ {
		// linear ramp: b fades out while other fades in
		in := float64(i+1) / float64(fade+1)
		for c := 0; c < ch; c++ {
			a := float64(b.data[(head+i)*ch+c]) * (1 - in)
			o := float64(other.data[i*ch+c]) * in
			out = append(out, b.clip(int(math.Round(a+o))))
		}
	}

	out = append(out, other.data[fade*ch:]...)
	return &Buffer{format: b.format, data: out}, nil
}

// Overlay mixes patch into b starting at atMs. The result keeps b's length;
// patch samples past the end of b are dropped.
func (b *Buffer) Overlay(patch *Buffer, atMs int) (*Buffer, error) {
	if b.format != patch.format {
		return nil, fmt.Errorf(
			"cannot overlay %+v audio on %+v audio",
			patch.format,
			b.format,
		)
	}

	out := slices.Clone(b.data)
	offset := b.frameAt(atMs) * b.format.Channels
	for i, v := range patch.data {
		pos := offset + i
		if pos >= len(out) {
			break
		}
		out[pos] = b.clip(out[pos] + v)
	}
	return &Buffer{format: b.format, data: out}, nil
}

func (b *Buffer) clip(v int) int {
	return min(max(v, b.format.minSample()), b.format.maxSample())
}
