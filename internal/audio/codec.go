package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/fillercut/internal/ffmpeg"
)

// output container
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
)

func (f Format) Extension() string {
	return "." + string(f)
}

// output format matching the input extension when supported, mp3 otherwise
func OutputFormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	default:
		return FormatMP3
	}
}

// DecodeWAV reads a PCM WAV stream into a Buffer.
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("unsupported WAV encoding %d (want PCM)", dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	format := PCMFormat{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	data := pcm.Data
	if format.BitDepth == 8 {
		data = shift8(data, -unsigned8Offset)
	}
	return NewBuffer(format, data)
}

// 8-bit WAV stores unsigned samples centred on 128; Buffer is signed
const unsigned8Offset = 128

func shift8(data []int, by int) []int {
	out := make([]int, len(data))
	for i, v := range data {
		out[i] = v + by
	}
	return out
}

// EncodeWAV writes b as PCM WAV.
func EncodeWAV(w io.WriteSeeker, b *Buffer) error {
	enc := wav.NewEncoder(
		w,
		b.format.SampleRate,
		b.format.BitDepth,
		b.format.Channels,
		1, // PCM
	)

	pcm := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: b.format.Channels,
			SampleRate:  b.format.SampleRate,
		},
		Data:           b.data,
		SourceBitDepth: b.format.BitDepth,
	}
	if b.format.BitDepth == 8 {
		pcm.Data = shift8(b.data, unsigned8Offset)
	}

	if len(pcm.Data) > 0 {
		if err := enc.Write(pcm); err != nil {
			return fmt.Errorf("failed to write PCM data: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return nil
}

func decodeWAVFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeWAV(f)
}

func encodeWAVFile(path string, b *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeWAV(f, b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load decodes any file ffmpeg understands into a Buffer. PCM WAV input is
// read directly; everything else is decoded to 16-bit PCM inside tempDir first.
func Load(ctx context.Context, path, tempDir string) (*Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if buf, err := decodeWAVFile(path); err == nil {
			return buf, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return nil, err
	}

	decoded := filepath.Join(tempDir, "decoded.wav")
	err = ffmpeg.Input(path).
		Output(decoded, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": "pcm_s16le",
			"f":      "wav",
		}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	buf, err := decodeWAVFile(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoded audio: %w", err)
	}
	return buf, nil
}

// Export encodes b to path in the given container. WAV is written directly,
// MP3 and FLAC go through ffmpeg.
func Export(ctx context.Context, b *Buffer, path string, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if format == FormatWAV {
		return encodeWAVFile(path, b)
	}

	tempDir, err := os.MkdirTemp("", "fillercut-export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	intermediate := filepath.Join(tempDir, "render.wav")
	if err := encodeWAVFile(intermediate, b); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	kwargs := ffmpeg.KwArgs{"y": ""}
	switch format {
	case FormatFLAC:
		kwargs["acodec"] = "flac"
	default:
		kwargs["acodec"] = "libmp3lame"
		kwargs["b:a"] = "192k"
	}

	err = ffmpeg.Input(intermediate).
		Output(path, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	return nil
}
