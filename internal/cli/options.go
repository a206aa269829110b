package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/fillercut/internal/config"
	"github.com/mgpai22/fillercut/internal/detect"
	"github.com/mgpai22/fillercut/internal/pipeline"
	"github.com/mgpai22/fillercut/internal/review"
	"github.com/mgpai22/fillercut/internal/splice"
	"github.com/mgpai22/fillercut/internal/transcribe"
)

// flags shared by every command that transcribes
func addTranscriptionFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("provider", "p", "", "Transcription provider (whisper, openai, gemini)")
	cmd.Flags().
		String("model", "", "Transcription model (provider-specific, uses sensible defaults)")
	cmd.Flags().
		String("device", "", "Device for local transcription (auto, cpu, cuda)")
	cmd.Flags().
		StringP("language", "l", "", "Language code of the recording (detected when empty)")
	cmd.Flags().
		String("transcript", "", "Use an existing word-level transcript (.json, .srt, .vtt) instead of transcribing")
	cmd.Flags().
		Int("concurrency", 0, "Parallel requests for cloud transcription of long files")
}

// flags shared by commands that write audio
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("mode", "m", "", "beep marks detections with a tone, cut removes them")
	cmd.Flags().
		Int("lookback", 0, "Milliseconds added before every detected word")
	cmd.Flags().
		Int("padding", 0, "Milliseconds added after every detected word")
	cmd.Flags().
		Int("crossfade", 0, "Crossfade in milliseconds between kept segments (cut mode)")
	cmd.Flags().
		StringP("output", "o", "", "Output file path (single input only)")
	cmd.Flags().
		String("output-dir", "", "Directory for output files (default: next to the input)")
	cmd.Flags().
		String("report", "", "Write a detection report (.srt, .vtt or .json)")
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()

	setString := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	setInt := func(name string, dst *int) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	setString("provider", &c.Transcription.Provider)
	setString("model", &c.Transcription.Model)
	setString("device", &c.Transcription.Device)
	setString("language", &c.Transcription.Language)
	setInt("concurrency", &c.Transcription.Concurrency)

	setString("mode", &c.Output.Mode)
	setInt("lookback", &c.Detection.LookbackMs)
	setInt("padding", &c.Detection.PaddingMs)
	setInt("crossfade", &c.Output.CrossfadeMs)
	setString("output-dir", &c.Output.Dir)
	setInt("stutter-gap", &c.Detection.StutterGapMs)

	if flags.Lookup("fillers") != nil && flags.Changed("fillers") {
		text, _ := flags.GetString("fillers")
		c.Detection.Fillers = detect.ParseWordList(text)
	}

	if flags.Lookup("review") != nil && flags.Changed("review") {
		c.Review.Enabled, _ = flags.GetBool("review")
	}
	setString("review-provider", &c.Review.Provider)
	setString("review-model", &c.Review.Model)

	if flags.Lookup("transcript") != nil && flags.Changed("transcript") {
		c.Transcription.Provider = string(transcribe.ProviderFile)
	}

	return c.Validate()
}

// newTranscriber builds the configured recognizer. Cloud providers split
// long recordings into chunks transcribed in parallel.
func newTranscriber(ctx context.Context, cmd *cobra.Command, c *config.Config) (transcribe.Transcriber, error) {
	provider := transcribe.Provider(c.Transcription.Provider)
	transcriptPath, _ := cmd.Flags().GetString("transcript")

	apiKey := c.APIKey(c.Transcription.Provider)
	if provider.NeedsAPIKey() && apiKey == "" {
		return nil, fmt.Errorf(
			"%s API key is required: set %s or add it to the config file",
			provider,
			apiKeyEnv(c.Transcription.Provider),
		)
	}

	t, err := transcribe.Factory(ctx, provider, apiKey, transcribe.Options{
		Language: c.Transcription.Language,
		Model:    c.Transcription.Model,
		Device:   c.Transcription.Device,
		Python:   c.Transcription.Python,
		Path:     transcriptPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	if ct, ok := t.(transcribe.ConcurrentTranscriber); ok {
		return transcribe.NewChunkedTranscriber(
			ct,
			time.Duration(c.Transcription.ChunkMinutes)*time.Minute,
			c.Transcription.Concurrency,
		), nil
	}
	return t, nil
}

// newReviewer returns nil when review is disabled.
func newReviewer(ctx context.Context, c *config.Config) (review.Reviewer, error) {
	if !c.Review.Enabled {
		return nil, nil
	}

	apiKey := c.APIKey(c.Review.Provider)
	if apiKey == "" {
		return nil, fmt.Errorf(
			"review needs an API key: set %s or add it to the config file",
			apiKeyEnv(c.Review.Provider),
		)
	}

	r, err := review.Factory(ctx, review.Provider(c.Review.Provider), apiKey, review.Options{
		Model:       c.Review.Model,
		Candidates:  c.Review.Candidates,
		BatchSize:   c.Review.BatchSize,
		Concurrency: c.Transcription.Concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reviewer: %w", err)
	}
	return r, nil
}

func pipelineOptions(cmd *cobra.Command, c *config.Config) (pipeline.Options, error) {
	mode, err := splice.ParseMode(c.Output.Mode)
	if err != nil {
		return pipeline.Options{}, err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	reportPath, _ := cmd.Flags().GetString("report")

	return pipeline.Options{
		Fillers:      c.Detection.Fillers,
		StutterGapMs: c.Detection.StutterGapMs,
		LookbackMs:   c.Detection.LookbackMs,
		PaddingMs:    c.Detection.PaddingMs,
		CrossfadeMs:  c.Output.CrossfadeMs,
		Mode:         mode,
		OutputPath:   outputPath,
		OutputDir:    c.Output.Dir,
		ReportPath:   reportPath,
	}, nil
}

func apiKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "an API key"
	}
}
