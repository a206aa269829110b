package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/fillercut/internal/audio"
	"github.com/mgpai22/fillercut/internal/pipeline"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [media_file...]",
	Short: "Beep or cut filler words and stutters",
	Long: `Transcribe each file, detect filler words and stutters, and write a
cleaned copy next to it (name_cleaned_<id>.ext).

The default mode beeps over every detection so you can check the result.
Use --mode cut to remove the spans instead.

Examples:
  fillercut clean interview.wav
  fillercut clean podcast.mp3 --mode cut --crossfade 20
  fillercut clean talk.m4a --fillers "um,uh,like" --report talk.srt
  fillercut clean lecture.mp4 --provider openai --review`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	addTranscriptionFlags(cleanCmd)
	addOutputFlags(cleanCmd)

	cleanCmd.Flags().
		String("fillers", "", "Comma-separated filler words replacing the built-in list")
	cleanCmd.Flags().
		Int("stutter-gap", 0, "Maximum gap in milliseconds between repeated words counted as a stutter")
	cleanCmd.Flags().
		Bool("review", false, "Ask an LLM to flag context-dependent fillers such as \"like\"")
	cleanCmd.Flags().
		String("review-provider", "", "Review provider (anthropic, openai, gemini)")
	cleanCmd.Flags().
		String("review-model", "", "Review model (provider-specific)")
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := checkInputs(cmd, args); err != nil {
		return err
	}

	opts, err := pipelineOptions(cmd, cfg)
	if err != nil {
		return err
	}

	transcriber, err := newTranscriber(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	if closer, ok := transcriber.(io.Closer); ok {
		defer closer.Close()
	}

	reviewer, err := newReviewer(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Infow("Starting cleanup",
		"files", len(args),
		"provider", cfg.Transcription.Provider,
		"mode", opts.Mode,
		"lookback_ms", opts.LookbackMs,
		"padding_ms", opts.PaddingMs,
	)

	p := pipeline.New(transcriber, opts, logger)
	if reviewer != nil {
		p.WithReviewer(reviewer)
	}

	for _, input := range args {
		res, err := p.Clean(ctx, input)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		printResult(cmd.OutOrStdout(), res)
	}
	return nil
}

// checkInputs rejects missing or non-media files before any work starts.
func checkInputs(cmd *cobra.Command, args []string) error {
	if output, _ := cmd.Flags().GetString("output"); output != "" && len(args) > 1 {
		return fmt.Errorf("--output can only be used with a single input")
	}
	for _, input := range args {
		if _, err := os.Stat(input); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", input)
		}
		if !audio.IsMediaFile(input) {
			return fmt.Errorf(
				"unsupported file type: %s (expected audio or video file)",
				filepath.Ext(input),
			)
		}
	}
	return nil
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w, res.Status)
	if res.Unchanged {
		return
	}

	absOutput, _ := filepath.Abs(res.OutputPath)
	fmt.Fprintf(w, "  Output: %s\n", absOutput)
	fmt.Fprintf(w, "  Segments: %d\n", len(res.Cuts))
	fmt.Fprintf(w, "  Duration: %s -> %s\n", formatMs(res.DurationMs), formatMs(res.OutputDurationMs))
}
