package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mgpai22/fillercut/internal/pipeline"
	"github.com/mgpai22/fillercut/internal/transcript"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Print the numbered word-level transcript of a recording",
	Long: `Transcribe a recording and list every word with its index and timing.

The indices are what "fillercut edit --select" expects. Save the transcript
with --output to reuse it with --transcript and skip transcribing again.

Examples:
  fillercut transcribe talk.wav
  fillercut transcribe talk.wav --json
  fillercut transcribe talk.mp3 --provider gemini -o talk.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	addTranscriptionFlags(transcribeCmd)
	transcribeCmd.Flags().
		StringP("output", "o", "", "Save the transcript as JSON")
	transcribeCmd.Flags().
		Bool("json", false, "Print JSON instead of a table")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx := cmd.Context()

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := checkInputs(cmd, args); err != nil {
		return err
	}

	transcriber, err := newTranscriber(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	if closer, ok := transcriber.(io.Closer); ok {
		defer closer.Close()
	}

	words, err := pipeline.New(transcriber, pipeline.Options{}, logger).Transcribe(ctx, input)
	if err != nil {
		return err
	}
	tr := &transcript.Transcript{Words: words, Language: cfg.Transcription.Language}

	if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
		if err := transcript.Save(outputPath, tr); err != nil {
			return err
		}
		logger.Infow("Saved transcript", "path", outputPath, "words", len(words))
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tr)
	}

	if len(words) == 0 {
		fmt.Fprintln(out, "No words recognized.")
		return nil
	}
	fmt.Fprintln(out, renderWordTable(words))
	return nil
}
