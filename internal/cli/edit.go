package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mgpai22/fillercut/internal/pipeline"
	"github.com/mgpai22/fillercut/internal/transcript"
)

var editCmd = &cobra.Command{
	Use:   "edit [media_file]",
	Short: "Remove hand-picked words from a recording",
	Long: `Remove exactly the words you select, by index into the transcript.

Run "fillercut transcribe" first to see the numbered words, then pass the
indices as a JSON array or a comma list. Edits cut by default and apply no
lookback, padding or crossfade unless asked to.

Examples:
  fillercut transcribe talk.wav -o talk.json
  fillercut edit talk.wav --transcript talk.json --select "[3, 4, 17]"
  fillercut edit talk.wav --select 3,4 --mode beep`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	addTranscriptionFlags(editCmd)
	addOutputFlags(editCmd)

	editCmd.Flags().
		StringP("select", "s", "", "Word indices to remove, e.g. \"[1, 4]\" or \"1,4\"")
	_ = editCmd.MarkFlagRequired("select")
}

func runEdit(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx := cmd.Context()

	// hand edits are exact unless the user widens them
	cfg.Output.Mode = "cut"
	cfg.Detection.LookbackMs = 0
	cfg.Detection.PaddingMs = 0
	cfg.Output.CrossfadeMs = 0

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
	selection, _ := cmd.Flags().GetString("select")

	var words []transcript.Word
	if path, _ := cmd.Flags().GetString("transcript"); path != "" {
		tr, err := transcript.Load(path)
		if err != nil {
			return err
		}
		words = tr.Words
		logger.Infow("Loaded transcript", "path", path, "words", len(words))
	}

	var p *pipeline.Processor
	if words != nil {
		p = pipeline.New(nil, opts, logger)
	} else {
		transcriber, err := newTranscriber(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		if closer, ok := transcriber.(io.Closer); ok {
			defer closer.Close()
		}
		p = pipeline.New(transcriber, opts, logger)
	}

	res, err := p.Edit(ctx, input, words, selection)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	printResult(cmd.OutOrStdout(), res)
	return nil
}
