package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/fillercut/internal/config"
	"github.com/mgpai22/fillercut/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fillercut",
	Short: "Remove filler words and stutters from recordings",
	Long: `Fillercut transcribes a recording with word timestamps, finds filler
words ("um", "uh", "hmm") and stutters ("I I think"), and either beeps over
them or cuts them out.

Beep mode keeps the original length so you can review what would be removed.
Cut mode removes the spans and joins the rest with a short crossfade.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.LoadEnvFiles()
		if err != nil {
			return err
		}
		for _, f := range loaded {
			logger.Debugw("loaded env file", "path", f)
		}

		var (
			path   string
			exists bool
		)
		cfg, path, exists, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if exists {
			logger.Debugw("loaded config", "path", path)
		}
		return nil
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel the run.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ~/.config/fillercut/config.toml)")
}
