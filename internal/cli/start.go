package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qwenrelay/internal/config"
	"qwenrelay/internal/daemon"
	"qwenrelay/internal/logger"
)

var startPretty bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the relay daemon",
	Long: `Start the relay daemon in the foreground. The daemon long-polls
Telegram for commands and relays /qwen prompts to the configured llama.cpp
server, one call at a time.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startPretty, "pretty", false, "pretty console log output")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  startPretty || cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}
