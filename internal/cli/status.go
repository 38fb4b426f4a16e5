package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"qwenrelay/internal/config"
	"qwenrelay/pkg/llm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the configured llama.cpp server",
	Long:  `Probe the configured llama.cpp server's /health endpoint and print the result.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	report, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("endpoint %s is unreachable: %w", cfg.LLM.BaseURL, err)
	}

	fmt.Printf("endpoint: %s\n", cfg.LLM.BaseURL)
	fmt.Printf("ready:    %v\n", report.Ready())
	fmt.Printf("status:   %s\n", report.Summary())

	return nil
}
