package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"aicomment/pkg/config"
	"aicomment/pkg/llm"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [flags] [directory]",
	Short: "Write a " + config.FileName + " configuration file",
	Long: `Write a ` + config.FileName + ` configuration file with the backend and generation
defaults. The file is picked up automatically for files in the same directory
and when running from that directory.

Examples:
  # Initialize for the current directory
  aicomment init

  # Use a specific Ollama model and check that it is reachable
  aicomment init --provider ollama --model deepseek-coder:6.7b --check src/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initProvider    string
	initURL         string
	initModel       string
	initTemperature float64
	initTopP        float64
	initNumCtx      int
	initTimeout     int
	initCheck       bool
	overwrite       bool
)

func init() {
	defaults := config.Default()

	initCmd.Flags().StringVarP(&initProvider, "provider", "p", defaults.Provider, "LLM provider (ollama, openai, azure, local)")
	initCmd.Flags().StringVarP(&initURL, "url", "u", defaults.URL, "LLM API URL")
	initCmd.Flags().StringVarP(&initModel, "model", "m", defaults.Model, "LLM model name")
	initCmd.Flags().Float64Var(&initTemperature, "temperature", defaults.Temperature, "LLM temperature (0.0-1.0)")
	initCmd.Flags().Float64Var(&initTopP, "top-p", defaults.TopP, "LLM top-p value (0.0-1.0)")
	initCmd.Flags().IntVar(&initNumCtx, "context", defaults.NumCtx, "Context window size")
	initCmd.Flags().IntVar(&initTimeout, "timeout", int(defaults.Timeout/time.Second), "Request timeout in seconds")
	initCmd.Flags().BoolVar(&initCheck, "check", false, "Test the connection to the backend before writing")
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing "+config.FileName)
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	info, err := os.Stat(targetDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", targetDir)
	}

	cfg := config.Default()
	cfg.Provider = initProvider
	cfg.URL = initURL
	cfg.Model = initModel
	cfg.Temperature = initTemperature
	cfg.TopP = initTopP
	cfg.NumCtx = initNumCtx
	cfg.Timeout = time.Duration(initTimeout) * time.Second

	out := cmd.OutOrStdout()

	if initCheck {
		if err := checkBackend(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "🤖 Connected to %s\n", cfg.Provider)
	}

	path := filepath.Join(targetDir, config.FileName)
	if err := cfg.Save(path, overwrite); err != nil {
		return err
	}

	fmt.Fprintf(out, "✅ Configuration written to %s\n", path)
	return nil
}

func checkBackend(ctx context.Context, cfg *config.Config) error {
	c := cfg.Config
	switch c.Provider {
	case "openai":
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	case "azure":
		c.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}

	provider, err := llm.NewProvider(&c)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := provider.TestConnection(ctx); err != nil {
		return fmt.Errorf("cannot connect to %s: %w", c.Provider, err)
	}
	return nil
}
