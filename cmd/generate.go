package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"aicomment/pkg/config"
	"aicomment/pkg/document"
	"aicomment/pkg/formatter"
	"aicomment/pkg/lang"
	"aicomment/pkg/llm"
	"aicomment/pkg/prompt"
	"aicomment/pkg/tokens"
	"aicomment/pkg/ux"
	"aicomment/pkg/vcs"

	"github.com/spf13/cobra"
)

// generateFlags holds the command-line flags of the root command
type generateFlags struct {
	functionCode     string
	hasFunctionCode  bool
	lineThreshold    int
	localModel       string
	withSourceCode   bool
	inline           bool
	gpt4             bool
	gpt35_16k        bool
	guided           bool
	azureDeployment  string
	ollamaModel      string
	ollamaBaseURL    string
	tokenCeiling     int
	tallyAfterBudget bool
	maxMethods       int
	dryRun           bool
	diff             bool
	backup           bool
	format           bool
	summary          bool
	language         string
	configPath       string
}

var gen generateFlags

func init() {
	f := rootCmd.Flags()
	f.StringVar(&gen.functionCode, "function-code", "", "Document only this function source instead of the whole file")
	f.IntVar(&gen.lineThreshold, "line-threshold", config.DefaultLineThreshold, "Only document methods with more newlines than this")
	f.StringVar(&gen.localModel, "local-model", "", "Path to a local model file")
	f.BoolVar(&gen.withSourceCode, "comment-with-source-code", false, "Replace the method with the model's commented version")
	f.BoolVar(&gen.inline, "inline", false, "Also add inline comments to method bodies (implies replacing the method)")
	f.BoolVar(&gen.gpt4, "gpt4", false, "Use GPT-4 (default GPT-3.5)")
	f.BoolVar(&gen.gpt35_16k, "gpt3_5-16k", false, "Use GPT-3.5 16k (default GPT-3.5 4k)")
	f.BoolVar(&gen.guided, "guided", false, "Ask for confirmation before documenting each method")
	f.StringVar(&gen.azureDeployment, "azure-deployment", "", "Azure OpenAI deployment name")
	f.StringVar(&gen.ollamaModel, "ollama-model", "", "Ollama model name")
	f.StringVar(&gen.ollamaBaseURL, "ollama-base-url", llm.DefaultOllamaURL, "Ollama base URL")
	f.IntVar(&gen.tokenCeiling, "token-ceiling", config.DefaultTokenCeiling, "Skip methods above this many tokens unless the model has extended context")
	f.BoolVar(&gen.tallyAfterBudget, "tally-after-budget", false, "Leave methods skipped for size out of the input token total")
	f.IntVar(&gen.maxMethods, "max-methods", 0, "Stop after documenting this many methods (0 = unlimited)")
	f.BoolVar(&gen.dryRun, "dry-run", false, "Show what would be documented without calling the model")
	f.BoolVar(&gen.diff, "diff", false, "Print the changes made to the file")
	f.BoolVarP(&gen.backup, "backup", "b", false, "Write <file>.bak before the first change")
	f.BoolVarP(&gen.format, "format", "f", false, "Run the language formatter on the file afterwards")
	f.BoolVar(&gen.summary, "summary", false, "Print a table of per-method outcomes")
	f.StringVarP(&gen.language, "language", "l", "", "Override language detection")
	f.StringVarP(&gen.configPath, "config", "c", "", "Path to "+config.FileName)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("please provide a file")
	}
	target := args[0]

	cfg, cfgPath, err := config.Resolve(gen.configPath, target)
	if err != nil {
		return err
	}

	f := gen
	f.hasFunctionCode = cmd.Flags().Changed("function-code")
	if !cmd.Flags().Changed("line-threshold") {
		f.lineThreshold = cfg.LineThreshold
	}
	if !cmd.Flags().Changed("token-ceiling") {
		f.tokenCeiling = cfg.TokenCeiling
	}

	env := runEnv{
		console: ux.NewConsole(),
		checker: vcs.NewGit(),
	}
	if f.guided {
		env.confirmer = prompt.NewInteractivePrompter()
	}

	return generate(cmd.Context(), target, cfg, cfgPath != "", f, env)
}

// runEnv carries the terminal-facing collaborators of a run
type runEnv struct {
	console   *ux.Console
	confirmer document.Confirmer
	checker   document.ChangeChecker
}

func generate(ctx context.Context, target string, cfg *config.Config, fromFile bool, f generateFlags, env runEnv) error {
	console := env.console

	opts := processingOptions(f)
	if err := opts.Validate(); err != nil {
		console.Warn("The line_threshold should be a positive integer. No comments will be generated.")
		return nil
	}

	if cfg.Ignored(target) {
		console.Warn(fmt.Sprintf("%s matches an ignore pattern. Skipping...", target))
		return nil
	}

	prepare := document.PrepareOptions{
		FunctionCode:    f.functionCode,
		HasFunctionCode: f.hasFunctionCode,
		Checker:         env.checker,
	}
	if f.language != "" {
		l, err := lang.Parse(f.language)
		if err != nil {
			return err
		}
		prepare.Language = l
	}

	doc, nodes, err := document.Prepare(ctx, target, prepare)
	if err != nil {
		return err
	}
	doc.EnableBackup(f.backup)

	llmConfig, err := backendConfig(cfg, f, fromFile)
	if err != nil {
		return err
	}
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	llmService := llm.NewDocumentationService(provider)

	if !f.dryRun {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = llmService.TestConnection(connCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to LLM: %w", err)
		}
	}

	modelInfo := llmService.GetModelInfo()
	console.Info(fmt.Sprintf("🤖 Using %s model %s for %d methods in %s", modelInfo.Provider, modelInfo.Name, len(nodes), doc.GetFilename()))

	serviceOpts := []document.ServiceOption{document.WithReporter(console)}
	if env.confirmer != nil {
		serviceOpts = append(serviceOpts, document.WithConfirmer(env.confirmer))
	}
	docService := document.NewDocumentationService(llmService, tokens.New(), serviceOpts...)

	result, runErr := docService.Run(ctx, doc, nodes, opts)
	if result != nil {
		console.Tally(result.Tally)
		if f.summary {
			console.Summary(result)
		}
	}
	if runErr != nil {
		return runErr
	}

	if f.format && doc.IsModified() {
		if err := formatter.New().FormatFile(ctx, doc.GetFilename(), doc.Language()); err != nil {
			console.Warn(fmt.Sprintf("formatter failed: %v", err))
		}
	}

	if f.diff {
		diff, err := doc.Diff()
		if err != nil {
			return err
		}
		console.Diff(doc.GetFilename(), diff)
	}

	return nil
}

func processingOptions(f generateFlags) document.ProcessingOptions {
	opts := document.DefaultProcessingOptions()
	opts.Mode = document.ModeFor(f.inline, f.withSourceCode)
	opts.LineThreshold = f.lineThreshold
	opts.TokenCeiling = f.tokenCeiling
	opts.ExtendedContext = f.gpt4 || f.gpt35_16k
	opts.TallyBeforeBudget = !f.tallyAfterBudget
	opts.MaxMethods = f.maxMethods
	opts.DryRun = f.dryRun
	opts.Guided = f.guided
	return opts
}

// backendConfig picks the model backend. Flags are checked in order: Azure
// deployment, GPT-4, GPT-3.5 16k, Ollama model, local model. Without any of
// them the configuration file decides, and without a file the default is
// OpenAI's GPT-3.5.
func backendConfig(cfg *config.Config, f generateFlags, fromFile bool) (*llm.Config, error) {
	c := cfg.Config
	model := llm.DefaultOpenAIModel
	switch {
	case f.gpt4:
		model = llm.GPT4Model
	case f.gpt35_16k:
		model = llm.GPT35Model16
	}

	switch {
	case f.azureDeployment != "":
		if c.Provider != "azure" {
			c.URL = ""
		}
		c.Provider = "azure"
		c.Deployment = f.azureDeployment
		c.Model = model
	case f.gpt4 || f.gpt35_16k:
		if c.Provider != "openai" {
			c.URL = ""
		}
		c.Provider = "openai"
		c.Model = model
	case f.ollamaModel != "":
		c.Provider = "ollama"
		c.Model = f.ollamaModel
		c.URL = f.ollamaBaseURL
	case f.localModel != "":
		c.Provider = "local"
		c.ModelPath = f.localModel
	case fromFile:
	default:
		c.Provider = "openai"
		c.Model = model
		c.URL = ""
		config.OverrideFromEnv(&c)
	}

	switch strings.ToLower(c.Provider) {
	case "openai":
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	case "azure":
		c.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		if c.URL == "" {
			c.URL = os.Getenv("AZURE_OPENAI_ENDPOINT")
		}
	case "local":
		if c.ModelPath == "" {
			return nil, errors.New("local backend needs --local-model or model_path")
		}
	}

	return &c, nil
}
