package main

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sant0-9/memomate/internal/config"
	"github.com/sant0-9/memomate/internal/llm"
	"github.com/sant0-9/memomate/internal/logging"
	"github.com/sant0-9/memomate/internal/metrics"
	"github.com/sant0-9/memomate/internal/pipeline"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "memomate",
		Short: "MemoMate: quizzes, summaries and explanations for exam revision",
		Long: "memomate turns a topic or your class notes (PDF/DOCX) into a quiz, a summary " +
			"or a plain explanation using an OpenAI-compatible model (Groq by default). " +
			"Run without a command to open the terminal UI.",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.configPath != "" {
				os.Setenv("MEMOMATE_CONFIG", flags.configPath) //nolint:errcheck // only fails on invalid keys
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/memomate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(
		newTUICmd(),
		newServeCmd(),
		newAskCmd(flags),
		newExtractCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// loadConfig resolves file and environment settings and rejects configs the
// completion client cannot use.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		if path, perr := config.ConfigPath(); perr == nil {
			return nil, goerr.Wrap(err, "set GROQ_API_KEY or MEMOMATE_API_KEY, or run memomate to configure", goerr.V("config", path))
		}
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr, or to a file when one is configured.
func newLogger(cfg *config.Config, file string) (*logging.Logger, error) {
	mode := "dev"
	if cfg.Log != nil {
		mode = cfg.Log.Mode
		if file == "" {
			file = cfg.Log.File
		}
	}
	return logging.New(mode, file)
}

// defaultLogFile keeps TUI logs off the terminal.
func defaultLogFile() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "memomate.log")
	}
	return filepath.Join(dir, "memomate.log")
}

func newPipeline(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*pipeline.Pipeline, llm.Provider, error) {
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.NewPipeline(provider,
		pipeline.WithModel(cfg.Model),
		pipeline.WithTimeout(cfg.Timeout),
		pipeline.WithMaxUploadChars(cfg.MaxUploadChars),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
	)
	return p, provider, nil
}
