package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sant0-9/memomate/internal/intent"
	"github.com/sant0-9/memomate/internal/logging"
	"github.com/sant0-9/memomate/internal/pipeline"
	"github.com/sant0-9/memomate/internal/session"
	"github.com/spf13/cobra"
)

type askOptions struct {
	task string
	file string
}

func newAskCmd(flags *globalFlags) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [topic...]",
		Short: "Ask once and print the answer",
		Example: `  memomate ask --task quiz "Newton's Laws"
  memomate ask "summarize photosynthesis"
  memomate ask --file notes.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, flags, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.task, "task", "t", "auto", "quiz, summary, explanation or auto")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "explain a .pdf or .docx file instead of a topic")

	return cmd
}

func runAsk(cmd *cobra.Command, flags *globalFlags, opts *askOptions, args []string) error {
	task, ok := intent.ParseTask(opts.task)
	if !ok {
		return goerr.New("unknown task, use quiz, summary, explanation or auto", goerr.V("task", opts.task))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.Nop()
	if flags.verbose {
		if logger, err = newLogger(cfg, ""); err != nil {
			return err
		}
		defer logger.Sync()
	}

	p, _, err := newPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ledger := session.NewLedger()

	var out *pipeline.Outcome
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return goerr.Wrap(err, "failed to read file", goerr.V("path", opts.file))
		}
		out, err = p.Upload(ctx, ledger, filepath.Base(opts.file), data)
		if err != nil {
			return err
		}
	} else {
		out, err = p.Ask(ctx, ledger, pipeline.Request{Topic: strings.Join(args, " "), Task: task})
		if err != nil {
			return err
		}
	}

	if out.Failed {
		fmt.Fprintln(cmd.ErrOrStderr(), out.Record.Response)
		return out.Err
	}
	if out.Truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: only the first %d characters of %s were sent\n", cfg.MaxUploadChars, opts.file)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out.Record.Response)
	return err
}
