package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/riskibarqy/contested-territory/internal/domain/accrual"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/replay"
	"github.com/spf13/cobra"
)

type replayOptions struct {
	input       string
	format      string
	start       uint64
	stopOnError bool
	logLevel    string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay [events.jsonl]",
		Short: "Replay a contest event stream against in-memory stores",
		Long: `Applies a JSONL stream of hill and lobby events in order, using each event's
"t" as the clock, then prints the resulting statuses and payout intents.
Reads stdin when no file is given or the file is "-".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}
			return runReplay(cmd, out, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	cmd.Flags().Uint64Var(&opts.start, "start", 0, "initial clock reading")
	cmd.Flags().BoolVar(&opts.stopOnError, "stop-on-error", false, "abort at the first rejected event")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "error", "log level for engine logs written to stderr")
	return cmd
}

func runReplay(cmd *cobra.Command, out io.Writer, opts replayOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}
	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if opts.input != "" && opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("open events: %w", err)
		}
		defer f.Close()
		in = f
	}

	events, err := replay.Decode(in)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	runner := replay.NewRunner(accrual.Timestamp(opts.start), logging.NewJSONWriter(cmd.ErrOrStderr(), level))
	outcomes, runErr := runner.Run(ctx, events, opts.stopOnError)

	report, err := runner.Snapshot(ctx)
	if err != nil {
		return err
	}
	report.Events = outcomes

	if format == "json" {
		err = report.WriteJSON(out)
	} else {
		err = report.WriteText(out)
	}
	if err != nil {
		return err
	}
	return runErr
}
