package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	serve := newServeCommand(opts)

	root := &cobra.Command{
		Use:   "mozdef-proxy",
		Short: "MozDef event proxy - validates security events and queues them for MozDef",
		Long: `mozdef-proxy accepts security events over HTTP, validates and normalizes them,
and places them on the message queue MozDef consumes.

Supported queue backends:
- sqs   Amazon SQS (the standard MozDef transport)
- kafka Apache Kafka topic
- redis Redis stream
- river Postgres-backed River job queue
- log   no forwarding; events are written to the log`,
		SilenceUsage: true,
		// Run the serve command by default if no subcommand is specified
		RunE: serve.RunE,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (optional, uses env vars by default)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newVersionCommand())
	root.AddCommand(newHealthcheckCommand())
	return root
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
