// nodedocs extracts API documentation from JavaScript and TypeScript sources.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		v:      newViper(),
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app carries the state of one run: configuration, output streams and the
// logger built from the configuration.
type app struct {
	v          *viper.Viper
	cfg        Config
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
	logCloser  io.Closer
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

const rootLong = `nodedocs extracts documentation from /** */ comments in JavaScript and
TypeScript sources and renders it as JSON, YAML, TOON, Markdown or through a
risor script.

Configuration is read from nodedocs.yaml in the current directory (or --config),
NODEDOCS_* environment variables and flags, in increasing precedence.`

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nodedocs",
		Short:         "Extract API documentation from JavaScript and TypeScript",
		Long:          rootLong,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(a.v, cmd, a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, a.logCloser = newLogger(cfg.Log, a.stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("nodedocs {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./nodedocs.yaml)")
	pf.BoolP("verbose", "v", false, "log at debug level")
	pf.String("log-file", "", "write logs to a rotating file instead of stderr")
	pf.String("log-level", "info", "log level: debug, info, warn, error or a number")

	cmd.AddCommand(
		a.extractCmd(),
		a.listCmd(),
		a.showCmd(),
		a.watchCmd(),
		a.injectCmd(),
	)
	return cmd
}
