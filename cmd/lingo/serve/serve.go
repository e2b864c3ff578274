// Package servecmder provides the serve command, which runs the lingo relay.
package servecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lingo/pkg/config"
	"github.com/papercomputeco/lingo/pkg/logger"
	"github.com/papercomputeco/lingo/relay"
)

type serveCommander struct {
	listen      string
	upstream    string
	logFile     string
	journalFile string
	disableMCP  bool
	model       string
	source      string
	target      string
	debug       bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the lingo relay.

The relay forwards generation requests to an Ollama server and streams the
response back unchanged. Each request names its Ollama server with
"serverUrl"; requests without one go to --upstream.

Routes:
  POST /api/ollama/generate   Relay a streaming generation
  GET  /api/ollama/tags       Relay the model listing
  POST /mcp                   MCP tools (translate, spellcheck, ...)
  GET  /metrics               Prometheus metrics
  GET  /ping                  Liveness

Examples:
  lingo serve
  lingo serve --listen :9000 --upstream http://gpu-box:11434
  lingo serve --journal-file relay.jsonl --log-file relay.log`

const serveShortDesc string = "Run the lingo relay"

var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagLogFile,
	config.FlagJournalFile,
	config.FlagDisableMCP,
	config.FlagModel,
	config.FlagSource,
	config.FlagTarget,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.LoadViper(cmd, config.Flags, serveFlagKeys)
			if err != nil {
				return err
			}

			cmder.listen = v.GetString(config.Flags[config.FlagListen].ViperKey)
			cmder.upstream = v.GetString(config.Flags[config.FlagUpstream].ViperKey)
			cmder.logFile = v.GetString(config.Flags[config.FlagLogFile].ViperKey)
			cmder.journalFile = v.GetString(config.Flags[config.FlagJournalFile].ViperKey)
			cmder.disableMCP = v.GetBool(config.Flags[config.FlagDisableMCP].ViperKey)
			cmder.model = v.GetString(config.Flags[config.FlagModel].ViperKey)
			cmder.source = v.GetString(config.Flags[config.FlagSource].ViperKey)
			cmder.target = v.GetString(config.Flags[config.FlagTarget].ViperKey)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFile, &cmder.logFile)
	config.AddStringFlag(cmd, config.Flags, config.FlagJournalFile, &cmder.journalFile)
	config.AddBoolFlag(cmd, config.Flags, config.FlagDisableMCP, &cmder.disableMCP)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagSource, &cmder.source)
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)

	return cmd
}

func (c *serveCommander) run(stderr io.Writer) error {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(logger.FormatPretty),
		logger.WithComponent("relay"),
		logger.WithWriter(stderr),
	)
	if c.logFile != "" {
		f, err := openAppend(c.logFile)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		closers = append(closers, f)

		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithDebug(c.debug),
			logger.WithFormat(logger.FormatJSON),
			logger.WithComponent("relay"),
			logger.WithWriter(f),
		))
	}

	cfg := relay.Config{
		ListenAddr:     c.listen,
		UpstreamURL:    c.upstream,
		Model:          c.model,
		SourceLanguage: c.source,
		TargetLanguage: c.target,
		DisableMCP:     c.disableMCP,
	}
	if c.journalFile != "" {
		f, err := openAppend(c.journalFile)
		if err != nil {
			return fmt.Errorf("opening journal file: %w", err)
		}
		closers = append(closers, f)
		cfg.Journal = f
	}

	r, err := relay.New(cfg, c.logger, nil)
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}
	// Registered after the files so the relay drains its journal first.
	closers = append(closers, r)

	c.logger.Info("starting relay",
		"listen", c.listen,
		"upstream", c.upstream,
		"mcp", !c.disableMCP,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := r.Run(); err != nil {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
