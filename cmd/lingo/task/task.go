// Package taskcmder provides the translate and spellcheck commands. Both
// build a prompt from input text and stream one generation to stdout.
package taskcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/lingo/pkg/cliui"
	"github.com/papercomputeco/lingo/pkg/config"
	"github.com/papercomputeco/lingo/pkg/filewatch"
	"github.com/papercomputeco/lingo/pkg/generation"
	"github.com/papercomputeco/lingo/pkg/logger"
	"github.com/papercomputeco/lingo/pkg/ollama"
	"github.com/papercomputeco/lingo/pkg/relayclient"
	"github.com/papercomputeco/lingo/pkg/utils"
)

// ErrInterrupted is returned when the user interrupts a generation. The
// partial output has already been printed.
var ErrInterrupted = errors.New("interrupted")

// ErrNoInput is returned when neither arguments nor stdin carry text.
var ErrNoInput = errors.New("no input text: pass it as arguments or on stdin")

// backend opens streams and lists models, either against Ollama directly or
// through a lingo relay.
type backend interface {
	generation.Streamer
	Tags(ctx context.Context, serverURL string) (*ollama.TagsResponse, error)
}

// taskCommander holds the flags shared by translate and spellcheck.
type taskCommander struct {
	serverURL   string
	model       string
	relayTarget string
	watch       string
	debug       bool

	logger *slog.Logger
}

// promptFunc turns the input text into the generation prompt.
type promptFunc func(text string) string

// loadConfig resolves flag > env > config file > default for the registry
// keys into the targets.
func loadConfig(cmd *cobra.Command, keys []string, targets map[string]*string) error {
	v, err := config.LoadViper(cmd, config.Flags, keys)
	if err != nil {
		return err
	}

	for key, target := range targets {
		*target = v.GetString(config.Flags[key].ViperKey)
	}
	return nil
}

func (c *taskCommander) addFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &c.serverURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &c.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagRelayTarget, &c.relayTarget)
	cmd.Flags().StringVarP(&c.watch, "watch", "w", "", "Re-run whenever this file changes")
}

func (c *taskCommander) sharedKeys() map[string]*string {
	return map[string]*string{
		config.FlagServer:      &c.serverURL,
		config.FlagModel:       &c.model,
		config.FlagRelayTarget: &c.relayTarget,
	}
}

func (c *taskCommander) backend() backend {
	if c.relayTarget != "" {
		c.logger.Debug("using relay", "relay", c.relayTarget)
		return relayclient.New(c.relayTarget)
	}
	return ollama.NewClient()
}

// resolveModel returns the configured model, or the first model the server
// lists when none is configured. An empty result makes the session fail
// with the no-model message.
func (c *taskCommander) resolveModel(ctx context.Context, b backend) (string, error) {
	if c.model != "" {
		return c.model, nil
	}

	tags, err := b.Tags(ctx, c.serverURL)
	if err != nil {
		return "", fmt.Errorf("listing models: %w", err)
	}

	model := ollama.ResolveModel("", tags.Names())
	c.logger.Debug("auto-selected model", "model", model)
	return model, nil
}

// run executes a task command: one generation over the input text, or one
// per change to the watched file.
func (c *taskCommander) run(cmd *cobra.Command, args []string, build promptFunc) error {
	c.debug, _ = cmd.Flags().GetBool("debug")
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(logger.FormatPretty),
		logger.WithTimestamps(false),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := c.backend()
	model, err := c.resolveModel(ctx, b)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := cliui.NewStreamPrinter(out)
	observe := printer.Observe
	if c.watch != "" {
		// One-shot runs return the failure to the caller; in watch mode
		// nothing does, so it is rendered as it happens.
		stderr := cmd.ErrOrStderr()
		observe = func(st generation.State) {
			printer.Observe(st)
			if st.Status == generation.StatusFailed && st.Err != "" {
				fmt.Fprintf(stderr, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(st.Err))
			}
		}
	}
	session := generation.NewSession(b,
		generation.WithLogger(c.logger),
		generation.WithObserver(observe),
	)

	// Blank text leaves the prompt empty so the session goes idle instead
	// of sending a template with nothing to work on.
	request := func(text string) generation.Request {
		req := generation.Request{ServerURL: c.serverURL, Model: model}
		if strings.TrimSpace(text) != "" {
			req.Prompt = build(text)
		}
		c.logger.Debug("generation request", "model", model, "input", utils.Truncate(text, 60))
		return req
	}

	if c.watch != "" {
		return c.runWatch(ctx, session, out, request)
	}

	text, err := inputText(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ErrNoInput
	}

	session.Generate(ctx, request(text))
	state, err := session.Wait(ctx)
	if state.Output != "" {
		fmt.Fprintln(out)
	}

	switch {
	case err != nil:
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", cliui.DimStyle.Render("(interrupted)"))
		return ErrInterrupted
	case state.Status == generation.StatusFailed:
		return state.Failure()
	}
	return nil
}

// runWatch starts a generation for the file's content and again on every
// change, each one superseding the last, until ctx ends.
func (c *taskCommander) runWatch(ctx context.Context, session *generation.Session, out io.Writer, request func(string) generation.Request) error {
	c.logger.Info("watching for changes", "file", c.watch)

	err := filewatch.Watch(ctx, c.watch, func(content string) {
		session.Generate(ctx, request(content))
	})
	session.Abort()

	if state := session.State(); state.Output != "" {
		fmt.Fprintln(out)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// inputText joins the arguments, or reads stdin when there are none and
// stdin is not a terminal.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", ErrNoInput
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
