// Package modelscmder provides the models command.
package modelscmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lingo/pkg/cliui"
	"github.com/papercomputeco/lingo/pkg/config"
	"github.com/papercomputeco/lingo/pkg/ollama"
	"github.com/papercomputeco/lingo/pkg/relayclient"
)

type modelsCommander struct {
	serverURL   string
	model       string
	relayTarget string
}

type lister interface {
	Tags(ctx context.Context, serverURL string) (*ollama.TagsResponse, error)
}

const modelsLongDesc string = `List the models available on the Ollama server.

The model lingo would use is marked. That is the configured model when the
server has it, otherwise the first model listed.

Examples:
  lingo models
  lingo models --server http://gpu-box:11434
  lingo models --relay http://localhost:8090`

const modelsShortDesc string = "List available models"

var modelsFlagKeys = []string{
	config.FlagServer,
	config.FlagModel,
	config.FlagRelayTarget,
}

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.LoadViper(cmd, config.Flags, modelsFlagKeys)
			if err != nil {
				return err
			}
			cmder.serverURL = v.GetString(config.Flags[config.FlagServer].ViperKey)
			cmder.model = v.GetString(config.Flags[config.FlagModel].ViperKey)
			cmder.relayTarget = v.GetString(config.Flags[config.FlagRelayTarget].ViperKey)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.serverURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagRelayTarget, &cmder.relayTarget)

	return cmd
}

func (c *modelsCommander) lister() lister {
	if c.relayTarget != "" {
		return relayclient.New(c.relayTarget)
	}
	return ollama.NewClient()
}

func (c *modelsCommander) run(ctx context.Context, out, errOut io.Writer) error {
	var tags *ollama.TagsResponse
	err := cliui.Step(errOut, "Listing models on "+c.serverURL, func() error {
		var err error
		tags, err = c.lister().Tags(ctx, c.serverURL)
		return err
	})
	if err != nil {
		return err
	}

	names := tags.Names()
	if len(names) == 0 {
		fmt.Fprintf(out, "\n  %s\n", cliui.DimStyle.Render("No models found. Pull one with \"ollama pull <model>\"."))
		return nil
	}

	selected := ollama.ResolveModel(c.model, names)

	fmt.Fprintln(out)
	for _, m := range tags.Models {
		marker := " "
		name := m.Name
		if m.Name == selected {
			marker = cliui.SuccessMark
			name = cliui.NameStyle.Render(m.Name)
		}

		var details []string
		if m.Details.ParameterSize != "" {
			details = append(details, m.Details.ParameterSize)
		}
		if m.Details.QuantizationLevel != "" {
			details = append(details, m.Details.QuantizationLevel)
		}
		if m.Size > 0 {
			details = append(details, formatSize(m.Size))
		}

		line := fmt.Sprintf("  %s %s", marker, name)
		if len(details) > 0 {
			line += "  " + cliui.DimStyle.Render(strings.Join(details, " · "))
		}
		fmt.Fprintln(out, line)
	}

	if c.model != "" && c.model != selected {
		fmt.Fprintf(out, "\n  %s configured model %s is not on this server\n",
			cliui.FailMark, cliui.KeyStyle.Render(c.model))
	}
	return nil
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
