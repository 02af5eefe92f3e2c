// Package show provides the show command, which prints one integration
// template or one of its resolved parts.
package show

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/cmd/cmdutil"
	"github.com/agentstation/integrations/internal/cmd/output"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/manager"
)

// Parts that can be shown.
const (
	PartConfig  = "config"
	PartSchemas = "schemas"
	PartAssets  = "assets"
	PartData    = "data"
	PartStatic  = "static"
)

type options struct {
	part   string
	static string
	out    string
}

// NewCommand creates the show command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "show <name>",
		Aliases: []string{"get"},
		GroupID: "core",
		Short:   "Show an integration template",
		Long: `Show prints the latest config of an integration template, or one of its
parts: the component schemas, the resolved assets, sample data with fresh
timestamps, or the raw bytes of a static image.`,
		Example: `  integrations show nginx
  integrations show nginx --part assets -o json
  integrations show nginx --part static --path logo.svg -O logo.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.part, "part", PartConfig, "part to show: config, schemas, assets, data, static")
	cmd.Flags().StringVar(&opts.static, "path", "", "static asset path (with --part static)")
	cmd.Flags().StringVarP(&opts.out, "output-file", "O", "", "write static bytes to this file instead of stdout")
	return cmd
}

func run(cmd *cobra.Command, app application.Application, name string, opts *options) error {
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	m, err := app.Manager()
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.Context(cmd, app)
	defer cancel()

	w := cmd.OutOrStdout()
	switch opts.part {
	case PartConfig:
		cfg, err := m.GetIntegrationTemplate(ctx, name)
		if err != nil {
			return err
		}
		return output.Print(w, format, cfg, func(bool) output.Data {
			return output.TemplateTable(*cfg)
		})
	case PartSchemas:
		schemas, err := m.GetSchemas(ctx, name)
		if err != nil {
			return err
		}
		return output.Print(w, jsonUnlessYAML(format), schemas, nil)
	case PartAssets:
		assets, err := m.GetAssets(ctx, name)
		if err != nil {
			return err
		}
		return output.Print(w, format, assets, func(bool) output.Data {
			return output.BundleTable(*assets)
		})
	case PartData:
		data, err := m.GetSampleData(ctx, name)
		if err != nil {
			return err
		}
		return output.Print(w, jsonUnlessYAML(format), data, nil)
	case PartStatic:
		if opts.static == "" {
			return errors.NewValidationError("path", "", "required with --part static")
		}
		var static *manager.Static
		static, err = m.GetStatic(ctx, name, opts.static)
		if err != nil {
			return err
		}
		return cmdutil.WriteOutput(cmd, opts.out, static.Data)
	}
	return errors.NewValidationError("part", opts.part, "must be one of: config, schemas, assets, data, static")
}

// jsonUnlessYAML picks JSON for free-form documents that have no table form.
func jsonUnlessYAML(format output.Format) output.Format {
	if format == output.FormatYAML {
		return format
	}
	return output.FormatJSON
}
