// Package serialize provides the serialize command, which exports an
// integration as a self-contained bundle.
package serialize

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/cmd/cmdutil"
	"github.com/agentstation/integrations/internal/cmd/output"
)

type options struct {
	version string
	out     string
}

// NewCommand creates the serialize command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "serialize <name>",
		Aliases: []string{"export"},
		GroupID: "management",
		Short:   "Export an integration as a self-contained bundle",
		Long: `Serialize inlines every file an integration references into its config:
component mappings, saved objects, queries, base64 encoded statics and
sample data. The bundle can be uploaded to another deployment.`,
		Example: `  integrations serialize nginx -O nginx.json
  integrations serialize nginx --version 1.0.0 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.version, "version", "", "template version (default latest)")
	cmd.Flags().StringVarP(&opts.out, "output-file", "O", "", "write the bundle to this file instead of stdout")
	return cmd
}

func run(cmd *cobra.Command, app application.Application, name string, opts *options) error {
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	if format != output.FormatYAML {
		format = output.FormatJSON
	}
	m, err := app.Manager()
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.Context(cmd, app)
	defer cancel()

	bundle, err := m.Serialize(ctx, name, opts.version)
	if err != nil {
		return err
	}

	if opts.out == "" || opts.out == "-" {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), bundle)
	}
	var buf bytes.Buffer
	if err := output.NewFormatter(format).Format(&buf, bundle); err != nil {
		return err
	}
	return cmdutil.WriteOutput(cmd, opts.out, buf.Bytes())
}
