// Package list provides the list command for integration templates.
package list

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/cmd/cmdutil"
	"github.com/agentstation/integrations/internal/cmd/output"
	"github.com/agentstation/integrations/internal/matcher"
	"github.com/agentstation/integrations/pkg/integrations"
)

// NewCommand creates the list command.
func NewCommand(app application.Application) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:     "list [name]",
		Aliases: []string{"ls"},
		GroupID: "core",
		Short:   "List integration templates",
		Long: `List shows the latest version of every integration template across the
configured catalogs: uploaded templates, the filesystem catalog and the
bundled catalog, in that order of precedence.`,
		Example: `  integrations list                # All templates
  integrations list nginx          # Only nginx
  integrations list -o wide        # Extra columns
  integrations list --match 'aws_*'
  integrations list --match '^(nginx|apache)$'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			return run(cmd, app, name, match)
		},
	}
	cmd.Flags().StringVarP(&match, "match", "m", "", "only names matching a glob or regex pattern")
	return cmd
}

func run(cmd *cobra.Command, app application.Application, name, match string) error {
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	filter, err := matcher.New(matcher.Auto, match)
	if err != nil {
		return err
	}
	m, err := app.Manager()
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.Context(cmd, app)
	defer cancel()

	list, err := m.GetIntegrationTemplates(ctx, name)
	if err != nil {
		return err
	}
	list.Hits = matcher.Filter(filter, list.Hits, func(cfg integrations.Config) string { return cfg.Name })
	return output.Print(cmd.OutOrStdout(), format, list, func(wide bool) output.Data {
		return output.TemplatesTable(list.Hits, wide)
	})
}
