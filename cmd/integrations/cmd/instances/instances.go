// Package instances provides the instances command and its subcommands,
// which create, inspect and remove integration instances.
package instances

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/cmd/alerts"
	"github.com/agentstation/integrations/internal/cmd/cmdutil"
	"github.com/agentstation/integrations/internal/cmd/output"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/manager"
)

// NewCommand creates the instances command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance", "inst"},
		GroupID: "core",
		Short:   "Manage integration instances",
		Long: `An instance is one installation of a template against a data source.
Adding an instance installs the template's saved objects and queries in
the object store and records which objects it owns; deleting it removes
them again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(NewAddCommand(app))
	cmd.AddCommand(NewListCommand(app))
	cmd.AddCommand(NewGetCommand(app))
	cmd.AddCommand(NewDeleteCommand(app))
	return cmd
}

// NewAddCommand creates the instances add command.
func NewAddCommand(app application.Application) *cobra.Command {
	var opts manager.LoadOptions
	var dataSource string
	cmd := &cobra.Command{
		Use:   "add <template>",
		Short: "Install a template as a new instance",
		Example: `  integrations instances add nginx --name nginx-prod --data-source logs-nginx-prod
  integrations instances add nginx --name edge --data-source logs-nginx-edge --workflow dashboards`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			opts.DataSource = integrations.ParseDataSource(dataSource)
			inst, err := m.LoadIntegrationInstance(ctx, args[0], opts)
			if err != nil {
				return err
			}
			return printInstance(cmd, format, inst)
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "instance name")
	cmd.Flags().StringVar(&dataSource, "data-source", "", "data source as <type>-<dataset>-<namespace>")
	cmd.Flags().StringSliceVar(&opts.Workflows, "workflow", nil, "workflows to install (default: those enabled by default)")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "tags to record on the instance")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("data-source")
	return cmd
}

// NewListCommand creates the instances list command.
func NewListCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed instances",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			list, err := m.GetIntegrationInstances(ctx)
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, list, func(wide bool) output.Data {
				return output.InstancesTable(list.Hits, wide)
			})
		},
	}
}

// NewGetCommand creates the instances get command.
func NewGetCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an instance and the status of each asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			inst, err := m.GetIntegrationInstance(ctx, args[0])
			if err != nil {
				return err
			}
			return printInstance(cmd, format, inst)
		},
	}
}

// NewDeleteCommand creates the instances delete command.
func NewDeleteCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an instance and the objects it installed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			deleted, err := m.DeleteIntegrationInstance(ctx, args[0])
			if err != nil {
				return err
			}
			alert := alerts.NewSuccess("Deleted instance " + args[0]).
				WithDetails("removed: " + strings.Join(deleted, ", "))
			return alerts.Write(cmd.OutOrStdout(), format, alert)
		},
	}
}

func printInstance(cmd *cobra.Command, format output.Format, inst *integrations.Instance) error {
	w := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, inst)
	}
	header := output.InstancesTable([]integrations.Instance{*inst}, format == output.FormatWide)
	if err := output.NewFormatter(format).Format(w, header); err != nil {
		return err
	}
	return output.NewFormatter(format).Format(w, output.AssetsTable(inst.Assets))
}
