// Package upload provides the upload command, which stores serialized
// integration templates in the object store.
package upload

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/cmd/alerts"
	"github.com/agentstation/integrations/internal/cmd/cmdutil"
	"github.com/agentstation/integrations/pkg/integrations"
)

// NewCommand creates the upload command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "upload <file...>",
		GroupID: "management",
		Short:   "Upload serialized integration templates",
		Long: `Upload validates each serialized template and stores it in the object
store, where it takes precedence over templates of the same name in the
filesystem and bundled catalogs. Uploading the same name and version
again replaces the stored template.`,
		Example: `  integrations upload nginx.json
  integrations serialize nginx | integrations upload -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args)
		},
	}
}

func run(cmd *cobra.Command, app application.Application, files []string) error {
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

	for _, file := range files {
		data, err := cmdutil.ReadInput(cmd, file)
		if err != nil {
			return err
		}
		cfg, err := integrations.ValidateTemplate(data).Get()
		if err != nil {
			return err
		}
		obj, err := m.UploadTemplate(ctx, integrations.SerializedIntegration{Config: cfg})
		if err != nil {
			return err
		}
		alert := alerts.NewSuccess("Uploaded " + cfg.Name + " " + cfg.Version).WithDetails("id: " + obj.ID)
		if err := alerts.Write(cmd.OutOrStdout(), format, alert); err != nil {
			return err
		}
	}
	return nil
}
