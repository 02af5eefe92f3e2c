package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/integrations/cmd/instances"
	"github.com/agentstation/integrations/cmd/integrations/cmd/list"
	"github.com/agentstation/integrations/cmd/integrations/cmd/serialize"
	"github.com/agentstation/integrations/cmd/integrations/cmd/serve"
	"github.com/agentstation/integrations/cmd/integrations/cmd/show"
	"github.com/agentstation/integrations/cmd/integrations/cmd/upload"
	"github.com/agentstation/integrations/cmd/integrations/cmd/validate"
	"github.com/agentstation/integrations/cmd/integrations/cmd/version"
	"github.com/agentstation/integrations/internal/server"
)

// CreateListCommand creates the list command with app dependencies.
func (a *App) CreateListCommand() *cobra.Command {
	return list.NewCommand(a)
}

// CreateShowCommand creates the show command with app dependencies.
func (a *App) CreateShowCommand() *cobra.Command {
	return show.NewCommand(a)
}

// CreateInstancesCommand creates the instances command with app dependencies.
func (a *App) CreateInstancesCommand() *cobra.Command {
	return instances.NewCommand(a)
}

// CreateServeCommand creates the serve command with server flag defaults
// taken from the config file and environment.
func (a *App) CreateServeCommand() *cobra.Command {
	return serve.NewCommand(a, func() server.Config { return a.config.Server })
}

// CreateValidateCommand creates the validate command with app dependencies.
func (a *App) CreateValidateCommand() *cobra.Command {
	return validate.NewCommand(a)
}

// CreateSerializeCommand creates the serialize command with app dependencies.
func (a *App) CreateSerializeCommand() *cobra.Command {
	return serialize.NewCommand(a)
}

// CreateUploadCommand creates the upload command with app dependencies.
func (a *App) CreateUploadCommand() *cobra.Command {
	return upload.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return version.NewCommand(a)
}
