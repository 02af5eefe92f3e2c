// Package cmdutil holds helpers shared by the integrations subcommands.
package cmdutil

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/cmd/output"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/logging"
)

// Format resolves the output format from the app, detecting a terminal
// when none is configured.
func Format(app application.Application) (output.Format, error) {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return "", err
	}
	return output.DetectFormat(string(format)), nil
}

// Context returns the command context bounded by the command timeout and
// carrying the app logger tagged with the command name.
func Context(cmd *cobra.Command, app application.Application) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	logger := app.Logger().With().Str("command", cmd.CommandPath()).Logger()
	ctx := logging.WithLogger(parent, &logger)
	return context.WithTimeout(ctx, constants.CommandTimeout)
}

// ReadInput reads path, or stdin when path is "-".
func ReadInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), constants.MaxUploadBytes+1))
		if err != nil {
			return nil, errors.NewIOError("read", "stdin", err)
		}
		if len(data) > constants.MaxUploadBytes {
			return nil, errors.NewValidationError("input", "stdin", "exceeds upload size limit")
		}
		return data, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the user on purpose
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("file", path)
		}
		return nil, errors.NewIOError("read", path, err)
	}
	return data, nil
}

// WriteOutput writes data to path, or to the command's stdout when path
// is empty or "-".
func WriteOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return errors.NewIOError("write", "stdout", err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}
