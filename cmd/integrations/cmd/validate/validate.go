// Package validate provides the validate command, which checks integration
// templates in the configured catalogs or in a serialized bundle file.
package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/cmd/alerts"
	"github.com/agentstation/integrations/internal/cmd/cmdutil"
	"github.com/agentstation/integrations/internal/cmd/output"
	"github.com/agentstation/integrations/pkg/catalogs"
	"github.com/agentstation/integrations/pkg/catalogs/memory"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/repository"
	"github.com/agentstation/integrations/pkg/result"
)

// Result is the outcome of checking one integration.
type Result struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Valid   bool   `json:"valid" yaml:"valid"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewCommand creates the validate command.
func NewCommand(app application.Application) *cobra.Command {
	var file string
	var deep bool
	cmd := &cobra.Command{
		Use:     "validate [name...]",
		GroupID: "management",
		Short:   "Validate integration templates",
		Long: `Validate checks that the latest config of each integration has the shape
of a template. With --deep it also reads every referenced component
mapping, saved object bundle and query, and requires at least one schema
and one asset. The first problem found is reported for each integration.

Without names, every template in the configured catalogs is checked.
With --file, the templates of a serialized bundle are checked instead;
the file holds one serialized integration or a JSON array of them.`,
		Example: `  integrations validate
  integrations validate --deep nginx apache
  integrations validate --deep --file nginx-bundle.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args, file, deep)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "serialized bundle to check (- for stdin)")
	cmd.Flags().BoolVar(&deep, "deep", false, "also resolve every referenced file")
	return cmd
}

func run(cmd *cobra.Command, app application.Application, names []string, file string, deep bool) error {
	format, err := cmdutil.Format(app)
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.Context(cmd, app)
	defer cancel()

	var results []Result
	if file != "" {
		results, err = checkFile(ctx, cmd, file, names, deep)
	} else {
		results, err = checkCatalogs(ctx, app, names, deep)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Valid {
			failed++
		}
	}

	w := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON, output.FormatYAML:
		if err := output.NewFormatter(format).Format(w, results); err != nil {
			return err
		}
	default:
		for _, r := range results {
			alert := alerts.NewSuccess(r.Name + " " + r.Version)
			if !r.Valid {
				alert = alerts.NewError(r.Name).WithDetails(r.Error)
			}
			if err := alerts.Write(w, format, alert); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return errors.NewValidationError("integrations", fmt.Sprint(failed), "integrations failed validation")
	}
	return nil
}

func checkCatalogs(ctx context.Context, app application.Application, names []string, deep bool) ([]Result, error) {
	m, err := app.Manager()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		list, err := m.GetIntegrationTemplates(ctx, "")
		if err != nil {
			return nil, err
		}
		for _, cfg := range list.Hits {
			names = append(names, cfg.Name)
		}
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		check := m.GetIntegrationTemplate
		if deep {
			check = m.DeepCheck
		}
		cfg, err := check(ctx, name)
		results = append(results, toResult(name, cfg, err))
	}
	return results, nil
}

func checkFile(ctx context.Context, cmd *cobra.Command, file string, names []string, deep bool) ([]Result, error) {
	data, err := cmdutil.ReadInput(cmd, file)
	if err != nil {
		return nil, err
	}
	bundle, err := parseBundle(data)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	repo := repository.New([]catalogs.Adaptor{bundle})
	var results []Result
	for _, rd := range repo.GetIntegrationList(ctx) {
		if len(wanted) > 0 && !wanted[rd.Name()] {
			continue
		}
		var res result.Result[integrations.Config]
		if deep {
			res = rd.DeepCheck(ctx)
		} else {
			res = rd.GetConfig(ctx, "")
		}
		cfg, err := res.Get()
		results = append(results, toResult(rd.Name(), &cfg, err))
	}
	return results, nil
}

// parseBundle accepts a JSON array of serialized integrations or a single one.
func parseBundle(data []byte) (*memory.Adaptor, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return memory.Parse(trimmed)
	}
	var one integrations.SerializedIntegration
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, errors.NewParseError("json", "", errors.MalformedMessage, err)
	}
	return memory.New([]integrations.SerializedIntegration{one}), nil
}

func toResult(name string, cfg *integrations.Config, err error) Result {
	if err != nil {
		return Result{Name: name, Error: err.Error()}
	}
	return Result{Name: name, Version: cfg.Version, Valid: true}
}
