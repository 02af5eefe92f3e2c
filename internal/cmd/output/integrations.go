package output

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/reader"
)

var titleCaser = cases.Title(language.English)

// Print writes data in format. Table formats use the Data built by table
// when it is non-nil; other formats encode data itself.
func Print(w io.Writer, format Format, data any, table func(wide bool) Data) error {
	switch format {
	case FormatTable, FormatWide, "":
		if table != nil {
			return NewFormatter(format).Format(w, table(format == FormatWide))
		}
	}
	return NewFormatter(format).Format(w, data)
}

// TemplatesTable renders template configs one per row.
func TemplatesTable(configs []integrations.Config, wide bool) Data {
	headers := []string{"Name", "Version", "Type", "Components", "Workflows"}
	if wide {
		headers = append(headers, "Labels", "License", "Description")
	}

	rows := make([][]string, 0, len(configs))
	for _, cfg := range configs {
		workflows := make([]string, 0, len(cfg.Workflows))
		for _, wf := range cfg.Workflows {
			workflows = append(workflows, wf.Name)
		}
		row := []string{
			cfg.Name,
			cfg.Version,
			cfg.Type,
			strconv.Itoa(len(cfg.Components)),
			strings.Join(workflows, ", "),
		}
		if wide {
			row = append(row, strings.Join(cfg.Labels, ", "), cfg.License, cfg.Description)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// TemplateTable renders one template config as property rows.
func TemplateTable(cfg integrations.Config) Data {
	rows := [][]string{
		{"Name", cfg.Name},
		{"Display Name", cfg.DisplayTitle()},
		{"Version", cfg.Version},
		{"Type", cfg.Type},
		{"License", cfg.License},
		{"Labels", strings.Join(cfg.Labels, ", ")},
		{"Author", cfg.Author},
		{"Source", cfg.SourceURL},
	}
	for _, c := range cfg.Components {
		rows = append(rows, []string{"Component", c.Name + " " + c.Version})
	}
	for _, wf := range cfg.Workflows {
		state := "off"
		if wf.EnabledByDefault {
			state = "on"
		}
		rows = append(rows, []string{"Workflow", wf.Name + " (" + state + ")"})
	}
	if cfg.Assets != nil {
		if so := cfg.Assets.SavedObjects; so != nil {
			rows = append(rows, []string{"Saved Objects", so.Name + " " + so.Version})
		}
		for _, q := range cfg.Assets.Queries {
			rows = append(rows, []string{"Query", q.Name + " " + q.Version + " (" + q.Language + ")"})
		}
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// InstancesTable renders instances one per row.
func InstancesTable(instances []integrations.Instance, wide bool) Data {
	headers := []string{"ID", "Name", "Template", "Data Source", "Status", "Assets"}
	if wide {
		headers = append(headers, "Created", "Tags")
	}

	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		status := "-"
		if inst.Status != "" {
			status = titleCaser.String(string(inst.Status))
		}
		row := []string{
			inst.ID,
			inst.Name,
			inst.TemplateName,
			inst.DataSource.String(),
			status,
			strconv.Itoa(len(inst.Assets)),
		}
		if wide {
			row = append(row, inst.CreationDate.Format("2006-01-02 15:04:05"), strings.Join(inst.Tags, ", "))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// AssetsTable renders the asset references of an instance.
func AssetsTable(assets []integrations.AssetReference) Data {
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		def := ""
		if a.IsDefaultAsset {
			def = "*"
		}
		rows = append(rows, []string{a.AssetType, a.AssetID, string(a.Status), def, a.Description})
	}
	return Data{
		Headers:         []string{"Type", "ID", "Status", "Default", "Description"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignCenter, AlignLeft},
	}
}

// BundleTable renders the resolved assets of a template, one row per saved
// object bundle or query.
func BundleTable(assets reader.Assets) Data {
	var rows [][]string
	if so := assets.SavedObjects; so != nil {
		rows = append(rows, []string{"savedObjects", so.Name, so.Version, strconv.Itoa(len(so.Objects)) + " objects", strings.Join(so.Workflows, ", ")})
	}
	for _, q := range assets.Queries {
		rows = append(rows, []string{"query", q.Name, q.Version, q.Language, strings.Join(q.Workflows, ", ")})
	}
	return Data{Headers: []string{"Kind", "Name", "Version", "Content", "Workflows"}, Rows: rows}
}
