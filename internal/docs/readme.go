// Package docs renders the command reference of a registry as Markdown.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/config"
	"discord-user-manager/pkg/cmd"
)

// CommandSections lists every command grouped by category, categories in
// help order and commands by name.
func CommandSections(registry *cmd.Registry, prefix string) string {
	descs := make([]command.Descriptor, 0, registry.Len())
	for _, c := range registry.GetAll() {
		descs = append(descs, command.Describe(c))
	}
	sort.SliceStable(descs, func(i, j int) bool {
		wi, wj := config.CategoryWeight(descs[i].Category), config.CategoryWeight(descs[j].Category)
		if wi == wj {
			if descs[i].Category == descs[j].Category {
				return descs[i].Name < descs[j].Name
			}
			return descs[i].Category < descs[j].Category
		}
		return wi < wj
	})

	var buf bytes.Buffer
	current := ""
	for i, d := range descs {
		cat := d.Category
		if cat == "" {
			cat = "Other"
		}
		if i == 0 || cat != current {
			if i > 0 {
				buf.WriteString("\n")
			}
			current = cat
			fmt.Fprintf(&buf, "### %s\n\n", current)
		}

		usage := prefix + d.Name
		if d.Usage != "" {
			usage += " " + d.Usage
		}
		fmt.Fprintf(&buf, "- **`%s`** - %s", usage, d.Description)
		if len(d.Aliases) > 0 {
			fmt.Fprintf(&buf, " (aliases: %s)", strings.Join(d.Aliases, ", "))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// Render executes a README template with the command reference available
// as {{.CommandSections}}.
func Render(w io.Writer, tmplText string, registry *cmd.Registry, prefix string) error {
	tmpl, err := template.New("readme").Parse(tmplText)
	if err != nil {
		return fmt.Errorf("parse readme template: %w", err)
	}
	data := struct {
		CommandSections string
	}{
		CommandSections: CommandSections(registry, prefix),
	}
	return tmpl.Execute(w, data)
}
