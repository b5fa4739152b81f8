package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/catalog"
	"github.com/openuba/model-hub/internal/site"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"})
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"})
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4B5FD"})
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#047857", Dark: "#6EE7B7"})
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	codeStyle    = lipgloss.NewStyle().PaddingLeft(2)
)

// renderResults prints one block per entry followed by the results count.
func renderResults(entries []catalog.Entry, total int) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s  %s\n", titleStyle.Render(e.Name), versionStyle.Render("v"+e.Version), mutedStyle.Render(e.Framework))
		if e.Description != "" {
			fmt.Fprintf(&b, "  %s\n", e.Description)
		}
		if tags := e.DisplayTags(2); len(tags) > 0 {
			fmt.Fprintf(&b, "  %s\n", tagStyle.Render(strings.Join(tags, " · ")))
		}
		b.WriteString("\n")
	}
	if len(entries) == 0 {
		b.WriteString(mutedStyle.Render("No models found") + "\n")
	}
	fmt.Fprintf(&b, "Showing %d of %d models\n", len(entries), total)
	return b.String()
}

// renderEntry prints a model the way its detail page lays it out.
func renderEntry(e catalog.Entry, install string, pair *artifact.Pair) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(e.Name), versionStyle.Render("v"+e.Version))
	if e.Description != "" {
		fmt.Fprintf(&b, "%s\n", e.Description)
	}
	b.WriteString("\n")

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render(fmt.Sprintf("%-10s", label)), value)
	}
	field("Framework", e.Framework)
	field("Runtime", e.Runtime)
	field("Author", e.Author)
	field("License", e.License)
	if len(e.Tags) > 0 {
		field("Tags", tagStyle.Render(strings.Join(e.Tags, ", ")))
	}
	field("Path", e.Path)

	fmt.Fprintf(&b, "\n%s\n  %s\n", sectionStyle.Render("Install"), commandStyle.Render(install))

	fmt.Fprintf(&b, "\n%s\n", sectionStyle.Render("Parameters"))
	if len(e.Parameters) == 0 {
		b.WriteString(mutedStyle.Render("  This model has no configurable parameters.") + "\n")
	}
	for _, p := range e.Parameters {
		fmt.Fprintf(&b, "  %s (%s) = %s\n", titleStyle.Render(p.Name), p.Type, p.Default)
		if p.Description != "" {
			fmt.Fprintf(&b, "    %s\n", p.Description)
		}
		if len(p.Enum) > 0 {
			fmt.Fprintf(&b, "    %s\n", mutedStyle.Render("Options: "+strings.Join(p.Enum, ", ")))
		}
	}

	if pair != nil {
		fmt.Fprintf(&b, "\n%s\n%s\n", sectionStyle.Render(artifact.KindConfiguration.FileName()), codeStyle.Render(pair.Config))
		fmt.Fprintf(&b, "\n%s\n%s\n", sectionStyle.Render(artifact.KindSourceCode.FileName()), codeStyle.Render(pair.Source))
	}
	return b.String()
}

// renderBuildSummary reports what a static build wrote.
func renderBuildSummary(outDir string, models int, res *site.Result) string {
	return fmt.Sprintf("%s %d pages for %d models in %s %s",
		titleStyle.Render("Built"),
		res.Total(), models, outDir,
		mutedStyle.Render(fmt.Sprintf("(%d written, %d unchanged)", len(res.Written), len(res.Unchanged))))
}
