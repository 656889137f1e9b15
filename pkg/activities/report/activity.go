// Package report provides the quality report activity. It assembles a report
// document from the run so far without calling out to external services.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/igara/runner/pkg/models"
)

const (
	defaultTitle  = "Generation Report"
	defaultFormat = "json"
)

// Activity builds a report document from the configured sections.
type Activity struct{}

func NewActivity() *Activity {
	return &Activity{}
}

func (a *Activity) Execute(_ context.Context, params models.ActivityParams) (map[string]any, error) {
	reportParams, ok := params.(*models.ReportParams)
	if !ok {
		return nil, fmt.Errorf("expected report params, got %T", params)
	}

	title := reportParams.Title
	if title == "" {
		title = defaultTitle
	}

	format := reportParams.Format
	if format == "" {
		format = defaultFormat
	}

	result := map[string]any{
		"title":         title,
		"format":        format,
		"sections":      reportParams.Sections,
		"section_count": len(reportParams.Sections),
		"node_name":     reportParams.NodeName,
		"generated_at":  time.Now().UTC().Format(time.RFC3339),
	}

	if format == "html" {
		result["document"] = renderHTML(title, reportParams.Sections)
	}

	return result, nil
}

func renderHTML(title string, sections []string) string {
	var b strings.Builder

	b.WriteString("<html><head><title>")
	b.WriteString(title)
	b.WriteString("</title></head><body><h1>")
	b.WriteString(title)
	b.WriteString("</h1>")

	for _, section := range sections {
		b.WriteString("<h2>")
		b.WriteString(section)
		b.WriteString("</h2>")
	}

	b.WriteString("</body></html>")

	return b.String()
}
