package reports

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"windscope/internal/chartview"
	"windscope/internal/charts"
	"windscope/internal/config"
	"windscope/internal/logger"
	"windscope/internal/models"
)

// DefaultTitle heads the dashboard page
const DefaultTitle = "Wind Turbine Performance"

// HTMLBuilder handles HTML generation with goldmark
type HTMLBuilder struct {
	templateLoader *TemplateLoader
	goldmark       goldmark.Markdown
	charts         *charts.ChartGenerator
	log            *logger.Logger
}

// NewHTMLBuilder creates an HTML builder
func NewHTMLBuilder(chartGen *charts.ChartGenerator) *HTMLBuilder {
	// Configure goldmark with extensions
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)

	return &HTMLBuilder{
		templateLoader: NewTemplateLoader(),
		goldmark:       md,
		charts:         chartGen,
		log:            logger.GetGlobalLogger().WithComponent("reports"),
	}
}

// PageOptions controls how the dashboard page is assembled
type PageOptions struct {
	Title          string
	DatasetVersion string
	// Interactive embeds ECharts snippets instead of static SVG
	Interactive bool
	// CSVPath returns the link to a chart's CSV export; nil omits the links
	CSVPath func(chartID string) string
}

// TemplateData represents the data structure for the HTML template
type TemplateData struct {
	Title          string
	GeneratedAt    string
	Version        string
	DatasetVersion string
	Content        template.HTML
	CSS            string
	Interactive    bool
	Charts         []ChartSection
}

// ChartSection is one chart on the page
type ChartSection struct {
	ID          string
	Title       string
	SVG         template.HTML
	Snippet     template.HTML
	Interactive bool
	CSVPath     string
}

// ConvertMarkdownToHTML converts markdown to HTML using goldmark
func (h *HTMLBuilder) ConvertMarkdownToHTML(markdownContent string) (string, error) {
	var buf bytes.Buffer
	if err := h.goldmark.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

// BuildDashboard renders the summary tables and every chart into one HTML page. Charts without
// data still get a section showing their placeholder.
func (h *HTMLBuilder) BuildDashboard(result *models.AnalysisResult, views []chartview.View, opts PageOptions) (string, error) {
	content, err := h.ConvertMarkdownToHTML(SummaryMarkdown(result))
	if err != nil {
		return "", err
	}
	css, err := h.templateLoader.LoadCSSStyles()
	if err != nil {
		return "", fmt.Errorf("failed to load CSS: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	data := TemplateData{
		Title:          title,
		GeneratedAt:    time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Version:        config.GetVersion(),
		DatasetVersion: opts.DatasetVersion,
		Content:        template.HTML(content),
		CSS:            css,
		Interactive:    opts.Interactive,
	}

	for _, v := range views {
		section, err := h.chartSection(v.Frame(), opts)
		if err != nil {
			h.log.Warn("Skipping chart section", map[string]interface{}{"chart": v.ID(), "error": err.Error()})
			continue
		}
		data.Charts = append(data.Charts, section)
	}

	page, err := h.executeTemplate(data)
	if err != nil {
		return "", err
	}
	h.log.Debug("Dashboard built", map[string]interface{}{"charts": len(data.Charts), "bytes": len(page)})
	return page, nil
}

func (h *HTMLBuilder) chartSection(f chartview.Frame, opts PageOptions) (ChartSection, error) {
	section := ChartSection{ID: f.ChartID, Title: f.Title, Interactive: opts.Interactive && !f.Empty()}
	if opts.CSVPath != nil && !f.Empty() {
		section.CSVPath = opts.CSVPath(f.ChartID)
	}
	if section.Interactive {
		snippet, err := h.charts.RenderSnippet(f)
		if err != nil {
			return section, err
		}
		section.Snippet = template.HTML(snippet.Div + snippet.Script)
		return section, nil
	}
	svg, err := h.charts.RenderSVG(f)
	if err != nil {
		return section, err
	}
	section.SVG = template.HTML(svg)
	return section, nil
}

// executeTemplate executes the HTML template with the provided data
func (h *HTMLBuilder) executeTemplate(data TemplateData) (string, error) {
	htmlTemplate, err := h.templateLoader.LoadHTMLTemplate()
	if err != nil {
		return "", fmt.Errorf("failed to load HTML template: %w", err)
	}

	tmpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"safeCSS": func(s string) template.CSS {
			return template.CSS(s)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
