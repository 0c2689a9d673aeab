package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#1F77B4")
	colorMuted   = lipgloss.Color("240")
	colorSuccess = lipgloss.Color("#2CA02C")
	colorWarning = lipgloss.Color("#FF7F0E")
	colorError   = lipgloss.Color("#D62728")
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "⚠"
	iconInfo    = "●"
)

// printer renders styled output for one writer. The renderer detects the
// writer's color support, so buffers and pipes get plain text.
type printer struct {
	w io.Writer

	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		failure: r.NewStyle().Foreground(colorError).Bold(true),
		warning: r.NewStyle().Foreground(colorWarning).Bold(true),
		info:    r.NewStyle().Foreground(colorPrimary),
		muted:   r.NewStyle().Foreground(colorMuted),
		header:  r.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true),
		label:   r.NewStyle().Bold(true),
	}
}

func (p *printer) line(icon string, style lipgloss.Style, format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", style.Render(icon), fmt.Sprintf(format, args...))
}

func (p *printer) Success(format string, args ...any) { p.line(iconSuccess, p.success, format, args...) }
func (p *printer) Error(format string, args ...any)   { p.line(iconError, p.failure, format, args...) }
func (p *printer) Warning(format string, args ...any) { p.line(iconWarning, p.warning, format, args...) }
func (p *printer) Info(format string, args ...any)    { p.line(iconInfo, p.info, format, args...) }

// Header prints a section title followed by a blank line.
func (p *printer) Header(format string, args ...any) {
	fmt.Fprintf(p.w, "%s\n\n", p.header.Render(fmt.Sprintf(format, args...)))
}

// Field prints an indented "label: value" line.
func (p *printer) Field(label string, value any) {
	fmt.Fprintf(p.w, "  %s %v\n", p.label.Render(label+":"), value)
}

// Muted prints secondary text.
func (p *printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) Println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

func (p *printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Table prints rows with left-aligned columns padded to the widest cell.
func (p *printer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	format := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		return "  " + strings.TrimRight(strings.Join(padded, "  "), " ")
	}

	fmt.Fprintln(p.w, p.label.Render(format(headers)))
	for _, row := range rows {
		fmt.Fprintln(p.w, format(row))
	}
}

// writeJSON pretty-prints v.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
