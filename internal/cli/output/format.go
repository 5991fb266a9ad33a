// Package output provides output formatting utilities for CLI commands.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable outputs data in a formatted table.
	FormatTable Format = "table"
	// FormatJSON outputs data as JSON.
	FormatJSON Format = "json"
	// FormatYAML outputs data as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses a string into a Format, returning an error if invalid.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ColorSupported reports whether w is a terminal that should get ANSI
// colors. NO_COLOR disables colors everywhere.
func ColorSupported(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer handles formatted output to a writer.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
	styles messageStyles
}

type messageStyles struct {
	success lipgloss.Style
	warning lipgloss.Style
	error   lipgloss.Style
}

// NewPrinter creates a new Printer with the given options. Colors are
// rendered as basic ANSI when color is set and stripped otherwise.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	r := lipgloss.NewRenderer(out)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		out:    out,
		format: format,
		color:  color,
		styles: messageStyles{
			success: r.NewStyle().Foreground(lipgloss.Color("2")),
			warning: r.NewStyle().Foreground(lipgloss.Color("3")),
			error:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
	}
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Writer returns the printer's output writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// ColorEnabled returns whether color output is enabled.
func (p *Printer) ColorEnabled() bool {
	return p.color
}

// Print outputs data in the configured format.
// For table format, data should implement TableRenderer or TreeRenderer.
// For JSON/YAML, data will be marshaled directly.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		switch r := data.(type) {
		case TableRenderer:
			return PrintTable(p.out, r)
		case TreeRenderer:
			return PrintTree(p.out, r.Tree())
		}
		// Fallback to JSON if data has no table form
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// PrintOrEmpty is Print, except that table output shows emptyMsg instead
// of an empty table.
func (p *Printer) PrintOrEmpty(data any, empty bool, emptyMsg string) error {
	if empty && p.format == FormatTable {
		p.Println(emptyMsg)
		return nil
	}
	return p.Print(data)
}

// Println prints a message followed by a newline.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Printf prints a formatted message.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Success prints a success message. Nothing is printed for JSON and YAML
// output, so that machine readable streams stay parseable.
func (p *Printer) Success(msg string) {
	if p.format != FormatTable {
		return
	}
	p.styled(p.styles.success, msg)
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	p.styled(p.styles.error, msg)
}

// Warning prints a warning message.
func (p *Printer) Warning(msg string) {
	p.styled(p.styles.warning, msg)
}

func (p *Printer) styled(style lipgloss.Style, msg string) {
	_, _ = fmt.Fprintln(p.out, style.Render(msg))
}
