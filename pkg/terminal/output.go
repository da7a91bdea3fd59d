// Package terminal provides styled terminal output for the logis CLI:
// colored status lines, aligned tables and rendered markdown reports.
// Output written to a pipe or file stays plain.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Options controls a Writer.
type Options struct {
	// Color enables ANSI styling when the output is a terminal.
	Color bool
}

// Writer provides styled terminal output with markdown rendering.
type Writer struct {
	out      io.Writer
	styled   bool
	renderer *glamour.TermRenderer
	mu       sync.Mutex

	// Styles
	errorStyle   lipgloss.Style
	warnStyle    lipgloss.Style
	successStyle lipgloss.Style
	dimStyle     lipgloss.Style
	boldStyle    lipgloss.Style
	headerStyle  lipgloss.Style
}

// NewWithOptions creates a Writer. Styling is only applied when color is
// enabled and out is a terminal.
func NewWithOptions(out io.Writer, opts Options) *Writer {
	styled := opts.Color && isTerminal(out)

	lg := lipgloss.NewRenderer(out)
	if !styled {
		lg.SetColorProfile(termenv.Ascii)
	}

	w := &Writer{
		out:    out,
		styled: styled,

		// Red for errors
		errorStyle: lg.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),

		// Yellow for warnings
		warnStyle: lg.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"}),

		// Green for success
		successStyle: lg.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}),

		// Dim for secondary content
		dimStyle: lg.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),

		boldStyle: lg.NewStyle().Bold(true),

		headerStyle: lg.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
			Bold(true),
	}

	if styled {
		w.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(getTerminalWidth(out), 100)),
		)
	}
	return w
}

// Width returns the width of the output terminal, or 80 when it is not one.
func (w *Writer) Width() int {
	return getTerminalWidth(w.out)
}

// Print writes text to the terminal.
func (w *Writer) Print(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}

// Println writes text with a newline.
func (w *Writer) Println(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Markdown renders markdown to the terminal. Unstyled writers print the
// markdown source as is.
func (w *Writer) Markdown(md string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.renderer == nil {
		fmt.Fprintln(w.out, strings.TrimRight(md, "\n"))
		return nil
	}

	rendered, err := w.renderer.Render(md)
	if err != nil {
		fmt.Fprintln(w.out, md)
		return err
	}

	fmt.Fprint(w.out, rendered)
	return nil
}

// Error prints an error message in red.
func (w *Writer) Error(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w.out, w.errorStyle.Render("Error: "+msg))
}

// Warn prints a warning message in yellow.
func (w *Writer) Warn(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w.out, w.warnStyle.Render("warning: "+msg))
}

// Success prints a success message in green.
func (w *Writer) Success(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w.out, w.successStyle.Render(msg))
}

// Dim prints dimmed/secondary text.
func (w *Writer) Dim(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w.out, w.dimStyle.Render(msg))
}

// Header prints a section header.
func (w *Writer) Header(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, w.headerStyle.Render(title))
}

// Table prints rows in aligned columns under a bold header row. Column
// widths are measured in terminal cells.
func (w *Writer) Table(headers []string, rows [][]string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	widths := make([]int, len(headers))
	measure := func(cells []string) {
		for i, cell := range cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	format := func(cells []string) string {
		var b strings.Builder
		for i, cell := range cells {
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		return strings.TrimRight(b.String(), " ")
	}

	// Style after alignment so escape codes do not skew column widths.
	fmt.Fprintln(w.out, w.headerStyle.Render(format(headers)))
	for _, row := range rows {
		fmt.Fprintln(w.out, format(row))
	}
}

// Code prints source with syntax highlighting for language. Unstyled
// writers print it unchanged.
func (w *Writer) Code(source, language string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.styled {
		fmt.Fprint(w.out, source)
		return
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iter, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		fmt.Fprint(w.out, source)
		return
	}

	var b strings.Builder
	for tok := iter(); tok != chroma.EOF; tok = iter() {
		style, ok := w.tokenStyle(tok.Type)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		// Render per line so styles never span a newline.
		lines := strings.Split(tok.Value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteString("\n")
			}
		}
	}
	fmt.Fprint(w.out, b.String())
}

func (w *Writer) tokenStyle(t chroma.TokenType) (lipgloss.Style, bool) {
	switch {
	case t == chroma.GenericInserted:
		return w.successStyle, true
	case t == chroma.GenericDeleted:
		return w.errorStyle.UnsetBold(), true
	case t == chroma.GenericHeading, t == chroma.GenericSubheading:
		return w.boldStyle, true
	case t.InCategory(chroma.Comment):
		return w.dimStyle, true
	case t.InCategory(chroma.LiteralNumber):
		return w.warnStyle, true
	case t.InCategory(chroma.LiteralString):
		return w.successStyle, true
	case t.InCategory(chroma.Keyword), t == chroma.NameTag:
		return w.headerStyle, true
	}
	return lipgloss.Style{}, false
}

// Newline prints a blank line.
func (w *Writer) Newline() {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out)
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// getTerminalWidth returns the terminal width, defaulting to 80.
func getTerminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width == 0 {
		return 80
	}
	return width
}
