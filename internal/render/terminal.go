package render

import (
	"io"
	"os"
	"regexp"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer renders Markdown for display.
type Renderer interface {
	Render(in string) (string, error)
}

// PlainTextRenderer returns content as-is.
type PlainTextRenderer struct{}

// Render returns the input unchanged
func (p *PlainTextRenderer) Render(in string) (string, error) {
	return in, nil
}

// TerminalOptions configure NewRenderer.
type TerminalOptions struct {
	// Width is the word wrap width. Zero means 100.
	Width int
	// Out is where the rendered page goes. Colors are used only when it is
	// a terminal.
	Out     io.Writer
	NoColor bool
}

// anchorLine matches the HTML anchors written before each declaration.
var anchorLine = regexp.MustCompile(`(?m)^<a id="[^"]*"></a>\n`)

// pageRenderer drops the anchors of a reference page, which mean nothing
// on a terminal, before rendering it.
type pageRenderer struct {
	Renderer
}

func (p pageRenderer) Render(in string) (string, error) {
	return p.Renderer.Render(anchorLine.ReplaceAllString(in, ""))
}

// NewRenderer returns a renderer for reference pages: styled for a color
// terminal, ASCII otherwise, and plain text when glamour cannot be set up.
func NewRenderer(opts TerminalOptions) Renderer {
	width := opts.Width
	if width <= 0 {
		width = 100
	}
	style := asciiStyle()
	if !opts.NoColor && isTerminal(opts.Out) {
		style = colorStyle()
	}
	r, err := glamour.NewTermRenderer(glamour.WithStyles(style), glamour.WithWordWrap(width))
	if err != nil {
		return pageRenderer{&PlainTextRenderer{}}
	}
	return pageRenderer{r}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorStyle follows the terminal background. Declaration headings keep
// only their code span, without the leading hashes.
func colorStyle() ansi.StyleConfig {
	style := styles.LightStyleConfig
	if termenv.HasDarkBackground() {
		style = styles.DarkStyleConfig
	}
	style.Document.BlockPrefix = ""
	style.H3.Prefix = ""
	style.H4.Prefix = ""
	style.H5.Prefix = ""
	return style
}

func asciiStyle() ansi.StyleConfig {
	style := styles.ASCIIStyleConfig
	style.Document.BlockPrefix = ""
	style.Document.Margin = nil
	return style
}
