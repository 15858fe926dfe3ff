package topics

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Renderer formats topic content for the terminal. The ext argument is the
// topic file's extension, including the dot.
type Renderer interface {
	Render(content string, ext string) string
}

// PlainRenderer passes content through untouched
type PlainRenderer struct{}

func (PlainRenderer) Render(content string, ext string) string {
	return content
}

// GlamourRenderer renders markdown topics with glamour. Anything that is
// not markdown passes through untouched.
type GlamourRenderer struct {
	Style string // glamour style name, empty disables rendering
	Width int    // word wrap width, 0 leaves wrapping to the terminal
}

// NewGlamourRenderer picks a glamour style matching the terminal background.
// Without a terminal on stdout the raw markdown is left as is, so piped
// output stays readable.
func NewGlamourRenderer() *GlamourRenderer {
	r := &GlamourRenderer{}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		if termenv.HasDarkBackground() {
			r.Style = "dark"
		} else {
			r.Style = "light"
		}
	}

	return r
}

func (r *GlamourRenderer) Render(content string, ext string) string {
	if ext != ".md" || r.Style == "" {
		return content
	}

	opts := []glamour.TermRendererOption{glamour.WithStylePath(r.Style)}
	if r.Width > 0 {
		opts = append(opts, glamour.WithWordWrap(r.Width))
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return content
	}
	out, err := tr.Render(content)
	if err != nil {
		return content
	}

	return out
}
