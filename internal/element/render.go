package element

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
)

const (
	doctype     = "<!DOCTYPE html>\n"
	indentWidth = 4
)

// Renderer turns trees into HTML text. A top-level render is also echoed to
// the renderer's echo writer, and file write failures are logged rather than
// returned by RenderToFile.
type Renderer struct {
	echo     io.Writer
	logger   logging.Logger
	failures *errors.ErrorHandler
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithEcho sets where top-level renders are echoed. A nil writer disables
// the echo.
func WithEcho(w io.Writer) RendererOption {
	return func(r *Renderer) {
		r.echo = w
	}
}

// WithLogger sets the logger used for render-to-file failures.
func WithLogger(logger logging.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer returns a Renderer echoing to stdout and logging to stderr.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		echo:   os.Stdout,
		logger: logging.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("renderer")
	r.failures = errors.NewErrorHandler(r.logger)
	return r
}

// Render renders n with the default renderer. See (*Renderer).Render.
func Render(n *Node) string {
	return NewRenderer().Render(n)
}

// RenderToFile renders n with the default renderer and writes it to path.
// See (*Renderer).RenderToFile.
func RenderToFile(n *Node, path string) {
	NewRenderer().RenderToFile(n, path)
}

// Render renders n as a complete document, starting with a doctype line,
// and echoes the result. A nil node renders as "".
func (r *Renderer) Render(n *Node) string {
	return r.RenderAt(n, 0)
}

// RenderAt renders n as if it were nested level elements deep. Each level
// indents by four spaces. Only level 0 adds the doctype line and echoes.
//
// Text children are written inline. Node children start on a new line. When
// the first child is a Node the closing tag goes on its own indented line,
// otherwise it follows the content directly.
func (r *Renderer) RenderAt(n *Node, level int) string {
	if n == nil {
		return ""
	}
	if level < 0 {
		level = 0
	}

	var b strings.Builder
	if level == 0 {
		b.WriteString(doctype)
	}
	writeNode(&b, n, level)
	html := b.String()

	if level == 0 && r.echo != nil {
		fmt.Fprintln(r.echo, html)
	}
	return html
}

func writeNode(b *strings.Builder, n *Node, level int) {
	indent := strings.Repeat(" ", indentWidth*level)

	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.tag)
	for _, attr := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(attr.Value))
	}
	b.WriteByte('>')

	for _, c := range n.children {
		switch child := c.(type) {
		case Text:
			b.WriteString(string(child))
		case *Node:
			b.WriteByte('\n')
			writeNode(b, child, level+1)
		}
	}

	if len(n.children) > 0 {
		if _, block := n.children[0].(*Node); block {
			b.WriteString(indent)
		}
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteString(">\n")
}

// RenderToFile renders n and writes it to path as UTF-8, replacing any
// existing content. Failures are logged and otherwise ignored; use WriteFile
// to receive them.
func (r *Renderer) RenderToFile(n *Node, path string) {
	if err := r.WriteFile(n, path); err != nil {
		r.failures.Handle(context.Background(), err)
	}
}

// WriteFile is RenderToFile returning the failure instead of logging it.
// Ill-formed UTF-8 in the tree is replaced with U+FFFD on the way out.
func (r *Renderer) WriteFile(n *Node, path string) error {
	html := r.Render(n)

	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError(errors.CodeRenderWrite, "failed to open output file", err).WithPath(path)
	}

	w := transform.NewWriter(f, unicode.UTF8.NewEncoder())
	if _, err := io.WriteString(w, html); err != nil {
		f.Close()
		return errors.NewIOError(errors.CodeRenderWrite, "failed to write rendered document", err).WithPath(path)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return errors.NewIOError(errors.CodeRenderWrite, "failed to flush rendered document", err).WithPath(path)
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError(errors.CodeRenderWrite, "failed to close output file", err).WithPath(path)
	}
	return nil
}
