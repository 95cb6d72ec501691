package element

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

var _ templ.Component = (*Node)(nil)

// Render implements templ.Component. It writes the same document as
// (*Renderer).Render without echoing it anywhere, so a tree can be passed
// to templ.Handler or composed with other templ components.
func (n *Node) Render(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString(doctype)
	writeNode(&b, n, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

// Fragment returns a component writing n as if nested level elements deep,
// without the doctype line.
func Fragment(n *Node, level int) templ.Component {
	if level < 0 {
		level = 0
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if n == nil {
			return nil
		}

		var b strings.Builder
		writeNode(&b, n, level)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
