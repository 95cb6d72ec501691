package element

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestTree builds:
//
//	div#div1.div_class
//	├── div#div651.div_class
//	│   └── p#pp_id.div_class "Hi"
//	└── a#a_id
//	    └── img#img_id
func newTestTree(t *testing.T) *Node {
	t.Helper()

	root, err := New("div", A("id", "div1", "class", "div_class"))
	require.NoError(t, err)

	div, err := New("div", A("id", "div651", "title", "div2", "class", "div_class"))
	require.NoError(t, err)
	require.NoError(t, root.Append(div))

	p, err := New("p", A("id", "pp_id", "class", "div_class"))
	require.NoError(t, err)
	require.NoError(t, p.Append(Text("Hi")))
	require.NoError(t, div.Append(p))

	a, err := New("a", A("href", "https://google.com", "id", "a_id", "target", "_blank"))
	require.NoError(t, err)
	require.NoError(t, root.Append(a))

	img, err := New("img", A("id", "img_id", "border", 0, "alt", "Google",
		"src", "images02.jpg", "width", 100, "height", 100))
	require.NoError(t, err)
	require.NoError(t, a.Append(img))

	return root
}

const testTreeHTML = `<!DOCTYPE html>
<div id='div1' class='div_class'>
    <div id='div651' title='div2' class='div_class'>
        <p id='pp_id' class='div_class'>Hi</p>
    </div>

    <a href='https://google.com' id='a_id' target='_blank'>
        <img id='img_id' border=0 alt='Google' src='images02.jpg' width=100 height=100></img>
    </a>
</div>
`

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}
