package element

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRenderComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestTree(t).Render(context.Background(), &buf))
	assert.Equal(t, testTreeHTML, buf.String())
}

func TestNodeRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.ErrorIs(t, newTestTree(t).Render(ctx, &buf), context.Canceled)
	assert.Empty(t, buf.String())
}

func TestNodeRenderNil(t *testing.T) {
	var buf bytes.Buffer
	var n *Node
	require.NoError(t, n.Render(context.Background(), &buf))
	assert.Empty(t, buf.String())
}

func TestFragment(t *testing.T) {
	var buf bytes.Buffer
	n := MustNew("li", nil, Text("item"))

	require.NoError(t, Fragment(n, 1).Render(context.Background(), &buf))
	assert.Equal(t, "    <li>item</li>\n", buf.String())

	buf.Reset()
	require.NoError(t, Fragment(nil, 0).Render(context.Background(), &buf))
	assert.Empty(t, buf.String())
}

func TestNodeServedByTemplHandler(t *testing.T) {
	handler := templ.Handler(newTestTree(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testTreeHTML, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
