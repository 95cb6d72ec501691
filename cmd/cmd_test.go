package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mimic/internal/element"
	"github.com/conneroisu/mimic/internal/errors"
)

const simpleDocument = `tag: div
attrs: {id: d1}
children:
  - tag: p
    children: [Hi]
`

const simpleHTML = "<!DOCTYPE html>\n<div id='d1'>\n    <p>Hi</p>\n</div>\n"

const galleryDocument = `tag: div
attrs: {id: gallery, class: box}
children:
  - tag: p
    attrs: {id: intro, class: note}
    children: [Pictures]
  - tag: img
    attrs: {id: first, width: 100, src: a.png}
  - tag: img
    attrs: {id: second, width: 200, src: b.png}
`

// syncBuffer lets a test read command output while the command runs.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func executeCommandContext(ctx context.Context, t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	resetFlags(rootCmd)

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeCommandContext(context.Background(), t, args...)
	return stdout, err
}

func writeDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRenderToStdout(t *testing.T) {
	doc := writeDocument(t, "page.yaml", simpleDocument)

	out, err := executeCommand(t, "render", doc)
	require.NoError(t, err)
	assert.Equal(t, simpleHTML, out)
}

func TestRenderToFile(t *testing.T) {
	doc := writeDocument(t, "page.yaml", simpleDocument)
	target := filepath.Join(t.TempDir(), "page.html")

	t.Run("with echo", func(t *testing.T) {
		out, err := executeCommand(t, "render", doc, "--out", target)
		require.NoError(t, err)
		assert.Equal(t, simpleHTML+"\n", out)

		written, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, simpleHTML, string(written))
	})

	t.Run("without echo", func(t *testing.T) {
		out, err := executeCommand(t, "render", doc, "-o", target, "--echo=false")
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.FileExists(t, target)
	})
}

func TestRenderUsesConfigFile(t *testing.T) {
	doc := writeDocument(t, "page.yaml", simpleDocument)
	target := filepath.Join(t.TempDir(), "configured.html")
	cfg := writeDocument(t, "mimic.yml", "render:\n  output: "+target+"\n  echo: false\n")

	out, err := executeCommand(t, "render", doc, "--config", cfg)
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, simpleHTML, string(written))
}

func TestRenderErrors(t *testing.T) {
	t.Run("invalid tag", func(t *testing.T) {
		doc := writeDocument(t, "bad.yaml", "tag: blink\n")

		_, err := executeCommand(t, "render", doc)
		require.Error(t, err)

		var tagErr *element.InvalidTagError
		assert.True(t, stderrors.As(err, &tagErr))
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := executeCommand(t, "render", filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := executeCommand(t, "render")
		assert.Error(t, err)
	})

	t.Run("invalid environment config", func(t *testing.T) {
		doc := writeDocument(t, "page.yaml", simpleDocument)
		t.Setenv("MIMIC_LOG_LEVEL", "chatty")

		_, err := executeCommand(t, "render", doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestFindJSON(t *testing.T) {
	doc := writeDocument(t, "gallery.yaml", galleryDocument)

	out, err := executeCommand(t, "find", doc, "--id", "intro", "-f", "json")
	require.NoError(t, err)

	var results []findResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "p", results[0].Tag)
	assert.Equal(t, "intro", results[0].ID)
	assert.Equal(t, 1, results[0].Children)
	assert.Equal(t, "<p id='intro' class='note'>Pictures</p>\n", results[0].HTML)
}

func TestFindYAMLByNumericAttribute(t *testing.T) {
	doc := writeDocument(t, "gallery.yaml", galleryDocument)

	out, err := executeCommand(t, "find", doc, "--attr", "width", "--value", "100", "--format", "yaml")
	require.NoError(t, err)

	var results []findResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "first", results[0].ID)
}

func TestFindNumericID(t *testing.T) {
	doc := writeDocument(t, "numbers.yaml", "tag: ol\nchildren:\n  - tag: li\n    attrs: {id: 5}\n    children: [five]\n")

	out, err := executeCommand(t, "find", doc, "--id", "5", "-f", "json")
	require.NoError(t, err)

	var results []findResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "li", results[0].Tag)
	assert.Equal(t, "5", results[0].ID)
}

func TestFindTable(t *testing.T) {
	doc := writeDocument(t, "gallery.yaml", galleryDocument)

	out, err := executeCommand(t, "find", doc, "--tag", "img")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TAG"))
	assert.Contains(t, lines[1], "first")
	assert.Contains(t, lines[1], "width=100")
	assert.Contains(t, lines[2], "second")

	out, err = executeCommand(t, "find", doc, "--tag", "table")
	require.NoError(t, err)
	assert.Equal(t, "No elements found.\n", out)
}

func TestFindFlagValidation(t *testing.T) {
	doc := writeDocument(t, "gallery.yaml", galleryDocument)

	_, err := executeCommand(t, "find", doc)
	assert.Error(t, err, "one query flag is required")

	_, err = executeCommand(t, "find", doc, "--id", "intro", "--tag", "p")
	assert.Error(t, err, "query flags are exclusive")

	_, err = executeCommand(t, "find", doc, "--id", "intro", "-f", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestTags(t *testing.T) {
	out, err := executeCommand(t, "tags")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, element.Tags(), lines)
	assert.Contains(t, lines, "marquee")

	out, err = executeCommand(t, "tags", "div", "marquee")
	require.NoError(t, err)
	assert.Contains(t, out, "div")

	out, err = executeCommand(t, "tags", "div", "blink")
	require.Error(t, err)
	assert.Contains(t, out, "blink")
	assert.Contains(t, err.Error(), "blink")
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])

	out, err = executeCommand(t, "version", "--short")
	require.NoError(t, err)
	assert.NotContains(t, strings.TrimSpace(out), "\n")

	out, err = executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform:")

	_, err = executeCommand(t, "version", "-f", "xml")
	assert.Error(t, err)
}

func TestWatchOutput(t *testing.T) {
	testCases := []struct {
		source     string
		configured string
		expected   string
		wantErr    bool
	}{
		{"docs/page.yaml", "", "docs/page.html", false},
		{"page.yml", "out/index.html", "out/index.html", false},
		{"index.html", "", "", true},
		{"index.html", "index.html", "", true},
		{"index.html", "dist/index.html", "dist/index.html", false},
	}

	for _, tc := range testCases {
		t.Run(tc.source+"->"+tc.configured, func(t *testing.T) {
			output, err := watchOutput(tc.source, tc.configured)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, output)
		})
	}
}

func TestWatchRerendersOnChange(t *testing.T) {
	doc := writeDocument(t, "page.yaml", simpleDocument)
	target := filepath.Join(t.TempDir(), "page.html")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := executeCommandContext(ctx, t, "watch", doc, "-o", target, "--debounce", "100ms")
		done <- err
	}()

	readTarget := func() string {
		data, _ := os.ReadFile(target)
		return string(data)
	}

	require.Eventually(t, func() bool { return readTarget() == simpleHTML }, 3*time.Second, 20*time.Millisecond)

	// Give the watcher a moment to register before changing the document.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(doc, []byte(strings.Replace(simpleDocument, "[Hi]", "[Bye]", 1)), 0o600))

	assert.Eventually(t, func() bool {
		return strings.Contains(readTarget(), "<p>Bye</p>")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
