package render

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/nodedocs/internal/model"
)

func sampleStore() model.EntryStore {
	s := model.EntryStore{}
	s.Put(model.DocEntry{
		ID:          "math.add",
		Name:        "add",
		Kind:        model.Function,
		Source:      model.SourceLocation{File: "lib/math.js", Line: 4},
		Description: "Adds two numbers.",
		Params: []model.Param{
			{Name: "a", Type: "Number", Description: "first"},
			{Name: "b", Type: "Number", Optional: true, Default: "0"},
		},
		Returns:  &model.Return{Type: "Number", Description: "the sum"},
		Examples: []string{"add(1, 2);"},
	})
	s.Put(model.DocEntry{
		ID:          "shapes.Circle",
		Name:        "Circle",
		Kind:        model.Class,
		Source:      model.SourceLocation{File: "lib/shapes.js", Line: 1},
		Description: "A <b>round</b> shape.",
	})
	s.Put(model.DocEntry{
		ID:              "Circle#shapes.area",
		Name:            "area",
		Kind:            model.Function,
		MemberOf:        "Circle",
		Instance:        true,
		Source:          model.SourceLocation{File: "lib/shapes.js", Line: 10, URL: "https://example.com/lib/shapes.js#L10"},
		Deprecated:      true,
		DeprecationNote: "use size()",
	})
	return s
}

func TestNewUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := New("pdf", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json, markdown, script, toon, yaml")

	_, err = New("script", Options{})
	require.Error(t, err)
}

func TestRenderersProduceDocumentedFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   []string
	}{
		{"json", []string{"docs.json"}},
		{"yaml", []string{"docs.yaml"}},
		{"toon", []string{"docs.toon"}},
		{"markdown", []string{"Circle.md", "globals.md"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			r, err := New(tt.format, Options{Project: "demo"})
			require.NoError(t, err)
			files, err := r.Render(context.Background(), sampleStore())
			require.NoError(t, err)
			assert.Equal(t, tt.want, sortedNames(files))
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	files, err := JSON{}.Render(context.Background(), sampleStore())
	require.NoError(t, err)

	var got model.EntryStore
	require.NoError(t, json.Unmarshal([]byte(files["docs.json"]), &got))
	assert.Equal(t, sampleStore(), got)
	assert.Contains(t, files["docs.json"], "A <b>round</b> shape.")
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	files, err := YAML{}.Render(context.Background(), sampleStore())
	require.NoError(t, err)

	var got model.EntryStore
	require.NoError(t, yaml.Unmarshal([]byte(files["docs.yaml"]), &got))
	assert.Equal(t, sampleStore(), got)
}

func TestMarkdownPages(t *testing.T) {
	t.Parallel()

	files, err := NewMarkdown().Render(context.Background(), sampleStore())
	require.NoError(t, err)

	globals := files[GlobalsFile]
	assert.True(t, strings.HasPrefix(globals, "# Globals\n"))
	assert.Contains(t, globals, "## add()")
	assert.Contains(t, globals, "`math.add` · function · lib/math.js:4")
	assert.Regexp(t, `\|\s*Name\s*\|\s*Type\s*\|\s*Description\s*\|`, globals)
	assert.Contains(t, globals, "| [b=0] | Number |")
	assert.Contains(t, globals, "**Returns:** `Number` the sum")
	assert.Contains(t, globals, "```js\nadd(1, 2);\n```")
	assert.Contains(t, globals, "A **round** shape.")

	circle := files["Circle.md"]
	assert.True(t, strings.HasPrefix(circle, "# Circle\n\nA **round** shape.\n"))
	assert.Contains(t, circle, "## area()")
	assert.Contains(t, circle, "instance")
	assert.Contains(t, circle, "[lib/shapes.js:10](https://example.com/lib/shapes.js#L10)")
	assert.Contains(t, circle, "> **Deprecated: use size()**")
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "globals.md", FileName(""))
	assert.Equal(t, "vjs.Player.md", FileName("vjs.Player"))
	assert.Equal(t, "a_b.md", FileName("a/b"))
}

func TestScriptRenderer(t *testing.T) {
	t.Parallel()

	script := `
files := {}
for _, e := range entries {
    files[e["id"] + ".txt"] = e["name"] + ":" + e["kind"]
}
files
`
	r, err := New("script", Options{Script: script})
	require.NoError(t, err)

	files, err := r.Render(context.Background(), sampleStore())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Circle#shapes.area.txt": "area:function",
		"math.add.txt":           "add:function",
		"shapes.Circle.txt":      "Circle:class",
	}, files)
}

func TestScriptRendererRejectsNonMap(t *testing.T) {
	t.Parallel()

	_, err := Script{Source: `len(entries)`}.Render(context.Background(), sampleStore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a map")

	_, err = Script{Source: `{"a.txt": 1}`}.Render(context.Background(), sampleStore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a.txt"`)
}

func TestWriteFilesAndPrint(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out")
	files := map[string]string{"a.md": "alpha\n", "sub/b.md": "beta"}
	require.NoError(t, WriteFiles(dest, files))

	data, err := os.ReadFile(filepath.Join(dest, "sub", "b.md"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, files))
	assert.Equal(t, "==> a.md <==\nalpha\n\n==> sub/b.md <==\nbeta\n", buf.String())

	buf.Reset()
	require.NoError(t, Print(&buf, map[string]string{"docs.json": "{}"}))
	assert.Equal(t, "{}\n", buf.String())
}

func TestMarkdownPageNamesDoNotCollide(t *testing.T) {
	t.Parallel()

	store := model.EntryStore{}
	for _, e := range []model.DocEntry{
		{ID: "top", Name: "top"},
		{ID: "globals.x", Name: "x", MemberOf: "globals"},
		{ID: "a/b.y", Name: "y", MemberOf: "a/b"},
		{ID: "a_b.z", Name: "z", MemberOf: "a_b"},
		{ID: "Circle.r", Name: "r", MemberOf: "Circle"},
		{ID: "circle.s", Name: "s", MemberOf: "circle"},
	} {
		store.Put(e)
	}

	files, err := NewMarkdown().Render(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, files, 6)

	assert.Contains(t, files["globals.md"], "# Globals")
	assert.Contains(t, files["globals-2.md"], "# globals")
	assert.Contains(t, files["a_b.md"], "# a/b")
	assert.Contains(t, files["a_b-2.md"], "# a_b")
	assert.Contains(t, files["Circle.md"], "# Circle")
	assert.Contains(t, files["circle-2.md"], "# circle")
}

func TestWriteFilesRejectsEscapingNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dest := filepath.Join(root, "out")
	for _, name := range []string{"../x.md", "sub/../../x.md", "/etc/x.md", ""} {
		name := name
		t.Run(name, func(t *testing.T) {
			err := WriteFiles(dest, map[string]string{"ok.md": "fine", name: "bad"})
			require.ErrorIs(t, err, ErrUnsafeName)
		})
	}

	_, err := os.Stat(filepath.Join(root, "x.md"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "ok.md"))
	assert.True(t, os.IsNotExist(err), "nothing is written when a name is unsafe")
}
