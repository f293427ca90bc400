package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-essence/pkg/essence"
)

const pageFixture = `
elements:
  - name: article
    contents:
      - name: intro
        essence_type: EssenceText
        essence:
          body: "hello!"
        settings:
          ":css_class": from-settings
      - name: broken
        essence_type: EssenceText
        dangling: true
  - name: empty
`

func writeFixture(t *testing.T) string {
	t.Helper()
	t.Setenv("ESSENCE_TEMPLATE_DIR", "")
	t.Setenv("ESSENCE_STORAGE_URL", "")
	path := filepath.Join(t.TempDir(), "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pageFixture), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRenderCommand(t *testing.T) {
	path := writeFixture(t)

	out, _, err := execute(t, "render", "-f", path, "--element", "article", "--name", "intro")
	require.NoError(t, err)
	assert.Equal(t, "hello!\n", out)

	out, _, err = execute(t, "render", "-f", path, "--element", "article", "--name", "intro",
		"--part", "editor", "--opt", "css_class=lead")
	require.NoError(t, err)
	assert.Contains(t, out, `type="text"`)
	assert.Contains(t, out, "thin_border lead")
}

func TestRenderCommandMissingContentWarnsInEditor(t *testing.T) {
	path := writeFixture(t)

	out, stderr, err := execute(t, "render", "-f", path, "--element", "article", "--name", "nope", "--part", "editor")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "Content is nil")

	out, stderr, err = execute(t, "render", "-f", path, "--element", "article", "--name", "broken")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, stderr)
}

func TestRenderCommandErrors(t *testing.T) {
	path := writeFixture(t)

	_, _, err := execute(t, "render", "-f", path, "--element", "missing", "--name", "intro")
	assert.ErrorIs(t, err, essence.ErrElementNotFound)

	_, _, err = execute(t, "render", "-f", path, "--element", "article", "--name", "intro", "--part", "sidebar")
	assert.ErrorIs(t, err, essence.ErrInvalidPart)

	_, _, err = execute(t, "render", "-f", path, "--element", "article", "--name", "intro", "--opt", "novalue")
	assert.Error(t, err)

	_, _, err = execute(t, "render", "--element", "article", "--name", "intro")
	assert.Error(t, err, "fixture flag is required")
}

func TestSettingCommand(t *testing.T) {
	path := writeFixture(t)

	out, _, err := execute(t, "setting", "-f", path, "--element", "article", "--name", "intro", "--key", ":css_class")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"css_class","value":"from-settings","found":true}`, out)

	out, _, err = execute(t, "setting", "-f", path, "--element", "article", "--name", "intro",
		"--key", "css_class", "--opt", ":css_class=from-options")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"css_class","value":"from-options","found":true}`, out)

	out, _, err = execute(t, "setting", "-f", path, "--element", "article", "--name", "intro", "--key", "unknown")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"unknown","value":null,"found":false}`, out)

	_, _, err = execute(t, "setting", "-f", path, "--element", "article", "--name", "nope", "--key", "x")
	assert.ErrorIs(t, err, essence.ErrContentNotFound)
}

func TestElementsCommand(t *testing.T) {
	path := writeFixture(t)

	out, _, err := execute(t, "elements", "-f", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ELEMENT")
	assert.Regexp(t, `^article\s+intro\s+EssenceText\s+ok$`, lines[1])
	assert.Regexp(t, `^article\s+broken\s+EssenceText\s+missing$`, lines[2])
	assert.Regexp(t, `^empty\s+-\s+-\s+-$`, lines[3])
}
