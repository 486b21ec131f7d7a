package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophersatwork/relift"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cli := New()
	var out, errOut bytes.Buffer
	cli.SetOutput(&out, &errOut)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), errOut.String(), err
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const helloScript = `package main

import "fmt"

func main() {
	fmt.Println("hello from relift")
}
`

func TestRunExecutesAndCaches(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hello.go", helloScript)

	out, _, err := runCLI(t, "run", script)
	require.NoError(t, err)
	assert.Contains(t, out, "hello from relift")

	entries, err := os.ReadDir(filepath.Join(dir, relift.CacheDirName))
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "the rewritten source must be cached next to the script")

	// Second run serves from the cache and behaves identically.
	out2, _, err := runCLI(t, "run", script)
	require.NoError(t, err)
	assert.Contains(t, out2, "hello from relift")
}

func TestRunAppliesConfiguredRules(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "legacy.go", `package main

import "fmt"

func describe(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

func main() {
	fmt.Println(describe(42))
}
`)

	_, _, err := runCLI(t, "run", script)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, relift.CacheDirName))
	require.NoError(t, err)

	var rewritten string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".go" {
			data, err := os.ReadFile(filepath.Join(dir, relift.CacheDirName, e.Name()))
			require.NoError(t, err)
			rewritten = string(data)
		}
	}
	require.NotEmpty(t, rewritten)
	assert.Contains(t, rewritten, "v any")
	assert.NotContains(t, rewritten, "interface{}")
}

func TestRunModuleMode(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hello.go", helloScript)

	out, _, err := runCLI(t, "run", "-d", dir, "-m", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello from relift")

	entries, err := os.ReadDir(filepath.Join(dir, relift.CacheDirName))
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "module-mode runs must cache like file runs")
}

func TestRunModuleModeUnknownModule(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runCLI(t, "run", "-d", dir, "-m", "nonesuch")
	require.Error(t, err)
	assert.ErrorIs(t, err, relift.ErrModuleNotFound)
}

func TestRunRequiresFileOrModule(t *testing.T) {
	_, _, err := runCLI(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE argument or -m MODULE")
}

func TestRunUnknownRuleFailsBeforeExecution(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hello.go", helloScript)

	_, _, err := runCLI(t, "run", "-x", "nonesuch", script)
	require.Error(t, err)
	assert.ErrorIs(t, err, relift.ErrUnknownRule)

	_, statErr := os.Stat(filepath.Join(dir, relift.CacheDirName))
	assert.True(t, os.IsNotExist(statErr), "a failed install must not touch the cache")
}

func TestRunMissingTarget(t *testing.T) {
	_, _, err := runCLI(t, "run", filepath.Join(t.TempDir(), "gone.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target not found")
}

func TestCleanRemovesMarkers(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hello.go", helloScript)

	_, _, err := runCLI(t, "run", script)
	require.NoError(t, err)

	out, _, err := runCLI(t, "clean", "-d", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 cache directories")

	_, statErr := os.Stat(filepath.Join(dir, relift.CacheDirName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanOlderThanPrunesEntries(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hello.go", helloScript)

	_, _, err := runCLI(t, "run", script)
	require.NoError(t, err)

	// A fresh entry survives a generous cutoff.
	out, _, err := runCLI(t, "clean", "-d", dir, "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 0 cache entries")

	out, _, err = runCLI(t, "clean", "-d", dir, "--older-than", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 1 cache entries")

	out, _, err = runCLI(t, "stats", "-d", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "entries: 0")
}

func TestStatsReportsEntries(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hello.go", helloScript)

	_, _, err := runCLI(t, "run", script)
	require.NoError(t, err)

	out, _, err := runCLI(t, "stats", "-d", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "entries: 1")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "relift dev")
}
