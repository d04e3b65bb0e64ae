package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/mcp/internal/launcher"
	"github.com/me/mcp/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	launcher.MaybeRunGate()
	os.Exit(m.Run())
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func requirePrograms(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available", name)
		}
	}
}

func TestRun_AllSucceed(t *testing.T) {
	requirePrograms(t, "true", "sleep")
	file := writeFile(t, "cmds.txt", "# warmup\ntrue\n\nsleep 0.2\n")
	db := filepath.Join(t.TempDir(), "history.db")

	out, _, err := execute(t, "run", file, "--quantum", "50ms", "--history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2 finished, 0 errored")

	out, _, err = execute(t, "history", "--history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "batch_")
	assert.NotContains(t, out, "No batches recorded.")
}

func TestRun_DefaultCommandAndFailureExit(t *testing.T) {
	requirePrograms(t, "sh", "true")
	file := writeFile(t, "cmds.yaml", "- [sh, -c, \"exit 3\"]\n- \"true\"\n")

	out, _, err := execute(t, file, "--quantum", "50ms", "--no-history", "-o", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 processes did not succeed")

	var rep model.BatchReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Processes, 2)
	assert.Equal(t, model.OutcomeExitCode, rep.Processes[0].Exit.Outcome)
	assert.Equal(t, 3, rep.Processes[0].Exit.ExitCode)
	assert.Equal(t, model.OutcomeSuccess, rep.Processes[1].Exit.Outcome)
}

func TestRun_ConfigFileAndTrace(t *testing.T) {
	requirePrograms(t, "true")
	dir := t.TempDir()
	cmds := writeFile(t, "cmds.txt", "true\n")
	trace := filepath.Join(dir, "trace.json")
	conf := writeFile(t, "mcp.yaml", strings.Join([]string{
		"commands: " + cmds,
		"quantum: 20ms",
		"no_history: true",
		"trace: " + trace,
	}, "\n"))

	out, stderr, err := execute(t, "run", "--config", conf, "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Quantum: 20ms")
	assert.Contains(t, stderr, `"msg":"batch complete"`)

	data, err := os.ReadFile(trace)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"batch"`)
	assert.Contains(t, string(data), "finished")
}

func TestRun_MissingFile(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "nope.txt"), "--no-history")
	assert.Error(t, err)
}

func TestRun_BadQuantum(t *testing.T) {
	file := writeFile(t, "cmds.txt", "true\n")
	_, _, err := execute(t, "run", file, "--quantum", "0s", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantum")
}

func TestCheck(t *testing.T) {
	requirePrograms(t, "true")
	ok := writeFile(t, "ok.txt", "true\n")
	out, _, err := execute(t, "check", ok)
	require.NoError(t, err)
	assert.Contains(t, out, "1 command, 0 not found")

	bad := writeFile(t, "bad.txt", "true\ndoesnotexist-mcp-cli\n")
	out, _, err = execute(t, "check", bad)
	require.Error(t, err)
	assert.Contains(t, out, "not found")
	assert.Contains(t, err.Error(), "1 command cannot be executed")
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	out, _, err := execute(t, "history", "--history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No batches recorded.")

	_, _, err = execute(t, "history", "batch_missing", "--history", db)
	assert.Error(t, err)
}

func TestHistory_ShowBatch(t *testing.T) {
	requirePrograms(t, "true")
	file := writeFile(t, "cmds.txt", "true\n")
	db := filepath.Join(t.TempDir(), "history.db")

	out, _, err := execute(t, "run", file, "--history", db, "-o", "json")
	require.NoError(t, err)
	var rep model.BatchReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	out, _, err = execute(t, "history", rep.ID, "--history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Batch: "+rep.ID)
	assert.Contains(t, out, "1 finished, 0 errored")
}
