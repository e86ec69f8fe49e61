package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interva-cod-server/internal/domain"
	pt "github.com/interva-cod-server/internal/probbase/probbasetest"
)

const targetCause = 10

type workspace struct {
	dir      string
	config   string
	probbase string
	input    string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:      dir,
		config:   filepath.Join(dir, "config.yaml"),
		probbase: filepath.Join(dir, "probbase.csv"),
		input:    filepath.Join(dir, "input.csv"),
	}

	table := pt.New().
		Row(pt.Symptom, domain.GroupCause, "N").
		Cell(pt.Symptom, targetCause, "I")
	require.NoError(t, os.WriteFile(ws.probbase, table.CSV(t), 0644))

	cfg := fmt.Sprintf(`
classifier:
  probbase_path: %s
  output_file: %s
logging:
  level: error
  output: stderr
store:
  driver: sqlite
  sqlite_path: %s
`, ws.probbase, filepath.Join(dir, "VA5_result.csv"), filepath.Join(dir, "runs.db"))
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0644))

	header := make([]string, domain.NumIndicators)
	header[0] = "ID"
	for i := 1; i < domain.NumIndicators-1; i++ {
		header[i] = fmt.Sprintf("i%03da", i)
	}
	header[domain.NumIndicators-1] = "i459o"
	lines := []string{strings.Join(header, ",")}
	for _, rec := range []domain.RawRecord{
		pt.Record("d1", pt.Male, pt.Adult, pt.Symptom),
		pt.Record("d2", pt.Male, pt.Adult, pt.Symptom),
		pt.Record("d3", pt.Male, pt.Symptom),
	} {
		lines = append(lines, strings.Join(rec.Responses, ","))
	}
	require.NoError(t, os.WriteFile(ws.input, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProbbaseCommand(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "probbase", ws.probbase)
	require.NoError(t, err)
	assert.Contains(t, out, pt.Version)
	assert.Contains(t, out, fmt.Sprintf("indicators: %d", domain.NumIndicators))

	_, err = execute(t, "probbase", filepath.Join(ws.dir, "missing.csv"))
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	ws := newWorkspace(t)
	resultPath := filepath.Join(ws.dir, "out.csv")
	checkedPath := filepath.Join(ws.dir, "checked.csv")

	out, err := execute(t, "run", ws.input,
		"--config", ws.config,
		"--output", resultPath,
		"--mode", "extended",
		"--checked-data", checkedPath,
		"--run-id", "cli-run")
	require.NoError(t, err)
	assert.Contains(t, out, "run cli-run: 2 assigned, 1 excluded")

	data, err := os.ReadFile(resultPath)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], domain.CauseNames[targetCause])
	assert.True(t, strings.HasPrefix(rows[1], "d1,"))

	checked, err := os.ReadFile(checkedPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(checked)), "\n"), 3)

	t.Run("Runs_List", func(t *testing.T) {
		out, err := execute(t, "runs", "list", "--config", ws.config)
		require.NoError(t, err)
		assert.Contains(t, out, "cli-run")
		assert.Contains(t, out, pt.Version)
	})

	t.Run("CSMF", func(t *testing.T) {
		out, err := execute(t, "csmf", "cli-run", "--config", ws.config, "--top", "1")
		require.NoError(t, err)
		assert.Contains(t, out, domain.CauseNames[targetCause])
		assert.Contains(t, out, "1.0000")

		_, err = execute(t, "csmf", "nope", "--config", ws.config, "--top", "0")
		assert.Error(t, err)
	})

	t.Run("Export_Delete_Import", func(t *testing.T) {
		exportPath := filepath.Join(ws.dir, "run.json")
		_, err := execute(t, "runs", "export", "cli-run", exportPath, "--config", ws.config)
		require.NoError(t, err)
		assert.FileExists(t, exportPath)

		_, err = execute(t, "runs", "delete", "cli-run", "--config", ws.config)
		require.NoError(t, err)

		out, err := execute(t, "runs", "import", exportPath, "--config", ws.config)
		require.NoError(t, err)
		assert.Contains(t, out, "imported 2 results, skipped 0")
	})

	t.Run("Invalid_Prevalence", func(t *testing.T) {
		_, err := execute(t, "run", ws.input, "--config", ws.config, "--malaria", "x", "--run-id", "bad")
		var settingErr *domain.InvalidSettingError
		assert.ErrorAs(t, err, &settingErr)
	})
}

func TestApplyRunFlags(t *testing.T) {
	c := domain.ClassifierConfig{Malaria: "h", HIV: "h", Output: "classic", OutputFile: "VA5_result.csv"}
	require.NoError(t, runCmd.Flags().Set("malaria", "V"))
	require.NoError(t, runCmd.Flags().Set("append", "true"))
	t.Cleanup(func() {
		_ = runCmd.Flags().Set("malaria", "")
		_ = runCmd.Flags().Set("append", "false")
	})

	applyRunFlags(runCmd, &c)
	assert.Equal(t, "v", c.Malaria)
	assert.Equal(t, "h", c.HIV)
	assert.True(t, c.Append)
}

func TestSetupCommand(t *testing.T) {
	ws := newWorkspace(t)
	claudeConfig := filepath.Join(ws.dir, "claude", "claude_desktop_config.json")

	out, err := execute(t, "setup", "status", "--claude-config", claudeConfig)
	require.NoError(t, err)
	assert.Contains(t, out, "registered: false")

	out, err = execute(t, "setup", "claude-desktop",
		"--claude-config", claudeConfig,
		"--binary", ws.probbase,
		"--data-dir", ws.dir)
	require.NoError(t, err)
	assert.Contains(t, out, `registered "interva"`)

	out, err = execute(t, "setup", "status", "--claude-config", claudeConfig)
	require.NoError(t, err)
	assert.Contains(t, out, "registered: true")
	assert.Contains(t, out, ws.probbase)
}
