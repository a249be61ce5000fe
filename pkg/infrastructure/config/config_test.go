package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "highs", conf.Solver.Backend)
	assert.Zero(t, conf.Solver.TimeLimit)
	assert.Zero(t, conf.Solver.MIPGap)
	assert.Equal(t, "coursework", conf.Report.Instance)
	assert.Equal(t, "text", conf.Report.Format)
	assert.Empty(t, conf.Report.Sensitivity)
	assert.Equal(t, "warn", conf.Log.Level)
	assert.Empty(t, conf.Metrics.File)
	assert.Empty(t, conf.Report.OutputDir)
	assert.Equal(t, 1, conf.Run.MachineID)
}

func TestLoad_FileEnvAndOverridePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotsizing.yaml")
	content := []byte(`
solver:
  backend: scip
  time_limit: 30s
  mip_gap: 0.01
report:
  format: json
  sensitivity: [0.9, 1.1]
log:
  level: info
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("LOTSIZING_LOG_LEVEL", "debug")
	t.Setenv("LOTSIZING_SOLVER_THREADS", "2")

	conf, err := Load(path, map[string]any{"report.format": "csv"})
	require.NoError(t, err)

	assert.Equal(t, "scip", conf.Solver.Backend)
	assert.Equal(t, 30*time.Second, conf.Solver.TimeLimit)
	assert.Equal(t, 0.01, conf.Solver.MIPGap)
	assert.Equal(t, 2, conf.Solver.Threads)
	assert.Equal(t, []float64{0.9, 1.1}, conf.Report.Sensitivity)
	// environment beats the file, explicit overrides beat both
	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, "csv", conf.Report.Format)
}

func TestLoad_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name      string
		overrides map[string]any
	}{
		{"unknown format", map[string]any{"report.format": "xml"}},
		{"negative gap", map[string]any{"solver.mip_gap": -0.5}},
		{"gap of one", map[string]any{"solver.mip_gap": 1.0}},
		{"negative threads", map[string]any{"solver.threads": -1}},
		{"empty backend", map[string]any{"solver.backend": ""}},
		{"bad level", map[string]any{"log.level": "trace"}},
		{"negative factor", map[string]any{"report.sensitivity": []float64{1.1, -2}}},
		{"machine id out of range", map[string]any{"run.machine_id": 70000}},
		{"pdf format", map[string]any{"report.format": "pdf"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load("", tc.overrides)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config error")
}
