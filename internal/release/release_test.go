package release

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "release.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifestExpandsPlaceholders(t *testing.T) {
	path := writeManifest(t, `
name: py-gpt
version: 2.5.0
dist_dir: dist
steps:
  - name: archive
    run: ["tar", "-czf", "${dist_dir}/${name}-${version}.tar.gz", "build"]
    artifact: ${dist_dir}/${name}-${version}.tar.gz
  - name: checksum
    checksum: ${dist_dir}/${name}-${version}.tar.gz
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "py-gpt", m.Name)
	assert.Equal(t, []string{"tar", "-czf", "dist/py-gpt-2.5.0.tar.gz", "build"}, m.Steps[0].Run)
	assert.Equal(t, "dist/py-gpt-2.5.0.tar.gz", m.Steps[1].Checksum)
}

func TestManifestValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing name", "steps:\n  - name: a\n    run: [\"true\"]\n"},
		{"no steps", "name: x\n"},
		{"unnamed step", "name: x\nsteps:\n  - run: [\"true\"]\n"},
		{"duplicate step", "name: x\nsteps:\n  - name: a\n    run: [\"true\"]\n  - name: a\n    run: [\"true\"]\n"},
		{"run and checksum", "name: x\nsteps:\n  - name: a\n    run: [\"true\"]\n    checksum: f\n"},
		{"neither run nor checksum", "name: x\nsteps:\n  - name: a\n"},
		{"upload without run", "name: x\nsteps:\n  - name: a\n    checksum: f\n    upload: true\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func runPipeline(t *testing.T, m *Manifest, cfg config.ReleaseConfig, opts Options) (string, error) {
	t.Helper()
	p := NewPipeline(m, cfg, testLogger(t))
	var buf bytes.Buffer
	p.out = &buf
	err := p.Run(context.Background(), opts)
	return buf.String(), err
}

func TestPipelineRunsStepsInOrder(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "order.log")

	m := &Manifest{
		Name: "test",
		Steps: []Step{
			{Name: "first", Run: []string{"sh", "-c", "echo first >> " + log}},
			{Name: "second", Run: []string{"sh", "-c", "echo second >> " + log}},
			{Name: "third", Run: []string{"sh", "-c", "echo third >> " + log}},
		},
	}
	require.NoError(t, m.Validate())

	_, err := runPipeline(t, m, config.ReleaseConfig{}, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\nthird\n", string(data))
}

func TestPipelineAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "after-failure")

	m := &Manifest{
		Name: "test",
		Steps: []Step{
			{Name: "boom", Run: []string{"sh", "-c", "exit 3"}},
			{Name: "never", Run: []string{"sh", "-c", "touch " + marker}},
		},
	}

	_, err := runPipeline(t, m, config.ReleaseConfig{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step boom failed")

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineMissingArtifact(t *testing.T) {
	m := &Manifest{
		Name: "test",
		Steps: []Step{
			{Name: "build", Run: []string{"true"}, Artifact: filepath.Join(t.TempDir(), "missing.tar.gz")},
		},
	}

	_, err := runPipeline(t, m, config.ReleaseConfig{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestChecksumStep(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "app.tar.gz")
	require.NoError(t, os.WriteFile(artifact, []byte("payload"), 0644))

	m := &Manifest{
		Name: "test",
		Steps: []Step{
			{Name: "checksum", Checksum: artifact},
		},
	}

	_, err := runPipeline(t, m, config.ReleaseConfig{}, Options{})
	require.NoError(t, err)

	sum, err := os.ReadFile(artifact + ".sha256")
	require.NoError(t, err)
	assert.Contains(t, string(sum), "app.tar.gz")
	// sha256("payload")
	assert.Contains(t, string(sum), "239f59ed55e737c77147cf55ad0c1b030b6d7ee748a7426952f9b852d5a935e5")
}

func TestChecksumRequiresArtifact(t *testing.T) {
	m := &Manifest{
		Name: "test",
		Steps: []Step{
			{Name: "checksum", Checksum: filepath.Join(t.TempDir(), "nope.tar.gz")},
		},
	}

	_, err := runPipeline(t, m, config.ReleaseConfig{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestUploadGating(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "uploaded")

	m := &Manifest{
		Name: "test",
		Steps: []Step{
			{Name: "upload", Run: []string{"sh", "-c", "touch " + marker}, Upload: true},
		},
	}

	// Disabled in config: skipped.
	out, err := runPipeline(t, m, config.ReleaseConfig{Upload: false}, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "skip")
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))

	// Enabled but --skip-upload: still skipped.
	_, err = runPipeline(t, m, config.ReleaseConfig{Upload: true}, Options{SkipUpload: true})
	require.NoError(t, err)
	_, statErr = os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))

	// Enabled: runs.
	_, err = runPipeline(t, m, config.ReleaseConfig{Upload: true}, Options{})
	require.NoError(t, err)
	_, statErr = os.Stat(marker)
	assert.NoError(t, statErr)
}

func TestDryRunExecutesNothing(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	m := &Manifest{
		Name: "test",
		Steps: []Step{
			{Name: "build", Run: []string{"sh", "-c", "touch " + marker}},
		},
	}

	out, err := runPipeline(t, m, config.ReleaseConfig{}, Options{DryRun: true})
	require.NoError(t, err)
	assert.Contains(t, out, "build")

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}
