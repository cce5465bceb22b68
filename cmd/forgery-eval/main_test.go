package main

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/forgery-inspector-go/internal/imaging/imagingtest"
)

func writeDataset(t *testing.T) (forged, authentic string) {
	t.Helper()
	root := t.TempDir()
	forged = filepath.Join(root, "forged")
	authentic = filepath.Join(root, "authentic")
	require.NoError(t, os.MkdirAll(forged, 0o755))
	require.NoError(t, os.MkdirAll(authentic, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(forged, "noise.png"), imagingtest.PNG(imagingtest.Noise(48, 48, 7)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(authentic, "flat.jpg"),
		imagingtest.JPEG(imagingtest.Solid(48, 48, color.RGBA{R: 90, G: 120, B: 150, A: 255}), 90), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(authentic, "notes.txt"), []byte("ignored"), 0o600))
	return forged, authentic
}

func TestCommand_WritesReport(t *testing.T) {
	forged, authentic := writeDataset(t)
	reportDir := filepath.Join(t.TempDir(), "reports")

	err := newCommand().Run(context.Background(), []string{
		name,
		"--forged_dir", forged,
		"--authentic_dir", authentic,
		"--criteria", "strict,aggressive",
		"--detectors", "metadata,statistical,noise_variance",
		"--report", filepath.Join(reportDir, "eval.md"),
		"--log-level", "error",
	})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(reportDir, "eval-*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	report := string(data)
	assert.Contains(t, report, "**Total Images:** 2")
	assert.Contains(t, report, "### STRICT Mode")
	assert.Contains(t, report, "### AGGRESSIVE Mode")
	assert.NotContains(t, report, "### BALANCED Mode")
	assert.True(t, strings.HasPrefix(report, "# Forgery Detection - Evaluation Report"))
}

func TestCommand_Errors(t *testing.T) {
	forged, authentic := writeDataset(t)
	report := filepath.Join(t.TempDir(), "r.md")

	tests := []struct {
		name string
		args []string
	}{
		{"missing dirs", []string{name}},
		{"unknown detector", []string{name, "--forged_dir", forged, "--authentic_dir", authentic, "--detectors", "ocr", "--report", report}},
		{"bad max size", []string{name, "--forged_dir", forged, "--authentic_dir", authentic, "--max-size", "0", "--report", report}},
		{"empty dataset", []string{name, "--forged_dir", t.TempDir(), "--authentic_dir", t.TempDir(), "--report", report}},
		{"missing config", []string{name, "--forged_dir", forged, "--authentic_dir", authentic, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--report", report}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCommand()
			cmd.Writer, cmd.ErrWriter = &strings.Builder{}, &strings.Builder{}
			assert.Error(t, cmd.Run(context.Background(), tt.args))
		})
	}
}
