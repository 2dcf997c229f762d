package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportStopsWhenCancelled(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav", "c.flac"} {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), nil, 0o600))
	}

	output := filepath.Join(t.TempDir(), "report.jsonl")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := runReport(ctx, folder, reportPlan{
		workDir: t.TempDir(),
		output:  output,
		workers: 2,
	})
	require.ErrorIs(t, err, context.Canceled)

	// No partial report is written.
	_, err = os.Stat(output)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
