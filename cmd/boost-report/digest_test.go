package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `{"file":"a.wav","metrics":{"lufs":-18,"lufs_error":0,"dlufs_sec_variance":1,"stoi":0.9,"clipping_percent":0,"latency_ms":0,"duration_sec":4},"analysis":{"summary":{"issue_count":0,"worst_severity":"no issue"},"issues":[{"check":"clipping","detected":false,"severity":"no issue","summary":"No clipping","confidence":1}]}}
{"file":"b.wav","metrics":{"lufs":-12,"lufs_error":6,"dlufs_sec_variance":3,"stoi":0.7,"clipping_percent":2,"latency_ms":10,"duration_sec":4},"analysis":{"summary":{"issue_count":2,"worst_severity":"severe"},"issues":[{"check":"clipping","detected":true,"severity":"severe","summary":"2.00% of samples clipped","confidence":1},{"check":"loudness","detected":true,"severity":"severe","summary":"6.0 LU above target","confidence":1}],"clipping":{"percent":2,"events":12}}}
{"file":"c.wav","error":"processing failed: boom"}
not json
`

func writeReport(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "report.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o600))

	return path
}

func TestDigestSummarizes(t *testing.T) {
	t.Parallel()

	records, lines, err := readRecordsWithRaw(writeReport(t))
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Len(t, lines, 4)
	assert.Equal(t, "parse error", records[3].Error)

	var out bytes.Buffer

	printDigest(&out, records)

	text := out.String()
	assert.Contains(t, text, "Total files:   4")
	assert.Contains(t, text, "Failed:        2")
	assert.Contains(t, text, "Measured:      2")
	assert.Contains(t, text, "Clean:     1")
	assert.Contains(t, text, "Severe:    1")
	assert.Contains(t, text, "2 issues:  1 files")
	assert.Contains(t, text, "total: 1  severe: 1  moderate: 0  mild: 0")
	assert.Contains(t, text, "LUFS:              -15.00 (error +3.00 LU)")
	assert.Contains(t, text, "STOI:              0.800")
	assert.Contains(t, text, "Latency:           5.0 ms")
}

func TestDigestIssueDetail(t *testing.T) {
	t.Parallel()

	records, lines, err := readRecordsWithRaw(writeReport(t))
	require.NoError(t, err)

	var out bytes.Buffer

	printIssueDetail(&out, records, lines, "clipping")

	text := out.String()
	assert.Contains(t, text, "=== clipping: 1 files ===")
	assert.Contains(t, text, "b.wav")
	assert.Contains(t, text, "events: 12")
	assert.NotContains(t, text, "a.wav")

	out.Reset()
	printIssueDetail(&out, records, lines, "latency")
	assert.Contains(t, out.String(), "No files affected by latency")
}

func TestDigestMissingReport(t *testing.T) {
	t.Parallel()

	_, _, err := readRecordsWithRaw(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}

func TestCollectAudioFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"b.WAV", "a.flac", "notes.txt", filepath.Join("sub", "c.m4a")} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}

	files, err := collectAudioFiles(root)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, strings.TrimPrefix(file, root+string(filepath.Separator)))
	}

	assert.Equal(t, []string{"a.flac", "b.WAV", filepath.Join("sub", "c.m4a")}, names)
}
