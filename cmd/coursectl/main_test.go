package main

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

	"github.com/brunobiangulo/coursewizard"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestScheduleFromStdin(t *testing.T) {
	out, err := runCmd(t, "15/01/2024 09:00 - 18:00 - Ufficio\n", "schedule")
	require.NoError(t, err)

	var cal struct {
		TotalHours float64 `json:"totalHours"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cal))
	assert.Equal(t, 8.0, cal.TotalHours)
}

func TestExtractThenExport(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(doc, []byte(
		"ID Progetto: PRJ-42\nTitolo corso: Saldatura\n15/01/2024 09:00 - 13:00 - Ufficio\n"), 0o644))

	coursePath := filepath.Join(dir, "corso.json")
	_, err := runCmd(t, "", "extract", "-file", doc, "-out", coursePath)
	require.NoError(t, err)

	raw, err := os.ReadFile(coursePath)
	require.NoError(t, err)
	var d coursewizard.CourseData
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, "PRJ-42", d.ProjectID)
	require.Len(t, d.Calendar.Lessons, 1)

	icsPath := filepath.Join(dir, "out.ics")
	_, err = runCmd(t, "", "export", "-course", coursePath, "-format", "ics", "-out", icsPath)
	require.NoError(t, err)
	ics, err := os.ReadFile(icsPath)
	require.NoError(t, err)
	assert.Contains(t, string(ics), "SUMMARY:Lezione - Saldatura")

	out, err := runCmd(t, "", "export", "-course", coursePath, "-format", "links")
	require.NoError(t, err)
	assert.Contains(t, out, "calendar.google.com")
}

func TestCommandErrors(t *testing.T) {
	_, err := runCmd(t, "")
	assert.Error(t, err)

	_, err = runCmd(t, "", "frobnicate")
	assert.ErrorContains(t, err, "unknown command")

	_, err = runCmd(t, "", "extract")
	assert.ErrorContains(t, err, "-file")

	_, err = runCmd(t, "", "export")
	assert.ErrorContains(t, err, "-course")

	_, err = runCmd(t, "solo testo", "course-table")
	assert.ErrorIs(t, err, coursewizard.ErrFormatNotRecognized)
}
