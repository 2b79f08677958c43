package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	problems, err := validateFile(write("ok.yaml", "settings:\n  itemsPerPage: 10\ngrids:\n  users:\n    columns:\n      - select: name\n"))
	require.NoError(t, err)
	assert.Empty(t, problems)

	problems, err = validateFile(write("bad.yaml", "settings:\n  paginator:\n    style: wobbly\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, problems)

	problems, err = validateFile(write("column.yaml", "grids:\n  users:\n    columns:\n      - select: name\n        position: first\n"))
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "grids.users.columns[0]")

	problems, err = validateFile(write("empty.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, problems)

	_, err = validateFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
