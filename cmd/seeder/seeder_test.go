package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFiles_SortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"02_donators.sql", "README.md", "01_organizations.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}

	files, err := seedFiles(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "01_organizations.sql"),
		filepath.Join(dir, "02_donators.sql"),
	}, files)
}

func TestSeedFiles_EmptyDir(t *testing.T) {
	_, err := seedFiles(t.TempDir())
	assert.Error(t, err)
}

func TestRootCmd_ListsCommands(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "migrate")
	assert.Contains(t, out.String(), "seed")
}

func TestSeedCmd_Flags(t *testing.T) {
	cmd := newSeedCmd()
	dir := cmd.Flags().Lookup("dir")
	require.NotNil(t, dir)
	assert.Equal(t, "seed", dir.DefValue)
	assert.Equal(t, "true", cmd.Flags().Lookup("migrate").DefValue)
}
