package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexEnsureCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index", "ensure"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, 1, indexAdmin.(*mockAdminService).ensured)
	assert.Contains(t, buf.String(), `Index "library" is ready.`)
}

func TestIndexDeleteCmd_RequiresConfirmation(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"index", "delete"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Zero(t, indexAdmin.(*mockAdminService).deleted, "nothing deleted without confirmation")
}

func TestIndexDeleteCmd_Confirmed(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index", "delete", "--yes"})
	defer func() {
		rootCmd.SetArgs(nil)
		indexDeleteYes = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, 1, indexAdmin.(*mockAdminService).deleted)
	assert.Contains(t, buf.String(), "deleted")
}

func TestIndexStatsCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index", "stats"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "library")
	assert.Contains(t, out, "Documents: 3")
	assert.Contains(t, out, "Fields:    9")
}

func TestIndexCmds_ServiceNotConfigured(t *testing.T) {
	oldAdmin := indexAdmin
	indexAdmin = nil
	defer func() {
		indexAdmin = oldAdmin
	}()

	for _, args := range [][]string{
		{"index", "ensure"},
		{"index", "delete", "--yes"},
		{"index", "stats"},
	} {
		rootCmd.SetArgs(args)
		err := rootCmd.Execute()
		assert.Error(t, err, "args %v", args)
	}
	rootCmd.SetArgs(nil)
	indexDeleteYes = false
}
