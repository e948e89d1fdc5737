package configlibsql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	require.True(t, Struct{File: "libsql://prices.turso.io"}.IsRemote())
	require.True(t, Struct{File: "http://127.0.0.1:8080"}.IsRemote())
	require.False(t, Struct{File: "data/history.db"}.IsRemote())
}

func TestOpenLocalDB(t *testing.T) {
	_, err := Struct{}.OpenDB(context.Background())
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Struct{File: path}.OpenDB(context.Background())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}
