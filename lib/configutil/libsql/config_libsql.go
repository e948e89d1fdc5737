package configlibsql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct is the database section of a config file. File is either a local
// path (opened with sqlite) or a libsql:// / http(s):// URL of a remote libSQL
// server.
type Struct struct {
	File string `json:"file"`
}

func (config Struct) IsRemote() bool {
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(config.File, scheme) {
			return true
		}
	}
	return false
}

func (config Struct) OpenDB(ctx context.Context) (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	if config.IsRemote() {
		db, err := sql.Open("libsql", config.File)
		if err != nil {
			return nil, err
		}
		err = db.PingContext(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	err := os.MkdirAll(filepath.Dir(config.File), 0755)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer, see https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
