package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spachava753/luadomain/internal/inventory"
	"github.com/spachava753/luadomain/internal/symtab"
)

// OpenStore opens the inventory database at path, creating it when missing.
// The returned function closes the database.
func OpenStore(ctx context.Context, path string) (*inventory.Sqlite, func() error, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create inventory directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open inventory %s: %w", path, err)
	}
	store, err := inventory.NewSqlite(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db.Close, nil
}

// LoadTable loads the symbol table of the last build from the inventory at
// path. It fails when no build was recorded.
func LoadTable(ctx context.Context, path string) (*symtab.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: run the build first (%v)", inventory.ErrNoBuild, err)
	}
	store, closeFn, err := OpenStore(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	if _, err := store.LastBuild(ctx); err != nil {
		return nil, err
	}
	return store.Load(ctx)
}
