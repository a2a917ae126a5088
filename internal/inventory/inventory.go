// Package inventory persists the symbol table between builds so that only
// changed documents need to be read again.
package inventory

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/spachava753/luadomain/internal/symtab"
)

// DB is the interface accepted by NewSqlite. A *sql.DB satisfies it.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

const idCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func generateId() string {
	return gonanoid.MustGenerate(idCharset, 6)
}

//go:embed schema.sql
var schemaSQL string

// ErrNoBuild is returned by LastBuild when nothing was saved yet.
var ErrNoBuild = errors.New("no build recorded")

// Document is a source document and the modification time it had when it
// was read.
type Document struct {
	Name    string
	ModTime time.Time
	// Shadowed lists the names the document declares that another document
	// already owned.
	Shadowed []string
}

// Build describes one Save.
type Build struct {
	ID        string
	Documents int
	Objects   int
	CreatedAt time.Time
}

// Sqlite stores the inventory in a SQLite database. The caller owns the
// database connection.
type Sqlite struct {
	db          DB
	idGenerator func() string
}

// NewSqlite runs the embedded schema against db and returns the store.
func NewSqlite(ctx context.Context, db DB) (*Sqlite, error) {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Sqlite{db: db, idGenerator: generateId}, nil
}

// Save replaces the stored entries of docs with the entries table attributes
// to them, and records the build. It returns the build id.
func (s *Sqlite) Save(ctx context.Context, table *symtab.Table, docs []Document) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	if err := forget(ctx, tx, names); err != nil {
		return "", err
	}

	objects := 0
	for _, m := range table.Modules() {
		if !slices.Contains(names, m.Doc) {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO modules (name, doc, synopsis, platform, deprecated) VALUES (?, ?, ?, ?, ?)`,
			m.Name, m.Doc, m.Synopsis, m.Platform, m.Deprecated)
		if err != nil {
			return "", fmt.Errorf("failed to save module %s: %w", m.Name, err)
		}
	}
	for _, o := range table.Objects() {
		if !slices.Contains(names, o.Doc) {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO objects (name, kind, doc) VALUES (?, ?, ?)`,
			o.Name, string(o.Kind), o.Doc)
		if err != nil {
			return "", fmt.Errorf("failed to save object %s: %w", o.Name, err)
		}
		objects++
	}

	id := s.idGenerator()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, documents, objects, created_at) VALUES (?, ?, ?, ?)`,
		id, len(docs), objects, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record build: %w", err)
	}
	for _, d := range docs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO documents (name, build_id, mtime) VALUES (?, ?, ?)`,
			d.Name, id, d.ModTime.UnixNano())
		if err != nil {
			return "", fmt.Errorf("failed to save document %s: %w", d.Name, err)
		}
		for _, name := range d.Shadowed {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO shadowed (name, doc) VALUES (?, ?)`,
				name, d.Name)
			if err != nil {
				return "", fmt.Errorf("failed to save shadowed %s of %s: %w", name, d.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// Forget removes every stored entry of docs, for documents that no longer
// exist.
func (s *Sqlite) Forget(ctx context.Context, docs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := forget(ctx, tx, docs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func forget(ctx context.Context, tx *sql.Tx, docs []string) error {
	for _, doc := range docs {
		for _, q := range []string{
			`DELETE FROM objects WHERE doc = ?`,
			`DELETE FROM modules WHERE doc = ?`,
			`DELETE FROM documents WHERE name = ?`,
			`DELETE FROM shadowed WHERE doc = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, doc); err != nil {
				return fmt.Errorf("failed to remove entries of %s: %w", doc, err)
			}
		}
	}
	return nil
}

// Load rebuilds the symbol table from the stored entries.
func (s *Sqlite) Load(ctx context.Context) (*symtab.Table, error) {
	table := symtab.New()

	rows, err := s.db.QueryContext(ctx, `SELECT name, doc, synopsis, platform, deprecated FROM modules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	for rows.Next() {
		var name string
		var m symtab.Module
		if err := rows.Scan(&name, &m.Doc, &m.Synopsis, &m.Platform, &m.Deprecated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		if err := table.AddModule(name, m); err != nil {
			rows.Close()
			return nil, fmt.Errorf("inconsistent inventory: %w", err)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read modules: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT name, kind, doc FROM objects WHERE kind != ? ORDER BY name`, string(symtab.KindModule))
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, kind, doc string
		if err := rows.Scan(&name, &kind, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		if !symtab.Kind(kind).Valid() {
			return nil, fmt.Errorf("invalid kind %q for %s in inventory", kind, name)
		}
		if err := table.Insert(name, symtab.Kind(kind), doc); err != nil {
			return nil, fmt.Errorf("inconsistent inventory: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read objects: %w", err)
	}
	return table, nil
}

// Documents returns the stored documents keyed by name.
func (s *Sqlite) Documents(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, mtime FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var mtime int64
		if err := rows.Scan(&name, &mtime); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs[name] = time.Unix(0, mtime)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}

// Shadowed returns the names each stored document declares but does not own,
// keyed by document.
func (s *Sqlite) Shadowed(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc, name FROM shadowed ORDER BY doc, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shadowed names: %w", err)
	}
	defer rows.Close()

	shadowed := make(map[string][]string)
	for rows.Next() {
		var doc, name string
		if err := rows.Scan(&doc, &name); err != nil {
			return nil, fmt.Errorf("failed to scan shadowed name: %w", err)
		}
		shadowed[doc] = append(shadowed[doc], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shadowed names: %w", err)
	}
	return shadowed, nil
}

// LastBuild returns the most recent build, or ErrNoBuild.
func (s *Sqlite) LastBuild(ctx context.Context) (Build, error) {
	var b Build
	err := s.db.QueryRowContext(ctx,
		`SELECT id, documents, objects, created_at FROM builds ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&b.ID, &b.Documents, &b.Objects, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, ErrNoBuild
	}
	if err != nil {
		return Build{}, fmt.Errorf("failed to get last build: %w", err)
	}
	return b, nil
}
