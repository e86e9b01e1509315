package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// Schema of a SQLite catalog. Class instances are one row each, ordered by
// the class position and then the instance position; functions are ordered
// by position.
const Schema = `
CREATE TABLE IF NOT EXISTS classes (
	name           TEXT NOT NULL,
	instance       TEXT NOT NULL,
	class_position INTEGER NOT NULL DEFAULT 0,
	position       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (name, instance)
);
CREATE TABLE IF NOT EXISTS functions (
	name      TEXT PRIMARY KEY,
	category  TEXT NOT NULL,
	signature TEXT NOT NULL,
	doc       TEXT NOT NULL DEFAULT '',
	position  INTEGER NOT NULL DEFAULT 0
);
`

// LoadSQLite reads a catalog from an existing SQLite database file. The file
// is opened read-only and is never created.
func LoadSQLite(ctx context.Context, path string) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &LoadError{Source: path, Err: fmt.Errorf("opening: %w", err)}
	}
	defer db.Close()

	c, err := ReadSQL(ctx, db)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return c, nil
}

// ReadSQL reads a catalog from an open database that follows Schema.
func ReadSQL(ctx context.Context, db *sql.DB) (*Catalog, error) {
	classes, err := readClasses(ctx, db)
	if err != nil {
		return nil, err
	}
	entries, err := readFunctions(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no functions defined")
	}
	return New(classes, entries)
}

func readClasses(ctx context.Context, db *sql.DB) ([]ClassDef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, instance FROM classes ORDER BY class_position, name, position, instance`)
	if err != nil {
		return nil, fmt.Errorf("querying classes: %w", err)
	}
	defer rows.Close()

	var classes []ClassDef
	for rows.Next() {
		var name, instance string
		if err := rows.Scan(&name, &instance); err != nil {
			return nil, fmt.Errorf("scanning classes: %w", err)
		}
		if n := len(classes); n > 0 && classes[n-1].Name == name {
			classes[n-1].Instances = append(classes[n-1].Instances, instance)
			continue
		}
		classes = append(classes, ClassDef{Name: name, Instances: []string{instance}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading classes: %w", err)
	}
	return classes, nil
}

func readFunctions(ctx context.Context, db *sql.DB) ([]Entry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, category, signature, doc FROM functions ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("querying functions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Category, &e.Signature, &e.Doc); err != nil {
			return nil, fmt.Errorf("scanning functions: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading functions: %w", err)
	}
	return entries, nil
}

// WriteSQL stores a catalog into db, creating the schema if needed.
func WriteSQL(ctx context.Context, db *sql.DB, c *Catalog) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	for ci, cd := range c.classes {
		for i, inst := range cd.Instances {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO classes (name, instance, class_position, position) VALUES (?, ?, ?, ?)`,
				cd.Name, inst, ci, i); err != nil {
				return fmt.Errorf("inserting class %s: %w", cd.Name, err)
			}
		}
	}
	for i, e := range c.entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO functions (name, category, signature, doc, position) VALUES (?, ?, ?, ?, ?)`,
			e.Name, e.Category, e.Signature, e.Doc, i); err != nil {
			return fmt.Errorf("inserting function %s: %w", e.Name, err)
		}
	}
	return tx.Commit()
}
