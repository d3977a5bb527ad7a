// Package store exports output tables into a SQLite file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/greenskills/internal/table"
)

const driver = "sqlite"

type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open creates or opens the SQLite file at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating sqlite directory: %w", err)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WriteTable replaces the table name with the contents of t. Column types are
// INTEGER or REAL when every non-blank cell parses as one, TEXT otherwise.
// Blank cells are stored as NULL.
func (s *Store) WriteTable(ctx context.Context, name string, t *table.Table) error {
	types := columnTypes(t)

	defs := make([]string, len(t.Columns))
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quote(c)
		defs[i] = cols[i] + " " + types[i]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("writing table %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quote(name)); err != nil {
		return fmt.Errorf("dropping table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quote(name)+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quote(name)+` (`+strings.Join(cols, ", ")+`) VALUES (`+ph+`)`)
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", name, err)
	}
	defer stmt.Close()

	for r, row := range t.Rows {
		args := make([]any, len(t.Columns))
		for i := range t.Columns {
			var v string
			if i < len(row) {
				v = row[i]
			}
			args[i] = value(v, types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d into %s: %w", r+1, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing table %s: %w", name, err)
	}

	s.logger.Info("table exported",
		zap.String("table", name),
		zap.Int("rows", t.Len()),
		zap.String("path", s.path),
	)
	return nil
}

// ReadTable returns the rows of the table name as text.
func (s *Store) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+quote(name))
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	t := table.New(cols...)
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("reading table %s: %w", name, err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = v.String
		}
		t.Append(row)
	}
	return t, rows.Err()
}

// Tables lists the tables of the file, sorted by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func columnTypes(t *table.Table) []string {
	types := make([]string, len(t.Columns))
	for i := range t.Columns {
		isInt, isReal, seen := true, true, false
		for _, row := range t.Rows {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			seen = true
			v := strings.TrimSpace(row[i])
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
			}
		}

		switch {
		case !seen:
			types[i] = "TEXT"
		case isInt:
			types[i] = "INTEGER"
		case isReal:
			types[i] = "REAL"
		default:
			types[i] = "TEXT"
		}
	}
	return types
}

func value(v, typ string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	switch typ {
	case "INTEGER":
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case "REAL":
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return v
	}
}
