package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"flightetl/internal/storage"
)

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a Postgres-backed Repo and verifies connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// ResetTable drops and recreates the destination table. Every load starts
// from an empty table, so there is no migration path to worry about.
func (r *Repo) ResetTable(ctx context.Context, spec storage.TableSpec) error {
	dropSQL, createSQL, err := buildResetSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := r.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

// maxRowsPerInsert keeps each statement well below the Postgres parameter
// limit; the whole file still commits atomically via the wrapping tx.
const maxRowsPerInsert = 2000

// InsertRows bulk-inserts rows inside one transaction.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	total := int64(0)
	for start := 0; start < len(rows); start += maxRowsPerInsert {
		end := start + maxRowsPerInsert
		if end > len(rows) {
			end = len(rows)
		}

		sql, args := buildInsertSQL(table, columns, rows[start:end])
		cmd, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		total += cmd.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return total, nil
}

// buildInsertSQL constructs a single multi-row INSERT and its args.
//
// It is pure and deterministic, so placeholder numbering can be unit tested
// without a database.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(";")
	return b.String(), args
}

// buildResetSQL renders the DROP + CREATE pair for a table spec.
func buildResetSQL(t storage.TableSpec) (dropSQL, createSQL string, err error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", "", fmt.Errorf("postgres: table name is empty")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	if t.PrimaryKey != nil {
		pkType, err := pgKeyType(t.PrimaryKey.Type)
		if err != nil {
			return "", "", err
		}
		cols = append(cols, fmt.Sprintf("%s %s PRIMARY KEY", pgIdent(t.PrimaryKey.Name), pkType))
	}

	for _, c := range t.Columns {
		def, err := buildColumnDef(c)
		if err != nil {
			return "", "", fmt.Errorf("postgres: table %s: %w", t.Name, err)
		}
		cols = append(cols, def)
	}
	if len(cols) == 0 {
		return "", "", fmt.Errorf("postgres: table %s: no columns", t.Name)
	}

	dropSQL = fmt.Sprintf("DROP TABLE IF EXISTS %s;", t.Name)
	createSQL = fmt.Sprintf("CREATE TABLE %s (%s);", t.Name, strings.Join(cols, ", "))
	return dropSQL, createSQL, nil
}

func buildColumnDef(c storage.ColumnSpec) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("column name must be set")
	}
	typ, err := pgType(c.Type)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", name, err)
	}

	var b strings.Builder
	b.WriteString(pgIdent(name))
	b.WriteString(" ")
	b.WriteString(typ)

	// Nullable == nil means NOT NULL (conservative default).
	nullable := false
	if c.Nullable != nil {
		nullable = *c.Nullable
	}
	if !nullable {
		b.WriteString(" NOT NULL")
	}
	if c.DefaultNow {
		b.WriteString(" DEFAULT now()")
	}
	return b.String(), nil
}

func pgType(portable string) (string, error) {
	switch portable {
	case "text":
		return "TEXT", nil
	case "date":
		return "DATE", nil
	case "bigint":
		return "BIGINT", nil
	case "timestamp":
		return "TIMESTAMPTZ", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", portable)
	}
}

func pgKeyType(portable string) (string, error) {
	switch portable {
	case "serial":
		return "BIGSERIAL", nil
	default:
		return "", fmt.Errorf("unsupported primary key type %q", portable)
	}
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
