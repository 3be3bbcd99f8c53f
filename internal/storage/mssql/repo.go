package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"flightetl/internal/storage"
)

// Repo implements storage.Repository for SQL Server.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// ResetTable drops and recreates the destination table.
// DROP TABLE IF EXISTS requires SQL Server 2016 or later.
func (r *Repo) ResetTable(ctx context.Context, spec storage.TableSpec) error {
	dropSQL, createSQL, err := buildResetSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

// maxRowsPerInsert * columns must stay under SQL Server's 2100-parameter
// limit.
const maxRowsPerInsert = 250

// InsertRows bulk-inserts rows inside one transaction.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	total := int64(0)
	for start := 0; start < len(rows); start += maxRowsPerInsert {
		end := start + maxRowsPerInsert
		if end > len(rows) {
			end = len(rows)
		}

		q, args := buildInsertSQL(table, columns, rows[start:end])
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// buildInsertSQL constructs a single multi-row INSERT with @pN placeholders.
//
// Pure and deterministic so placeholder numbering is unit-testable without a
// database.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c))
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
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, sql.Named(fmt.Sprintf("p%d", p), row[j]))
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(";")
	return b.String(), args
}

func buildResetSQL(t storage.TableSpec) (dropSQL, createSQL string, err error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", "", fmt.Errorf("mssql: table name is empty")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	if t.PrimaryKey != nil {
		if t.PrimaryKey.Type != "serial" {
			return "", "", fmt.Errorf("mssql: unsupported primary key type %q", t.PrimaryKey.Type)
		}
		cols = append(cols, fmt.Sprintf("%s BIGINT IDENTITY(1,1) PRIMARY KEY", msIdent(t.PrimaryKey.Name)))
	}

	for _, c := range t.Columns {
		def, err := buildColumnDef(c)
		if err != nil {
			return "", "", fmt.Errorf("mssql: table %s: %w", t.Name, err)
		}
		cols = append(cols, def)
	}
	if len(cols) == 0 {
		return "", "", fmt.Errorf("mssql: table %s: no columns", t.Name)
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
	typ, err := msType(c.Type)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", name, err)
	}

	var b strings.Builder
	b.WriteString(msIdent(name))
	b.WriteString(" ")
	b.WriteString(typ)

	nullable := false
	if c.Nullable != nil {
		nullable = *c.Nullable
	}
	if !nullable {
		b.WriteString(" NOT NULL")
	}
	if c.DefaultNow {
		b.WriteString(" DEFAULT SYSUTCDATETIME()")
	}
	return b.String(), nil
}

func msType(portable string) (string, error) {
	switch portable {
	case "text":
		return "NVARCHAR(255)", nil
	case "date":
		return "DATE", nil
	case "bigint":
		return "BIGINT", nil
	case "timestamp":
		return "DATETIME2", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", portable)
	}
}

func msIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
