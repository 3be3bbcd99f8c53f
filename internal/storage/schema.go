// TableSpec lives here so backend packages can consume it without circular deps.
package storage

// TableSpec describes a destination table in backend-neutral terms. Backends
// translate the portable column types into their own dialect when building
// DDL.
type TableSpec struct {
	Name       string
	PrimaryKey *PrimaryKeySpec
	Columns    []ColumnSpec
}

type PrimaryKeySpec struct {
	Name string
	// Type is the portable key type; today only "serial" (auto-incrementing
	// integer) is used.
	Type string
}

// ColumnSpec describes one column.
//
// Type is a portable type name: "text", "date", "bigint" or "timestamp".
// Nullable == nil means NOT NULL (conservative default).
// DefaultNow requests an insert-time timestamp default; only meaningful for
// "timestamp" columns.
type ColumnSpec struct {
	Name       string
	Type       string
	Nullable   *bool
	DefaultNow bool
}

// NullableCol is a convenience for building specs with Nullable pointers.
func NullableCol(name, typ string) ColumnSpec {
	t := true
	return ColumnSpec{Name: name, Type: typ, Nullable: &t}
}
