package flight

import "flightetl/internal/storage"

// DefaultTable is the destination table name when config does not override it.
const DefaultTable = "ticket_info"

// InsertColumns returns the column list for bulk inserts, in the order
// produced by Cleaned.Row. The id and created_at columns are filled by the
// database.
func InsertColumns() []string {
	return []string{
		FieldDeparture,
		FieldDestination,
		FieldFlightType,
		FieldFlightDate,
		FieldFlightCode,
		FieldPrice,
		"source_file",
	}
}

// Row materializes a valid record as a positional row aligned with
// InsertColumns. sourceFile tags the row with the origin file path.
//
// Row must only be called on records for which Valid() is true; calling it on
// an invalid record panics on the nil pointer, which is a programming error
// in the caller.
func (c Cleaned) Row(sourceFile string) []any {
	return []any{
		*c.Departure,
		*c.Destination,
		c.FlightType,
		*c.FlightDate,
		*c.FlightCode,
		*c.Price,
		sourceFile,
	}
}

// TableSpec describes the destination table. The reset-and-load model keeps
// the schema fixed: drop-and-recreate is the only migration strategy.
func TableSpec(name string) storage.TableSpec {
	if name == "" {
		name = DefaultTable
	}
	return storage.TableSpec{
		Name:       name,
		PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
		Columns: []storage.ColumnSpec{
			{Name: FieldDeparture, Type: "text"},
			{Name: FieldDestination, Type: "text"},
			storage.NullableCol(FieldFlightType, "text"),
			{Name: FieldFlightDate, Type: "date"},
			{Name: FieldFlightCode, Type: "text"},
			{Name: FieldPrice, Type: "bigint"},
			{Name: "source_file", Type: "text"},
			{Name: "created_at", Type: "timestamp", DefaultNow: true},
		},
	}
}
