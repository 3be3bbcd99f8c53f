// Package all registers every storage backend with the factory. Commands
// blank-import it so config alone selects the backend.
package all

import (
	_ "flightetl/internal/storage/mssql"
	_ "flightetl/internal/storage/postgres"
	_ "flightetl/internal/storage/sqlite"
)
