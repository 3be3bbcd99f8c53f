// Package config defines the JSON pipeline configuration consumed by the
// loader binary.
package config

// Pipeline is the root config object.
//
// Example:
//
//	{
//	  "job": "flight_tickets",
//	  "source": {"kind": "dir", "dir": {"path": "json"}},
//	  "parser": {"kind": "json", "options": {"list_key": "航班列表"}},
//	  "storage": {"kind": "postgres", "db": {"dsn": "${DATABASE_URL}", "table": "ticket_info"}}
//	}
type Pipeline struct {
	Job     string  `json:"job"`
	Source  Source  `json:"source"`
	Parser  Parser  `json:"parser"`
	Storage Storage `json:"storage"`
}

type Source struct {
	Kind string     `json:"kind"` // must be "dir"
	Dir  *DirSource `json:"dir,omitempty"`
}

// DirSource points at the root folder whose nested subfolders hold the JSON
// listing files.
type DirSource struct {
	Path string `json:"path"`
}

type Parser struct {
	Kind    string  `json:"kind"` // must be "json"
	Options Options `json:"options"`
}

type Storage struct {
	// Backend kind: "postgres" | "sqlite" | "mssql"
	Kind string `json:"kind"`
	DB   DB     `json:"db"`
}

type DB struct {
	// DSN may reference environment variables (${DATABASE_URL}); the runner
	// expands them before connecting.
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}
