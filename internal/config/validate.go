package config

import "fmt"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path identifies the config field in
// dotted-JSON form (e.g. "storage.db.dsn").
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

var supportedStorageKinds = map[string]bool{
	"postgres": true,
	"sqlite":   true,
	"mssql":    true,
}

// ValidatePipeline checks the pipeline config and returns all findings.
// Errors make the config unusable; warnings flag defaults being applied.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, a...)})
	}

	if p.Job == "" {
		warnf("job", "job name is empty; metrics will use the default job name")
	}

	if p.Source.Kind != "dir" {
		errf("source.kind", "must be %q (got %q)", "dir", p.Source.Kind)
	}
	if p.Source.Dir == nil || p.Source.Dir.Path == "" {
		errf("source.dir.path", "root folder is required")
	}

	if p.Parser.Kind != "json" {
		errf("parser.kind", "must be %q (got %q)", "json", p.Parser.Kind)
	}

	if p.Storage.Kind == "" {
		errf("storage.kind", "storage backend kind is required")
	} else if !supportedStorageKinds[p.Storage.Kind] {
		errf("storage.kind", "unsupported backend %q (want postgres, sqlite or mssql)", p.Storage.Kind)
	}
	if p.Storage.DB.DSN == "" {
		errf("storage.db.dsn", "dsn is required")
	}
	if p.Storage.DB.Table == "" {
		warnf("storage.db.table", "table is empty; using default %q", "ticket_info")
	}

	return issues
}

// HasError reports whether any issue is severity error.
func HasError(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
