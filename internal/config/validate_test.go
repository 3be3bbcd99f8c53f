package config

import "testing"

func validPipeline() Pipeline {
	return Pipeline{
		Job:    "flight_tickets",
		Source: Source{Kind: "dir", Dir: &DirSource{Path: "json"}},
		Parser: Parser{Kind: "json"},
		Storage: Storage{
			Kind: "postgres",
			DB:   DB{DSN: "postgres://localhost/flights", Table: "ticket_info"},
		},
	}
}

func TestValidatePipeline_Valid(t *testing.T) {
	t.Parallel()

	issues := ValidatePipeline(validPipeline())
	if HasError(issues) {
		t.Fatalf("unexpected errors: %v", issues)
	}
}

func TestValidatePipeline_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Pipeline)
		wantErr  bool
		wantPath string
	}{
		{
			name:     "missing_source_kind",
			mutate:   func(p *Pipeline) { p.Source.Kind = "" },
			wantErr:  true,
			wantPath: "source.kind",
		},
		{
			name:     "missing_root_path",
			mutate:   func(p *Pipeline) { p.Source.Dir = nil },
			wantErr:  true,
			wantPath: "source.dir.path",
		},
		{
			name:     "wrong_parser",
			mutate:   func(p *Pipeline) { p.Parser.Kind = "csv" },
			wantErr:  true,
			wantPath: "parser.kind",
		},
		{
			name:     "missing_storage_kind",
			mutate:   func(p *Pipeline) { p.Storage.Kind = "" },
			wantErr:  true,
			wantPath: "storage.kind",
		},
		{
			name:     "unsupported_backend",
			mutate:   func(p *Pipeline) { p.Storage.Kind = "mysql" },
			wantErr:  true,
			wantPath: "storage.kind",
		},
		{
			name:     "missing_dsn",
			mutate:   func(p *Pipeline) { p.Storage.DB.DSN = "" },
			wantErr:  true,
			wantPath: "storage.db.dsn",
		},
		{
			name:     "empty_table_warns_only",
			mutate:   func(p *Pipeline) { p.Storage.DB.Table = "" },
			wantErr:  false,
			wantPath: "storage.db.table",
		},
		{
			name:     "empty_job_warns_only",
			mutate:   func(p *Pipeline) { p.Job = "" },
			wantErr:  false,
			wantPath: "job",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPipeline()
			tt.mutate(&p)

			issues := ValidatePipeline(p)
			if HasError(issues) != tt.wantErr {
				t.Fatalf("HasError=%v, want %v (issues=%v)", HasError(issues), tt.wantErr, issues)
			}

			found := false
			for _, iss := range issues {
				if iss.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Fatalf("no issue with path %q in %v", tt.wantPath, issues)
			}
		})
	}
}

func TestOptions_Accessors(t *testing.T) {
	t.Parallel()

	opts := Options{
		"list_key":   "flights",
		"header_map": map[string]any{"from": "departure", "n": 1},
		"number":     42,
	}

	if got := opts.String("list_key", "x"); got != "flights" {
		t.Errorf("String(list_key) = %q", got)
	}
	if got := opts.String("missing", "fallback"); got != "fallback" {
		t.Errorf("String(missing) = %q", got)
	}
	if got := opts.String("number", "fallback"); got != "fallback" {
		t.Errorf("String(number) = %q, want fallback for non-string", got)
	}

	m := opts.StringMap("header_map")
	if m["from"] != "departure" {
		t.Errorf("StringMap()[from] = %q", m["from"])
	}
	if _, ok := m["n"]; ok {
		t.Errorf("StringMap() kept non-string value")
	}

	var nilOpts Options
	if got := nilOpts.String("k", "d"); got != "d" {
		t.Errorf("nil Options String = %q", got)
	}
	if got := nilOpts.StringMap("k"); len(got) != 0 {
		t.Errorf("nil Options StringMap = %v", got)
	}
}
