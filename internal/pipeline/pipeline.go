// Package pipeline wires the per-file load path together: walk the root
// folder, parse each JSON file, normalize and filter its records, and bulk
// insert the valid ones.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"flightetl/internal/config"
	"flightetl/internal/flight"
	"flightetl/internal/metrics"
	parserjson "flightetl/internal/parser/json"
	"flightetl/internal/storage"
	"flightetl/internal/walker"
)

// Logger is the minimal logging seam; *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Runner executes a pipeline config. The factory and logger fields are seams
// so tests can run the full control flow against fakes.
type Runner struct {
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	Logger        Logger
}

func NewDefaultRunner() *Runner {
	return &Runner{
		NewRepository: storage.New,
		Logger:        log.Default(),
	}
}

// Stats summarizes one run.
type Stats struct {
	Files        int64 // files fully processed
	FilesSkipped int64 // files skipped on parse or insert error
	Loaded       int64 // records inserted
	Rejected     int64 // records dropped by the required-field filter
}

// Run executes the full pipeline: reset the destination table once, then walk
// the root folder loading every JSON file.
//
// Per-file failures (malformed JSON, failed insert) are logged and skipped so
// one bad export does not abort the run; the file's transaction has already
// rolled back inside the backend. Fatal failures (bad config, unreachable
// database, canceled context) abort.
func (r *Runner) Run(ctx context.Context, cfg config.Pipeline) (Stats, error) {
	var stats Stats

	if issues := config.ValidatePipeline(cfg); config.HasError(issues) {
		return stats, fmt.Errorf("pipeline: invalid config: %s", issues[0])
	}

	table := cfg.Storage.DB.Table
	if table == "" {
		table = flight.DefaultTable
	}

	repo, err := r.NewRepository(ctx, storage.Config{
		Kind: cfg.Storage.Kind,
		DSN:  os.ExpandEnv(cfg.Storage.DB.DSN),
	})
	if err != nil {
		return stats, fmt.Errorf("pipeline: open repository: %w", err)
	}
	defer repo.Close()

	if err := repo.ResetTable(ctx, flight.TableSpec(table)); err != nil {
		return stats, fmt.Errorf("pipeline: reset table: %w", err)
	}

	err = walker.WalkJSON(ctx, cfg.Source.Dir.Path, func(path string) error {
		start := time.Now()

		loaded, rejected, err := ProcessFile(ctx, repo, table, cfg.Parser.Options, path)
		stats.Rejected += rejected
		metrics.IncCounter(metrics.RecordsRejected, float64(rejected))

		if err != nil {
			// ctx cancellation must stop the walk; anything else is one bad
			// file and the run continues.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.FilesSkipped++
			metrics.IncCounter(metrics.FilesSkipped, 1)
			r.Logger.Printf("skip %s: %v", path, err)
			return nil
		}

		stats.Files++
		stats.Loaded += loaded
		metrics.IncCounter(metrics.FilesProcessed, 1)
		metrics.IncCounter(metrics.RecordsLoaded, float64(loaded))
		metrics.ObserveDuration(metrics.FileLoadSeconds, time.Since(start).Seconds())

		if loaded == 0 {
			r.Logger.Printf("%s: no loadable records", path)
		} else {
			r.Logger.Printf("%s: loaded %d records (%d rejected)", path, loaded, rejected)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("pipeline: walk %s: %w", cfg.Source.Dir.Path, err)
	}

	r.Logger.Printf("done: %d files loaded, %d skipped, %d records inserted, %d rejected",
		stats.Files, stats.FilesSkipped, stats.Loaded, stats.Rejected)
	return stats, nil
}

// ProcessFile loads one JSON file: parse, normalize, filter, batch insert.
// Rows are tagged with the file's absolute path so loaded data stays
// traceable to its origin.
//
// Returns the number of rows inserted and the number of records rejected by
// the required-field filter. A parse or insert error means nothing from this
// file was committed.
func ProcessFile(
	ctx context.Context,
	repo storage.Repository,
	table string,
	parserOpts config.Options,
	path string,
) (loaded, rejected int64, err error) {
	sourceFile, err := filepath.Abs(path)
	if err != nil {
		sourceFile = path
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var (
		parsed int64
		rows   [][]any
	)
	err = parserjson.StreamRecords(ctx, f, parserOpts, func(rec map[string]any) error {
		parsed++
		c := flight.Normalize(rec)
		if !c.Valid() {
			rejected++
			return nil
		}
		rows = append(rows, c.Row(sourceFile))
		return nil
	})
	if err != nil {
		return 0, rejected, fmt.Errorf("parse: %w", err)
	}
	metrics.IncCounter(metrics.RecordsParsed, float64(parsed))

	if len(rows) == 0 {
		return 0, rejected, nil
	}

	loaded, err = repo.InsertRows(ctx, table, flight.InsertColumns(), rows)
	if err != nil {
		return 0, rejected, fmt.Errorf("insert: %w", err)
	}
	return loaded, rejected, nil
}
