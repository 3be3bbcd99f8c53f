package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"flightetl/internal/config"
	"flightetl/internal/metrics"
	"flightetl/internal/metrics/datadog"
	"flightetl/internal/metrics/prompush"
	"flightetl/internal/pipeline"

	// register all storage backends; config selects which one runs.
	_ "flightetl/internal/storage/all"
)

func main() {
	cfgPath := flag.String("config", "configs/pipelines/flights.json", "pipeline config JSON path")
	metricsBackend := flag.String("metrics-backend", "", "metrics backend (pushgateway, datadog, none)")
	pushgatewayURL := flag.String("pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	validateOnly := flag.Bool("validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	// .env keeps DSNs out of config files; absence is fine.
	_ = godotenv.Load()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(cfg)
	for _, iss := range issues {
		fmt.Fprintln(os.Stderr, iss)
	}
	if config.HasError(issues) {
		fatalf("configuration is invalid: %s", *cfgPath)
	}
	if *validateOnly {
		log.Printf("configuration is valid: %s", *cfgPath)
		return
	}

	job := cfg.Job
	if job == "" {
		job = "flightetl"
	}
	shutdownMetrics := setupMetrics(*metricsBackend, job, *pushgatewayURL, *verbose)
	defer shutdownMetrics()

	if *verbose {
		log.Printf("pipeline: root=%s parser=%s storage=%s table=%s",
			cfg.Source.Dir.Path, cfg.Parser.Kind, cfg.Storage.Kind, cfg.Storage.DB.Table)
	}

	start := time.Now()
	stats, err := pipeline.NewDefaultRunner().Run(context.Background(), cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *verbose {
		log.Printf("completed in %s (%d files, %d records)",
			time.Since(start).Truncate(time.Millisecond), stats.Files, stats.Loaded)
	}
}

func loadConfig(path string) (config.Pipeline, error) {
	var cfg config.Pipeline

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// setupMetrics installs the selected metrics backend and returns the shutdown
// hook that flushes whatever the run buffered. Backend selection: flag, then
// METRICS_BACKEND env, then the nop default. A backend that fails to
// initialize is logged and the run proceeds unmetered.
func setupMetrics(name, job, gatewayURL string, verbose bool) func() {
	if name == "" {
		name = os.Getenv("METRICS_BACKEND")
	}

	switch name {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gatewayURL)
		if err != nil {
			log.Printf("metrics: pushgateway init failed: %v; metrics disabled", err)
			return func() {}
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gatewayURL, job)
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush: %v", err)
			}
		}

	case "datadog":
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    job,
			Tags:       datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			log.Printf("metrics: datadog init failed: %v; metrics disabled", err)
			return func() {}
		}
		log.Printf("metrics: backend=datadog job=%s", job)
		metrics.SetBackend(b)
		// Close stops the periodic flush loop and submits one final time.
		return func() {
			if err := b.Close(); err != nil {
				log.Printf("metrics: datadog close: %v", err)
			}
		}

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
		return func() {}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
