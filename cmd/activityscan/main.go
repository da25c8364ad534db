// Command activityscan scans a saved activity timeline page and writes the
// annotated page.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/STRATINT/activityscan/internal/config"
	"github.com/STRATINT/activityscan/internal/imaging"
	"github.com/STRATINT/activityscan/internal/logging"
	"github.com/STRATINT/activityscan/internal/models"
	"github.com/STRATINT/activityscan/internal/scanner"
	"github.com/STRATINT/activityscan/internal/settings"
	"github.com/STRATINT/activityscan/internal/vision"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("activityscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "timeline page to scan (required, - for stdin)")
	out := fs.String("out", "", "write the annotated page here")
	baseURL := fs.String("base-url", "", "resolve relative image sources against this URL")
	settingsFile := fs.String("settings", "", "YAML settings file (defaults to SETTINGS_FILE)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(stderr, "activityscan: -in is required")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "activityscan: %v\n", err)
		return 2
	}
	logger, err := logging.NewWithWriter(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "activityscan: %v\n", err)
		return 2
	}

	if *settingsFile == "" {
		*settingsFile = cfg.Settings.File
	}
	var store settings.Store = settings.NewMemoryStore(models.Settings{})
	if *settingsFile != "" {
		store = settings.NewFileStore(*settingsFile)
	}

	if cfg.Imaging.BaseDir == "" && *in != "-" {
		cfg.Imaging.BaseDir = filepath.Dir(*in)
	}

	comparer, err := vision.New(cfg.Vision, logger)
	if err != nil {
		logger.Warn("vision comparison unavailable", "error", err)
		comparer = nil
	}
	scan := scanner.New(imaging.NewEncoder(cfg.Imaging, nil), comparer, scanner.Options{
		ErrorPolicy: cfg.Scan.ErrorPolicy,
		Logger:      logger,
	})
	service := scanner.NewService(scan, store, nil, logger)

	var src io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			fmt.Fprintf(stderr, "activityscan: %v\n", err)
			return 2
		}
		defer f.Close()
		src = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := service.ScanPage(ctx, src, *baseURL)
	if err != nil {
		logger.Error("scan failed", "error", err)
		fmt.Fprintln(stderr, models.FailureNotice)
		return 1
	}

	if *out != "" {
		if err := os.WriteFile(*out, []byte(result.HTML), 0o644); err != nil {
			fmt.Fprintf(stderr, "activityscan: %v\n", err)
			return 1
		}
	}

	for _, rec := range result.FlaggedRecords() {
		for _, reason := range rec.FlagReasons {
			fmt.Fprintf(stdout, "#%d %s [%s] %s\n", rec.Index+1, rec.ImageRef, reason.Severity, reason.Label)
		}
	}
	fmt.Fprintln(stdout, result.Summary())
	return 0
}
