package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"

	"igrelations/pkg/export"
	"igrelations/pkg/models"
	"igrelations/pkg/storage"
)

// sinks builds the configured sinks for one output base name
func (s *Scraper) sinks(username, slug, sheet string, stamp int64, isMutual func(models.AccountID) bool) ([]export.Sink, error) {
	files, err := storage.NewManager(s.config.Output.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	var sinks []export.Sink
	for _, format := range s.config.Output.Formats {
		name := storage.OutputName(username, slug, format, stamp)
		switch strings.ToLower(format) {
		case "json":
			sinks = append(sinks, export.NewJSONSink(files, name))
		case "csv":
			sinks = append(sinks, export.NewCSVSink(files, name))
		case "xlsx":
			sinks = append(sinks, export.NewXLSXSink(files, name, sheet))
		default:
			return nil, fmt.Errorf("unknown output format %q", format)
		}
	}

	if s.connect != nil {
		sinks = append(sinks, s.databaseSink(isMutual))
	}

	if s.objects != nil {
		store := storage.NewObjectStore(s.objects, s.config.ObjectStore.Bucket, s.config.ObjectStore.Prefix)
		sinks = append(sinks, export.NewObjectStoreSink(store, storage.OutputName(username, slug, "json", stamp)))
	}
	return sinks, nil
}

func (s *Scraper) databaseSink(isMutual func(models.AccountID) bool) *export.DatabaseSink {
	db := s.config.Database
	return export.NewDatabaseSink(s.connect, db.Table,
		export.WithMutualPredicate(isMutual),
		export.WithBatchSize(db.BatchSize),
		export.WithClock(s.now),
		export.WithDatabaseLogger(s.logger),
	)
}

// Import loads a CSV export into the database table. Every imported row is
// marked mutual.
func (s *Scraper) Import(ctx context.Context, r io.Reader) (*export.Result, error) {
	if s.connect == nil {
		return nil, fmt.Errorf("no database configured (set DATABASE_URL)")
	}

	records, err := export.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	s.logger.InfoWithFields("csv loaded", map[string]interface{}{"records": len(records)})

	always := func(models.AccountID) bool { return true }
	summary := s.export(ctx, []export.Sink{s.databaseSink(always)}, records)
	res := summary.Results[0]
	if err := summary.Err(); err != nil {
		return &res, fmt.Errorf("import failed: %w", err)
	}
	return &res, nil
}
