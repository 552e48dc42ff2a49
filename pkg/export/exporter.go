package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"igrelations/pkg/logger"
	"igrelations/pkg/models"
)

// ErrSkipped is returned by a sink that had nothing to do
var ErrSkipped = errors.New("sink skipped")

// Sink writes a record collection to one destination
type Sink interface {
	Name() string
	Location() string
	Write(ctx context.Context, records []models.EnrichedRecord) error
}

// SinkObserver receives per-sink outcomes, e.g. for metrics
type SinkObserver interface {
	ObserveSink(sink string, records int, err error)
}

// Result is the outcome of one sink
type Result struct {
	Sink     string
	Location string
	Records  int
	Duration time.Duration
	Skipped  bool
	Err      error
}

// OK reports whether the sink succeeded or had nothing to do
func (r Result) OK() bool { return r.Err == nil }

// Summary lists the outcome of every sink, in sink order
type Summary struct {
	Results []Result
}

// Failed returns the results of failed sinks
func (s *Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Locations returns where data was written, skipping failed and skipped sinks
func (s *Summary) Locations() []string {
	var out []string
	for _, r := range s.Results {
		if r.OK() && !r.Skipped {
			out = append(out, r.Location)
		}
	}
	return out
}

// Err joins the failures of every sink, nil when all succeeded
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", r.Sink, r.Err))
	}
	return errors.Join(errs...)
}

// Exporter fans a record collection out to its sinks
type Exporter struct {
	sinks    []Sink
	limit    int
	logger   logger.Logger
	observer SinkObserver
}

// Option configures an Exporter
type Option func(*Exporter)

// WithConcurrency caps how many sinks write at once
func WithConcurrency(n int) Option {
	return func(e *Exporter) { e.limit = n }
}

// WithLogger sets the exporter logger
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithObserver sets the sink outcome observer
func WithObserver(o SinkObserver) Option {
	return func(e *Exporter) { e.observer = o }
}

// NewExporter creates an exporter over sinks
func NewExporter(sinks []Sink, opts ...Option) *Exporter {
	e := &Exporter{
		sinks:  sinks,
		limit:  4,
		logger: logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sinks returns the configured sinks
func (e *Exporter) Sinks() []Sink {
	return e.sinks
}

// Export writes records to every sink. A failing sink never stops the others;
// failures are only reported in the Summary.
func (e *Exporter) Export(ctx context.Context, records []models.EnrichedRecord) *Summary {
	summary := &Summary{Results: make([]Result, len(e.sinks))}

	var g errgroup.Group
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, sink := range e.sinks {
		i, sink := i, sink
		g.Go(func() error {
			summary.Results[i] = e.run(ctx, sink, records)
			return nil
		})
	}
	_ = g.Wait()

	return summary
}

func (e *Exporter) run(ctx context.Context, sink Sink, records []models.EnrichedRecord) (res Result) {
	res = Result{Sink: sink.Name(), Location: sink.Location(), Records: len(records)}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic in %s sink: %v", res.Sink, r)
		}
		res.Duration = time.Since(start)
		if res.Err != nil || res.Skipped {
			res.Records = 0
		}
		logger.LogSinkResult(e.logger, res.Sink, res.Location, res.Records, res.Skipped, res.Err)
		if e.observer != nil {
			e.observer.ObserveSink(res.Sink, res.Records, res.Err)
		}
	}()

	err := sink.Write(ctx, records)
	if errors.Is(err, ErrSkipped) {
		res.Skipped = true
		return res
	}
	res.Err = err
	return res
}
