package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "igrelations/pkg/errors"
	"igrelations/pkg/logger"
	"igrelations/pkg/models"
	"igrelations/pkg/normalize"
)

// ProfileFetcher fetches the full profile of one account
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, id models.AccountID) (*models.RawProfile, error)
}

// Pacer spaces out fetches. Acquire runs before every attempt and Pause
// between consecutive attempts, given the outcome of the previous one.
type Pacer interface {
	Acquire(ctx context.Context) error
	Pause(ctx context.Context, err error) (time.Duration, error)
}

// Reporter prints one progress line per identifier. i is 1-based.
type Reporter interface {
	Success(i, n int, rec models.EnrichedRecord)
	Failure(i, n int, id models.AccountID, err error)
}

// Observer receives fetch outcomes, e.g. for metrics
type Observer interface {
	ObserveFetch(err error, took time.Duration)
	ObservePause(delay time.Duration, afterFailure bool)
}

// Result is the outcome of one identifier
type Result struct {
	Index    int
	ID       models.AccountID
	Record   *models.EnrichedRecord
	Err      error
	Duration time.Duration
}

// OK reports whether the fetch succeeded
func (r Result) OK() bool {
	return r.Err == nil && r.Record != nil
}

// Report is the outcome of a whole run
type Report struct {
	Results    []Result
	Records    []models.EnrichedRecord
	StartedAt  time.Time
	FinishedAt time.Time
	Paused     time.Duration
}

// Succeeded returns the number of records produced
func (r *Report) Succeeded() int { return len(r.Records) }

// Failed returns the number of identifiers that were skipped
func (r *Report) Failed() int { return len(r.Results) - len(r.Records) }

// Failures returns the failed results in order
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Elapsed returns the wall time of the run
func (r *Report) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Pipeline enriches identifiers one at a time
type Pipeline struct {
	fetcher  ProfileFetcher
	pacer    Pacer
	reporter Reporter
	observer Observer
	logger   logger.Logger
	now      func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithReporter sets the progress reporter
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithObserver sets the outcome observer
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger sets the pipeline logger
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline fetching through f and pacing through pacer
func NewPipeline(f ProfileFetcher, pacer Pacer, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:  f,
		pacer:    pacer,
		reporter: nopReporter{},
		observer: nopObserver{},
		logger:   logger.NewNopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches every id in order. Failed fetches are recorded and skipped;
// sequence ids count successes only. The only error returned is ctx's.
func (p *Pipeline) Run(ctx context.Context, ids []models.AccountID) (*Report, error) {
	report := &Report{
		Results:   make([]Result, 0, len(ids)),
		Records:   make([]models.EnrichedRecord, 0, len(ids)),
		StartedAt: p.now(),
	}
	n := len(ids)

	for i, id := range ids {
		if err := p.pacer.Acquire(ctx); err != nil {
			report.FinishedAt = p.now()
			return report, err
		}

		res := p.fetchOne(ctx, i+1, id, len(report.Records)+1)
		if ctx.Err() != nil {
			report.FinishedAt = p.now()
			return report, ctx.Err()
		}

		report.Results = append(report.Results, res)
		if res.OK() {
			report.Records = append(report.Records, *res.Record)
			p.reporter.Success(i+1, n, *res.Record)
		} else {
			p.reporter.Failure(i+1, n, id, res.Err)
		}

		if i == n-1 {
			break
		}
		delay, err := p.pacer.Pause(ctx, res.Err)
		report.Paused += delay
		p.observer.ObservePause(delay, res.Err != nil)
		if err != nil {
			report.FinishedAt = p.now()
			return report, err
		}
	}

	report.FinishedAt = p.now()
	p.logger.InfoWithFields("enrichment complete", map[string]interface{}{
		"total":       n,
		"succeeded":   report.Succeeded(),
		"failed":      report.Failed(),
		"duration_ms": report.Elapsed().Milliseconds(),
	})
	return report, nil
}

func (p *Pipeline) fetchOne(ctx context.Context, index int, id models.AccountID, seq int) (res Result) {
	res = Result{Index: index, ID: id}
	start := p.now()

	defer func() {
		if r := recover(); r != nil {
			res.Record = nil
			res.Err = errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("panic while fetching profile: %v", r))
		}
		res.Duration = p.now().Sub(start)
		p.observer.ObserveFetch(res.Err, res.Duration)
		if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			p.logger.WithError(res.Err).WarnWithFields("skipping account", map[string]interface{}{
				"pk":         id.String(),
				"error_type": string(errs.TypeOf(res.Err)),
				"index":      index,
			})
		}
	}()

	raw, err := p.fetcher.FetchProfile(ctx, id)
	if err != nil {
		res.Err = err
		return res
	}
	if raw == nil {
		res.Err = errs.New(errs.ErrorTypeParsing, 0, "empty profile")
		return res
	}

	rec := normalize.Profile(*raw, seq)
	res.Record = &rec
	logger.LogFetch(p.logger, id, rec.DisplayName(), nil, p.now().Sub(start))
	return res
}

type nopReporter struct{}

func (nopReporter) Success(int, int, models.EnrichedRecord)   {}
func (nopReporter) Failure(int, int, models.AccountID, error) {}

type nopObserver struct{}

func (nopObserver) ObserveFetch(error, time.Duration) {}
func (nopObserver) ObservePause(time.Duration, bool)  {}
