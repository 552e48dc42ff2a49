package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"igrelations/pkg/config"
	"igrelations/pkg/database"
	"igrelations/pkg/enrich"
	"igrelations/pkg/export"
	"igrelations/pkg/logger"
	"igrelations/pkg/metrics"
	"igrelations/pkg/models"
	"igrelations/pkg/ratelimit"
	"igrelations/pkg/relations"
	"igrelations/pkg/retry"
	"igrelations/pkg/storage"
	"igrelations/pkg/ui"
)

const targetsSlug = "targets"

// Scraper orchestrates listing, enrichment and export for one account
type Scraper struct {
	remote   Remote
	config   *config.Config
	pacer    Pacer
	reporter enrich.Reporter
	metrics  *metrics.Recorder
	notifier *ui.Notifier
	logger   logger.Logger
	out      io.Writer
	now      func() time.Time
	sleep    ratelimit.Sleeper
	connect  export.Connector
	objects  storage.ObjectAPI
}

// Option configures a Scraper
type Option func(*Scraper)

// WithPacer replaces the pacer built from the pacing configuration
func WithPacer(p Pacer) Option {
	return func(s *Scraper) { s.pacer = p }
}

// WithReporter replaces the terminal progress printer
func WithReporter(r enrich.Reporter) Option {
	return func(s *Scraper) { s.reporter = r }
}

// WithNotifier replaces the desktop notifier
func WithNotifier(n *ui.Notifier) Option {
	return func(s *Scraper) { s.notifier = n }
}

// WithMetrics sets the run metrics recorder
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Scraper) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithOutput sets where summaries are printed
func WithOutput(w io.Writer) Option {
	return func(s *Scraper) { s.out = w }
}

// WithClock sets the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// WithSleeper sets how the skip delay of the targets flow is waited
func WithSleeper(sl ratelimit.Sleeper) Option {
	return func(s *Scraper) { s.sleep = sl }
}

// WithConnector replaces the database connection built from configuration
func WithConnector(c export.Connector) Option {
	return func(s *Scraper) { s.connect = c }
}

// WithObjectAPI replaces the object store client built from configuration
func WithObjectAPI(api storage.ObjectAPI) Option {
	return func(s *Scraper) { s.objects = api }
}

// New creates a Scraper fetching through remote
func New(cfg *config.Config, remote Remote, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		remote:  remote,
		config:  cfg,
		metrics: metrics.NewRecorder(),
		logger:  logger.GetLogger(),
		now:     time.Now,
		sleep:   retry.Wait,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.out == nil {
		s.out = ui.Output()
	}
	if s.reporter == nil {
		s.reporter = ui.NewProgressPrinter(s.out)
	}
	if s.notifier == nil {
		s.notifier = ui.NewNotifier(cfg.Notifications.Enabled)
	}
	if s.pacer == nil {
		s.pacer = ratelimit.NewAdaptivePacer(PacerConfig(cfg.Pacing), ratelimit.WithLogger(s.logger))
	}
	if s.connect == nil && cfg.Database.Enabled() {
		dbCfg := cfg.Database
		log := s.logger
		s.connect = func(ctx context.Context) (*gorm.DB, error) {
			return database.Connect(ctx, dbCfg, log)
		}
	}
	if s.objects == nil && cfg.ObjectStore.Enabled() {
		client, err := storage.NewMinioClient(cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("failed to create object store client: %w", err)
		}
		s.objects = client
	}

	logger.LogComponentStart(s.logger, "scraper", map[string]interface{}{
		"formats":      strings.Join(cfg.Output.Formats, ","),
		"output_dir":   cfg.Output.Directory,
		"database":     s.connect != nil,
		"object_store": s.objects != nil,
	})
	return s, nil
}

// PacerConfig converts the pacing configuration
func PacerConfig(p config.PacingConfig) ratelimit.PacerConfig {
	return ratelimit.PacerConfig{
		Success:           ratelimit.Range{Min: p.SuccessMin, Max: p.SuccessMax},
		Failure:           ratelimit.Range{Min: p.FailureMin, Max: p.FailureMax},
		BackoffMultiplier: p.BackoffMultiplier,
		MaxFailureDelay:   p.MaxFailureDelay,
	}
}

// Metrics returns the run metrics recorder
func (s *Scraper) Metrics() *metrics.Recorder {
	return s.metrics
}

// CollectOptions selects what a collect run enriches
type CollectOptions struct {
	Category relations.Category
	// IncludeOwner adds the analysed account itself to the selection
	IncludeOwner bool
	// TargetPK analyses another account instead of the logged-in one
	TargetPK models.AccountID
}

// Outcome is everything a run produced
type Outcome struct {
	Owner     models.AccountID
	Breakdown relations.Breakdown
	Selected  []models.AccountID
	Report    *enrich.Report
	Summary   *export.Summary
}

// Collect lists both relationship directions of the owner, enriches the
// selected category and exports the records to every configured sink.
// Listing failures abort the run. Sink failures are returned after every
// sink was attempted.
func (s *Scraper) Collect(ctx context.Context, opts CollectOptions) (*Outcome, error) {
	owner := opts.TargetPK
	if owner == 0 {
		owner = s.remote.UserID()
	}
	if owner == 0 {
		return nil, fmt.Errorf("no account to analyse")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"owner":    owner.String(),
		"category": opts.Category.String(),
	})
	log.Info("collecting relationships")

	followers, err := s.remote.ListFollowers(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	following, err := s.remote.ListFollowing(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}

	breakdown := relations.Compute(relations.FromSummaries(followers), relations.FromSummaries(following))
	s.recordBreakdown(breakdown)

	selected, err := breakdown.Select(opts.Category)
	if err != nil {
		return nil, err
	}
	if opts.IncludeOwner {
		selected = selected.With(owner)
	}
	ids := selected.Sorted()

	outcome := &Outcome{Owner: owner, Breakdown: breakdown, Selected: ids}
	if !ui.IsQuietMode() {
		ui.PrintBreakdown(s.out, breakdown)
		ui.PrintPlan(s.out, opts.Category, len(ids), s.pacer.Estimate(len(ids)))
	}

	report, err := s.enrich(ctx, ids)
	outcome.Report = report
	if err != nil {
		return outcome, err
	}

	var stamp int64
	if s.config.Output.TimestampSuffix {
		stamp = s.now().Unix()
	}
	// the owner row of a mutual run counts as mutual
	isMutual := breakdown.Mutual.Contains
	if opts.Category == relations.Mutual {
		isMutual = selected.Contains
	}
	sinks, err := s.sinks(s.ownerName(), opts.Category.Slug(), opts.Category.SheetTitle(), stamp, isMutual)
	if err != nil {
		return outcome, err
	}

	outcome.Summary = s.export(ctx, sinks, report.Records)
	return outcome, s.finish(outcome)
}

// Targets resolves each username and enriches the resolved accounts. A
// username that cannot be resolved is skipped after the configured skip
// delay. Output files always carry a timestamp suffix.
func (s *Scraper) Targets(ctx context.Context, usernames []string) (*Outcome, error) {
	outcome := &Outcome{Owner: s.remote.UserID()}
	seen := relations.NewIDSet()

	for i, name := range usernames {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		id, err := s.remote.ResolveUsername(ctx, name)
		if err == nil {
			if !seen.Contains(id) {
				seen.Add(id)
				outcome.Selected = append(outcome.Selected, id)
			}
			s.logger.WithFields(map[string]interface{}{"username": name, "pk": id.String()}).Info("resolved target")
			continue
		}
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}

		s.logger.WithError(err).WithField("username", name).Warn("skipping target")
		ui.PrintWarning(fmt.Sprintf("[SKIP TARGET] @%s", name), err)
		if i < len(usernames)-1 {
			if err := s.sleep(ctx, s.config.Pacing.SkipDelay); err != nil {
				return outcome, err
			}
		}
	}

	if !ui.IsQuietMode() {
		ui.PrintPlan(s.out, relations.Mutual, len(outcome.Selected), s.pacer.Estimate(len(outcome.Selected)))
	}

	report, err := s.enrich(ctx, outcome.Selected)
	outcome.Report = report
	if err != nil {
		return outcome, err
	}

	notMutual := func(models.AccountID) bool { return false }
	sinks, err := s.sinks(s.ownerName(), targetsSlug, "Targets", s.now().Unix(), notMutual)
	if err != nil {
		return outcome, err
	}

	outcome.Summary = s.export(ctx, sinks, report.Records)
	return outcome, s.finish(outcome)
}

func (s *Scraper) enrich(ctx context.Context, ids []models.AccountID) (*enrich.Report, error) {
	pipeline := enrich.NewPipeline(s.remote, s.pacer,
		enrich.WithReporter(s.reporter),
		enrich.WithObserver(s.metrics),
		enrich.WithLogger(s.logger),
	)
	report, err := pipeline.Run(ctx, ids)
	if err != nil {
		s.logger.WithError(err).WarnWithFields("enrichment interrupted, nothing exported", map[string]interface{}{
			"fetched": report.Succeeded(),
			"total":   len(ids),
		})
		return report, fmt.Errorf("enrichment interrupted: %w", err)
	}
	return report, nil
}

func (s *Scraper) export(ctx context.Context, sinks []export.Sink, records []models.EnrichedRecord) *export.Summary {
	exporter := export.NewExporter(sinks,
		export.WithLogger(s.logger),
		export.WithObserver(s.metrics),
	)
	return exporter.Export(ctx, records)
}

// finish writes metrics, prints the summary and notifies
func (s *Scraper) finish(o *Outcome) error {
	s.metrics.Finish(s.now())
	if path := s.config.Metrics.TextfilePath; path != "" {
		if err := s.metrics.WriteTextfile(path); err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("failed to write metrics")
		}
	}

	ui.PrintRunSummary(s.out, o.Report, o.Summary)

	fields := map[string]interface{}{
		"fetched": o.Report.Succeeded(),
		"failed":  o.Report.Failed(),
		"elapsed": o.Report.Elapsed().String(),
		"paused":  o.Report.Paused.String(),
	}
	if len(o.Summary.Locations()) > 0 {
		fields["locations"] = strings.Join(o.Summary.Locations(), ", ")
	}
	logger.LogMetrics(s.logger, "run", fields)

	if err := o.Summary.Err(); err != nil {
		if s.config.Notifications.OnError {
			s.notifier.SendError("Export failed", err.Error())
		}
		return fmt.Errorf("export failed: %w", err)
	}
	if s.config.Notifications.OnComplete {
		s.notifier.SendSuccess("Export complete", fmt.Sprintf("%d accounts exported", len(o.Report.Records)))
	}
	return nil
}

func (s *Scraper) recordBreakdown(b relations.Breakdown) {
	s.metrics.SetRelation("followers", b.Followers.Len())
	s.metrics.SetRelation("following", b.Following.Len())
	for _, c := range relations.Categories {
		set, _ := b.Select(c)
		s.metrics.SetRelation(c.String(), set.Len())
	}
	s.logger.InfoWithFields("relationships computed", map[string]interface{}{
		"followers":          b.Followers.Len(),
		"following":          b.Following.Len(),
		"mutual":             b.Mutual.Len(),
		"not_following_back": b.NotFollowingBack.Len(),
		"not_followed_back":  b.NotFollowedBack.Len(),
	})
}

func (s *Scraper) ownerName() string {
	if s.config.Instagram.Username != "" {
		return s.config.Instagram.Username
	}
	return s.remote.UserID().String()
}
