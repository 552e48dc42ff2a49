package export

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"igrelations/pkg/database"
	"igrelations/pkg/logger"
	"igrelations/pkg/models"
)

// Connector opens the database for one export
type Connector func(ctx context.Context) (*gorm.DB, error)

// DatabaseSink appends records to the profile table
type DatabaseSink struct {
	connect   Connector
	table     string
	batchSize int
	isMutual  func(models.AccountID) bool
	now       func() time.Time
	logger    logger.Logger
}

// DatabaseOption configures a DatabaseSink
type DatabaseOption func(*DatabaseSink)

// WithMutualPredicate decides the is_mutual column per account
func WithMutualPredicate(fn func(models.AccountID) bool) DatabaseOption {
	return func(s *DatabaseSink) { s.isMutual = fn }
}

// WithBatchSize sets the number of rows per INSERT
func WithBatchSize(n int) DatabaseOption {
	return func(s *DatabaseSink) { s.batchSize = n }
}

// WithClock sets the source of last_update
func WithClock(now func() time.Time) DatabaseOption {
	return func(s *DatabaseSink) { s.now = now }
}

// WithDatabaseLogger sets the sink logger
func WithDatabaseLogger(l logger.Logger) DatabaseOption {
	return func(s *DatabaseSink) { s.logger = l }
}

// NewDatabaseSink creates a sink writing to table through connect
func NewDatabaseSink(connect Connector, table string, opts ...DatabaseOption) *DatabaseSink {
	if table == "" {
		table = database.DefaultTable
	}
	s := &DatabaseSink{
		connect:   connect,
		table:     table,
		batchSize: 500,
		isMutual:  func(models.AccountID) bool { return false },
		now:       time.Now,
		logger:    logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DatabaseSink) Name() string     { return "database" }
func (s *DatabaseSink) Location() string { return "table " + s.table }

// Write appends one row per record. An empty collection is skipped without
// connecting.
func (s *DatabaseSink) Write(ctx context.Context, records []models.EnrichedRecord) error {
	if len(records) == 0 {
		return ErrSkipped
	}

	db, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			s.logger.WithError(err).Warn("failed to close database")
		}
	}()

	stamp := s.now()
	rows := make([]database.Row, len(records))
	for i, rec := range records {
		rows[i] = database.NewRow(rec, s.isMutual(rec.PK), stamp)
	}

	n, err := database.Append(ctx, db, s.table, rows, s.batchSize)
	if err != nil {
		return err
	}
	if int(n) != len(rows) {
		s.logger.WarnWithFields("database reported a different row count", map[string]interface{}{
			"table":    s.table,
			"expected": len(rows),
			"affected": n,
		})
	}
	return nil
}

// String describes the sink for logs
func (s *DatabaseSink) String() string {
	return fmt.Sprintf("database(%s)", s.table)
}
