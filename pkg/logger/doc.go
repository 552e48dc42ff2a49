// Package logger provides structured logging over zerolog.
//
// The console writer renders colored levels on stderr; a log file, when
// configured, receives the same events through a multi-level writer.
// Every event carries app=igrelations, and each run adds a run_id field.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("relations computed", map[string]interface{}{
//		"followers": len(followers),
//		"following": len(following),
//	})
//
// TestLogger captures messages in memory for assertions in tests.
package logger
