// Package metrics records run metrics with the prometheus client and writes
// them as a textfile after each run. A Recorder is the enrichment
// pipeline's observer.
package metrics
