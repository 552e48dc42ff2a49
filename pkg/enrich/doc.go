// Package enrich turns a list of account ids into normalized records.
//
// The pipeline is sequential: one fetch per id, a pause between attempts and
// no retries. A failed id is kept as a failed Result and never stops the run.
package enrich
