// Package review assembles classified batches of inbox messages and applies
// the reviewer's decisions.
//
// A batch is one listing page: every listed id is fetched and classified in
// parallel, bounded by Service.Concurrency, and the records come back in
// listing order. A message that cannot be fetched is reported in
// Batch.Failures and never blocks its siblings. Decisions are applied the
// same way, with one batch.Result per decision.
package review
