// Package batch provides helpers for operations that act on many message
// ids at once, such as applying reviewer decisions.
//
// This package includes helpers for:
//   - Parsing parameters that accept a single id, an array, or a JSON array string
//   - Running an operation per id with bounded concurrency, keeping input order
//   - Formatting per-item results with success and failure totals
package batch
