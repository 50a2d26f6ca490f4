// Package store keeps a local SQLite history of applied reviewer actions.
//
// Each successful size-label or archive action is recorded with the batch it
// belonged to. The history is write-only from the classifier's point of view:
// it is shown by the history command and never consulted when classifying.
package store
