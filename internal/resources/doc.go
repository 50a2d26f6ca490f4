// Package resources provides MCP resources for inboxsizer.
// Resources are read-only data sources that MCP clients can fetch:
//
//   - inboxsizer://labels describes the size labels and their word count bands
//   - inboxsizer://history lists the most recently applied decisions
package resources
