// Package cmd implements the command-line interface for inboxsizer.
//
// This package provides the following commands:
//   - classify: Classify one page of unlabeled inbox messages, or local .eml files
//   - apply: Apply reviewer decisions (size label, skip or archive) to messages
//   - history: Show recently applied decisions
//   - auth: Obtain and store the Gmail OAuth token for an account
//   - serve: Start the MCP server and the review API
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
