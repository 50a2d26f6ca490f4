// Package review_tools provides the MCP tools for sizing inbox messages.
//
// Read-only tools (always registered):
//   - gmail_size_list_batch: classify one page of unlabeled inbox messages
//   - gmail_size_classify_message: classify one or more messages by id
//
// Write tools (registered only when the server is not read-only):
//   - gmail_size_apply_labels: apply Short/Medium/Long/XL, skip or archive
//
// Every result is JSON. Per-message problems are reported inside the result,
// so one bad message never fails the whole call.
package review_tools
