// Package eml converts RFC 5322 message files into the Gmail part tree the
// classifier reads, so saved messages can be sized offline.
//
// Transfer encodings and legacy charsets are decoded by go-message; text
// leaves are re-encoded as base64url exactly as the Gmail API delivers them.
// Attachments and other non-text leaves become attachment references without
// data.
package eml
