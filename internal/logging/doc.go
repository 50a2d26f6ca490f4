// Package logging provides structured logging utilities for inboxsizer.
//
// All logging goes through log/slog. This package holds the shared attribute
// keys, small constructors for common attributes, handler setup for the CLI,
// and the Logger interface that library packages accept.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "review.fetch_batch")
//	logger.Info("classified message",
//	    logging.MessageID(msg.ID),
//	    logging.Label(string(msg.SuggestedLabel)),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("token saved", logging.UserHash(email))
//
// Message bodies are never logged in full; use Truncate for snippets.
package logging
