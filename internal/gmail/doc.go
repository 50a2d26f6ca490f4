// Package gmail provides the Gmail API client inboxsizer reads messages
// from and writes size labels through.
//
// The client offers:
//   - Listing message ids that match a search query, one page at a time
//   - Fetching a full message, including its MIME part tree
//   - Looking up (and optionally creating) the Short, Medium, Long and XL labels
//   - Applying a reviewer action: add a size label, archive, or skip
//
// Every API call waits on a token-bucket rate limiter and runs through a
// circuit breaker. Server errors and throttling (5xx, 429) count against the
// breaker; client errors such as 404 do not. Calls are recorded as
// google_api_operations_total metrics and google.gmail.<operation> spans.
//
// Example usage:
//
//	httpClient, err := auth.HTTPClient(ctx, "default")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := gmail.NewClient(ctx, httpClient, "default",
//	    gmail.WithRateLimit(20, 10),
//	    gmail.WithMetrics(provider.Metrics()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, next, err := client.ListUnlabeled(ctx, config.DefaultQuery, "", 10)
package gmail
