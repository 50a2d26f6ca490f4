package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPaywall(t *testing.T) {
	tests := []struct {
		name        string
		rawAll      string
		subject     string
		body        string
		wantPaywall bool
		wantReason  string
	}{
		{
			name:        "specific phrase",
			rawAll:      "Some intro\nSubscribe to keep reading\n",
			body:        "Some intro",
			wantPaywall: true,
			wantReason:  `Found specific paywall phrase: "Subscribe to keep reading"`,
		},
		{
			name:        "phrase wins regardless of body",
			rawAll:      "Keep reading with a 7-day free trial\n",
			body:        "",
			wantPaywall: true,
			wantReason:  `Found specific paywall phrase: "Keep reading with a 7-day free trial"`,
		},
		{
			name:        "earlier phrase in list wins",
			rawAll:      "Subscribe to keep reading this post ∙ Preview\n",
			wantPaywall: true,
			wantReason:  `Found specific paywall phrase: "Subscribe to keep reading"`,
		},
		{
			name:        "preview marker",
			rawAll:      "Weekly notes ∙ Preview\n",
			wantPaywall: true,
			wantReason:  `Found specific paywall phrase: "∙ Preview"`,
		},
		{
			name:   "phrase match is case-sensitive",
			rawAll: "subscribe to keep reading\n",
			body:   "short",
		},
		{
			name:        "substack in raw with trailing dots",
			rawAll:      "<a href=\"https://example.substack.com\">read</a>\n",
			body:        "The story continues...",
			wantPaywall: true,
			wantReason:  "Substack content appears truncated (ends in ...)",
		},
		{
			name:        "substack in subject with unicode ellipsis",
			subject:     "New post on SUBSTACK",
			body:        "The story continues…  ",
			wantPaywall: true,
			wantReason:  "Substack content appears truncated (ends in ...)",
		},
		{
			name:    "substack without truncation",
			subject: "Substack digest",
			body:    "A complete post.",
		},
		{
			name:   "truncation without platform",
			rawAll: "some newsletter\n",
			body:   "to be continued...",
		},
		{
			name: "nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectPaywall(tt.rawAll, tt.subject, tt.body)
			assert.Equal(t, tt.wantPaywall, got.IsPaywall)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}
