package classify

import (
	"fmt"
	"strings"
)

// paywallPhrases are matched case-sensitively against the raw message text.
// The first match wins.
var paywallPhrases = []string{
	"Keep reading with a 7-day free trial",
	"Subscribe to keep reading",
	"∙ Preview",
	"Subscribe to keep reading this post",
}

// platform is a newsletter platform known to truncate posts for free readers.
type platform struct {
	hint string
	name string
}

var truncatingPlatforms = []platform{
	{hint: "substack", name: "Substack"},
}

// Paywall is the outcome of DetectPaywall.
type Paywall struct {
	IsPaywall bool
	Reason    string
}

// DetectPaywall reports whether a message looks like a paywalled preview.
// A known phrase anywhere in rawAll is conclusive. Otherwise a platform hint
// in rawAll or the subject combined with a body ending in an ellipsis is.
func DetectPaywall(rawAll, subject, body string) Paywall {
	for _, phrase := range paywallPhrases {
		if strings.Contains(rawAll, phrase) {
			return newPaywall(fmt.Sprintf(`Found specific paywall phrase: "%s"`, phrase))
		}
	}

	trimmed := strings.TrimSpace(body)
	if !strings.HasSuffix(trimmed, "...") && !strings.HasSuffix(trimmed, "…") {
		return Paywall{}
	}
	lowerRaw := strings.ToLower(rawAll)
	lowerSubject := strings.ToLower(subject)
	for _, p := range truncatingPlatforms {
		if strings.Contains(lowerRaw, p.hint) || strings.Contains(lowerSubject, p.hint) {
			return newPaywall(p.name + " content appears truncated (ends in ...)")
		}
	}
	return Paywall{}
}

func newPaywall(reason string) Paywall {
	return Paywall{IsPaywall: reason != "", Reason: reason}
}
