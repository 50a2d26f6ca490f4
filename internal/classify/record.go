package classify

// Message is a classified message ready for review.
type Message struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	WordCount      int    `json:"wordCount"`
	SuggestedLabel Label  `json:"suggestedLabel"`
	Snippet        string `json:"snippet"`
	Body           string `json:"body"`
	IsPaywall      bool   `json:"isPaywall"`
	PaywallReason  string `json:"paywallReason"`
}

// Assemble builds the Message record from the pipeline outputs.
func Assemble(in Input, body string, wordCount int, pw Paywall) Message {
	return Message{
		ID:             in.ID,
		Subject:        in.Subject,
		WordCount:      wordCount,
		SuggestedLabel: LabelFor(wordCount),
		Snippet:        in.Snippet,
		Body:           body,
		IsPaywall:      pw.IsPaywall,
		PaywallReason:  pw.Reason,
	}
}
