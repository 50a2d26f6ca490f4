// Package classify turns a Gmail message payload into a reading-length
// classification.
//
// The pipeline runs in strict sequence for one message:
//
//  1. Flatten walks the MIME part tree and decodes every body.
//  2. Normalize picks the plain text part, or cleans the HTML part.
//  3. StripQuotes drops quoted replies and trailing signatures.
//  4. CountWords counts whitespace separated tokens.
//  5. DetectPaywall looks for known paywall phrases and truncated newsletters.
//  6. LabelFor maps the word count to a size label.
//  7. Assemble builds the Message record.
//
// Every stage is a pure function. Classify runs all of them and always returns
// a usable Message; the returned error only carries diagnostics such as parts
// that could not be decoded.
//
// Example usage:
//
//	msg, err := classify.Classify(classify.Input{
//	    ID:      m.Id,
//	    Subject: gmail.Subject(m),
//	    Snippet: m.Snippet,
//	    Payload: m.Payload,
//	})
//	if err != nil {
//	    logger.Debug("classified with warnings", logging.Err(err))
//	}
//	fmt.Println(msg.SuggestedLabel, msg.WordCount)
package classify
