package classify

import (
	"errors"

	gmail "google.golang.org/api/gmail/v1"
)

// Input is everything the pipeline needs from one fetched message.
// Payload is read but never modified.
type Input struct {
	ID      string
	Subject string
	Snippet string
	Payload *gmail.MessagePart
}

// Classify runs the full pipeline for one message. The returned Message is
// always usable. A non-nil error is diagnostic: it wraps a
// *MalformedPayloadError when the payload has no content at all, or one or
// more *ContentDecodeError values for parts that were skipped.
func Classify(in Input) (Message, error) {
	if in.Payload == nil {
		return Assemble(in, "", 0, Paywall{}), &MalformedPayloadError{MessageID: in.ID, Reason: "no payload"}
	}
	if !hasContent(in.Payload) {
		return Assemble(in, "", 0, Paywall{}), &MalformedPayloadError{MessageID: in.ID, Reason: "no parts and no body"}
	}

	flat, decodeErr := Flatten(in.Payload)
	body := StripQuotes(Normalize(flat))
	words := CountWords(body)
	pw := DetectPaywall(flat.RawAll, in.Subject, body)

	return Assemble(in, body, words, pw), decodeErr
}

// DecodeErrors returns every ContentDecodeError carried by err.
func DecodeErrors(err error) []*ContentDecodeError {
	if err == nil {
		return nil
	}
	var out []*ContentDecodeError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, DecodeErrors(e)...)
		}
		return out
	}
	var cde *ContentDecodeError
	if errors.As(err, &cde) {
		out = append(out, cde)
	}
	return out
}
