package classify

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload is matched by every MalformedPayloadError via errors.Is.
var ErrMalformedPayload = errors.New("malformed message payload")

// ContentDecodeError reports a part whose body data is not valid base64.
// The part is skipped; the rest of the message is still classified.
type ContentDecodeError struct {
	PartID   string
	MimeType string
	Err      error
}

func (e *ContentDecodeError) Error() string {
	if e.PartID != "" {
		return fmt.Sprintf("failed to decode part %s (%s): %v", e.PartID, e.MimeType, e.Err)
	}
	return fmt.Sprintf("failed to decode %s part: %v", e.MimeType, e.Err)
}

func (e *ContentDecodeError) Unwrap() error {
	return e.Err
}

// MalformedPayloadError reports a message without any parts or body data.
// Classification still produces an empty Short record.
type MalformedPayloadError struct {
	MessageID string
	Reason    string
}

func (e *MalformedPayloadError) Error() string {
	if e.MessageID == "" {
		return fmt.Sprintf("malformed payload: %s", e.Reason)
	}
	return fmt.Sprintf("malformed payload for message %s: %s", e.MessageID, e.Reason)
}

func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}
