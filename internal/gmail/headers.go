package gmail

import (
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// NoSubject is shown for messages without a Subject header.
const NoSubject = "(No Subject)"

// HeaderValue returns the value of the first top-level header named header.
// Header names are matched case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

// Subject returns the message subject, or NoSubject when it is missing.
func Subject(m *gmail.Message) string {
	if s := HeaderValue(m, "Subject"); s != "" {
		return s
	}
	return NoSubject
}
