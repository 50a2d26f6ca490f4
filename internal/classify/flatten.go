package classify

import (
	"encoding/base64"
	"errors"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// Flattened holds the decoded text streams of one message.
type Flattened struct {
	// PlainText is every text/plain part concatenated in traversal order.
	PlainText string
	// HTMLText is every text/html part concatenated in traversal order.
	HTMLText string
	// RawAll is every decoded part, each followed by a newline.
	RawAll string
}

// Flatten walks the part tree depth-first and decodes every body it finds.
// Attachment references are never fetched and contribute nothing. Parts
// that fail to decode are skipped and reported as *ContentDecodeError values
// joined into the returned error; the Flattened result is valid either way.
func Flatten(part *gmail.MessagePart) (Flattened, error) {
	var (
		plain, html, raw strings.Builder
		errs             []error
	)
	walkParts(part, func(p *gmail.MessagePart) {
		if p.Body == nil || p.Body.Data == "" {
			return
		}
		text, err := decodeBody(p.Body.Data)
		if err != nil {
			errs = append(errs, &ContentDecodeError{PartID: p.PartId, MimeType: p.MimeType, Err: err})
			return
		}
		raw.WriteString(text)
		raw.WriteByte('\n')
		switch p.MimeType {
		case mimeTextPlain:
			plain.WriteString(text)
		case mimeTextHTML:
			html.WriteString(text)
		}
	})
	return Flattened{
		PlainText: plain.String(),
		HTMLText:  html.String(),
		RawAll:    raw.String(),
	}, errors.Join(errs...)
}

// walkParts visits leaves in document order. Nodes with children only recurse.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	if len(part.Parts) > 0 {
		for _, child := range part.Parts {
			walkParts(child, fn)
		}
		return
	}
	fn(part)
}

// decodeBody decodes Gmail body data. Gmail uses base64url, but padded,
// unpadded and standard alphabets all show up in the wild.
func decodeBody(data string) (string, error) {
	encodings := []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(data)
		if err == nil {
			return string(b), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

// hasContent reports whether the tree has any body data or attachment reference.
func hasContent(part *gmail.MessagePart) bool {
	found := false
	walkParts(part, func(p *gmail.MessagePart) {
		if p.Body != nil && (p.Body.Data != "" || p.Body.AttachmentId != "") {
			found = true
		}
	})
	return found
}
