package eml

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	gmail "google.golang.org/api/gmail/v1"
)

// Message is a parsed message file.
type Message struct {
	// MessageID is the Message-Id header without angle brackets.
	MessageID string
	Subject   string
	Payload   *gmail.MessagePart
}

// Parse reads one message. Unknown charsets are tolerated: the affected part
// keeps its undecoded bytes.
func Parse(r io.Reader) (*Message, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	header := mail.Header{Header: entity.Header}
	subject, err := header.Subject()
	if err != nil {
		subject = header.Get("Subject")
	}
	msgID, _ := header.MessageID()

	payload, err := convert(entity, "")
	if err != nil {
		return nil, err
	}
	payload.Headers = headers(entity.Header)

	return &Message{
		MessageID: msgID,
		Subject:   subject,
		Payload:   payload,
	}, nil
}

// convert builds the part for entity. Child ids follow Gmail: "0", "1" at
// the top level and "0.1" below.
func convert(entity *message.Entity, partID string) (*gmail.MessagePart, error) {
	mediaType, _, err := entity.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}
	part := &gmail.MessagePart{
		PartId:   partID,
		MimeType: mediaType,
	}

	if mr := entity.MultipartReader(); mr != nil {
		part.Body = &gmail.MessagePartBody{}
		for i := 0; ; i++ {
			child, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) {
				return nil, fmt.Errorf("failed to read part %s: %w", childID(partID, i), err)
			}
			cp, err := convert(child, childID(partID, i))
			if err != nil {
				return nil, err
			}
			part.Parts = append(part.Parts, cp)
		}
		return part, nil
	}

	data, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of part %q: %w", partID, err)
	}

	disposition, params, _ := entity.Header.ContentDisposition()
	if disposition == "attachment" || !strings.HasPrefix(mediaType, "text/") {
		part.Filename = params["filename"]
		part.Body = &gmail.MessagePartBody{
			AttachmentId: "eml-" + attachmentKey(partID),
			Size:         int64(len(data)),
		}
		return part, nil
	}

	part.Body = &gmail.MessagePartBody{
		Data: base64.URLEncoding.EncodeToString(data),
		Size: int64(len(data)),
	}
	return part, nil
}

func childID(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "." + strconv.Itoa(i)
}

func attachmentKey(partID string) string {
	if partID == "" {
		return "root"
	}
	return partID
}

func headers(h message.Header) []*gmail.MessagePartHeader {
	var out []*gmail.MessagePartHeader
	fields := h.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		out = append(out, &gmail.MessagePartHeader{Name: fields.Key(), Value: value})
	}
	return out
}
