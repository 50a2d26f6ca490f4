package review

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/eml"
	gmailclient "github.com/teemow/inboxsizer/internal/gmail"
)

// ClassifyFile classifies a saved RFC 5322 message. The record id is the
// Message-Id header, or the path when the header is missing.
func (s *Service) ClassifyFile(ctx context.Context, path string) (classify.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return classify.Message{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rec, err := s.classifyReader(ctx, f, path)
	if err != nil {
		return classify.Message{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// ClassifyReader classifies a message read from r.
func (s *Service) ClassifyReader(ctx context.Context, r io.Reader) (classify.Message, error) {
	return s.classifyReader(ctx, r, "")
}

func (s *Service) classifyReader(ctx context.Context, r io.Reader, fallbackID string) (classify.Message, error) {
	msg, err := eml.Parse(r)
	if err != nil {
		return classify.Message{}, err
	}
	id := msg.MessageID
	if id == "" {
		id = fallbackID
	}
	subject := msg.Subject
	if subject == "" {
		subject = gmailclient.NoSubject
	}
	return s.classifyMessage(ctx, classify.Input{
		ID:      id,
		Subject: subject,
		Payload: msg.Payload,
	}), nil
}
