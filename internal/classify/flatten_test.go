package classify

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func textPart(mimeType, text string) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: mimeType,
		Body:     &gmail.MessagePartBody{Data: encode(text)},
	}
}

func TestFlatten(t *testing.T) {
	tree := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					textPart("text/plain", "plain one"),
					textPart("text/html", "<p>html one</p>"),
				},
			},
			textPart("text/plain", "plain two"),
			textPart("text/calendar", "BEGIN:VCALENDAR"),
			{
				MimeType: "application/pdf",
				Filename: "report.pdf",
				Body:     &gmail.MessagePartBody{AttachmentId: "att-1", Size: 1024},
			},
		},
	}

	got, err := Flatten(tree)
	require.NoError(t, err)
	assert.Equal(t, "plain oneplain two", got.PlainText)
	assert.Equal(t, "<p>html one</p>", got.HTMLText)
	assert.Equal(t, "plain one\n<p>html one</p>\nplain two\nBEGIN:VCALENDAR\n", got.RawAll)
}

func TestFlatten_ParentBodyIgnored(t *testing.T) {
	tree := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Body:     &gmail.MessagePartBody{Data: encode("should not appear")},
		Parts:    []*gmail.MessagePart{textPart("text/plain", "child")},
	}

	got, err := Flatten(tree)
	require.NoError(t, err)
	assert.Equal(t, "child", got.PlainText)
	assert.Equal(t, "child\n", got.RawAll)
}

func TestFlatten_SinglePartMessage(t *testing.T) {
	got, err := Flatten(textPart("text/plain", "just text"))
	require.NoError(t, err)
	assert.Equal(t, "just text", got.PlainText)
}

func TestFlatten_Encodings(t *testing.T) {
	text := "héllo wörld?>>"
	tests := []struct {
		name string
		data string
	}{
		{name: "url padded", data: base64.URLEncoding.EncodeToString([]byte(text))},
		{name: "url raw", data: base64.RawURLEncoding.EncodeToString([]byte(text))},
		{name: "std padded", data: base64.StdEncoding.EncodeToString([]byte(text))},
		{name: "std raw", data: base64.RawStdEncoding.EncodeToString([]byte(text))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := &gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: tt.data}}
			got, err := Flatten(part)
			require.NoError(t, err)
			assert.Equal(t, text, got.PlainText)
		})
	}
}

func TestFlatten_DecodeErrorSkipsPart(t *testing.T) {
	tree := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: "!!!not base64!!!"}},
			textPart("text/plain", "still here"),
		},
	}

	got, err := Flatten(tree)
	require.Error(t, err)
	assert.Equal(t, "still here", got.PlainText)
	assert.Equal(t, "still here\n", got.RawAll)

	var cde *ContentDecodeError
	require.True(t, errors.As(err, &cde))
	assert.Equal(t, "0", cde.PartID)
	assert.Equal(t, "text/plain", cde.MimeType)
}

func TestFlatten_Nil(t *testing.T) {
	got, err := Flatten(nil)
	require.NoError(t, err)
	assert.Equal(t, Flattened{}, got)
}
