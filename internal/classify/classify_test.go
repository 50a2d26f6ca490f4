package classify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func TestClassify_HTMLOnly(t *testing.T) {
	in := Input{
		ID:      "msg-1",
		Subject: "Hi",
		Snippet: "Hello World",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				textPart("text/html", "<style>.x{color:red}</style><p>Hello&nbsp;World</p>"),
			},
		},
	}

	got, err := Classify(in)
	require.NoError(t, err)
	assert.Equal(t, Message{
		ID:             "msg-1",
		Subject:        "Hi",
		WordCount:      2,
		SuggestedLabel: LabelShort,
		Snippet:        "Hello World",
		Body:           "Hello World",
	}, got)
}

func TestClassify_PaywallPhraseRegardlessOfBody(t *testing.T) {
	body := strings.Repeat("word ", 2000)
	in := Input{
		ID: "msg-2",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				textPart("text/plain", body),
				textPart("text/html", "<p>Subscribe to keep reading</p>"),
			},
		},
	}

	got, err := Classify(in)
	require.NoError(t, err)
	assert.True(t, got.IsPaywall)
	assert.Contains(t, got.PaywallReason, "Subscribe to keep reading")
	assert.Equal(t, 2000, got.WordCount)
	assert.Equal(t, LabelLong, got.SuggestedLabel)
}

func TestClassify_SignatureAfterLongBody(t *testing.T) {
	lines := append(repeatLines("Real content", 25), "--", "Quoted signature")
	in := Input{ID: "msg-3", Payload: textPart("text/plain", strings.Join(lines, "\n"))}

	got, err := Classify(in)
	require.NoError(t, err)
	assert.NotContains(t, got.Body, "Quoted signature")
	assert.Equal(t, 50, got.WordCount)
}

func TestClassify_EarlyDivider(t *testing.T) {
	in := Input{ID: "msg-4", Payload: textPart("text/plain", "--\nintro\nmore text")}

	got, err := Classify(in)
	require.NoError(t, err)
	assert.Equal(t, "intro\nmore text", got.Body)
	assert.Equal(t, 3, got.WordCount)
}

func TestClassify_AttachmentOnly(t *testing.T) {
	in := Input{
		ID: "msg-5",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "image/png",
					Filename: "photo.png",
					Body:     &gmail.MessagePartBody{AttachmentId: "att-1"},
				},
			},
		},
	}

	got, err := Classify(in)
	require.NoError(t, err)
	assert.Equal(t, 0, got.WordCount)
	assert.Equal(t, LabelShort, got.SuggestedLabel)
	assert.False(t, got.IsPaywall)
	assert.Empty(t, got.Body)
}

func TestClassify_MalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmail.MessagePart
	}{
		{name: "nil payload", payload: nil},
		{name: "no parts no body", payload: &gmail.MessagePart{MimeType: "text/plain"}},
		{name: "empty multipart", payload: &gmail.MessagePart{MimeType: "multipart/mixed", Parts: []*gmail.MessagePart{{MimeType: "text/plain", Body: &gmail.MessagePartBody{}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(Input{ID: "bad", Subject: "s", Snippet: "snip", Payload: tt.payload})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload))

			var mpe *MalformedPayloadError
			require.True(t, errors.As(err, &mpe))
			assert.Equal(t, "bad", mpe.MessageID)

			assert.Equal(t, Message{
				ID:             "bad",
				Subject:        "s",
				Snippet:        "snip",
				SuggestedLabel: LabelShort,
			}, got)
		})
	}
}

func TestClassify_DecodeErrorStillClassifies(t *testing.T) {
	in := Input{
		ID: "msg-6",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: "%%%"}},
				{PartId: "1", MimeType: "text/html", Body: &gmail.MessagePartBody{Data: "###"}},
				textPart("text/plain", "three little words"),
			},
		},
	}

	got, err := Classify(in)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedPayload))
	assert.Equal(t, 3, got.WordCount)

	decodeErrs := DecodeErrors(err)
	require.Len(t, decodeErrs, 2)
	assert.Equal(t, "0", decodeErrs[0].PartID)
	assert.Equal(t, "1", decodeErrs[1].PartID)
}

func TestClassify_SubstackTruncation(t *testing.T) {
	in := Input{
		ID:      "msg-7",
		Subject: "The weekly letter",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				textPart("text/html", `<p>The first half of the essay…</p><a href="https://x.substack.com/p/essay">Read more</a>`),
			},
		},
	}

	got, err := Classify(in)
	require.NoError(t, err)
	assert.False(t, got.IsPaywall, "body ends with link text, not an ellipsis")

	in.Payload.Parts[0] = textPart("text/html", `<a href="https://x.substack.com/p/essay"></a><p>The first half of the essay…</p>`)
	got, err = Classify(in)
	require.NoError(t, err)
	assert.True(t, got.IsPaywall)
	assert.Equal(t, "Substack content appears truncated (ends in ...)", got.PaywallReason)
}

func TestClassify_DoesNotMutatePayload(t *testing.T) {
	part := textPart("text/plain", "> quoted\nbody")
	data := part.Body.Data

	_, err := Classify(Input{ID: "m", Payload: part})
	require.NoError(t, err)
	assert.Equal(t, data, part.Body.Data)
	assert.Equal(t, "text/plain", part.MimeType)
}

func TestDecodeErrors_Nil(t *testing.T) {
	assert.Nil(t, DecodeErrors(nil))
}
