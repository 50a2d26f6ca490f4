package classify

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Flattened
		want string
	}{
		{
			name: "plain text preferred",
			in:   Flattened{PlainText: "plain body", HTMLText: "<p>html body</p>"},
			want: "plain body",
		},
		{
			name: "whitespace-only plain text falls back to html",
			in:   Flattened{PlainText: " \n\t", HTMLText: "<p>html body</p>"},
			want: "html body",
		},
		{
			name: "style and entities",
			in:   Flattened{HTMLText: "<style>.x{color:red}</style><p>Hello&nbsp;World</p>"},
			want: "Hello World",
		},
		{
			name: "script removed with content",
			in:   Flattened{HTMLText: "<SCRIPT type=\"text/javascript\">var a = 1 < 2;</SCRIPT>Visible"},
			want: "Visible",
		},
		{
			name: "multiline style block",
			in:   Flattened{HTMLText: "<Style>\nbody {\n  margin: 0;\n}\n</sTyle>Text"},
			want: "Text",
		},
		{
			name: "non-greedy blocks keep text between them",
			in:   Flattened{HTMLText: "<style>a</style>keep<style>b</style>"},
			want: "keep",
		},
		{
			name: "ampersand decoded",
			in:   Flattened{HTMLText: "Tom &amp; Jerry"},
			want: "Tom & Jerry",
		},
		{
			name: "other entities left alone",
			in:   Flattened{HTMLText: "1 &lt; 2 &#39;ok&#39;"},
			want: "1 &lt; 2 &#39;ok&#39;",
		},
		{
			name: "empty",
			in:   Flattened{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.TrimSpace(Normalize(tt.in)); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanHTML_TagsBecomeSpaces(t *testing.T) {
	got := CleanHTML("<p>one</p><p>two</p>")
	if got != " one  two " {
		t.Errorf("CleanHTML() = %q, want %q", got, " one  two ")
	}
	if n := CountWords(got); n != 2 {
		t.Errorf("CountWords(CleanHTML()) = %d, want 2", n)
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"one", 1},
		{"one two  three", 3},
		{"  leading and trailing  ", 3},
		{"tabs\tand\nnewlines\r\nmixed", 4},
	}

	for _, tt := range tests {
		if got := CountWords(tt.in); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
