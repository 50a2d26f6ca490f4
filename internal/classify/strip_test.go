package classify

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func repeatLines(line string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = line
	}
	return out
}

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no quotes",
			in:   "Hello\nWorld",
			want: "Hello\nWorld",
		},
		{
			name: "quoted lines dropped",
			in:   "Reply text\n> quoted\n  >> nested quote\nmore reply",
			want: "Reply text\nmore reply",
		},
		{
			name: "attribution stops processing",
			in:   "Thanks!\nOn Mon, Jan 1, 2024 at 10:00 Alice <a@example.com> wrote:\nold thread",
			want: "Thanks!",
		},
		{
			name: "attribution is case-insensitive",
			in:   "Thanks!\n  ON TUESDAY BOB WROTE:\nold thread",
			want: "Thanks!",
		},
		{
			name: "on without wrote is kept",
			in:   "On second thought\nlet's meet",
			want: "On second thought\nlet's meet",
		},
		{
			name: "late divider terminates",
			in:   strings.Join(append(repeatLines("Real content", 25), "--", "Quoted signature"), "\n"),
			want: strings.Join(repeatLines("Real content", 25), "\n"),
		},
		{
			name: "divider after exactly twenty lines terminates",
			in:   strings.Join(append(repeatLines("line", 20), "---", "sig"), "\n"),
			want: strings.Join(repeatLines("line", 20), "\n"),
		},
		{
			name: "early divider is dropped",
			in:   "--\nintro\nmore text",
			want: "intro\nmore text",
		},
		{
			name: "divider after nineteen lines is dropped",
			in:   strings.Join(append(repeatLines("line", 19), "--", "tail"), "\n"),
			want: strings.Join(append(repeatLines("line", 19), "tail"), "\n"),
		},
		{
			name: "kept lines are not trimmed",
			in:   "first\n   indented\nlast",
			want: "first\n   indented\nlast",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripQuotes(tt.in); got != tt.want {
				t.Errorf("StripQuotes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripQuotes_IdempotentOnNestedQuotes(t *testing.T) {
	in := strings.Join([]string{
		"Sounds good, see you then.",
		"",
		"> On Mon, Bob wrote:",
		"> > Are we still on for Friday?",
		">> > > Originally: lunch at noon",
		"-- ",
		"Alice",
		"On Mon, Jan 1, 2024, Bob <bob@example.com> wrote:",
		"> Are we still on for Friday?",
	}, "\n")

	once := StripQuotes(in)
	if once != "Sounds good, see you then.\n\nAlice" {
		t.Fatalf("StripQuotes() = %q", once)
	}
	if twice := StripQuotes(once); twice != once {
		t.Errorf("StripQuotes() not idempotent: %q != %q", twice, once)
	}
}

func TestStripQuotes_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fixtures := []string{
		"plain text here",
		"  indented text",
		"",
		"> quoted",
		">> deeply quoted",
		"--",
		"---",
		"On Friday Alice wrote:",
		"on the other hand",
		"ends with dots...",
	}
	lineGen := gen.IntRange(0, len(fixtures)-1).Map(func(i int) string {
		return fixtures[i]
	})
	bodyGen := gen.SliceOf(lineGen).Map(func(lines []string) string {
		return strings.Join(lines, "\n")
	})

	properties.Property("strip_is_idempotent", prop.ForAll(
		func(body string) bool {
			once := StripQuotes(body)
			return StripQuotes(once) == once
		},
		bodyGen,
	))

	properties.Property("strip_never_keeps_quoted_lines", prop.ForAll(
		func(body string) bool {
			for _, line := range strings.Split(StripQuotes(body), "\n") {
				if strings.HasPrefix(strings.TrimSpace(line), ">") {
					return false
				}
			}
			return true
		},
		bodyGen,
	))

	properties.TestingRun(t)
}
