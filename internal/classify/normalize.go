package classify

import (
	"regexp"
	"strings"
)

var (
	styleBlock  = regexp.MustCompile(`(?is)<style.*?</style>`)
	scriptBlock = regexp.MustCompile(`(?is)<script.*?</script>`)
	htmlTag     = regexp.MustCompile(`<[^>]*>?`)

	// Only these two entities are decoded. Anything else is left as is.
	entityReplacer = strings.NewReplacer("&nbsp;", " ", "&amp;", "&")
)

// Normalize returns the plain text part when it has any non-whitespace
// content, otherwise a tag-stripped rendering of the HTML part.
func Normalize(f Flattened) string {
	if strings.TrimSpace(f.PlainText) != "" {
		return f.PlainText
	}
	return CleanHTML(f.HTMLText)
}

// CleanHTML removes style and script blocks, replaces every tag with a single
// space and decodes &nbsp; and &amp;.
func CleanHTML(html string) string {
	if html == "" {
		return ""
	}
	s := styleBlock.ReplaceAllString(html, "")
	s = scriptBlock.ReplaceAllString(s, "")
	s = htmlTag.ReplaceAllString(s, " ")
	return entityReplacer.Replace(s)
}
