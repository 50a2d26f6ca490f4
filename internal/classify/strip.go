package classify

import "strings"

// minLinesBeforeSignature is how many kept lines must precede a divider
// before it is treated as the start of a signature.
const minLinesBeforeSignature = 20

// StripQuotes removes quoted reply lines and cuts the body at a reply
// attribution ("On ... wrote:") or at a signature divider. Dividers that
// appear before minLinesBeforeSignature kept lines are dropped instead.
func StripQuotes(body string) string {
	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))
	stop := false
	for i := 0; i < len(lines) && !stop; i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ">"):
			continue
		case isAttribution(trimmed):
			stop = true
		case trimmed == "--" || trimmed == "---":
			if len(kept) >= minLinesBeforeSignature {
				stop = true
			}
		default:
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isAttribution(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "on ") && strings.Contains(lower, "wrote:")
}
