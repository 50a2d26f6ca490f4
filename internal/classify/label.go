package classify

import (
	"fmt"
	"strings"
)

// Label is a reading-length category.
type Label string

const (
	LabelShort  Label = "Short"
	LabelMedium Label = "Medium"
	LabelLong   Label = "Long"
	LabelXL     Label = "XL"
)

// Word count thresholds. A count equal to a threshold stays in the lower band.
const (
	MediumThreshold = 250
	LongThreshold   = 1500
	XLThreshold     = 5000
)

// SizeLabels lists the size labels from shortest to longest.
var SizeLabels = []Label{LabelShort, LabelMedium, LabelLong, LabelXL}

// LabelFor maps a word count to its size label.
func LabelFor(wordCount int) Label {
	switch {
	case wordCount > XLThreshold:
		return LabelXL
	case wordCount > LongThreshold:
		return LabelLong
	case wordCount > MediumThreshold:
		return LabelMedium
	default:
		return LabelShort
	}
}

// Rank orders size labels from 0 (Short) to 3 (XL). Unknown labels rank -1.
func (l Label) Rank() int {
	for i, s := range SizeLabels {
		if s == l {
			return i
		}
	}
	return -1
}

func (l Label) String() string {
	return string(l)
}

// Action is what a reviewer decided to do with a message: apply a size
// label, skip it, or archive it.
type Action string

const (
	ActionSkip    Action = "skip"
	ActionArchive Action = "archive"
)

// ActionFor returns the action that applies label l.
func ActionFor(l Label) Action {
	return Action(l)
}

// ParseAction validates a reviewer action. Size labels are matched exactly,
// skip and archive case-insensitively.
func ParseAction(s string) (Action, error) {
	for _, l := range SizeLabels {
		if s == string(l) {
			return Action(l), nil
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ActionSkip):
		return ActionSkip, nil
	case string(ActionArchive):
		return ActionArchive, nil
	}
	return "", fmt.Errorf("unknown action %q: must be one of Short, Medium, Long, XL, skip, archive", s)
}

// SizeLabel returns the label an action applies, if any.
func (a Action) SizeLabel() (Label, bool) {
	l := Label(a)
	return l, l.Rank() >= 0
}
