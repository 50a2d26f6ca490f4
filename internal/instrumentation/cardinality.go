package instrumentation

// Gmail API operation names used as metric and span labels.
const (
	OperationListMessages  = "list_messages"
	OperationGetMessage    = "get_message"
	OperationListLabels    = "list_labels"
	OperationCreateLabel   = "create_label"
	OperationModifyMessage = "modify_message"
)

// Decode error reasons.
const (
	ReasonContentDecode    = "content_decode"
	ReasonMalformedPayload = "malformed_payload"
)

// knownActions bounds the action label to a fixed set. Actions come from
// reviewers and tool callers, so anything else collapses to "invalid".
var knownActions = map[string]bool{
	"Short":   true,
	"Medium":  true,
	"Long":    true,
	"XL":      true,
	"skip":    true,
	"archive": true,
}

// ActionLabel returns a bounded metric label value for a reviewer action.
//
// Example:
//
//	ActionLabel("Long")         // "Long"
//	ActionLabel("archive")      // "archive"
//	ActionLabel("delete-all")   // "invalid"
func ActionLabel(action string) string {
	if knownActions[action] {
		return action
	}
	return "invalid"
}
