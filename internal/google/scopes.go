package google

import gmail "google.golang.org/api/gmail/v1"

// Scopes are the OAuth scopes inboxsizer requests. Modify covers reading
// messages and changing their labels; Labels allows creating missing size labels.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailLabelsScope,
}
