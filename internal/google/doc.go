// Package google manages the OAuth2 tokens inboxsizer uses to call Gmail.
//
// Tokens are stored per account as JSON files under the user cache directory
// (~/.cache/inboxsizer/google-<account>.token on Linux). A new token is
// obtained by visiting AuthURL and passing the returned code to SaveCode.
// Refreshed tokens are written back to disk automatically.
package google
