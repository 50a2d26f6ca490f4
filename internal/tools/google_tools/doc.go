// Package google_tools provides MCP tools for connecting a Gmail account.
//
// The OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. The user visits the URL, grants access and copies the code
//  3. Call google_save_auth_code with the code to store the token
//
// The stored token is refreshed automatically and used by every
// gmail_size_* tool for that account.
package google_tools
