// Package common provides shared helpers for the MCP tool packages: account
// resolution from tool arguments and the instrumented handler wrapper.
package common
