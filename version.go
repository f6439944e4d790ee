// Package rebootcmds replays commands that were deferred until the next
// system boot.
package rebootcmds

// Version is the release version reported by the CLI and the MCP server.
const Version = "0.3.0"
