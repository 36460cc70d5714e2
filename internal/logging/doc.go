// Package logging provides opt-in file-based logging with rotation for mnemo.
// When the --debug flag is set, comprehensive logs are written to
// ~/.mnemo/logs/ for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
// When mnemo runs as an MCP tool-server over stdio, stdout is reserved
// exclusively for the JSON-RPC stream; logging in that mode never touches
// stdout or stderr.
package logging
