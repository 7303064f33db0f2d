// Package server implements the MCP (Model Context Protocol) server for the
// captcha solver.
//
// This package provides a JSON-RPC 2.0 server that exposes captcha solving
// through the MCP protocol, so MCP-compatible clients can hand captcha images
// to the solver and read back text, confidence, and run statistics.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - captcha_solve: Solve one captcha image
//   - captcha_solve_batch: Solve several images, results in input order
//   - captcha_statistics: Run statistics snapshot
//   - captcha_reset_statistics: Zero the statistics
//   - captcha_engine_info: OCR engine availability, version, languages
//
// Image arguments are either absolute file paths or base64-encoded image
// bytes; a data URL prefix is accepted.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(cfg, sol, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server stopped")
//	}
package server
