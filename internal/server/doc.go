// Package server implements the MCP (Model Context Protocol) server for edge
// and line detection tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the edge-lines
// pipeline through the MCP protocol, so MCP-compatible clients can find
// edges and straight lines in images and measure how noise affects them.
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
//   - image_load: Load an image and report its metadata
//   - edge_detect: Sobel, Laplacian or Canny edge map as base64 PNG
//   - line_detect: Line segments from the full pipeline, with optional overlay
//   - noise_add: Seeded Gaussian noise as base64 PNG
//   - noise_sweep: Segment and edge counts per detector and noise level
//   - run_history: Recent line_detect runs from the history database
//
// Tools that run the pipeline accept a "config" object with the same
// snake_case keys as the JSON configuration file. Omitted keys keep their
// defaults.
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the server process.
// Noise and ROI cropping are applied to copies, never to cached grids.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, naming the pipeline stage and parameter
//     for configuration and processing errors
//
// # Usage
//
//	st, err := store.Open("history.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(st)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
