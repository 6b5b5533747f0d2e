package daemon

import (
	"github.com/Aman-CERP/bmsearch/internal/index"
	"github.com/Aman-CERP/bmsearch/internal/search"
	"github.com/Aman-CERP/bmsearch/internal/telemetry"
)

// JSON-RPC 2.0 method names.
const (
	MethodPing    = "ping"
	MethodStatus  = "status"
	MethodSearch  = "search"
	MethodRebuild = "rebuild"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Daemon-specific error codes.
const (
	ErrCodeSearchFailed  = -32002
	ErrCodeRebuildFailed = -32003
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
		},
		ID: id,
	}
}

// SearchParams are the parameters for the search method.
type SearchParams struct {
	// Query is matched against titles, URLs and transliterations.
	// An empty query yields no results.
	Query string `json:"query"`

	// Limit caps the result count. Zero yields no results; negative is
	// rejected.
	Limit int `json:"limit"`
}

// StatusResult contains daemon status information.
type StatusResult struct {
	Running bool         `json:"running"`
	PID     int          `json:"pid"`
	Uptime  string       `json:"uptime"`
	Watcher string       `json:"watcher"`
	Index   index.Status `json:"index"`

	// Queries is nil when the daemon is not running.
	Queries *telemetry.Snapshot `json:"queries,omitempty"`
}

// PingResult is the response to a ping request.
type PingResult struct {
	Pong bool `json:"pong"`
}

// SearchResult is one ranked bookmark.
type SearchResult = search.Result

// RebuildResult describes a rebuild triggered over the socket.
type RebuildResult = index.RebuildStats
