package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/recognize"
	"github.com/darkchamp11/Captcha-Solver/internal/solver"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "captcha_solve").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "captcha_solve":
		return s.handleCaptchaSolve(args)
	case "captcha_solve_batch":
		return s.handleCaptchaSolveBatch(args)
	case "captcha_statistics":
		return s.handleCaptchaStatistics()
	case "captcha_reset_statistics":
		return s.handleCaptchaResetStatistics()
	case "captcha_engine_info":
		return s.handleCaptchaEngineInfo()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadImage turns a tool image argument into a raster. The argument is
// either a filesystem path or base64-encoded image bytes; a data URL
// prefix is tolerated. Path loads go through the server cache, so solving
// the same file across repeated tool calls decodes it once.
func (s *Server) loadImage(arg string) (*raster.Raster, error) {
	if arg == "" {
		return nil, errors.New("image argument is empty")
	}
	if _, err := os.Stat(arg); err == nil {
		return s.cache.Load(arg)
	}

	b64 := arg
	if strings.HasPrefix(b64, "data:") {
		if i := strings.IndexByte(b64, ','); i >= 0 {
			b64 = b64[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("image argument is neither a readable file nor base64 data: %w", err)
	}
	return raster.Decode(data)
}

// === Solve Handlers ===

type captchaSolveArgs struct {
	Image string `json:"image"`
}

func (s *Server) handleCaptchaSolve(args json.RawMessage) (interface{}, error) {
	var a captchaSolveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, err := s.loadImage(a.Image)
	if err != nil {
		return nil, err
	}
	return s.solver.Resolve(context.Background(), r)
}

type captchaSolveBatchArgs struct {
	Images []string `json:"images"`
}

// batchEntry pairs one batch input with its outcome or failure.
type batchEntry struct {
	Index   int             `json:"index"`
	Outcome *solver.Outcome `json:"outcome,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (s *Server) handleCaptchaSolveBatch(args json.RawMessage) (interface{}, error) {
	var a captchaSolveBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Images) == 0 {
		return nil, errors.New("images argument is empty")
	}

	// Decode failures stay per-entry so one bad image never sinks the batch.
	entries := make([]batchEntry, len(a.Images))
	var (
		rasters []*raster.Raster
		pos     []int
	)
	for i, img := range a.Images {
		entries[i].Index = i
		r, err := s.loadImage(img)
		if err != nil {
			entries[i].Error = err.Error()
			continue
		}
		rasters = append(rasters, r)
		pos = append(pos, i)
	}

	results := s.solver.ResolveBatch(context.Background(), rasters)
	for j, res := range results {
		i := pos[j]
		if res.Err != nil {
			entries[i].Error = res.Err.Error()
			continue
		}
		entries[i].Outcome = res.Outcome
	}

	return map[string]interface{}{
		"results": entries,
	}, nil
}

// === Statistics Handlers ===

func (s *Server) handleCaptchaStatistics() (interface{}, error) {
	return s.solver.Statistics(), nil
}

func (s *Server) handleCaptchaResetStatistics() (interface{}, error) {
	s.solver.ResetStatistics()
	return map[string]interface{}{"reset": true}, nil
}

// === Engine Handlers ===

func (s *Server) handleCaptchaEngineInfo() (interface{}, error) {
	return recognize.Probe(), nil
}
