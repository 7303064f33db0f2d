package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "captcha_solve",
			Description: "Solve a single text captcha. Runs the configured preprocessing pipelines and recognizer ladder and returns the best reading with its confidence and the full attempt history.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Captcha image as an absolute file path or base64-encoded bytes (PNG, JPEG, GIF, BMP or TIFF). A data URL prefix is accepted.",
					},
				},
				"required": []string{"image"},
			},
		},
		{
			Name:        "captcha_solve_batch",
			Description: "Solve several captchas in one call. Results come back in input order; each entry carries either an outcome or an error.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"images": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "string",
						},
						"description": "Captcha images, each an absolute file path or base64-encoded bytes",
					},
				},
				"required": []string{"images"},
			},
		},
		{
			Name:        "captcha_statistics",
			Description: "Return the run statistics: total captchas processed, success rate, average confidence and average attempts per resolution.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "captcha_reset_statistics",
			Description: "Reset the run statistics to zero.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "captcha_engine_info",
			Description: "Report whether the OCR engine is available, its version, and the installed languages.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
