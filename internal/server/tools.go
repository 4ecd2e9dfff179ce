package server

import "github.com/ironsheep/edge-lines/internal/detection"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// configProperty describes a partial pipeline configuration. Keys that are
// left out keep their default values.
func configProperty() map[string]interface{} {
	num := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": desc}
	}
	integer := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "description": desc}
	}
	return map[string]interface{}{
		"type":        "object",
		"description": "Pipeline options. Omitted keys keep their defaults (canny 50/200, aperture 3; hough 1px, 1deg, 50 votes, 50px length, 10px gap).",
		"properties": map[string]interface{}{
			"detector": map[string]interface{}{
				"type":        "string",
				"enum":        detection.DetectorNames(),
				"description": "Edge detector. Default canny",
			},
			"canny_low":             num("Canny low hysteresis threshold on gradient magnitude"),
			"canny_high":            num("Canny high hysteresis threshold on gradient magnitude"),
			"canny_aperture":        integer("Canny Sobel aperture: 3, 5 or 7"),
			"canny_blur_size":       integer("Canny Gaussian pre-blur size (odd)"),
			"canny_blur_sigma":      num("Canny Gaussian pre-blur sigma"),
			"laplacian_sigma":       num("Laplacian 3x3 pre-blur sigma; <= 0 derives it from the size"),
			"hough_rho_step":        num("Accumulator distance resolution in pixels"),
			"hough_theta_step_deg":  num("Accumulator angle resolution in degrees"),
			"hough_min_votes":       integer("Votes a line needs before it is traced"),
			"hough_min_line_length": integer("Shortest segment reported, in pixels"),
			"hough_max_line_gap":    integer("Missing pixels bridged along a line"),
			"hough_edge_threshold":  num("Edge map values above this count as edges. Default 0"),
			"noise": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mean":   num("Noise mean"),
					"stddev": num("Noise standard deviation"),
					"seed":   integer("Random seed"),
				},
			},
			"roi": map[string]interface{}{
				"type":        "object",
				"description": "Region of interest, x2/y2 exclusive",
				"properties": map[string]interface{}{
					"x1": integer("Left"),
					"y1": integer("Top"),
					"x2": integer("Right (exclusive)"),
					"y2": integer("Bottom (exclusive)"),
				},
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and mean intensity. The decoded image is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "edge_detect",
			Description: "Run an edge detector (sobel, laplacian or canny) and return the edge map as base64-encoded PNG together with the number of edge pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"config": configProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "line_detect",
			Description: "Detect straight line segments: optional noise, edge detection, then the probabilistic Hough transform. Returns segments as [x1, y1, x2, y2] and optionally an overlay image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"config": configProperty(),
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the segments drawn over the edge map. Default false",
						"default":     false,
					},
					"overlay_color": map[string]interface{}{
						"type":        "string",
						"description": "Overlay line colour as #RRGGBB. Default #FF0000",
						"default":     "#FF0000",
					},
					"overlay_thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Overlay line thickness in pixels. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "noise_add",
			Description: "Add seeded Gaussian noise to an image and return the result as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"mean": map[string]interface{}{
						"type":        "number",
						"description": "Noise mean. Default 0",
						"default":     0,
					},
					"stddev": map[string]interface{}{
						"type":        "number",
						"description": "Noise standard deviation",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed. Equal seeds give equal noise. Default 0",
						"default":     0,
					},
				},
				"required": []string{"path", "stddev"},
			},
		},
		{
			Name:        "noise_sweep",
			Description: "Measure how line detection degrades with noise: run each detector at each noise standard deviation and report segment count, edge pixels and mean segment length.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"config": configProperty(),
					"detectors": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "string",
							"enum": detection.DetectorNames(),
						},
						"description": "Detectors to compare. Default all",
					},
					"stddevs": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Noise standard deviations to test",
					},
				},
				"required": []string{"path", "stddevs"},
			},
		},
		{
			Name:        "run_history",
			Description: "List recent line_detect runs recorded in the history database, newest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of runs. Default 20",
						"default":     20,
					},
				},
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
