package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/edge-lines/internal/detection"
	"github.com/ironsheep/edge-lines/internal/imaging"
	"github.com/ironsheep/edge-lines/internal/monitoring"
	"github.com/ironsheep/edge-lines/internal/pipeline"
	"github.com/ironsheep/edge-lines/internal/store"
)

// ErrNoHistory is returned by run_history when the server has no store.
var ErrNoHistory = errors.New("run history is not enabled")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "line_detect").
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
	case "image_load":
		return s.handleImageLoad(args)
	case "edge_detect":
		return s.handleEdgeDetect(args)
	case "line_detect":
		return s.handleLineDetect(args)
	case "noise_add":
		return s.handleNoiseAdd(args)
	case "noise_sweep":
		return s.handleNoiseSweep(args)
	case "run_history":
		return s.handleRunHistory(args)
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

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// buildConfig overlays a partial JSON configuration on the defaults.
func buildConfig(raw json.RawMessage) (*pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// loadGrid returns the cached grid for path, cropped to roi when set. The
// cached grid is shared and must not be modified.
func (s *Server) loadGrid(path string, roi *imaging.Region) (*imaging.Grid, error) {
	g, err := s.cache.Load(path)
	if err != nil {
		return nil, &pipeline.StageError{Stage: pipeline.StageDecode, Param: "path", Err: err}
	}
	if roi == nil {
		return g, nil
	}
	cropped, err := imaging.CropGrid(g, *roi)
	if err != nil {
		return nil, &pipeline.StageError{Stage: pipeline.StageDecode, Param: "roi", Err: err}
	}
	return cropped, nil
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Edge Detection ===

type edgeDetectArgs struct {
	Path   string          `json:"path"`
	Config json.RawMessage `json:"config"`
}

// EdgeDetectResult is the edge_detect tool output.
type EdgeDetectResult struct {
	Detector   string                `json:"detector"`
	EdgePixels int                   `json:"edge_pixels"`
	EdgeMap    *imaging.EncodedImage `json:"edge_map"`
}

func (s *Server) handleEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := buildConfig(a.Config)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	grid, err := s.loadGrid(a.Path, cfg.ROI)
	if err != nil {
		return nil, err
	}

	_, edges, err := p.DetectEdges(grid)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNGBase64(edges.ToGray())
	if err != nil {
		return nil, err
	}
	return &EdgeDetectResult{
		Detector:   cfg.Detector,
		EdgePixels: edges.CountAbove(cfg.HoughEdgeThreshold),
		EdgeMap:    enc,
	}, nil
}

// === Line Detection ===

type lineDetectArgs struct {
	Path             string          `json:"path"`
	Config           json.RawMessage `json:"config"`
	Overlay          bool            `json:"overlay"`
	OverlayColor     string          `json:"overlay_color"`
	OverlayThickness int             `json:"overlay_thickness"`
}

// LineDetectResult is the line_detect tool output.
type LineDetectResult struct {
	RunID      string                `json:"run_id"`
	Detector   string                `json:"detector"`
	Segments   [][4]int              `json:"segments"`
	Count      int                   `json:"count"`
	EdgePixels int                   `json:"edge_pixels"`
	MeanLength float64               `json:"mean_length"`
	ElapsedMS  float64               `json:"elapsed_ms"`
	Recorded   bool                  `json:"recorded"`
	Overlay    *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleLineDetect(args json.RawMessage) (interface{}, error) {
	var a lineDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := buildConfig(a.Config)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	grid, err := s.loadGrid(a.Path, cfg.ROI)
	if err != nil {
		return nil, err
	}

	res, err := p.Run(grid)
	if err != nil {
		return nil, err
	}

	out := &LineDetectResult{
		RunID:      res.RunID.String(),
		Detector:   res.Detector,
		Segments:   detection.Tuples(res.Segments),
		Count:      len(res.Segments),
		EdgePixels: res.EdgePixels,
		MeanLength: detection.MeanLength(res.Segments),
		ElapsedMS:  float64(res.Elapsed.Microseconds()) / 1000,
	}

	if a.Overlay {
		img, err := imaging.Overlay(res.EdgeMap, out.Segments, imaging.OverlayOptions{
			Color:     a.OverlayColor,
			Thickness: a.OverlayThickness,
		})
		if err != nil {
			return nil, err
		}
		if out.Overlay, err = imaging.EncodePNGBase64(img); err != nil {
			return nil, err
		}
	}

	if s.history != nil {
		run := store.Run{
			RunID:        out.RunID,
			ImagePath:    a.Path,
			Detector:     res.Detector,
			EdgePixels:   res.EdgePixels,
			SegmentCount: len(res.Segments),
			Elapsed:      res.Elapsed,
		}
		if cfg.Noise != nil {
			run.NoiseMean = cfg.Noise.Mean
			run.NoiseStdDev = cfg.Noise.StdDev
			run.NoiseSeed = cfg.Noise.Seed
		}
		if err := s.history.RecordRun(run, res.Segments); err != nil {
			monitoring.Logf("failed to record run %s: %v", out.RunID, err)
		} else {
			out.Recorded = true
		}
	}
	return out, nil
}

// === Noise ===

type noiseAddArgs struct {
	Path   string  `json:"path"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Seed   uint64  `json:"seed"`
}

func (s *Server) handleNoiseAdd(args json.RawMessage) (interface{}, error) {
	var a noiseAddArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	grid, err := s.loadGrid(a.Path, nil)
	if err != nil {
		return nil, err
	}
	noisy, err := imaging.AddNoise(grid, imaging.NoiseSpec{Mean: a.Mean, StdDev: a.StdDev, Seed: a.Seed})
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNGBase64(noisy.ToGray())
}

type noiseSweepArgs struct {
	Path      string          `json:"path"`
	Config    json.RawMessage `json:"config"`
	Detectors []string        `json:"detectors"`
	StdDevs   []float64       `json:"stddevs"`
}

func (s *Server) handleNoiseSweep(args json.RawMessage) (interface{}, error) {
	var a noiseSweepArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.StdDevs) == 0 {
		return nil, fmt.Errorf("stddevs must list at least one noise level")
	}
	cfg, err := buildConfig(a.Config)
	if err != nil {
		return nil, err
	}
	grid, err := s.loadGrid(a.Path, cfg.ROI)
	if err != nil {
		return nil, err
	}
	return pipeline.Sweep(grid, cfg, a.Detectors, a.StdDevs)
}

// === History ===

type runHistoryArgs struct {
	Limit int `json:"limit"`
}

func (s *Server) handleRunHistory(args json.RawMessage) (interface{}, error) {
	var a runHistoryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, ErrNoHistory
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}
	return s.history.ListRuns(a.Limit)
}
