package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/edge-lines/internal/detection"
	"github.com/ironsheep/edge-lines/internal/imaging"
	"github.com/ironsheep/edge-lines/internal/monitoring"
)

// Pipeline chains optional noise, an edge detector and the Hough line
// extractor. A Pipeline holds only its validated configuration, so one value
// may serve concurrent runs.
type Pipeline struct {
	cfg      Config
	detector detection.Detector
	hough    detection.HoughParams
}

// Result is the outcome of one run.
type Result struct {
	// RunID identifies the run in the history store.
	RunID uuid.UUID `json:"run_id"`

	// Detector is the name of the edge detector used.
	Detector string `json:"detector"`

	// Input is the grid the detector saw: the noisy copy when noise was applied.
	Input *imaging.Grid `json:"-"`

	// EdgeMap is the detector output.
	EdgeMap *imaging.Grid `json:"-"`

	// Segments are the extracted lines in discovery order.
	Segments []detection.LineSegment `json:"segments"`

	// EdgePixels counts EdgeMap samples above the Hough edge threshold.
	EdgePixels int `json:"edge_pixels"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// New validates cfg and builds a Pipeline. The configuration is copied.
//
// Returns a *StageError wrapping the relevant sentinel if any option is
// invalid; no processing happens in that case.
func New(cfg *Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := detection.NewDetector(cfg.Detector, cfg.DetectorParams())
	if err != nil {
		return nil, &StageError{Stage: StageDetect, Param: cfg.detectorParam(err), Err: err}
	}

	c := *cfg
	if cfg.Noise != nil {
		n := *cfg.Noise
		c.Noise = &n
	}
	if cfg.ROI != nil {
		r := *cfg.ROI
		c.ROI = &r
	}
	return &Pipeline{cfg: c, detector: d, hough: cfg.HoughParams()}, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run processes grid. The input grid is not modified. An empty grid yields
// an empty edge map and no segments.
func (p *Pipeline) Run(grid *imaging.Grid) (*Result, error) {
	start := time.Now()

	input, edges, err := p.DetectEdges(grid)
	if err != nil {
		return nil, err
	}

	segs, err := detection.ExtractLines(edges, p.hough)
	if err != nil {
		return nil, &StageError{Stage: StageHough, Param: houghParam(p.hough), Err: err}
	}

	res := &Result{
		RunID:      uuid.New(),
		Detector:   p.detector.Name(),
		Input:      input,
		EdgeMap:    edges,
		Segments:   segs,
		EdgePixels: edges.CountAbove(p.hough.EdgeThreshold),
		Elapsed:    time.Since(start),
	}
	monitoring.Debugf("run %s: %s on %dx%d, %d edge pixels, %d segments in %v",
		res.RunID, res.Detector, input.Width, input.Height, res.EdgePixels, len(segs), res.Elapsed)
	return res, nil
}

// DetectEdges runs only the noise and detection stages. It returns the grid
// the detector saw and the edge map.
func (p *Pipeline) DetectEdges(grid *imaging.Grid) (input, edges *imaging.Grid, err error) {
	input = grid
	if p.cfg.Noise != nil {
		input, err = imaging.AddNoise(grid, *p.cfg.Noise)
		if err != nil {
			return nil, nil, &StageError{Stage: StageNoise, Param: "noise", Err: err}
		}
	}

	edges, err = p.detector.Detect(input)
	if err != nil {
		return nil, nil, &StageError{Stage: StageDetect, Param: p.kernelParam(err), Err: err}
	}
	return input, edges, nil
}

// RunFile decodes the image at path, crops it to the configured ROI and
// runs the pipeline on it. Decode failures are reported as a decode-stage
// StageError wrapping imaging.ErrDecode.
func (p *Pipeline) RunFile(path string) (*Result, error) {
	grid, err := imaging.DecodeFile(path, p.cfg.ROI)
	if err != nil {
		param := "path"
		if errors.Is(err, imaging.ErrInvalidRegion) {
			param = "roi"
		}
		return nil, &StageError{Stage: StageDecode, Param: param, Err: err}
	}
	return p.Run(grid)
}

// kernelParam names the key whose kernel did not fit the grid.
func (p *Pipeline) kernelParam(err error) string {
	if errors.Is(err, imaging.ErrInvalidKernel) && p.cfg.Detector == detection.Canny {
		return "canny_blur_size"
	}
	return "detector"
}
