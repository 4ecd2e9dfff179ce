package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ironsheep/edge-lines/internal/detection"
	"github.com/ironsheep/edge-lines/internal/imaging"
)

// Config holds every option of a pipeline run. The JSON form uses the
// snake_case keys shown in the struct tags.
type Config struct {
	// Detector is "sobel", "laplacian" or "canny".
	Detector string `json:"detector"`

	CannyLow       float64 `json:"canny_low"`
	CannyHigh      float64 `json:"canny_high"`
	CannyAperture  int     `json:"canny_aperture"`
	CannyBlurSize  int     `json:"canny_blur_size"`
	CannyBlurSigma float64 `json:"canny_blur_sigma"`

	LaplacianSigma float64 `json:"laplacian_sigma"`

	// Noise is applied to the input before detection when set.
	Noise *imaging.NoiseSpec `json:"noise,omitempty"`

	HoughRhoStep       float64 `json:"hough_rho_step"`
	HoughThetaStepDeg  float64 `json:"hough_theta_step_deg"`
	HoughMinVotes      int     `json:"hough_min_votes"`
	HoughMinLineLength int     `json:"hough_min_line_length"`
	HoughMaxLineGap    int     `json:"hough_max_line_gap"`
	HoughEdgeThreshold float64 `json:"hough_edge_threshold"`

	// ROI crops the decoded image before processing. Only used by RunFile.
	ROI *imaging.Region `json:"roi,omitempty"`
}

// DefaultConfig returns the reference settings: Canny 50/200 with a 3x3
// aperture, no noise, and Hough at 1 pixel, 1 degree, 50 votes, 50 pixel
// minimum length and a 10 pixel gap.
func DefaultConfig() *Config {
	dp := detection.DefaultParams()
	hp := detection.DefaultHoughParams()
	return &Config{
		Detector:           detection.Canny,
		CannyLow:           dp.CannyLow,
		CannyHigh:          dp.CannyHigh,
		CannyAperture:      dp.CannyAperture,
		CannyBlurSize:      dp.CannyBlurSize,
		CannyBlurSigma:     dp.CannyBlurSigma,
		LaplacianSigma:     dp.LaplacianSigma,
		HoughRhoStep:       hp.RhoStep,
		HoughThetaStepDeg:  hp.ThetaStepDeg,
		HoughMinVotes:      hp.MinVotes,
		HoughMinLineLength: hp.MinLineLength,
		HoughMaxLineGap:    hp.MaxLineGap,
		HoughEdgeThreshold: hp.EdgeThreshold,
	}
}

// LoadConfig loads a Config from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file keep their DefaultConfig values, so
// partial configs are safe. The result is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DetectorParams extracts the detector tunables.
func (c *Config) DetectorParams() detection.Params {
	return detection.Params{
		CannyLow:       c.CannyLow,
		CannyHigh:      c.CannyHigh,
		CannyAperture:  c.CannyAperture,
		CannyBlurSize:  c.CannyBlurSize,
		CannyBlurSigma: c.CannyBlurSigma,
		LaplacianSigma: c.LaplacianSigma,
	}
}

// HoughParams extracts the line extractor tunables.
func (c *Config) HoughParams() detection.HoughParams {
	return detection.HoughParams{
		RhoStep:       c.HoughRhoStep,
		ThetaStepDeg:  c.HoughThetaStepDeg,
		MinVotes:      c.HoughMinVotes,
		MinLineLength: c.HoughMinLineLength,
		MaxLineGap:    c.HoughMaxLineGap,
		EdgeThreshold: c.HoughEdgeThreshold,
	}
}

// Validate checks every stage's options and returns a *StageError naming
// the first offending key. Nothing is clamped or corrected.
func (c *Config) Validate() error {
	if c.ROI != nil {
		if err := c.ROI.Validate(); err != nil {
			return &StageError{Stage: StageDecode, Param: "roi", Err: err}
		}
	}

	if c.Noise != nil {
		if err := c.Noise.Validate(); err != nil {
			param := "noise.mean"
			if math.IsNaN(c.Noise.StdDev) || c.Noise.StdDev < 0 {
				param = "noise.stddev"
			}
			return &StageError{Stage: StageNoise, Param: param, Err: err}
		}
	}

	if _, err := detection.NewDetector(c.Detector, c.DetectorParams()); err != nil {
		return &StageError{Stage: StageDetect, Param: c.detectorParam(err), Err: err}
	}

	hp := c.HoughParams()
	if err := hp.Validate(); err != nil {
		return &StageError{Stage: StageHough, Param: houghParam(hp), Err: err}
	}
	return nil
}

// detectorParam names the key behind a NewDetector error.
func (c *Config) detectorParam(err error) string {
	switch {
	case errors.Is(err, detection.ErrUnknownDetector):
		return "detector"
	case errors.Is(err, detection.ErrInvalidThresholds):
		return "canny_low"
	case c.CannyAperture != 3 && c.CannyAperture != 5 && c.CannyAperture != 7:
		return "canny_aperture"
	default:
		return "canny_blur_size"
	}
}

// houghParam names the first invalid Hough key, in HoughParams.Validate order.
func houghParam(p detection.HoughParams) string {
	switch {
	case !(p.RhoStep > 0):
		return "hough_rho_step"
	case !(p.ThetaStepDeg > 0), math.Round(180/p.ThetaStepDeg) < 1:
		return "hough_theta_step_deg"
	case p.MinVotes <= 0:
		return "hough_min_votes"
	case p.MinLineLength <= 0:
		return "hough_min_line_length"
	case p.MaxLineGap < 0:
		return "hough_max_line_gap"
	default:
		return "hough_edge_threshold"
	}
}
