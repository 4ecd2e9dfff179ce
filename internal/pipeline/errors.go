package pipeline

import "fmt"

// Pipeline stages named in StageError.
const (
	StageDecode = "decode"
	StageNoise  = "noise"
	StageDetect = "detect"
	StageHough  = "hough"
)

// StageError reports which stage failed and, for configuration problems,
// which configuration key was at fault. Err is one of the package sentinels
// from imaging or detection, possibly wrapped, so callers can still use
// errors.Is.
type StageError struct {
	Stage string
	Param string
	Err   error
}

func (e *StageError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s stage: %s: %v", e.Stage, e.Param, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
