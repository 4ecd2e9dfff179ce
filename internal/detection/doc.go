// Package detection provides edge detectors and line-segment extraction.
//
// # Edge Detection
//
// Three detectors turn an intensity grid into an edge map of the same shape:
//
//   - Sobel: box blur, 3x3 Sobel gradients, graded 8-bit strength
//   - Laplacian: 3x3 Gaussian blur, 4-neighbour Laplacian, graded 8-bit strength
//   - Canny: Gaussian blur, Sobel gradients, non-maximum suppression and
//     hysteresis, binary output (0 or 255)
//
// Detectors are created by name with NewDetector and validate their
// parameters at construction.
//
// # Line Extraction
//
// ExtractLines runs the progressive probabilistic Hough transform over an
// edge map and returns LineSegment values in the order they were found.
// Pixels are visited in scan order, so results are reproducible.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Segment endpoints are pixel positions that were edges
//
// # Threshold Units
//
// Canny thresholds apply to raw gradient magnitude. Hough's EdgeThreshold
// applies to edge map values, so the default of 0 treats every non-zero
// pixel of a Sobel or Laplacian map as an edge.
package detection
