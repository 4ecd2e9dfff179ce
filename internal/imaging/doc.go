// Package imaging provides the grid, kernel and filtering primitives used by
// the edge detectors, plus image loading and rendering.
//
// Images are held as Grid values: row-major float64 intensities, 0 to 255
// for decoded images. Filters never modify their input; each returns a new
// Grid of the same shape.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Borders
//
// Convolve replicates edge pixels: a tap outside the grid reads the nearest
// pixel inside it.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Convolve and AddNoise split
// work across goroutines by row band; their results do not depend on the
// number of workers.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Kernels that are even-sized or larger than the grid (ErrInvalidKernel)
//   - Negative or NaN noise deviation (ErrInvalidNoise)
//   - Regions outside the image or with x1 >= x2 or y1 >= y2 (ErrInvalidRegion)
//   - Files that cannot be read or decoded (ErrDecode)
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid redundant
// disk reads. Large images may consume significant memory when cached.
// Consider using Evict() or Clear() to manage memory for long-running processes.
package imaging
