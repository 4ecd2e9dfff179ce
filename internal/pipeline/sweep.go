package pipeline

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/edge-lines/internal/detection"
	"github.com/ironsheep/edge-lines/internal/imaging"
	"github.com/ironsheep/edge-lines/internal/monitoring"
)

// SweepPoint summarises one (detector, noise level) run of a sweep.
type SweepPoint struct {
	Detector   string  `json:"detector"`
	StdDev     float64 `json:"stddev"`
	Segments   int     `json:"segments"`
	EdgePixels int     `json:"edge_pixels"`
	MeanLength float64 `json:"mean_length"`
}

// Sweep measures how line extraction degrades under noise. It runs every
// detector at every standard deviation, using cfg for all other options and
// cfg.Noise (if set) for the noise mean and seed.
//
// An empty detectors list means all detectors. Every configuration is
// validated before any run starts. Points are returned ordered by detector,
// then by the order of stddevs.
func Sweep(grid *imaging.Grid, cfg *Config, detectors []string, stddevs []float64) ([]SweepPoint, error) {
	if len(detectors) == 0 {
		detectors = detection.DetectorNames()
	}

	pipes := make([]*Pipeline, 0, len(detectors)*len(stddevs))
	for _, name := range detectors {
		for _, sd := range stddevs {
			c := *cfg
			c.Detector = name
			noise := imaging.NoiseSpec{StdDev: sd}
			if cfg.Noise != nil {
				noise.Mean = cfg.Noise.Mean
				noise.Seed = cfg.Noise.Seed
			}
			c.Noise = &noise

			p, err := New(&c)
			if err != nil {
				return nil, fmt.Errorf("sweep %s at stddev %v: %w", name, sd, err)
			}
			pipes = append(pipes, p)
		}
	}

	points := make([]SweepPoint, len(pipes))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range pipes {
		g.Go(func() error {
			res, err := p.Run(grid)
			if err != nil {
				return err
			}
			points[i] = SweepPoint{
				Detector:   res.Detector,
				StdDev:     p.cfg.Noise.StdDev,
				Segments:   len(res.Segments),
				EdgePixels: res.EdgePixels,
				MeanLength: detection.MeanLength(res.Segments),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	monitoring.Debugf("sweep: %d detectors x %d noise levels", len(detectors), len(stddevs))
	return points, nil
}
