package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ironsheep/edge-lines/internal/detection"
	"github.com/ironsheep/edge-lines/internal/imaging"
	"github.com/ironsheep/edge-lines/internal/pipeline"
	"github.com/ironsheep/edge-lines/internal/report"
	"github.com/ironsheep/edge-lines/internal/server"
	"github.com/ironsheep/edge-lines/internal/store"
)

const defaultDBPath = "edge-lines.db"

// Output file names written by the run command.
const (
	edgesFile    = "edges.png"
	overlayFile  = "overlay.png"
	noisyFile    = "noisy.png"
	segmentsFile = "segments.json"
)

func handleServe(args []string) error {
	fs, debug := newFlagSet("serve", "[options]")
	dbPath := fs.String("db", "", "Record line_detect runs in this SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyDebug(*debug)

	var history server.History
	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		history = st
	}

	if err := server.New(history).Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// loadConfig returns the file configuration, or the defaults when path is empty.
func loadConfig(path string) (*pipeline.Config, error) {
	if path == "" {
		return pipeline.DefaultConfig(), nil
	}
	return pipeline.LoadConfig(path)
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func handleRun(args []string, stdout io.Writer) error {
	fs, debug := newFlagSet("run", "[options] <image>")
	configPath := fs.String("config", "", "JSON configuration file")
	detector := fs.String("detector", "", "Edge detector (sobel, laplacian, canny); overrides the config")
	noiseStdDev := fs.Float64("noise-stddev", 0, "Add Gaussian noise with this standard deviation")
	noiseMean := fs.Float64("noise-mean", 0, "Mean of the added noise")
	seed := fs.Uint64("seed", 0, "Noise seed")
	outDir := fs.String("out", ".", "Directory for edges.png, overlay.png and segments.json")
	dbPath := fs.String("db", "", "Record the run in this SQLite database")
	overlayColor := fs.String("overlay-color", "#FF0000", "Overlay line colour")
	thickness := fs.Int("overlay-thickness", 1, "Overlay line thickness in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyDebug(*debug)

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("run needs exactly one image path")
	}
	imagePath := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *detector != "" {
		cfg.Detector = *detector
	}
	if flagSet(fs, "noise-stddev") || flagSet(fs, "noise-mean") || flagSet(fs, "seed") {
		cfg.Noise = &imaging.NoiseSpec{Mean: *noiseMean, StdDev: *noiseStdDev, Seed: *seed}
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	res, err := p.RunFile(imagePath)
	if err != nil {
		return err
	}

	if err := writeRunOutputs(*outDir, res, cfg.Noise != nil, imaging.OverlayOptions{Color: *overlayColor, Thickness: *thickness}); err != nil {
		return err
	}

	if *dbPath != "" {
		if err := recordRun(*dbPath, imagePath, cfg, res); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "run %s: %s, %d edge pixels, %d segments in %v\n",
		res.RunID, res.Detector, res.EdgePixels, len(res.Segments), res.Elapsed.Round(time.Microsecond))
	for _, s := range res.Segments {
		fmt.Fprintf(stdout, "  (%d,%d)-(%d,%d) length %.1f\n", s.X1, s.Y1, s.X2, s.Y2, s.Length())
	}
	fmt.Fprintf(stdout, "wrote %s\n", *outDir)
	return nil
}

// writeRunOutputs writes the edge map, the overlay, the segment list and,
// when noise was applied, the noisy input.
func writeRunOutputs(dir string, res *pipeline.Result, noisy bool, opts imaging.OverlayOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := imaging.SavePNG(filepath.Join(dir, edgesFile), res.EdgeMap.ToGray()); err != nil {
		return err
	}

	tuples := detection.Tuples(res.Segments)
	overlay, err := imaging.Overlay(res.EdgeMap, tuples, opts)
	if err != nil {
		return err
	}
	if err := imaging.SavePNG(filepath.Join(dir, overlayFile), overlay); err != nil {
		return err
	}

	data, err := json.Marshal(tuples)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, segmentsFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write segments: %w", err)
	}

	if noisy {
		return imaging.SavePNG(filepath.Join(dir, noisyFile), res.Input.ToGray())
	}
	return nil
}

func recordRun(dbPath, imagePath string, cfg *pipeline.Config, res *pipeline.Result) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	run := store.Run{
		RunID:        res.RunID.String(),
		ImagePath:    imagePath,
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
	return st.RecordRun(run, res.Segments)
}

// parseFloats parses a comma separated list of numbers.
func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseList splits a comma separated list, dropping empty entries.
func parseList(s string) []string {
	var out []string
	for _, field := range strings.Split(s, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

func handleSweep(args []string, stdout io.Writer) error {
	fs, debug := newFlagSet("sweep", "[options] <image>")
	configPath := fs.String("config", "", "JSON configuration file")
	detectors := fs.String("detectors", "", "Comma separated detectors to compare (default all)")
	stddevs := fs.String("stddevs", "0,5,10,20,40", "Comma separated noise standard deviations")
	chart := fs.String("chart", "", "Write a chart to this file (.png, .svg or .pdf)")
	metric := fs.String("metric", string(report.MetricSegments), "Chart metric: segments, edge_pixels or mean_length")
	asJSON := fs.Bool("json", false, "Print the sweep as JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyDebug(*debug)

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("sweep needs exactly one image path")
	}
	levels, err := parseFloats(*stddevs)
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		return errors.New("sweep needs at least one noise level")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	grid, err := imaging.DecodeFile(fs.Arg(0), cfg.ROI)
	if err != nil {
		return err
	}

	points, err := pipeline.Sweep(grid, cfg, parseList(*detectors), levels)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(points); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DETECTOR\tSTDDEV\tSEGMENTS\tEDGE PIXELS\tMEAN LENGTH")
		for _, pt := range points {
			fmt.Fprintf(tw, "%s\t%g\t%d\t%d\t%.1f\n", pt.Detector, pt.StdDev, pt.Segments, pt.EdgePixels, pt.MeanLength)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if *chart != "" {
		if err := report.PlotSweep(points, report.Metric(*metric), *chart); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", *chart)
	}
	return nil
}

func handleHistory(args []string, stdout io.Writer) error {
	fs, debug := newFlagSet("history", "[options]")
	dbPath := fs.String("db", defaultDBPath, "SQLite history database")
	limit := fs.Int("limit", 20, "Maximum number of runs to list (0 for all)")
	runID := fs.String("segments", "", "Print the segments of this run as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyDebug(*debug)

	st, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if *runID != "" {
		segs, err := st.RunSegments(*runID)
		if err != nil {
			return err
		}
		return json.NewEncoder(stdout).Encode(detection.Tuples(segs))
	}

	runs, err := st.ListRuns(*limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tDETECTOR\tNOISE\tEDGE PIXELS\tSEGMENTS\tIMAGE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%d\t%d\t%s\n",
			r.RunID, r.CreatedAt.Format(time.RFC3339), r.Detector, r.NoiseStdDev, r.EdgePixels, r.SegmentCount, r.ImagePath)
	}
	return tw.Flush()
}
