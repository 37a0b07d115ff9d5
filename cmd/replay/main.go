// Command replay runs a batch analysis over a recorded detection stream:
// a zones JSON file plus a detections JSONL file (one frame per line)
// produce a result JSON, an HTML report, and optionally the annotated
// sample frames. Frame indices come from the input, so the same files
// always produce the same result.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/waitline/waitline/internal/config"
	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/engine"
	"github.com/waitline/waitline/internal/fsutil"
	"github.com/waitline/waitline/internal/render"
	"github.com/waitline/waitline/internal/report"
	"github.com/waitline/waitline/internal/zones"
)

var (
	zonesPath  = flag.String("zones", "", "Path to the zones JSON file (required)")
	detsPath   = flag.String("detections", "", "Path to the detections JSONL file (required)")
	fps        = flag.Float64("fps", 0, "Frame rate of the source stream (required)")
	tuningPath = flag.String("config", "", "Path to the analysis tuning JSON (optional)")
	outDir     = flag.String("out", "out", "Output directory")
	frameW     = flag.Float64("frame-width", 0, "Frame width in pixels; enables sample rendering with -frame-height")
	frameH     = flag.Float64("frame-height", 0, "Frame height in pixels")
)

// replayOptions carries the resolved flag values so the run path can be
// exercised against an in-memory filesystem.
type replayOptions struct {
	ZonesPath      string
	DetectionsPath string
	FPS            float64
	TuningPath     string
	OutDir         string
	FrameW, FrameH float64
}

func main() {
	flag.Parse()

	if *zonesPath == "" || *detsPath == "" || *fps == 0 {
		flag.Usage()
		os.Exit(2)
	}

	opts := replayOptions{
		ZonesPath:      *zonesPath,
		DetectionsPath: *detsPath,
		FPS:            *fps,
		TuningPath:     *tuningPath,
		OutDir:         *outDir,
		FrameW:         *frameW,
		FrameH:         *frameH,
	}
	if err := run(fsutil.OSFileSystem{}, opts); err != nil {
		log.Fatalf("replay: %v", err)
	}
}

func run(fsys fsutil.FileSystem, opts replayOptions) error {
	reg, err := loadZones(fsys, opts.ZonesPath)
	if err != nil {
		return err
	}

	cfg := config.EmptyAnalysisConfig()
	if opts.TuningPath != "" {
		data, err := fsys.ReadFile(opts.TuningPath)
		if err != nil {
			return fmt.Errorf("read tuning config: %w", err)
		}
		cfg, err = config.ParseAnalysisConfig(data)
		if err != nil {
			return err
		}
	}

	var annotator engine.Annotator
	if opts.FrameW > 0 && opts.FrameH > 0 {
		renderer, err := render.NewRenderer(reg, opts.FrameW, opts.FrameH)
		if err != nil {
			return err
		}
		annotator = renderer
	}

	sess, err := engine.NewSession(reg, opts.FPS, cfg, annotator)
	if err != nil {
		return err
	}

	frames, err := feedFrames(fsys, sess, opts.DetectionsPath)
	if err != nil {
		sess.Abort()
		return err
	}

	res, err := sess.Finalize()
	if err != nil {
		return err
	}
	log.Printf("analysed %d frames across %d zones", frames, len(res.Zones))

	if err := fsys.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeResult(fsys, res, filepath.Join(opts.OutDir, "result.json")); err != nil {
		return err
	}
	if err := writeReport(fsys, res, filepath.Join(opts.OutDir, "report.html")); err != nil {
		return err
	}
	for _, sf := range res.SampleFrames {
		if len(sf.PNG) == 0 {
			continue
		}
		name := filepath.Join(opts.OutDir, fmt.Sprintf("sample_%06d.png", sf.FrameIndex))
		if err := fsys.WriteFile(name, sf.PNG, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	log.Printf("wrote %s", opts.OutDir)
	return nil
}

func loadZones(fsys fsutil.FileSystem, path string) (*zones.Registry, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones: %w", err)
	}
	var defs []zones.Zone
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}
	return zones.NewRegistry(defs)
}

// feedFrames streams the JSONL file through the session, one frame per
// line. Blank lines are skipped; a malformed line is an error, since a
// recorded file should never contain one.
func feedFrames(fsys fsutil.FileSystem, sess *engine.Session, path string) (int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open detections: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var frame detect.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return count, fmt.Errorf("detections line %d: %w", line, err)
		}
		if err := sess.Feed(frame); err != nil {
			return count, fmt.Errorf("detections line %d: %w", line, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read detections: %w", err)
	}
	return count, nil
}

func writeResult(fsys fsutil.FileSystem, res *engine.AnalysisResult, path string) error {
	return writeTo(fsys, path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	})
}

func writeReport(fsys fsutil.FileSystem, res *engine.AnalysisResult, path string) error {
	return writeTo(fsys, path, func(w io.Writer) error {
		return report.RenderHTML(res, w)
	})
}

func writeTo(fsys fsutil.FileSystem, path string, fn func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
