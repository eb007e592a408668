// Command sdfrender renders a TOML or YAML shape scene to a PNG file.
//
// Usage:
//
//	sdfrender -scene scene.toml -out scene.png
//	sdfrender -scene scene.yaml -backend gpu -zoom 2 -pan 40,20
//	sdfrender -scene scene.toml -watch -v
//
// With -watch the scene is rendered again every time the file changes,
// until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/noxkit/sdf"
	"github.com/noxkit/sdf/internal/scenefile"
	"github.com/noxkit/sdf/render"
)

type config struct {
	scene   string
	out     string
	width   int
	height  int
	zoom    float64
	pan     string
	backend string
	watch   bool
	verbose bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.scene, "scene", "", "scene file (.toml, .yaml or .yml)")
	flag.StringVar(&cfg.out, "out", "out.png", "output PNG file")
	flag.IntVar(&cfg.width, "width", 0, "override canvas width")
	flag.IntVar(&cfg.height, "height", 0, "override canvas height")
	flag.Float64Var(&cfg.zoom, "zoom", 0, "override camera zoom")
	flag.StringVar(&cfg.pan, "pan", "", "override camera pan as x,y")
	flag.StringVar(&cfg.backend, "backend", "cpu", "renderer: cpu or gpu")
	flag.BoolVar(&cfg.watch, "watch", false, "re-render when the scene file changes")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	sdf.SetLogger(logger)

	if cfg.scene == "" {
		fmt.Fprintln(os.Stderr, "sdfrender: -scene is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !interrupted(ctx, err) {
		logger.Error("sdfrender failed", "err", err)
		os.Exit(1)
	}
}

// interrupted reports whether err only reflects the user stopping the
// program. A cancellation not caused by the signal context is a failure.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	pan, err := parsePan(cfg.pan)
	if err != nil {
		return err
	}
	renderer, closeRenderer, err := newRenderer(cfg.backend)
	if err != nil {
		return err
	}
	defer closeRenderer()

	job := &job{cfg: cfg, pan: pan, renderer: renderer, logger: logger}
	if err := job.render(ctx); err != nil {
		if !cfg.watch {
			return err
		}
		logger.Error("render failed", "err", err)
	}
	if !cfg.watch {
		return nil
	}
	return watch(ctx, cfg.scene, logger, func() {
		if err := job.render(ctx); err != nil {
			logger.Error("render failed", "err", err)
		}
	})
}

// newRenderer returns the renderer for the backend name and a function
// that releases it. The renderer logs through the logger given to
// sdf.SetLogger.
func newRenderer(backend string) (render.Renderer, func(), error) {
	var (
		r       render.Renderer
		release = func() {}
		err     error
	)
	switch backend {
	case "cpu":
		r = render.NewSoftwareRenderer()
	case "gpu":
		r, release, err = newGPURenderer()
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want cpu or gpu)", backend)
	}
	sdf.PropagateLogger(r)
	return r, release, nil
}

type job struct {
	cfg      config
	pan      []float32
	renderer render.Renderer
	logger   *slog.Logger
}

// render loads the scene, applies the flag overrides and writes the PNG.
func (j *job) render(ctx context.Context) error {
	scene, err := scenefile.Load(j.cfg.scene)
	if err != nil {
		return err
	}
	if j.cfg.width > 0 {
		scene.Canvas.Width = j.cfg.width
	}
	if j.cfg.height > 0 {
		scene.Canvas.Height = j.cfg.height
	}
	if j.cfg.zoom > 0 {
		scene.Camera.Zoom = float32(j.cfg.zoom)
	}
	if j.pan != nil {
		scene.Camera.Pan = j.pan
	}

	frame, err := scene.Frame()
	if err != nil {
		return err
	}
	target := render.NewPixmapTarget(scene.Canvas.Width, scene.Canvas.Height)
	if bg := scene.Background(); bg != nil {
		target.Clear(bg)
	}

	if sr, ok := j.renderer.(*render.SoftwareRenderer); ok {
		err = sr.RenderContext(ctx, target, frame)
	} else {
		err = j.renderer.Render(target, frame)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := j.renderer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	if err := writePNG(j.cfg.out, target); err != nil {
		return err
	}
	j.logger.Info("frame written",
		"out", j.cfg.out,
		"shapes", frame.Len(),
		"width", scene.Canvas.Width,
		"height", scene.Canvas.Height,
	)
	return nil
}

func writePNG(path string, target *render.PixmapTarget) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, target.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// parsePan parses "x,y". An empty string means no override.
func parsePan(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("-pan %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 32)
	if err != nil {
		return nil, fmt.Errorf("-pan %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 32)
	if err != nil {
		return nil, fmt.Errorf("-pan %q: %w", s, err)
	}
	return []float32{float32(x), float32(y)}, nil
}
