//go:build !nogpu

// Command sdfshader validates the shape shader and cross-compiles it.
//
// Usage:
//
//	sdfshader -lang glsl              # print GLSL 330 for both stages
//	sdfshader -lang spirv -out shape.spv
//	sdfshader -lang msl -out shape.metal
//	sdfshader -entrypoints
//
// GLSL is emitted per stage; with -out the entry point name is inserted
// before the extension (shape.vs_main.glsl, shape.fs_main.glsl).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/noxkit/sdf/internal/gpu"
)

func main() {
	var (
		lang        = flag.String("lang", "wgsl", "target language: wgsl, spirv, glsl or msl")
		out         = flag.String("out", "", "output file (default stdout; required for spirv)")
		entryPoints = flag.Bool("entrypoints", false, "list the shader entry points and exit")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gpu.SetLogger(logger)

	var err error
	if *entryPoints {
		err = listEntryPoints(os.Stdout)
	} else {
		err = translate(os.Stdout, *lang, *out, logger)
	}
	if err != nil {
		logger.Error("sdfshader failed", "err", err)
		os.Exit(1)
	}
}

func listEntryPoints(w io.Writer) error {
	eps, err := gpu.EntryPoints()
	if err != nil {
		return err
	}
	stages := make([]string, 0, len(eps))
	for stage := range eps {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(w, "%s\t%s\n", stage, eps[stage])
	}
	return nil
}

func translate(stdout io.Writer, name, out string, logger *slog.Logger) error {
	lang, err := gpu.ParseLanguage(name)
	if err != nil {
		return err
	}
	if lang == gpu.LangSPIRV && out == "" {
		return errors.New("spirv output is binary; set -out")
	}
	outs, err := gpu.Translate(lang)
	if err != nil {
		return err
	}

	for _, o := range outs {
		data := o.Binary
		if data == nil {
			data = []byte(o.Text)
		}
		if out == "" {
			if o.EntryPoint != "" {
				fmt.Fprintf(stdout, "// entry point: %s\n", o.EntryPoint)
			}
			if _, err := stdout.Write(data); err != nil {
				return err
			}
			continue
		}
		path := outputPath(out, o.EntryPoint, len(outs) > 1)
		if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // shader output is not secret
			return err
		}
		logger.Info("shader written", "lang", lang, "path", path, "bytes", len(data))
	}
	return nil
}

// outputPath inserts the entry point before the extension when one file
// is written per stage.
func outputPath(out, entryPoint string, perStage bool) string {
	if !perStage || entryPoint == "" {
		return out
	}
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "." + entryPoint + ext
}
