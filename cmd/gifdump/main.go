// Command gifdump extracts every frame of a GIF stream to a PNG file,
// one PNG per frame, either as raw sub-images or (with -composite) as
// full-canvas frames with disposal already applied.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"github.com/illusionman1212/gifstream"
)

const version = "gifdump/1.0"

func main() {
	flag.Parse()
	defer glog.Flush()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := loadToml()
	if err != nil {
		glog.Error(err)
		os.Exit(1)
	}
	dirOverride := *outDir
	compositeMode := *composite
	if cfg != nil {
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if !explicit["outdir"] && cfg.Output.Dir != "" {
			dirOverride = cfg.Output.Dir
		}
		if !explicit["composite"] && cfg.Output.Composite {
			compositeMode = true
		}
	}

	if flag.NArg() == 0 {
		glog.Error("usage: gifdump [flags] file.gif [file.gif ...]")
		os.Exit(1)
	}

	exit := 0
	for _, path := range flag.Args() {
		if err := dumpFile(path, dirOverride, compositeMode); err != nil {
			glog.Errorf("%s: %v", path, err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func dumpFile(path, dirOverride string, compositeMode bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := gif.NewSource(f)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var opts []gif.Option
	if compositeMode {
		opts = append(opts, gif.WithCompositing())
	}
	reader, err := gif.Open(src, opts...)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer reader.Close()

	meta := reader.Metadata()
	glog.Infof("%s: %s, %dx%d, %d frame(s), loop=%d", path, meta.Version, meta.Width, meta.Height, meta.TotalFrames, meta.LoopCount)

	dir := dirOverride
	if dir == "" {
		base := filepath.Base(path)
		dir = strings.TrimSuffix(base, filepath.Ext(base)) + "-frames"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	count := 0
	for reader.HasRemaining() {
		frame, err := reader.NextFrame()
		if err != nil {
			return fmt.Errorf("decoding frame %d: %w", count, err)
		}
		if frame == nil {
			break
		}
		count++
		if frame.Skipped {
			continue
		}
		if frame.Err != nil {
			glog.Warningf("%s: frame %d: %v", path, frame.Index, frame.Err)
			continue
		}
		for _, w := range frame.Warnings {
			glog.Warningf("%s: frame %d: %s: %s", path, frame.Index, w.Kind, w.Message)
		}

		outPath := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", frame.Index))
		if err := writeFramePNG(outPath, frame); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
	}

	glog.Infof("%s: processed %d frame(s), output in %s", path, count, dir)
	return nil
}
