// cmd/sdfbake/main.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// sdfbake converts a TrueType or OpenType font to a distance-field font
// atlas that can be loaded with renderer.LoadFont.

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/util"

	"golang.org/x/image/font/sfnt"
)

var (
	fontFile   = flag.String("font", "", "TrueType or OpenType font to convert")
	outFile    = flag.String("o", "font.msgpack.zst", "font atlas to write")
	pixelSize  = flag.Int("size", 64, "em size, in pixels, to rasterize glyphs at")
	spread     = flag.Float64("spread", 8, "distance field spread, in pixels")
	atlasWidth = flag.Int("width", 1024, "width of the atlas image")
	charset    = flag.String("chars", "", "characters to include; printable ASCII if empty")
	noCache    = flag.Bool("nocache", false, "don't use previously-baked glyphs")
	logLevel   = flag.String("loglevel", "warn", "logging level: debug, info, warn, error")
)

// Baked glyphs for old fonts and sizes are removed beyond this.
const maxCacheBytes = 256 << 20

func main() {
	flag.Parse()

	if *fontFile == "" {
		fmt.Fprintln(os.Stderr, "sdfbake: -font must be specified")
		flag.Usage()
		os.Exit(1)
	}

	lg := log.New(*logLevel, "")

	opts := BakeOptions{
		PixelSize:  *pixelSize,
		Spread:     float32(*spread),
		AtlasWidth: *atlasWidth,
		Workers:    runtime.NumCPU(),
	}

	if err := run(context.Background(), *fontFile, *outFile, opts, lg); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "sdfbake: %v\n", err)
		os.Exit(1)
	}
}

func charsetRunes(s string) []rune {
	if s == "" {
		var r []rune
		for ch := ' '; ch <= '~'; ch++ {
			r = append(r, ch)
		}
		return r
	}

	// Always include '?', since it's what's drawn for missing characters.
	seen := map[rune]bool{'?': true}
	r := []rune{'?'}
	for _, ch := range s {
		if !seen[ch] {
			seen[ch] = true
			r = append(r, ch)
		}
	}
	return r
}

func cacheKey(fontData []byte, runes []rune, opts BakeOptions) string {
	h := sha256.New()
	h.Write(fontData)
	fmt.Fprintf(h, "%d %f %s", opts.PixelSize, opts.Spread, string(runes))
	return fmt.Sprintf("sdfbake/%x.msgpack", h.Sum(nil)[:16])
}

func run(ctx context.Context, fontPath, outPath string, opts BakeOptions, lg *log.Logger) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return err
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", fontPath, err)
	}

	metrics, err := readMetrics(f, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", fontPath, err)
	}
	if metrics.Name == "" {
		metrics.Name = fontPath
	}

	runes := charsetRunes(*charset)
	glyphs, err := bakeCached(ctx, f, cacheKey(data, runes, opts), runes, opts, lg)
	if err != nil {
		return fmt.Errorf("%s: %w", fontPath, err)
	}
	if len(glyphs) == 0 {
		return fmt.Errorf("%s: font has none of the requested characters", fontPath)
	}

	atlas, err := makeAtlas(metrics, glyphs, opts)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := util.EncodeMsgpackZstd(out, atlas); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", outPath, err)
	}
	lg.Infof("%s: %d glyphs in a %dx%d atlas", outPath, len(atlas.Glyphs), atlas.Width, atlas.Height)
	return out.Close()
}

// bakeCached returns glyphs from the cache if they have been baked before
// with the same font and options.
func bakeCached(ctx context.Context, f *sfnt.Font, key string, runes []rune, opts BakeOptions, lg *log.Logger) ([]bakedGlyph, error) {
	if !*noCache {
		var glyphs []bakedGlyph
		if t, err := util.CacheRetrieveObject(key, &glyphs); err == nil {
			lg.Infof("Using glyphs cached at %s", t.Format(time.RFC3339))
			return glyphs, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			lg.Warnf("%s: ignoring cached glyphs: %v", key, err)
		}
	}

	start := time.Now()
	glyphs, err := bakeGlyphs(ctx, f, runes, opts)
	if err != nil {
		return nil, err
	}
	lg.Infof("Baked %d glyphs in %s", len(glyphs), time.Since(start))

	if err := util.CacheStoreObject(key, glyphs); err != nil {
		lg.Warnf("%s: unable to cache glyphs: %v", key, err)
	} else if err := util.CacheCullObjects(maxCacheBytes); err != nil {
		lg.Warnf("unable to cull glyph cache: %v", err)
	}
	return glyphs, nil
}
