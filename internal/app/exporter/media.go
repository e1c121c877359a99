package exporter

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/tverlann/anki-deck-export/internal/infra/config"
	"github.com/tverlann/anki-deck-export/internal/infra/exportfs"
)

// imgSrcPattern matches the exact-quoting form the host stores media
// references in. References containing a double quote are not supported.
var imgSrcPattern = regexp.MustCompile(`<img src="([^"]+)"`)

// MediaRewriter copies media referenced by field text from the
// collection's media store into a deck-local media folder and rewrites
// the references to point there.
type MediaRewriter struct {
	sourceDir    string
	maxImageSize int
	quality      int
	log          *zap.SugaredLogger
}

func NewMediaRewriter(sourceDir string, cfg config.Media, log *zap.SugaredLogger) *MediaRewriter {
	return &MediaRewriter{
		sourceDir:    sourceDir,
		maxImageSize: cfg.MaxImageSize,
		quality:      cfg.ImageQuality,
		log:          log,
	}
}

// Rewrite scans fieldText for <img src="..."> references, copies each
// existing source file into destMediaDir (preserving sub-paths) and
// rewrites its src to the deck-local "media/REF". References whose
// source does not exist pass through untouched. Re-running overwrites
// destinations with identical content, so the call is idempotent.
func (m *MediaRewriter) Rewrite(fieldText, destMediaDir string) string {
	seen := map[string]bool{}
	for _, match := range imgSrcPattern.FindAllStringSubmatch(fieldText, -1) {
		ref := match[1]
		if seen[ref] {
			continue
		}
		seen[ref] = true

		srcPath := filepath.Join(m.sourceDir, filepath.FromSlash(ref))
		if _, err := os.Stat(srcPath); err != nil {
			continue
		}

		dstPath := filepath.Join(destMediaDir, filepath.FromSlash(ref))
		if err := m.copyMedia(srcPath, dstPath); err != nil {
			m.log.Warnw("copy media file", "ref", ref, "error", err)
			continue
		}

		fieldText = strings.ReplaceAll(fieldText,
			fmt.Sprintf(`<img src="%s"`, ref),
			fmt.Sprintf(`<img src="media/%s"`, ref),
		)
	}
	return fieldText
}

func (m *MediaRewriter) copyMedia(src, dst string) error {
	if m.maxImageSize > 0 && isRaster(src) {
		if err := m.processImage(src, dst); err == nil {
			return nil
		} else {
			m.log.Debugw("image pipeline fell back to plain copy", "file", src, "error", err)
		}
	}
	return exportfs.CopyFile(src, dst)
}

func isRaster(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// processImage re-encodes a raster image, downscaling it so the longer
// edge fits maxImageSize. Any decode or encode problem is returned so
// the caller can fall back to a byte copy.
func (m *MediaRewriter) processImage(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	img, format, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest > m.maxImageSize {
		ratio := float64(m.maxImageSize) / float64(longest)
		nw, nh := int(float64(w)*ratio), int(float64(h)*ratio)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	switch format {
	case "png":
		err = png.Encode(out, img)
	default:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: m.quality})
	}
	if err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return out.Close()
}
