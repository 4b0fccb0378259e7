package render

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Known system font locations, tried in order. The embedded Go Regular font
// is the guaranteed fallback, so face creation cannot fail for lack of a
// font file.
var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/Library/Fonts/Arial.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// FontCache caches the parsed source font. The parsed *opentype.Font is
// safe for concurrent use, but an opentype.Face is not (it carries an
// internal glyph buffer mutated by every measure and draw), so Face mints a
// fresh face per call instead of caching faces. Concurrent pipeline runs may
// share one cache.
type FontCache struct {
	mu  sync.Mutex
	src *opentype.Font
}

func NewFontCache() *FontCache {
	return &FontCache{}
}

// Face returns a new face at the given pixel size. The family is cosmetic:
// every family resolves to the one cascade font, the themes only record the
// intent.
func (c *FontCache) Face(family string, size int) (font.Face, error) {
	src, err := c.source()
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s_%d: %w", family, size, err)
	}
	return face, nil
}

func (c *FontCache) source() (*opentype.Font, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.src == nil {
		src, err := loadFont()
		if err != nil {
			return nil, err
		}
		c.src = src
	}
	return c.src, nil
}

// loadFont walks the system path cascade and falls back to the embedded Go
// Regular font.
func loadFont() (*opentype.Font, error) {
	for _, path := range fontPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		return f, nil
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	return f, nil
}
