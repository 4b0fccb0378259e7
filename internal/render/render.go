package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/text2video/internal/planner"
)

// Slide geometry. All slides are rendered at fixed Full HD resolution.
const (
	Width  = 1920
	Height = 1080

	margin        = 100
	titleY        = 150
	contentStartY = 350
	lineSpacing   = 80
	bulletSymbol  = "•"

	qrSize   = 160
	qrMargin = 40
)

// RenderError reports a font or canvas failure during rasterization.
type RenderError struct {
	Slide  int
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render slide %d: %s: %v", e.Slide, e.Reason, e.Err)
	}
	return fmt.Sprintf("render slide %d: %s", e.Slide, e.Reason)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer rasterizes one planned slide. Raster is the only implementation;
// the interface keeps a fancier renderer swappable later.
type Renderer interface {
	Render(layout planner.SlideLayout, theme planner.ThemeConfig) (*image.RGBA, error)
}

// Raster renders slides with a solid background, a centered wrapped title
// and left-aligned bullets.
type Raster struct {
	Fonts *FontCache

	// QRLink, when non-empty, puts a QR code badge in the bottom-right
	// corner of every slide.
	QRLink string
}

func NewRaster(fonts *FontCache) *Raster {
	return &Raster{Fonts: fonts}
}

func (r *Raster) Render(layout planner.SlideLayout, theme planner.ThemeConfig) (*image.RGBA, error) {
	bg, err := hexToRGB(theme.BackgroundColor)
	if err != nil {
		return nil, &RenderError{Slide: layout.SlideNumber, Reason: "bad background color", Err: err}
	}
	textColor, err := hexToRGB(theme.TextColor)
	if err != nil {
		return nil, &RenderError{Slide: layout.SlideNumber, Reason: "bad text color", Err: err}
	}
	accent, err := hexToRGB(theme.AccentColor)
	if err != nil {
		return nil, &RenderError{Slide: layout.SlideNumber, Reason: "bad accent color", Err: err}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	titleEnd, err := r.drawTitle(canvas, layout, theme, textColor)
	if err != nil {
		return nil, err
	}

	startY := titleEnd + 80
	if startY < contentStartY {
		startY = contentStartY
	}

	if err := r.drawBullets(canvas, layout, theme, startY, textColor, accent); err != nil {
		return nil, err
	}

	if r.QRLink != "" {
		if err := drawQRBadge(canvas, r.QRLink); err != nil {
			return nil, &RenderError{Slide: layout.SlideNumber, Reason: "qr badge", Err: err}
		}
	}

	return canvas, nil
}

// drawTitle renders the wrapped, centered title block and returns the Y
// position just below it.
func (r *Raster) drawTitle(canvas *image.RGBA, layout planner.SlideLayout, theme planner.ThemeConfig, col color.RGBA) (int, error) {
	face, err := r.Fonts.Face(theme.FontFamily, layout.FontSizeTitle)
	if err != nil {
		return 0, &RenderError{Slide: layout.SlideNumber, Reason: "title font", Err: err}
	}

	maxWidth := Width - 2*margin
	lines := wrapText(face, layout.Title, maxWidth)

	y := titleY
	for _, line := range lines {
		w := textWidth(face, line)
		x := (Width - w) / 2
		drawString(canvas, face, line, x, y, col)
		y += layout.FontSizeTitle + 20
	}

	return y, nil
}

func (r *Raster) drawBullets(canvas *image.RGBA, layout planner.SlideLayout, theme planner.ThemeConfig, startY int, textColor, accent color.RGBA) error {
	face, err := r.Fonts.Face(theme.FontFamily, layout.FontSizeContent)
	if err != nil {
		return &RenderError{Slide: layout.SlideNumber, Reason: "content font", Err: err}
	}

	bulletX := margin
	textX := margin + 50
	maxWidth := Width - textX - margin

	y := startY
	for _, bullet := range layout.Content {
		lines := wrapText(face, bullet, maxWidth)
		for i, line := range lines {
			if i == 0 {
				drawString(canvas, face, bulletSymbol, bulletX, y, accent)
			}
			drawString(canvas, face, line, textX, y, textColor)
			y += lineSpacing
		}
		y += 20
	}

	return nil
}

// wrapText greedily packs words into lines whose measured width stays under
// maxWidth. A single over-long word gets a line of its own.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	var lines []string
	current := ""

	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if textWidth(face, candidate) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}

	if len(lines) == 0 {
		return []string{text}
	}
	return lines
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawString draws s with its top edge at y, mimicking top-anchored text
// placement.
func drawString(dst *image.RGBA, face font.Face, s string, x, y int, col color.RGBA) {
	ascent := face.Metrics().Ascent.Ceil()
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+ascent),
	}
	d.DrawString(s)
}

func drawQRBadge(canvas *image.RGBA, link string) error {
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return err
	}
	img := q.Image(qrSize)

	x := Width - qrSize - qrMargin
	y := Height - qrSize - qrMargin
	rect := image.Rect(x, y, x+qrSize, y+qrSize)
	draw.Draw(canvas, rect, img, img.Bounds().Min, draw.Src)
	return nil
}

func hexToRGB(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("bad hex color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad hex color %q: %w", hex, err)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}

// SlideFilename returns the deterministic image filename for a slide number.
func SlideFilename(slideNumber int) string {
	return fmt.Sprintf("slide_%03d.png", slideNumber)
}

// RenderSlides renders every slide of the plan into outputDir and returns
// the image paths in slide order. Existing files are overwritten.
func RenderSlides(r Renderer, plan *planner.PresentationPlan, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(plan.Slides))
	for _, layout := range plan.Slides {
		img, err := r.Render(layout, plan.Theme)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(outputDir, SlideFilename(layout.SlideNumber))
		if err := writePNG(path, img); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
