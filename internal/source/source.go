package source

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/text2video/internal/render"
)

// Source is an alternative slide supplier for deck mode: instead of parsing
// tagged text, pages of an existing document become the slides.
type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// DeckSource renders pages of a PDF deck via go-fitz.
type DeckSource struct {
	doc  *fitz.Document
	path string
}

func NewDeckSource(path string) (*DeckSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &DeckSource{doc: doc, path: path}, nil
}

func (d *DeckSource) PageCount() int {
	return d.doc.NumPage()
}

func (d *DeckSource) RenderPage(index int, dpi int) (image.Image, error) {
	// fitz documents are not safe for concurrent page rendering; each
	// worker opens its own handle.
	workerDoc, err := fitz.New(d.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (d *DeckSource) Close() error {
	return d.doc.Close()
}

// ExtractSlides renders every page of the source into outputDir as
// slide_NNN.png, in parallel, and returns the paths in page order. The
// resulting files plug straight into the video assembler.
func ExtractSlides(ctx context.Context, src Source, outputDir string, dpi int) ([]string, error) {
	count := src.PageCount()
	if count == 0 {
		return nil, fmt.Errorf("deck has no pages")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, count)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := 0; i < count; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			img, err := src.RenderPage(i, dpi)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}

			path := filepath.Join(outputDir, render.SlideFilename(i+1))
			if err := writePNG(path, img); err != nil {
				return fmt.Errorf("write page %d: %w", i+1, err)
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
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
