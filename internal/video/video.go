package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/text2video/internal/render"
	"github.com/ivlev/text2video/internal/system"
)

// Segment is one slide of the video: a rasterized image shown for a fixed
// integer number of seconds.
type Segment struct {
	ImagePath       string
	DurationSeconds int
}

// VideoArtifact describes the finished video file.
type VideoArtifact struct {
	Path            string `json:"path"`
	DurationSeconds int    `json:"duration_seconds"`
	SlideCount      int    `json:"slide_count"`
	FPS             int    `json:"fps"`
	Resolution      string `json:"resolution"`
	FileSizeBytes   int64  `json:"file_size_bytes"`
}

// AssemblyError reports a fatal assembly failure: empty input, a missing
// slide image or a writer error. Any error return means no artifact was
// produced, even if partial bytes exist on disk.
type AssemblyError struct {
	Reason string
	Err    error
}

func (e *AssemblyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video assembly: %s: %v", e.Reason, e.Err)
	}
	return "video assembly: " + e.Reason
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// FrameCount is the exact number of frames emitted for one slide:
// floor(duration × fps). Durations and fps are integers here, so the total
// emitted duration equals the sum of the per-slide durations with no drift.
func FrameCount(durationSeconds, fps int) int {
	return durationSeconds * fps
}

// Assembler writes slide images into a single H.264 video through one
// exclusively-owned ffmpeg process per run, fed raw RGBA frames over stdin.
type Assembler struct {
	// Encoder is the H.264 encoder name passed to ffmpeg. Empty means
	// libx264.
	Encoder string
	// Quality is the CRF (libx264/nvenc) or the bitrate factor
	// (videotoolbox). Zero picks a default per encoder.
	Quality int

	pool *system.FramePool
}

func NewAssembler(encoder string, quality int) *Assembler {
	return &Assembler{
		Encoder: encoder,
		Quality: quality,
		pool:    system.NewFramePool(image.Rect(0, 0, render.Width, render.Height)),
	}
}

// Assemble writes the ordered segments into outputPath at the given fps.
// Every frame of a segment is bit-identical; there are no transitions.
func (a *Assembler) Assemble(ctx context.Context, segments []Segment, fps int, outputPath string) (*VideoArtifact, error) {
	if len(segments) == 0 {
		return nil, &AssemblyError{Reason: "no slides provided"}
	}
	if fps <= 0 {
		return nil, &AssemblyError{Reason: fmt.Sprintf("invalid fps %d", fps)}
	}

	totalDuration := 0
	for _, seg := range segments {
		if _, err := os.Stat(seg.ImagePath); err != nil {
			return nil, &AssemblyError{Reason: "slide image missing: " + seg.ImagePath, Err: err}
		}
		totalDuration += seg.DurationSeconds
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, &AssemblyError{Reason: "create output directory", Err: err}
	}

	args := a.buildFFmpegArgs(fps, outputPath)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var ffmpegLog bytes.Buffer
	cmd.Stdout = &ffmpegLog
	cmd.Stderr = &ffmpegLog

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &AssemblyError{Reason: "stdin pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &AssemblyError{Reason: "cannot open video writer", Err: err}
	}

	writeErr := a.writeSegments(stdin, segments, fps)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		return nil, &AssemblyError{Reason: "ffmpeg failed: " + ffmpegLog.String(), Err: err}
	}
	if writeErr != nil {
		os.Remove(outputPath)
		return nil, writeErr
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, &AssemblyError{Reason: "output file missing after encode", Err: err}
	}

	return &VideoArtifact{
		Path:            outputPath,
		DurationSeconds: totalDuration,
		SlideCount:      len(segments),
		FPS:             fps,
		Resolution:      fmt.Sprintf("%dx%d", render.Width, render.Height),
		FileSizeBytes:   info.Size(),
	}, nil
}

// buildFFmpegArgs is separated from process control so argument construction
// stays testable without a running ffmpeg.
func (a *Assembler) buildFFmpegArgs(fps int, outputPath string) []string {
	encoder := a.Encoder
	if encoder == "" {
		encoder = "libx264"
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", render.Width, render.Height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-c:v", encoder,
		"-pix_fmt", "yuv420p",
	}

	quality := a.Quality
	switch encoder {
	case "h264_videotoolbox":
		if quality == 0 {
			quality = 75
		}
		args = append(args, "-b:v", fmt.Sprintf("%dk", quality*100))
	case "h264_nvenc":
		if quality == 0 {
			quality = 28
		}
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default:
		if quality == 0 {
			quality = 23
		}
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}

	return append(args, outputPath)
}

func (a *Assembler) writeSegments(w io.Writer, segments []Segment, fps int) error {
	for _, seg := range segments {
		frame, pooled, err := a.loadFrame(seg.ImagePath)
		if err != nil {
			return &AssemblyError{Reason: "decode " + seg.ImagePath, Err: err}
		}

		frames := FrameCount(seg.DurationSeconds, fps)
		for i := 0; i < frames; i++ {
			if _, err := w.Write(frame.Pix); err != nil {
				if pooled {
					a.pool.PutFrame(frame)
				}
				return &AssemblyError{Reason: "write frames", Err: err}
			}
		}
		if pooled {
			a.pool.PutFrame(frame)
		}
	}
	return nil
}

// loadFrame decodes a slide image and normalizes it to a tightly packed
// 1920×1080 RGBA frame, resizing if an upstream stage produced a different
// size. The bool reports whether the frame came from the pool and must go
// back.
func (a *Assembler) loadFrame(path string) (*image.RGBA, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, false, err
	}

	target := image.Rect(0, 0, render.Width, render.Height)
	if img.Bounds().Dx() != render.Width || img.Bounds().Dy() != render.Height {
		frame := a.pool.GetFrame()
		xdraw.BiLinear.Scale(frame, target, img, img.Bounds(), xdraw.Src, nil)
		return frame, true, nil
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == render.Width*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba, false, nil
	}

	frame := a.pool.GetFrame()
	draw.Draw(frame, target, img, img.Bounds().Min, draw.Src)
	return frame, true, nil
}
