package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Slide is a single validated slide: one title and at least one bullet.
type Slide struct {
	Title   string
	Content []string
}

// PresentationInput is the ordered, validated slide sequence produced by Parse.
type PresentationInput struct {
	Slides []Slide
}

// TotalContentLines returns the number of bullet lines across all slides.
func (p *PresentationInput) TotalContentLines() int {
	total := 0
	for _, s := range p.Slides {
		total += len(s.Content)
	}
	return total
}

// FormatError reports malformed or out-of-limit input. Slide is the 1-based
// index of the offending slide, or 0 when the whole document is at fault.
type FormatError struct {
	Slide  int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Slide > 0 {
		return fmt.Sprintf("slide %d: %s", e.Slide, e.Reason)
	}
	return e.Reason
}

const maxTitleLen = 100

var (
	wsRe     = regexp.MustCompile(`\s+`)
	slideRe  = regexp.MustCompile(`\[SLIDE_START\](.*?)\[SLIDE_END\]`)
	titleRe  = regexp.MustCompile(`\[TITLE_START\](.*?)\[TITLE_END\]`)
	bulletRe = regexp.MustCompile(`\[BULLET_START\](.*?)\[BULLET_END\]`)
)

// Parser extracts slides from the tag format:
//
//	[SLIDE_START][TITLE_START]Title[TITLE_END][BULLET_START]Point[BULLET_END][SLIDE_END]
//
// Tags are the only significant tokens; everything outside a matched tag
// pair is ignored. Matching is first-start/first-close, no nesting.
type Parser struct {
	MaxSlides               int
	MaxContentLinesPerSlide int
}

func New(maxSlides, maxContentLinesPerSlide int) *Parser {
	return &Parser{
		MaxSlides:               maxSlides,
		MaxContentLinesPerSlide: maxContentLinesPerSlide,
	}
}

// Parse converts raw tagged text into a validated PresentationInput.
// All errors are *FormatError.
func (p *Parser) Parse(raw string) (*PresentationInput, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &FormatError{Reason: "input is empty"}
	}

	// Segmentation is defined on the whitespace-normalized stream, never on
	// raw line boundaries.
	text := wsRe.ReplaceAllString(raw, " ")

	spans := slideRe.FindAllStringSubmatch(text, -1)
	if len(spans) == 0 {
		if strings.Contains(text, "[SLIDE_START]") {
			return nil, &FormatError{Reason: "unclosed slide: missing [SLIDE_END]"}
		}
		return nil, &FormatError{Reason: "no slides found"}
	}

	if len(spans) > p.MaxSlides {
		return nil, &FormatError{Reason: fmt.Sprintf("too many slides: %d (max %d)", len(spans), p.MaxSlides)}
	}

	slides := make([]Slide, 0, len(spans))
	for i, span := range spans {
		slide, err := p.parseSlide(i+1, span[1])
		if err != nil {
			return nil, err
		}
		slides = append(slides, slide)
	}

	return &PresentationInput{Slides: slides}, nil
}

func (p *Parser) parseSlide(num int, body string) (Slide, error) {
	titles := titleRe.FindAllStringSubmatch(body, -1)
	switch {
	case len(titles) == 0:
		if strings.Contains(body, "[TITLE_START]") {
			return Slide{}, &FormatError{Slide: num, Reason: "unclosed title: missing [TITLE_END]"}
		}
		return Slide{}, &FormatError{Slide: num, Reason: "missing title"}
	case len(titles) > 1:
		return Slide{}, &FormatError{Slide: num, Reason: "multiple titles"}
	}

	title := strings.TrimSpace(titles[0][1])
	if title == "" {
		return Slide{}, &FormatError{Slide: num, Reason: "empty title"}
	}
	// Limits are defined in characters, not bytes.
	if n := utf8.RuneCountInString(title); n > maxTitleLen {
		return Slide{}, &FormatError{Slide: num, Reason: fmt.Sprintf("title too long: %d chars (max %d)", n, maxTitleLen)}
	}

	bullets := bulletRe.FindAllStringSubmatch(body, -1)
	if len(bullets) == 0 {
		return Slide{}, &FormatError{Slide: num, Reason: "no bullets"}
	}

	content := make([]string, 0, len(bullets))
	for _, b := range bullets {
		line := strings.TrimSpace(b[1])
		if line != "" {
			content = append(content, line)
		}
	}
	if len(content) == 0 {
		return Slide{}, &FormatError{Slide: num, Reason: "all bullets are empty"}
	}
	if len(content) > p.MaxContentLinesPerSlide {
		return Slide{}, &FormatError{Slide: num, Reason: fmt.Sprintf("too many content lines: %d (max %d)", len(content), p.MaxContentLinesPerSlide)}
	}

	return Slide{Title: title, Content: content}, nil
}
