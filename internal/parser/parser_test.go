package parser

import (
	"errors"
	"strings"
	"testing"
)

const sampleInput = "[SLIDE_START][TITLE_START]Intro[TITLE_END][BULLET_START]A[BULLET_END][BULLET_START]B[BULLET_END][SLIDE_END]"

func newTestParser() *Parser {
	return New(20, 10)
}

func TestParseSingleSlide(t *testing.T) {
	input, err := newTestParser().Parse(sampleInput)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(input.Slides) != 1 {
		t.Fatalf("Expected 1 slide, got %d", len(input.Slides))
	}

	slide := input.Slides[0]
	if slide.Title != "Intro" {
		t.Errorf("Expected title Intro, got %q", slide.Title)
	}
	if len(slide.Content) != 2 || slide.Content[0] != "A" || slide.Content[1] != "B" {
		t.Errorf("Unexpected content: %v", slide.Content)
	}
	if input.TotalContentLines() != 2 {
		t.Errorf("Expected 2 content lines, got %d", input.TotalContentLines())
	}
}

func TestParseWhitespaceInsensitive(t *testing.T) {
	// Inserting arbitrary whitespace between tags must not change the result.
	spaced := "[SLIDE_START]\n\n  [TITLE_START]\n Intro \n[TITLE_END]\t\n[BULLET_START]A[BULLET_END]\n\n[BULLET_START]\n\nB\n[BULLET_END]\n[SLIDE_END]\n"

	compact, err := newTestParser().Parse(sampleInput)
	if err != nil {
		t.Fatalf("Parse compact failed: %v", err)
	}
	loose, err := newTestParser().Parse(spaced)
	if err != nil {
		t.Fatalf("Parse spaced failed: %v", err)
	}

	if len(compact.Slides) != len(loose.Slides) {
		t.Fatalf("Slide count differs: %d vs %d", len(compact.Slides), len(loose.Slides))
	}
	for i := range compact.Slides {
		if compact.Slides[i].Title != loose.Slides[i].Title {
			t.Errorf("Slide %d title differs: %q vs %q", i, compact.Slides[i].Title, loose.Slides[i].Title)
		}
		if strings.Join(compact.Slides[i].Content, "|") != strings.Join(loose.Slides[i].Content, "|") {
			t.Errorf("Slide %d content differs: %v vs %v", i, compact.Slides[i].Content, loose.Slides[i].Content)
		}
	}
}

func TestParseMultilineBullet(t *testing.T) {
	// Newlines inside a bullet span collapse to single spaces.
	input, err := newTestParser().Parse("[SLIDE_START][TITLE_START]T[TITLE_END][BULLET_START]first\nsecond   third[BULLET_END][SLIDE_END]")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := input.Slides[0].Content[0]; got != "first second third" {
		t.Errorf("Expected normalized bullet, got %q", got)
	}
}

func TestParseIgnoresTextOutsideTags(t *testing.T) {
	raw := "garbage before [SLIDE_START]noise[TITLE_START]T[TITLE_END]more noise[BULLET_START]A[BULLET_END]trailing[SLIDE_END] garbage after"
	input, err := newTestParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(input.Slides) != 1 || input.Slides[0].Title != "T" {
		t.Fatalf("Unexpected result: %+v", input.Slides)
	}
}

func TestParsePartialTagsAreInvisible(t *testing.T) {
	// A dangling [BULLET_START] with no close is ordinary ignored text.
	raw := sampleInput + " [BULLET_START] orphan"
	input, err := newTestParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(input.Slides[0].Content) != 2 {
		t.Errorf("Orphan tag changed content: %v", input.Slides[0].Content)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "   \n ", "empty"},
		{"no slides", "just some text", "no slides found"},
		{"unclosed slide", "[SLIDE_START][TITLE_START]T[TITLE_END][BULLET_START]A[BULLET_END]", "unclosed"},
		{"missing title", "[SLIDE_START][BULLET_START]A[BULLET_END][SLIDE_END]", "missing title"},
		{"empty title", "[SLIDE_START][TITLE_START]  [TITLE_END][BULLET_START]A[BULLET_END][SLIDE_END]", "empty title"},
		{"multiple titles", "[SLIDE_START][TITLE_START]A[TITLE_END][TITLE_START]B[TITLE_END][BULLET_START]X[BULLET_END][SLIDE_END]", "multiple titles"},
		{"no bullets", "[SLIDE_START][TITLE_START]T[TITLE_END][SLIDE_END]", "no bullets"},
		{"all bullets empty", "[SLIDE_START][TITLE_START]T[TITLE_END][BULLET_START]  [BULLET_END][SLIDE_END]", "empty"},
		{"title too long", "[SLIDE_START][TITLE_START]" + strings.Repeat("x", 101) + "[TITLE_END][BULLET_START]A[BULLET_END][SLIDE_END]", "title too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestParser().Parse(tt.input)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("Expected *FormatError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestTitleLimitCountsCharactersNotBytes(t *testing.T) {
	p := newTestParser()

	// 100 Cyrillic characters are 200 bytes but exactly at the limit.
	ok := "[SLIDE_START][TITLE_START]" + strings.Repeat("я", 100) + "[TITLE_END][BULLET_START]A[BULLET_END][SLIDE_END]"
	input, err := p.Parse(ok)
	if err != nil {
		t.Fatalf("100-char title rejected: %v", err)
	}
	if got := len([]rune(input.Slides[0].Title)); got != 100 {
		t.Errorf("Title length = %d chars, want 100", got)
	}

	over := "[SLIDE_START][TITLE_START]" + strings.Repeat("я", 101) + "[TITLE_END][BULLET_START]A[BULLET_END][SLIDE_END]"
	_, err = p.Parse(over)
	if err == nil {
		t.Fatal("101-char title accepted")
	}
	if !strings.Contains(err.Error(), "101 chars") {
		t.Errorf("Error should report the character count: %v", err)
	}
}

func TestParseSlideCountLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		b.WriteString("[SLIDE_START][TITLE_START]T[TITLE_END][BULLET_START]A[BULLET_END][SLIDE_END]")
	}

	_, err := newTestParser().Parse(b.String())
	if err == nil {
		t.Fatal("Expected error for 25 slides with max 20")
	}
	if !strings.Contains(err.Error(), "max 20") {
		t.Errorf("Error should name the limit, got %q", err.Error())
	}
}

func TestParseContentLinesLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("[SLIDE_START][TITLE_START]T[TITLE_END]")
	for i := 0; i < 11; i++ {
		b.WriteString("[BULLET_START]line[BULLET_END]")
	}
	b.WriteString("[SLIDE_END]")

	_, err := newTestParser().Parse(b.String())
	if err == nil {
		t.Fatal("Expected error for 11 bullets with max 10")
	}
	if !strings.Contains(err.Error(), "max 10") {
		t.Errorf("Error should name the limit, got %q", err.Error())
	}

	var formatErr *FormatError
	errors.As(err, &formatErr)
	if formatErr.Slide != 1 {
		t.Errorf("Error should name slide 1, got %d", formatErr.Slide)
	}
}

func TestParseSlideOrderPreserved(t *testing.T) {
	raw := "[SLIDE_START][TITLE_START]First[TITLE_END][BULLET_START]a[BULLET_END][SLIDE_END]" +
		"[SLIDE_START][TITLE_START]Second[TITLE_END][BULLET_START]b[BULLET_END][SLIDE_END]" +
		"[SLIDE_START][TITLE_START]Third[TITLE_END][BULLET_START]c[BULLET_END][SLIDE_END]"

	input, err := newTestParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"First", "Second", "Third"}
	for i, title := range want {
		if input.Slides[i].Title != title {
			t.Errorf("Slide %d: expected %q, got %q", i, title, input.Slides[i].Title)
		}
	}
}
