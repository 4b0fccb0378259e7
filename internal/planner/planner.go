package planner

import (
	"unicode/utf8"

	"github.com/ivlev/text2video/internal/parser"
)

// ThemeConfig is an immutable visual theme. Colors are "#rrggbb" strings.
type ThemeConfig struct {
	Name            string `yaml:"name" json:"name"`
	BackgroundColor string `yaml:"background_color" json:"background_color"`
	TextColor       string `yaml:"text_color" json:"text_color"`
	AccentColor     string `yaml:"accent_color" json:"accent_color"`
	FontFamily      string `yaml:"font_family" json:"font_family"`
}

// SlideLayout carries every per-slide design decision the planner makes.
type SlideLayout struct {
	SlideNumber     int      `yaml:"slide_number" json:"slide_number"`
	Title           string   `yaml:"title" json:"title"`
	Content         []string `yaml:"content" json:"content"`
	Layout          string   `yaml:"layout" json:"layout"`
	DurationSeconds int      `yaml:"duration_seconds" json:"duration_seconds"`
	FontSizeTitle   int      `yaml:"font_size_title" json:"font_size_title"`
	FontSizeContent int      `yaml:"font_size_content" json:"font_size_content"`
}

// PresentationPlan is the complete deterministic plan for one pipeline run.
type PresentationPlan struct {
	Theme         ThemeConfig   `yaml:"theme" json:"theme"`
	Slides        []SlideLayout `yaml:"slides" json:"slides"`
	TotalDuration int           `yaml:"total_duration" json:"total_duration"`
}

func (p *PresentationPlan) SlideCount() int {
	return len(p.Slides)
}

// DefaultTheme is used whenever no theme, or an unknown one, is requested.
const DefaultTheme = "corporate_blue"

// LayoutTitleAndBullets is the only layout currently produced. The field
// exists so future layouts can be added without changing the plan shape.
const LayoutTitleAndBullets = "title_and_bullets"

var themes = map[string]ThemeConfig{
	"corporate_blue": {
		Name:            "corporate_blue",
		BackgroundColor: "#1e3a8a",
		TextColor:       "#ffffff",
		AccentColor:     "#60a5fa",
		FontFamily:      "Arial",
	},
	"modern_dark": {
		Name:            "modern_dark",
		BackgroundColor: "#1f2937",
		TextColor:       "#f9fafb",
		AccentColor:     "#10b981",
		FontFamily:      "Helvetica",
	},
	"minimal_light": {
		Name:            "minimal_light",
		BackgroundColor: "#f3f4f6",
		TextColor:       "#111827",
		AccentColor:     "#3b82f6",
		FontFamily:      "Arial",
	},
	"vibrant_purple": {
		Name:            "vibrant_purple",
		BackgroundColor: "#7c3aed",
		TextColor:       "#ffffff",
		AccentColor:     "#fbbf24",
		FontFamily:      "Arial",
	},
}

// Themes returns the static theme table in a stable order.
func Themes() []ThemeConfig {
	names := []string{"corporate_blue", "modern_dark", "minimal_light", "vibrant_purple"}
	out := make([]ThemeConfig, 0, len(names))
	for _, n := range names {
		out = append(out, themes[n])
	}
	return out
}

// SelectTheme resolves a theme by name. Unknown or empty names fall back to
// the default theme; resolution never fails.
func SelectTheme(name string) ThemeConfig {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[DefaultTheme]
}

// SlideDuration is 3s base plus 1s per bullet, capped at 15s.
func SlideDuration(content []string) int {
	d := 3 + len(content)
	if d > 15 {
		d = 15
	}
	return d
}

// FontSizes derives title and content font sizes from text length.
// Long titles shrink the title font; long or numerous bullets shrink the
// content font. Lengths are counted in characters, not bytes, so non-ASCII
// text is classified the same as ASCII of the same visible length.
func FontSizes(title string, content []string) (titleFont, contentFont int) {
	switch n := utf8.RuneCountInString(title); {
	case n > 50:
		titleFont = 36
	case n > 30:
		titleFont = 42
	default:
		titleFont = 48
	}

	totalChars := 0
	for _, line := range content {
		totalChars += utf8.RuneCountInString(line)
	}
	meanLen := 0.0
	if len(content) > 0 {
		meanLen = float64(totalChars) / float64(len(content))
	}

	switch {
	case meanLen > 80:
		contentFont = 24
	case meanLen > 50:
		contentFont = 28
	default:
		contentFont = 32
	}

	if len(content) > 6 {
		contentFont -= 4
		if contentFont < 20 {
			contentFont = 20
		}
	}

	return titleFont, contentFont
}

// Plan turns validated input into a complete presentation plan. Slide numbers
// are assigned 1..N in input order and the total duration is the exact sum of
// the per-slide durations.
func Plan(input *parser.PresentationInput, themeName string) *PresentationPlan {
	theme := SelectTheme(themeName)

	layouts := make([]SlideLayout, 0, len(input.Slides))
	total := 0

	for i, slide := range input.Slides {
		duration := SlideDuration(slide.Content)
		total += duration

		titleFont, contentFont := FontSizes(slide.Title, slide.Content)

		layouts = append(layouts, SlideLayout{
			SlideNumber:     i + 1,
			Title:           slide.Title,
			Content:         slide.Content,
			Layout:          LayoutTitleAndBullets,
			DurationSeconds: duration,
			FontSizeTitle:   titleFont,
			FontSizeContent: contentFont,
		})
	}

	return &PresentationPlan{
		Theme:         theme,
		Slides:        layouts,
		TotalDuration: total,
	}
}
