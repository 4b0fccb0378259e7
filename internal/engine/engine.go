package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/parser"
	"github.com/ivlev/text2video/internal/planner"
	"github.com/ivlev/text2video/internal/render"
	"github.com/ivlev/text2video/internal/source"
	"github.com/ivlev/text2video/internal/system"
	"github.com/ivlev/text2video/internal/video"
)

// DefaultVideoFilename используется, когда вызывающий не задал имя файла.
const DefaultVideoFilename = "presentation.mp4"

// Project связывает конвейер: парсер -> планировщик -> растеризатор ->
// сборщик видео. Каждый запуск самодостаточен; между запусками общие только
// кэш шрифтов и таблица тем (обе read-only).
type Project struct {
	Config   *config.Config
	Renderer render.Renderer
	Encoder  *video.Assembler

	parser *parser.Parser
}

func NewProject(cfg *config.Config, r render.Renderer, enc *video.Assembler) *Project {
	return &Project{
		Config:   cfg,
		Renderer: r,
		Encoder:  enc,
		parser:   parser.New(cfg.MaxSlides, cfg.MaxContentLinesPerSlide),
	}
}

// Validate прогоняет текст через парсер тегов.
func (p *Project) Validate(text string) (*parser.PresentationInput, error) {
	return p.parser.Parse(text)
}

// Plan строит детерминированный план презентации.
func (p *Project) Plan(input *parser.PresentationInput, themeName string) *planner.PresentationPlan {
	return planner.Plan(input, themeName)
}

// RenderSlides растеризует все слайды плана в slides/ и возвращает пути в
// порядке номеров слайдов.
func (p *Project) RenderSlides(plan *planner.PresentationPlan) ([]string, error) {
	return render.RenderSlides(p.Renderer, plan, p.Config.SlidesDir())
}

// AssembleVideo собирает итоговое видео из плана и готовых изображений.
func (p *Project) AssembleVideo(ctx context.Context, plan *planner.PresentationPlan, imagePaths []string, filename string, fps int) (*video.VideoArtifact, error) {
	filename = safeVideoFilename(filename)
	if fps <= 0 {
		fps = p.Config.FPS
	}

	if len(imagePaths) != len(plan.Slides) {
		return nil, &video.AssemblyError{
			Reason: fmt.Sprintf("plan has %d slides but %d images were rendered", len(plan.Slides), len(imagePaths)),
		}
	}

	segments := make([]video.Segment, 0, len(plan.Slides))
	for i, layout := range plan.Slides {
		segments = append(segments, video.Segment{
			ImagePath:       imagePaths[i],
			DurationSeconds: layout.DurationSeconds,
		})
	}

	outputPath := filepath.Join(p.Config.VideosDir(), filename)
	return p.Encoder.Assemble(ctx, segments, fps, outputPath)
}

// Run выполняет весь конвейер: текст -> видео. План дополнительно
// сохраняется рядом с видео в YAML для инспекции.
func (p *Project) Run(ctx context.Context, text, themeName, filename string) (*video.VideoArtifact, error) {
	startTime := time.Now()

	input, err := p.Validate(text)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[*] Проверено слайдов: %d (%d строк контента)\n", len(input.Slides), input.TotalContentLines())

	plan := p.Plan(input, themeName)
	fmt.Printf("[*] План: тема %s, общая длительность %dс\n", plan.Theme.Name, plan.TotalDuration)

	renderStart := time.Now()
	paths, err := p.RenderSlides(plan)
	if err != nil {
		return nil, err
	}
	renderTime := time.Since(renderStart)
	fmt.Printf("[>] Готово изображений: %d/%d\n", len(paths), len(plan.Slides))

	filename = safeVideoFilename(filename)

	planPath := filepath.Join(p.Config.VideosDir(), planFilename(filename))
	if err := os.MkdirAll(p.Config.VideosDir(), 0755); err != nil {
		return nil, err
	}
	if err := planner.WritePlan(plan, planPath); err != nil {
		fmt.Printf("[!] Не удалось сохранить план: %v\n", err)
	}

	encodeStart := time.Now()
	artifact, err := p.AssembleVideo(ctx, plan, paths, filename, p.Config.FPS)
	if err != nil {
		return nil, err
	}
	encodeTime := time.Since(encodeStart)

	if p.Config.ShowStats {
		p.reportStats(startTime, renderTime, encodeTime, artifact)
	}

	return artifact, nil
}

// RunDeck собирает видео из готовой PDF-колоды или директории изображений:
// страницы становятся слайдами с фиксированной длительностью.
func (p *Project) RunDeck(ctx context.Context, deckPath, filename string) (*video.VideoArtifact, error) {
	var src source.Source
	var err error

	if strings.HasSuffix(strings.ToLower(deckPath), ".pdf") {
		src, err = source.NewDeckSource(deckPath)
	} else {
		src, err = source.NewImageDirSource(deckPath)
	}
	if err != nil {
		return nil, err
	}
	defer src.Close()

	fmt.Printf("[*] Колода: %s | Страниц: %d\n", deckPath, src.PageCount())

	paths, err := source.ExtractSlides(ctx, src, p.Config.SlidesDir(), p.Config.DeckDPI)
	if err != nil {
		return nil, err
	}

	segments := make([]video.Segment, 0, len(paths))
	for _, path := range paths {
		segments = append(segments, video.Segment{
			ImagePath:       path,
			DurationSeconds: p.Config.DeckPageDuration,
		})
	}

	outputPath := filepath.Join(p.Config.VideosDir(), safeVideoFilename(filename))
	return p.Encoder.Assemble(ctx, segments, p.Config.FPS, outputPath)
}

func (p *Project) reportStats(startTime time.Time, renderTime, encodeTime time.Duration, artifact *video.VideoArtifact) {
	totalTime := time.Since(startTime)

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Total Time: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Slides: %d | Video: %ds @ %d FPS\n",
		totalTime.Seconds(), renderTime.Seconds(), encodeTime.Seconds(),
		artifact.SlideCount, artifact.DurationSeconds, artifact.FPS,
	)

	if snap, err := system.Snapshot(); err == nil {
		report += fmt.Sprintf("CPU: %.1f%% | RSS: %.1f MB\n", snap.CPUPercent, float64(snap.RSSBytes)/(1024*1024))
	}
	report += "----------------------------\n"
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Slides: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | Size: %d bytes\n",
		time.Now().Format("2006-01-02 15:04:05"),
		artifact.SlideCount,
		totalTime.Seconds(),
		renderTime.Seconds(),
		encodeTime.Seconds(),
		artifact.FileSizeBytes,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

// safeVideoFilename приводит имя файла, пришедшее от вызывающего, к голому
// базовому имени: пути и скрытые имена не должны выводить запись за пределы
// videos/.
func safeVideoFilename(name string) string {
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return DefaultVideoFilename
	}
	return name
}

// planFilename: presentation.mp4 -> presentation.plan.yaml
func planFilename(videoFilename string) string {
	base := strings.TrimSuffix(videoFilename, filepath.Ext(videoFilename))
	return base + ".plan.yaml"
}
