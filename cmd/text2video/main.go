package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/engine"
	"github.com/ivlev/text2video/internal/render"
	"github.com/ivlev/text2video/internal/system"
	"github.com/ivlev/text2video/internal/video"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	configPtr := flag.String("config", "config.yaml", "Путь к YAML-конфигу")
	inputPtr := flag.String("input", "", "Путь к .txt с размеченным текстом (по умолчанию: самый свежий файл в workspace/input/)")
	deckPtr := flag.String("deck", "", "Режим колоды: путь к PDF или папке с изображениями")
	themePtr := flag.String("theme", "", "Тема: corporate_blue, modern_dark, minimal_light, vibrant_purple")
	outputPtr := flag.String("output", "", "Имя видеофайла (по умолчанию presentation.mp4)")
	fpsPtr := flag.Int("fps", 0, "FPS (0 — из конфига)")
	qrPtr := flag.String("qr", "", "Ссылка для QR-кода в углу каждого слайда")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	if *fpsPtr > 0 {
		cfg.FPS = *fpsPtr
	}
	if *statsPtr {
		cfg.ShowStats = true
	}

	// Создаем нужные директории, если их нет
	for _, d := range []string{cfg.InputDir(), cfg.SlidesDir(), cfg.VideosDir()} {
		os.MkdirAll(d, 0755)
	}

	encoderName := cfg.VideoEncoder
	if encoderName == "" {
		encoderName = system.DetectEncoder()
	}
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	raster := render.NewRaster(render.NewFontCache())
	raster.QRLink = *qrPtr
	assembler := video.NewAssembler(encoderName, cfg.Quality)
	project := engine.NewProject(cfg, raster, assembler)

	ctx := context.Background()

	if *deckPtr != "" {
		artifact, err := project.RunDeck(ctx, *deckPtr, *outputPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка проекта: %v", err)
		}
		fmt.Printf("[+++] Успех! Результат: %s (%dс, %d байт)\n", artifact.Path, artifact.DurationSeconds, artifact.FileSizeBytes)
		return
	}

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := system.FindLatestText(cfg.InputDir())
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите .txt в %s", err, cfg.InputDir())
		}
		inputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", inputPath)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения %s: %v", inputPath, err)
	}

	artifact, err := project.Run(ctx, string(data), *themePtr, *outputPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s (%dс, %d слайдов)\n", artifact.Path, artifact.DurationSeconds, artifact.SlideCount)
}
