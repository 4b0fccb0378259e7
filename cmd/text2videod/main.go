package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/ivlev/text2video/internal/api"
	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/engine"
	"github.com/ivlev/text2video/internal/render"
	"github.com/ivlev/text2video/internal/system"
	"github.com/ivlev/text2video/internal/video"
)

func main() {
	system.InitResourceLimits()

	configPtr := flag.String("config", "config.yaml", "Путь к YAML-конфигу")
	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	for _, d := range []string{cfg.InputDir(), cfg.SlidesDir(), cfg.VideosDir()} {
		os.MkdirAll(d, 0755)
	}

	encoderName := cfg.VideoEncoder
	if encoderName == "" {
		encoderName = system.DetectEncoder()
	}

	raster := render.NewRaster(render.NewFontCache())
	assembler := video.NewAssembler(encoderName, cfg.Quality)
	project := engine.NewProject(cfg, raster, assembler)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	server := api.NewServer(cfg, project)
	server.Routes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	fmt.Printf("[*] Рабочая директория: %s\n", cfg.WorkspaceDir)
	fmt.Printf("[*] Сервер запущен на %s\n", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("[-] Ошибка сервера: %v", err)
	}
}
