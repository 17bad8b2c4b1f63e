package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bizinsight/internal"
	"bizinsight/internal/config"
	"bizinsight/internal/container"
	"bizinsight/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	gin.SetMode(appConfig.Server.GinMode)

	c, err := container.New(appConfig, logger, container.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	server, err := ui.NewServer(c.DashboardService, ui.Config{
		Port:           appConfig.Server.Port,
		MaxUploadBytes: appConfig.Upload.MaxUploadBytes(),
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
