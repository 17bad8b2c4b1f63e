package main

import (
	"log"

	"github.com/joho/godotenv"

	"bizinsight/internal"
	"bizinsight/internal/config"
	"bizinsight/internal/container"
	"bizinsight/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	c, err := container.New(appConfig, logger, container.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := ui.NewApp(c.DashboardService, ui.Config{
		Port:           appConfig.Server.Port,
		MaxUploadBytes: appConfig.Upload.MaxUploadBytes(),
	}, logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Fatal(app.Start())
}
