package main

import (
	"flag"
	"log"

	"kalprint/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine, the config file and environment still apply.
	_ = godotenv.Load()

	configPath := flag.String("config", "./config/config.yaml", "path to the YAML config file")
	mode := flag.String("mode", "both", "what to run: bot, web or both")
	migrate := flag.Bool("migrate", true, "apply database migrations on startup")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := app.Run(app.Options{
		ConfigPath: *configPath,
		Mode:       *mode,
		Migrate:    *migrate,
		Verbose:    *verbose,
	}); err != nil {
		log.Fatalf("kalprint: %v", err)
	}
}
