package main

import (
	"log"

	"givemepillow/internal/app"
	"givemepillow/internal/config"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := app.Run(cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}
