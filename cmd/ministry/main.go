package main

import (
	"log"

	"github.com/MrSnakeDoc/ministry/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ ministry failed to start: %v", err)
	}
}
