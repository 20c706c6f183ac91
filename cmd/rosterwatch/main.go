package main

import (
	"log"

	"github.com/fleetline/rosterwatch/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ rosterwatch failed to start: %v", err)
	}
}
