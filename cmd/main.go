// Package main is the production entry point for TrackDraft.
//
// TrackDraft renders a track's amplitude waveform and a suite of real-time
// audio visualizers:
// - Event-driven communication (no callbacks)
// - Dependency injection for testability
// - MVP pattern for UI decoupling
// - Repository pattern for data persistence
//
// Build:
//
//	go build -o build/trackdraft ./cmd
//
// Run:
//
//	./build/trackdraft
package main

import (
	"flag"
	"log"

	"github.com/trackdraft/trackdraft/internal/app"
)

func main() {
	config := app.DefaultConfig()

	profile := flag.String("profile", string(config.Profile),
		"rendering profile: auto, full or constrained")
	storage := flag.String("storage", "", "directory for durable state")
	flag.Parse()

	config.Profile = app.ProfileChoice(*profile)
	config.StorageDir = *storage

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer application.Shutdown()

	// Run application (blocks until the window closed)
	application.Run()
}
