// Package main implements the entry point for the annotation task
// engine API server: reviewer accounts, work item allocation, review
// state tracking, quality control, and export.
package main

import (
	"log"
)

// main loads configuration, wires the application together, runs
// pending database migrations, and serves HTTP until interrupted.
func main() {
	app, err := newApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.close()

	if err := app.runMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	if err := app.serve(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
