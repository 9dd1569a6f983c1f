package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/standup-board/internal/config"
	"github.com/yukikurage/standup-board/internal/database"
	"github.com/yukikurage/standup-board/internal/handlers"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.Seed {
		if err := database.Seed(database.GetDB()); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	r := handlers.NewRouter(nil)

	// Start server
	log.Printf("Collaborator starting on %s", cfg.CollabAddr)
	if err := r.Run(cfg.CollabAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
