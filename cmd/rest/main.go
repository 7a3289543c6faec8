package main

import (
	"context"
	"log"

	"ai-researcher-be/internal/bootstrap"
	"ai-researcher-be/internal/config"
	"ai-researcher-be/internal/server"
	"ai-researcher-be/internal/tracer"
	"ai-researcher-be/pkg/database"
)

func main() {
	// 0. Initialize tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load configuration
	cfg := config.Load()

	// 2. Initialize database
	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap dependencies
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start background services
	go func() {
		log.Println("Background: Starting Recorder Service...")
		if err := container.RecorderService.Consume(context.Background()); err != nil {
			log.Printf("Background Recorder Error: %v", err)
		}
	}()

	// 5. Run server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
