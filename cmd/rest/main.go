package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"e261-voice-be/internal/bootstrap"
	"e261-voice-be/internal/config"
	"e261-voice-be/internal/model"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/server"
	"e261-voice-be/internal/tracer"
	"e261-voice-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Otel, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database (optional claim archive)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		if err := gormDB.AutoMigrate(&model.ClaimSubmission{}); err != nil {
			log.Panicf("Unable to migrate claim archive: %v", err)
		}
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger)
	defer container.Close()

	// 5. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		sysLogger.Error("MAIN", "Failed to start claim consumer", map[string]interface{}{"error": err.Error()})
	}
	container.NotificationService.Start(ctx)

	// the greeting is requested on every page load; have it ready
	go func() {
		audio := container.VoiceService.RegenerateFirstPrompt(ctx)
		sysLogger.Info("MAIN", "First prompt pre-generated", map[string]interface{}{"bytes": len(audio.Bytes), "media_type": audio.MediaType})
	}()

	// 6. Run Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("MAIN", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := srv.Run(); err != nil {
		sysLogger.Error("MAIN", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
