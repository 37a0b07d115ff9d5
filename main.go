package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/waitline/waitline/api"
	"github.com/waitline/waitline/internal/config"
	"github.com/waitline/waitline/internal/storage"
	"github.com/waitline/waitline/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "waitline.db", "Path to the results database")
	camerasCfg = flag.String("cameras", "", "Path to the camera registry JSON (optional)")
	tuningCfg  = flag.String("config", "", "Path to the analysis tuning JSON (optional)")
)

func main() {
	flag.Parse()

	log.Printf("waitline %s (%s)", version.Version, version.GitSHA)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning := config.EmptyAnalysisConfig()
	if *tuningCfg != "" {
		var err error
		tuning, err = config.LoadAnalysisConfig(*tuningCfg)
		if err != nil {
			log.Fatalf("Failed to load analysis config: %v", err)
		}
	}

	var cameras *config.CameraRegistry
	if *camerasCfg != "" {
		var err error
		cameras, err = config.LoadCameraRegistry(*camerasCfg)
		if err != nil {
			log.Fatalf("Failed to load camera registry: %v", err)
		}
	}

	store, err := storage.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open results database: %v", err)
	}
	defer store.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (SQL console, backup)
		if err := store.AttachAdminRoutes(mux); err != nil {
			log.Fatalf("failed to attach admin routes: %v", err)
		}

		apiMux := api.NewServer(store, cameras, tuning).ServeMux()
		mux.Handle("/", apiMux)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
