package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tunevault/internal/catalog"
	"tunevault/internal/handlers"
	"tunevault/internal/logging"
	"tunevault/internal/metrics"
	"tunevault/internal/middleware"
	"tunevault/internal/musictypes"
	"tunevault/internal/scanner"
	"tunevault/internal/startup"
	"tunevault/internal/workers"
)

func main() {
	bootStart := time.Now()

	cfg, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	dbStart := time.Now()
	cat, err := catalog.New(ctx, cfg.DatabasePath)
	if err != nil {
		startup.LogFatal("Database error: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	// Register configured music directories as library folders. Already
	// registered paths are left alone so folders added via the API survive
	// restarts.
	for _, dir := range cfg.MusicDirs {
		if _, err := cat.AddFolder(ctx, dir); err != nil && !errors.Is(err, catalog.ErrFolderExists) {
			startup.LogFatal("Failed to register music directory %s: %v", dir, err)
		}
	}

	if stats, err := cat.CalculateStats(ctx); err == nil {
		cat.UpdateStats(stats)
		logging.Info("Catalog: %d songs, %d artists, %d albums, %d genres",
			stats.TotalSongs, stats.TotalArtists, stats.TotalAlbums, stats.TotalGenres)
	}

	// Scanner
	workerCount := cfg.ScanWorkers
	if workerCount <= 0 {
		workerCount = workers.ForIO(32)
	}
	exts := musictypes.ParseExtensionList(cfg.AudioExtensions)
	manager := scanner.NewManager(cat, exts, workerCount)
	manager.Start(cfg.ScanInterval)
	startup.LogScannerInit(cfg.ScanInterval, workerCount)

	if _, err := manager.TriggerScan(ctx); err != nil {
		logging.Warn("Initial scan failed to start: %v", err)
	}

	// Filesystem watcher
	if cfg.WatchEnabled {
		watcher, err := scanner.NewWatcher(manager, cfg.MusicDirs)
		if err != nil {
			logging.Warn("Filesystem watcher unavailable: %v", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	// HTTP API
	h := handlers.New(cat, manager)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	var handler http.Handler = middleware.Logging(cfg.LogHealthChecks)(router)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    ":" + cfg.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			logging.Info("Metrics listening on :%s", cfg.MetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("metrics server: %v", err)
			}
		}()
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startup.LogFatal("Server error: %v", err)
		}
	}()
	startup.LogServerStarted(cfg.Port, time.Since(bootStart))

	// Periodic DB gauge refresh until shutdown.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cat.UpdateDBMetrics()
			}
		}
	}()

	<-ctx.Done()
	handleShutdown(server, metricsServer, manager, cat)
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	router := mux.NewRouter()

	// Registered on the router itself: the matched route template the path
	// label needs is only attached to the request during mux dispatch.
	router.Use(middleware.Metrics)

	// Health and build info
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/livez", h.Liveness).Methods("GET")
	router.HandleFunc("/readyz", h.Readiness).Methods("GET")
	router.HandleFunc("/version", h.Version).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Library
	api.HandleFunc("/songs", h.ListSongs).Methods("GET")
	api.HandleFunc("/songs/{id:[0-9]+}", h.GetSong).Methods("GET")
	api.HandleFunc("/songs/{id:[0-9]+}/play", h.PlaySong).Methods("POST")
	api.HandleFunc("/artists", h.ListArtists).Methods("GET")
	api.HandleFunc("/albums", h.ListAlbums).Methods("GET")
	api.HandleFunc("/genres", h.ListGenres).Methods("GET")
	api.HandleFunc("/stats", h.Stats).Methods("GET")

	// Folders and scanning
	api.HandleFunc("/folders", h.ListFolders).Methods("GET")
	api.HandleFunc("/folders", h.AddFolder).Methods("POST")
	api.HandleFunc("/folders/{id:[0-9]+}", h.RemoveFolder).Methods("DELETE")
	api.HandleFunc("/scan", h.TriggerScan).Methods("POST")
	api.HandleFunc("/scan", h.CancelScan).Methods("DELETE")
	api.HandleFunc("/scan/progress", h.ScanProgress).Methods("GET")

	// Playlists
	api.HandleFunc("/playlists", h.ListPlaylists).Methods("GET")
	api.HandleFunc("/playlists", h.CreatePlaylist).Methods("POST")
	api.HandleFunc("/playlists/import", h.ImportPlaylist).Methods("POST")
	api.HandleFunc("/playlists/{id:[0-9]+}", h.GetPlaylist).Methods("GET")
	api.HandleFunc("/playlists/{id:[0-9]+}", h.UpdatePlaylist).Methods("PUT")
	api.HandleFunc("/playlists/{id:[0-9]+}", h.DeletePlaylist).Methods("DELETE")
	api.HandleFunc("/playlists/{id:[0-9]+}/songs", h.SetPlaylistSongs).Methods("PUT")
	api.HandleFunc("/playlists/{id:[0-9]+}/export", h.ExportPlaylist).Methods("GET")

	return router
}

func handleShutdown(server, metricsServer *http.Server, manager *scanner.Manager, cat *catalog.Catalog) {
	startup.LogShutdownInitiated("signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP shutdown: %v", err)
	}
	if metricsServer != nil {
		startup.LogShutdownStep("Stopping metrics server")
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("metrics shutdown: %v", err)
		}
	}

	startup.LogShutdownStep("Stopping scanner")
	manager.Stop()

	startup.LogShutdownStep("Closing database")
	if err := cat.Close(); err != nil {
		logging.Error("database close: %v", err)
	}

	startup.LogShutdownComplete()
	os.Exit(0)
}
