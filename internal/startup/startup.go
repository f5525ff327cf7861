package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"tunevault/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	MusicDirs       []string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	ScanInterval    time.Duration
	ScanWorkers     int
	AudioExtensions string
	WatchEnabled    bool
	LogHealthChecks bool
	MetricsEnabled  bool

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	musicDirs := getEnv("MUSIC_DIRS", "/music")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	scanIntervalStr := getEnv("SCAN_INTERVAL", "30m")
	scanWorkers := getEnvInt("SCAN_WORKERS", 0)
	audioExtensions := getEnv("AUDIO_EXTENSIONS", "")
	watchEnabled := getEnvBool("WATCH_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  MUSIC_DIRS:        %s", musicDirs)
	logging.Info("  DATABASE_DIR:      %s", databaseDir)
	logging.Info("  PORT:              %s", port)
	logging.Info("  METRICS_PORT:      %s", metricsPort)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  SCAN_INTERVAL:     %s", scanIntervalStr)
	logging.Info("  SCAN_WORKERS:      %d (0 = auto)", scanWorkers)
	logging.Info("  AUDIO_EXTENSIONS:  %s", orDefault(audioExtensions, "(built-in list)"))
	logging.Info("  WATCH_ENABLED:     %v", watchEnabled)
	logging.Info("  LOG_HEALTH_CHECKS: %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	scanInterval, err := time.ParseDuration(scanIntervalStr)
	if err != nil {
		logging.Warn("  Invalid SCAN_INTERVAL, using default: 30m")
		scanInterval = 30 * time.Minute
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var roots []string
	for _, dir := range filepath.SplitList(musicDirs) {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve music directory %q: %w", dir, err)
		}
		if info, err := os.Stat(abs); err != nil {
			logging.Warn("  Music directory %s is not accessible: %v", abs, err)
		} else if !info.IsDir() {
			return nil, fmt.Errorf("music path %s is not a directory", abs)
		}
		logging.Info("  Music directory: %s", abs)
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no music directories configured (set MUSIC_DIRS)")
	}

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	if err := ensureDirectory(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory unusable: %w", err)
	}
	logging.Info("  Database directory: %s", databaseDir)

	return &Config{
		MusicDirs:       roots,
		DatabaseDir:     databaseDir,
		Port:            port,
		MetricsPort:     metricsPort,
		ScanInterval:    scanInterval,
		ScanWorkers:     scanWorkers,
		AudioExtensions: audioExtensions,
		WatchEnabled:    watchEnabled,
		LogHealthChecks: logHealthChecks,
		MetricsEnabled:  metricsEnabled,
		DatabasePath:    filepath.Join(databaseDir, "library.db"),
	}, nil
}

// ensureDirectory creates the directory if missing and verifies it is writable.
func ensureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	probe := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}

func printBanner() {
	logging.Printf("============================================================")
	logging.Printf(" tunevault %s (commit %s)", Version, Commit)
	logging.Printf(" built %s with %s, %s/%s", BuildTime, GoVersion, runtime.GOOS, runtime.GOARCH)
	logging.Printf("============================================================")
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// LogFatal logs a fatal error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// LogDatabaseInit logs database initialization timing.
func LogDatabaseInit(elapsed time.Duration) {
	logging.Info("Database ready in %v", elapsed.Truncate(time.Millisecond))
}

// LogScannerInit logs scanner initialization.
func LogScannerInit(interval time.Duration, workers int) {
	logging.Info("Scanner initialized (rescan interval %v, %d workers)", interval, workers)
}

// LogServerStarted logs the final startup line with total boot time.
func LogServerStarted(port string, elapsed time.Duration) {
	logging.Info("Listening on :%s (started in %v)", port, elapsed.Truncate(time.Millisecond))
}

// LogShutdownInitiated logs the start of graceful shutdown.
func LogShutdownInitiated(signal string) {
	logging.Info("Received %s, shutting down...", signal)
}

// LogShutdownStep logs a single shutdown step.
func LogShutdownStep(step string) {
	logging.Info("  %s...", step)
}

// LogShutdownComplete logs the end of graceful shutdown.
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}

// LogHTTPRoutes walks the router and logs every registered route, sorted by
// path, so the startup log documents the API surface.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	type routeInfo struct {
		methods string
		path    string
	}
	var routes []routeInfo

	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		if !logHealthChecks && isHealthPath(path) {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			// Path-prefix routes (static handlers) carry no methods.
			methods = []string{"*"}
		}
		routes = append(routes, routeInfo{methods: strings.Join(methods, ","), path: path})
		return nil
	})

	sort.Slice(routes, func(i, j int) bool { return routes[i].path < routes[j].path })

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP ROUTES")
	logging.Info("------------------------------------------------------------")
	for _, r := range routes {
		logging.Info("  %-12s %s", r.methods, r.path)
	}
	logging.Info("")
}

func isHealthPath(path string) bool {
	switch path {
	case "/health", "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}
