// Package metrics defines the Prometheus collectors exported by the music
// library server: HTTP request metrics, database query metrics, scanner
// pipeline metrics, and smart playlist evaluation metrics.
//
// All collectors are registered via promauto at package load time and served
// from a dedicated metrics port (see main.go).
package metrics
