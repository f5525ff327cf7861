package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"cpu bound", 1.0, 0, cpus},
		{"io bound", 2.0, 0, cpus * 2},
		{"limit caps count", 2.0, 1, 1},
		{"tiny multiplier floors at one", 0.0001, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountEnvOverride(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "7")

	if got := Count(1.0, 0); got != 7 {
		t.Errorf("Count with SCAN_WORKERS=7 = %d, want 7", got)
	}
	if got := Count(1.0, 4); got != 4 {
		t.Errorf("Count with SCAN_WORKERS=7 and limit 4 = %d, want 4", got)
	}
}

func TestCountEnvOverrideInvalid(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "not-a-number")

	cpus := runtime.GOMAXPROCS(0)
	if got := Count(1.0, 0); got != cpus {
		t.Errorf("Count with invalid SCAN_WORKERS = %d, want %d", got, cpus)
	}
}
