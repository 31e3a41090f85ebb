package utils

import (
	"os"
	"runtime"
	"strconv"
)

// GetSemaphoreLimit returns the default concurrency limit. The
// SEMAPHORE_LIMIT environment variable overrides the CPU count.
func GetSemaphoreLimit() int {
	if val := os.Getenv("SEMAPHORE_LIMIT"); val != "" {
		if limit, err := strconv.Atoi(val); err == nil && limit > 0 {
			return limit
		}
	}
	return runtime.NumCPU()
}
