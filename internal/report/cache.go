// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/callwatchio/callwatch/internal/models"
)

// Decision is the outcome of a cache freshness check.
type Decision int

const (
	// Reuse means every required artifact exists and is within TTL.
	Reuse Decision = iota
	// Regenerate means at least one artifact is missing, expired, or
	// unreadable, or the caller forced a refresh.
	Regenerate
)

func (d Decision) String() string {
	if d == Reuse {
		return "reuse"
	}
	return "regenerate"
}

// Cache decides whether persisted artifacts for a window are fresh
// enough to serve, and serializes generation per window key so
// concurrent requests for the same window regenerate at most once.
type Cache struct {
	outputDir string

	// keyLocks holds one *sync.Mutex per window key for the process
	// lifetime. Cardinality is bounded by the distinct date windows ever
	// requested, a few bytes each, so there is no eviction.
	keyLocks sync.Map

	// now is swappable for tests.
	now func() time.Time
}

// NewCache creates a cache over the given artifact directory.
func NewCache(outputDir string) *Cache {
	return &Cache{outputDir: outputDir, now: time.Now}
}

// artifact filename patterns, keyed by window.
const (
	tableFilePattern   = "user_failure_stats_%s.csv"
	chartFilePattern   = "user_failure_rates_%s.html"
	summaryFilePattern = "user_failure_summary_%s.json"
)

// Paths returns the artifact file locations for a window key. TableFile
// is empty when CSV export is disabled.
func (c *Cache) Paths(key string, exportCSV bool) models.ArtifactPaths {
	paths := models.ArtifactPaths{
		ChartFile: filepath.Join(c.outputDir, fmt.Sprintf(chartFilePattern, key)),
	}
	if exportCSV {
		paths.TableFile = filepath.Join(c.outputDir, fmt.Sprintf(tableFilePattern, key))
	}
	return paths
}

// summaryPath returns the location of the JSON summary sidecar that lets
// cache hits answer without re-running the analysis.
func (c *Cache) summaryPath(key string) string {
	return filepath.Join(c.outputDir, fmt.Sprintf(summaryFilePattern, key))
}

// Resolve decides whether the window's artifacts can be reused.
//
// Fresh means every required file (HTML always, CSV when exported, plus
// the summary sidecar) exists with a modification time within ttl of
// now. A partially-missing or partially-expired set regenerates as a
// whole. force always regenerates. Unreadable file metadata counts as
// not fresh rather than risking a stale serve.
func (c *Cache) Resolve(window Window, ttl time.Duration, force, exportCSV bool) Decision {
	if force {
		return Regenerate
	}

	key := window.Key()
	paths := c.Paths(key, exportCSV)

	required := []string{paths.ChartFile, c.summaryPath(key)}
	if exportCSV {
		required = append(required, paths.TableFile)
	}

	cutoff := c.now().Add(-ttl)
	for _, path := range required {
		info, err := os.Stat(path)
		if err != nil {
			return Regenerate
		}
		if info.ModTime().Before(cutoff) {
			return Regenerate
		}
	}
	return Reuse
}

// LockWindow acquires the per-key mutex for a window and returns the
// unlock function. Requests for different windows proceed independently.
func (c *Cache) LockWindow(key string) func() {
	val, _ := c.keyLocks.LoadOrStore(key, &sync.Mutex{})
	mu := val.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
