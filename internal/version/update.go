package version

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
)

const (
	RepoOwner = "supportinsights"
	RepoName  = "support-insights"

	// CheckInterval is how long a release lookup stays cached.
	CheckInterval = 24 * time.Hour
)

// UpdateCache stores update check state.
type UpdateCache struct {
	LastUpdateCheck  time.Time `json:"lastUpdateCheck"`
	LastKnownVersion string    `json:"lastKnownVersion"`
	ReleaseURL       string    `json:"releaseUrl,omitempty"`
}

// Release is the latest published release.
type Release struct {
	Version string
	URL     string
	Cached  bool
}

// Checker looks up the latest release through the GitHub API, caching the
// answer on disk for CheckInterval.
type Checker struct {
	client    *github.Client
	cachePath string
	now       func() time.Time

	mu sync.Mutex
}

// NewChecker creates a checker. An empty cachePath disables caching.
func NewChecker(client *github.Client, cachePath string) *Checker {
	return &Checker{client: client, cachePath: cachePath, now: time.Now}
}

// DefaultCachePath returns ~/.support-insights/update-check.json.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".support-insights", "update-check.json"), nil
}

// Latest returns the latest release, from cache when it is fresh.
func (c *Checker) Latest(ctx context.Context) (Release, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachePath != "" {
		cache, err := loadUpdateCache(c.cachePath)
		if err == nil && cache.LastKnownVersion != "" && c.now().Sub(cache.LastUpdateCheck) < CheckInterval {
			return Release{Version: cache.LastKnownVersion, URL: cache.ReleaseURL, Cached: true}, nil
		}
	}

	rel, _, err := c.client.Repositories.GetLatestRelease(ctx, RepoOwner, RepoName)
	if err != nil {
		return Release{}, fmt.Errorf("failed to check for updates: %w", err)
	}
	latest := Release{
		Version: strings.TrimPrefix(rel.GetTagName(), "v"),
		URL:     rel.GetHTMLURL(),
	}

	if c.cachePath != "" {
		cache := &UpdateCache{
			LastUpdateCheck:  c.now(),
			LastKnownVersion: latest.Version,
			ReleaseURL:       latest.URL,
		}
		if err := saveUpdateCache(c.cachePath, cache); err != nil {
			return latest, fmt.Errorf("failed to save update cache: %w", err)
		}
	}
	return latest, nil
}

// UpdateAvailable reports whether latest is a newer release than current.
// Development builds never report an update.
func UpdateAvailable(current, latest string) bool {
	if current == devVersion || latest == "" {
		return false
	}
	return compareVersions(strings.TrimPrefix(latest, "v"), strings.TrimPrefix(current, "v")) > 0
}

// compareVersions compares dotted numeric versions; pre-release suffixes
// after '-' are ignored and missing parts count as zero.
func compareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

func versionParts(v string) []int {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			n = 0
		}
		parts = append(parts, n)
	}
	return parts
}

// loadUpdateCache loads the update cache from disk. A missing or corrupt
// file yields an empty cache.
func loadUpdateCache(path string) (*UpdateCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UpdateCache{}, nil
		}
		return nil, err
	}

	var cache UpdateCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return &UpdateCache{}, nil
	}
	return &cache, nil
}

func saveUpdateCache(path string, cache *UpdateCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
