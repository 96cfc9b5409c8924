// Package update checks GitHub releases for a newer clipstack build.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// GitHubRepo is the repository to check for updates
	GitHubRepo = "mindmorass/clipstack"

	// DefaultAPIURL is the GitHub API root
	DefaultAPIURL = "https://api.github.com"

	// CheckInterval is how long a result is reused by CheckIfNeeded
	CheckInterval = 6 * time.Hour
)

// Release represents a GitHub release
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
}

// Info describes the outcome of a check
type Info struct {
	Available      bool      `json:"available" yaml:"available"`
	CurrentVersion string    `json:"current_version" yaml:"current_version"`
	LatestVersion  string    `json:"latest_version,omitempty" yaml:"latest_version,omitempty"`
	ReleaseURL     string    `json:"release_url,omitempty" yaml:"release_url,omitempty"`
	PublishedAt    time.Time `json:"published_at,omitzero" yaml:"published_at,omitempty"`
}

func (i Info) String() string {
	if !i.Available {
		return fmt.Sprintf("clipstack %s is up to date", i.CurrentVersion)
	}
	return fmt.Sprintf("clipstack %s is available (current %s): %s", i.LatestVersion, i.CurrentVersion, i.ReleaseURL)
}

// Checker queries the latest release
type Checker struct {
	APIURL string
	Repo   string

	currentVersion string
	httpClient     *http.Client

	mu         sync.Mutex
	lastCheck  time.Time
	lastResult *Info
}

// NewChecker creates a new update checker
func NewChecker(currentVersion string) *Checker {
	return &Checker{
		APIURL:         DefaultAPIURL,
		Repo:           GitHubRepo,
		currentVersion: currentVersion,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Check fetches the latest release from GitHub
func (c *Checker) Check(ctx context.Context) (*Info, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimSuffix(c.APIURL, "/"), c.Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "clipstack-update-checker")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch release: %w", err)
	}
	defer resp.Body.Close()

	info := &Info{CurrentVersion: c.currentVersion}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// No releases yet
		return c.remember(info), nil
	default:
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	if release.Prerelease || release.Draft {
		return c.remember(info), nil
	}

	info.Available = IsNewer(release.TagName, c.currentVersion)
	info.LatestVersion = release.TagName
	info.ReleaseURL = release.HTMLURL
	info.PublishedAt = release.PublishedAt
	return c.remember(info), nil
}

func (c *Checker) remember(info *Info) *Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCheck = time.Now()
	c.lastResult = info
	return info
}

// CheckIfNeeded returns the cached result unless CheckInterval has passed
func (c *Checker) CheckIfNeeded(ctx context.Context) (*Info, error) {
	c.mu.Lock()
	last, at := c.lastResult, c.lastCheck
	c.mu.Unlock()

	if last != nil && time.Since(at) < CheckInterval {
		return last, nil
	}
	return c.Check(ctx)
}

// LastResult returns the last check result without making a request
func (c *Checker) LastResult() *Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

// IsNewer reports whether latest is a higher major.minor.patch than current.
// Development builds never report updates.
func IsNewer(latest, current string) bool {
	if current == "dev" || current == "" {
		return false
	}

	l, c := parseVersion(latest), parseVersion(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

// parseVersion parses "v1.2.3-rc1" into [1 2 3]
func parseVersion(v string) [3]int {
	var parts [3]int
	v = strings.TrimPrefix(v, "v")
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}

	for i, seg := range strings.SplitN(v, ".", 3) {
		parts[i], _ = strconv.Atoi(seg)
	}
	return parts
}
