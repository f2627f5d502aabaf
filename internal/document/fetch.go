// Package document loads timeline documents from local files or remote
// URLs, keeping an on-disk HTTP cache for the remote ones.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "marktime/internal/log"
)

// Source is one configured document.
type Source struct {
	// Name identifies the document in API responses and logs.
	Name string `yaml:"name" toml:"name" json:"name"`
	// Location is a file path or an http(s) URL.
	Location string `yaml:"location" toml:"location" json:"location"`
}

// Remote reports whether the source is fetched over HTTP.
func (s Source) Remote() bool {
	return strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://")
}

// Result contains the outcome of loading a single document.
type Result struct {
	Source    Source
	Body      []byte
	FromCache bool // true if a cached body was reused (304 or fetch failure)
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Loader reads documents, honoring ETag / Last-Modified for remote ones.
type Loader struct {
	client   *http.Client
	cacheDir string
}

// NewLoader creates a Loader caching remote documents under cacheDir.
func NewLoader(cacheDir string) *Loader {
	if cacheDir == "" {
		cacheDir = "./var/doc-cache"
	}
	return &Loader{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// LoadAll loads every source. Failures are logged and collected; the
// results only hold sources that produced a body.
func (l *Loader) LoadAll(ctx context.Context, sources []Source) ([]Result, []error) {
	results := make([]Result, 0, len(sources))
	errs := make([]error, 0)

	for _, src := range sources {
		res, err := l.Load(ctx, src)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("document load failed", err, "name", src.Name, "location", redactURL(src.Location))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// Load reads one document.
func (l *Loader) Load(ctx context.Context, src Source) (Result, error) {
	if src.Location == "" {
		return Result{}, fmt.Errorf("document %q: location is empty", src.Name)
	}
	if !src.Remote() {
		body, err := os.ReadFile(src.Location)
		if err != nil {
			return Result{}, fmt.Errorf("document %q: %w", src.Name, err)
		}
		return Result{Source: src, Body: body}, nil
	}
	return l.fetch(ctx, src)
}

func (l *Loader) fetch(ctx context.Context, src Source) (Result, error) {
	cachePath := l.cachePathForURL(src.Location)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return Result{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.mw"))
	cached := Result{Source: src, Body: cachedBody, FromCache: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return Result{}, err
	}
	if meta.URL == src.Location {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("document fetch network error, using cached body", err, "name", src.Name, "location", redactURL(src.Location))
			return cached, nil
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, err
		}
		newMeta := cacheEntry{
			URL:          src.Location,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("document cache save failed", err, "name", src.Name)
		}
		appLog.Debug("document fetched", "name", src.Name, "bytes", len(body))
		return Result{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return Result{}, errors.New("document: 304 Not Modified but no cached body available")
		}
		appLog.Debug("document not modified; using cache", "name", src.Name)
		return cached, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("document fetch non-OK, using cached body", errors.New(resp.Status), "name", src.Name, "status", resp.StatusCode)
			return cached, nil
		}
		return Result{}, fmt.Errorf("document %q: %s", src.Name, resp.Status)
	}
}

func (l *Loader) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(l.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.mw"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps the scheme and host of a URL for logging.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return u
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return u[:i+3+j] + "/...(redacted)"
	}
	return u
}
