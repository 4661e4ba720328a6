// Package catalog loads the test-page catalog from a pages directory.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hiwave/renderbench/models"
)

var (
	// ErrManifestNotFound means the pages directory or manifest is absent
	// and no HTML fallback was possible.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrManifestMalformed means manifest.json exists but is not valid.
	ErrManifestMalformed = errors.New("manifest malformed")
	// ErrManifestEmpty means the catalog resolved to zero usable pages.
	ErrManifestEmpty = errors.New("manifest declares no pages")
)

// ManifestName is the catalog file looked up inside the pages directory.
const ManifestName = "manifest.json"

type manifest struct {
	Pages []manifestEntry `json:"pages"`
}

type manifestEntry struct {
	File       string                 `json:"file"`
	Name       string                 `json:"name"`
	Complexity *models.PageComplexity `json:"complexity"`
}

// Load reads the page catalog from pagesDir. If manifest.json is present it
// is authoritative; manifest entries whose file is missing are skipped with
// a warning. Without a manifest, every *.html file in the directory is
// loaded and its complexity descriptor is derived from the markup itself.
func Load(logger *slog.Logger, pagesDir string) ([]models.TestPage, error) {
	if _, err := os.Stat(pagesDir); err != nil {
		return nil, fmt.Errorf("%w: pages dir %s", ErrManifestNotFound, pagesDir)
	}

	manifestPath := filepath.Join(pagesDir, ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return loadFromManifest(logger, pagesDir, manifestPath)
	}
	return loadFromGlob(logger, pagesDir)
}

func loadFromManifest(logger *slog.Logger, pagesDir, manifestPath string) ([]models.TestPage, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestNotFound, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	if len(m.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrManifestEmpty, manifestPath)
	}

	var pages []models.TestPage
	for _, entry := range m.Pages {
		if entry.File == "" || entry.Name == "" {
			return nil, fmt.Errorf("%w: entry missing file or name", ErrManifestMalformed)
		}
		pagePath := filepath.Join(pagesDir, entry.File)
		htmlData, err := os.ReadFile(pagePath)
		if err != nil {
			logger.Warn("skipping manifest entry, page file unreadable", "file", entry.File, "error", err)
			continue
		}
		page := models.TestPage{ID: entry.Name, HTML: string(htmlData)}
		if entry.Complexity != nil {
			page.Complexity = *entry.Complexity
		} else {
			page.Complexity = deriveComplexity(string(htmlData))
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no manifest entry resolved to a readable page", ErrManifestEmpty)
	}
	return pages, nil
}

func loadFromGlob(logger *slog.Logger, pagesDir string) ([]models.TestPage, error) {
	matches, err := filepath.Glob(filepath.Join(pagesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestNotFound, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no manifest.json and no *.html in %s", ErrManifestNotFound, pagesDir)
	}
	sort.Strings(matches)

	var pages []models.TestPage
	for _, path := range matches {
		htmlData, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable page", "file", path, "error", err)
			continue
		}
		pages = append(pages, models.TestPage{
			ID:         filepath.Base(path),
			HTML:       string(htmlData),
			Complexity: deriveComplexity(string(htmlData)),
		})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrManifestEmpty, pagesDir)
	}
	return pages, nil
}

// deriveComplexity computes the complexity descriptor from markup, for
// pages that carry no manifest entry.
func deriveComplexity(content string) models.PageComplexity {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return models.PageComplexity{}
	}

	c := models.PageComplexity{
		ElementCount: doc.Find("*").Length(),
	}
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if d := nodeDepth(s); d > c.DOMDepth {
			c.DOMDepth = d
		}
	})
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		c.CSSRules += strings.Count(s.Text(), "{")
	})
	return c
}

func nodeDepth(s *goquery.Selection) int {
	depth := 0
	for _, node := range s.Nodes {
		d := 0
		for n := node; n != nil; n = n.Parent {
			if n.Type == html.ElementNode {
				d++
			}
		}
		if d > depth {
			depth = d
		}
	}
	return depth
}
