package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// SourceKind identifies one of the catalog input files
type SourceKind string

const (
	SourceStatic  SourceKind = "static"
	SourceArabic  SourceKind = "ar"
	SourceEnglish SourceKind = "en"
)

// ErrSourceNotFound is returned when no candidate path resolves for a source
var ErrSourceNotFound = errors.New("catalog source file not found")

// candidatePaths lists the relative paths tried for a source, in priority
// order, against every configured base directory. Overlay kinds are the
// language code, so any configured language resolves its own file.
func candidatePaths(kind SourceKind) []string {
	if kind == SourceStatic {
		return []string{
			"products.json",
			"catalog/products.json",
			"static/products.json",
		}
	}
	name := fmt.Sprintf("products.%s.json", kind)
	return []string{
		name,
		"catalog/" + name,
		"translations/" + name,
	}
}

// ProductRecord is the free-form JSON object describing one product
type ProductRecord map[string]interface{}

// ProductEntry maps a productId to its record. Source files emit these as
// single-key objects but nothing depends on that.
type ProductEntry map[string]ProductRecord

// CategoryGroup maps a lighting-type name to its product entries
type CategoryGroup map[string][]ProductEntry

// BrandCatalog maps a category name to its lighting-type groups
type BrandCatalog map[string]CategoryGroup

// Catalog is the parsed root of one catalog source file
type Catalog struct {
	Categories map[string]BrandCatalog `json:"categories"`

	specsIndex map[string]map[string]interface{}
}

// SpecificationsTable returns the raw specification table embedded in the
// record, or nil when absent.
func (r ProductRecord) SpecificationsTable() map[string]interface{} {
	if table, ok := r["specificationsTable"].(map[string]interface{}); ok {
		return table
	}
	return nil
}

// FieldString reads a string field, returning "" for missing or non-string values
func (r ProductRecord) FieldString(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// FieldFloat reads a numeric field, tolerating numeric strings
func (r ProductRecord) FieldFloat(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f
		}
	}
	return 0
}

// FieldInt reads an integer field, flooring floats
func (r ProductRecord) FieldInt(key string) int {
	return int(r.FieldFloat(key))
}

// FieldStrings reads an array field, keeping only string elements
func (r ProductRecord) FieldStrings(key string) []string {
	raw, ok := r[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// indexSpecifications builds the productId → specification-table index.
// Called once at load time so concurrent readers never mutate the catalog.
func (c *Catalog) indexSpecifications() {
	c.specsIndex = make(map[string]map[string]interface{})
	for _, brand := range c.Categories {
		for _, group := range brand {
			for _, entries := range group {
				for _, entry := range entries {
					for id, record := range entry {
						if table := record.SpecificationsTable(); table != nil {
							c.specsIndex[id] = table
						}
					}
				}
			}
		}
	}
}

// SpecificationsFor returns the specification table of a product anywhere in
// this catalog.
func (c *Catalog) SpecificationsFor(productID string) (map[string]interface{}, bool) {
	table, ok := c.specsIndex[productID]
	return table, ok
}

// FileResolver locates and parses catalog source files. Resolved paths and
// parsed documents are cached for the lifetime of the resolver, which is one
// import run.
type FileResolver struct {
	baseDirs []string
	logger   *logrus.Entry

	mu     sync.Mutex
	paths  map[SourceKind]string
	parsed map[SourceKind]*Catalog
}

// NewFileResolver creates a resolver searching the given base directories
func NewFileResolver(baseDirs []string, logger *logrus.Entry) *FileResolver {
	return &FileResolver{
		baseDirs: baseDirs,
		logger:   logger,
		paths:    make(map[SourceKind]string),
		parsed:   make(map[SourceKind]*Catalog),
	}
}

// Resolve finds the first existing candidate path for a source kind
func (r *FileResolver) Resolve(kind SourceKind) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(kind)
}

func (r *FileResolver) resolveLocked(kind SourceKind) (string, error) {
	if path, ok := r.paths[kind]; ok {
		return path, nil
	}
	for _, dir := range r.baseDirs {
		for _, rel := range candidatePaths(kind) {
			path := filepath.Join(dir, rel)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				r.logger.WithFields(logrus.Fields{"source": kind, "path": path}).Info("resolved catalog source")
				r.paths[kind] = path
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s (searched %d base dirs)", ErrSourceNotFound, kind, len(r.baseDirs))
}

// Load resolves, reads and parses a source file, caching the result
func (r *FileResolver) Load(kind SourceKind) (*Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc, ok := r.parsed[kind]; ok {
		return doc, nil
	}

	path, err := r.resolveLocked(kind)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc.indexSpecifications()

	r.parsed[kind] = &doc
	return &doc, nil
}
