package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staticFixture = `{
	"categories": {
		"luxlite": {
			"indoor": {
				"spotlight": [
					{"P100": {"name": "Track Spot 12W", "price": 45.5, "specificationsTable": {"IP": "65"}}},
					{"P200": {"name": "Track Spot 24W", "price": 89}}
				]
			}
		}
	}
}`

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func writeFixture(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveFindsFirstCandidate(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "products.json", staticFixture)

	r := NewFileResolver([]string{dir}, testLogger())
	path, err := r.Resolve(SourceStatic)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "products.json"), path)
}

func TestResolveHonorsBaseDirPriority(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFixture(t, first, "catalog/products.json", staticFixture)
	writeFixture(t, second, "products.json", staticFixture)

	// Every candidate of the first base dir is tried before the second
	r := NewFileResolver([]string{first, second}, testLogger())
	path, err := r.Resolve(SourceStatic)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "catalog", "products.json"), path)
}

func TestResolveAnyLanguageOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "products.ar.json", staticFixture)
	writeFixture(t, dir, "translations/products.fr.json", staticFixture)

	r := NewFileResolver([]string{dir}, testLogger())

	path, err := r.Resolve(SourceArabic)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "products.ar.json"), path)

	// Overlay kinds are open-ended: any configured language resolves
	path, err = r.Resolve(SourceKind("fr"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "translations", "products.fr.json"), path)
}

func TestResolveMissingSource(t *testing.T) {
	r := NewFileResolver([]string{t.TempDir()}, testLogger())

	_, err := r.Resolve(SourceStatic)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoadParsesAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "products.json", staticFixture)

	r := NewFileResolver([]string{dir}, testLogger())
	doc, err := r.Load(SourceStatic)
	require.NoError(t, err)

	entries := doc.Categories["luxlite"]["indoor"]["spotlight"]
	require.Len(t, entries, 2)
	assert.Equal(t, "Track Spot 12W", entries[0]["P100"].FieldString("name"))
	assert.Equal(t, 45.5, entries[0]["P100"].FieldFloat("price"))

	again, err := r.Load(SourceStatic)
	require.NoError(t, err)
	assert.Same(t, doc, again)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "products.json", "{not json")

	r := NewFileResolver([]string{dir}, testLogger())
	_, err := r.Load(SourceStatic)
	assert.Error(t, err)
}

func TestSpecificationsForIndex(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "products.json", staticFixture)

	r := NewFileResolver([]string{dir}, testLogger())
	doc, err := r.Load(SourceStatic)
	require.NoError(t, err)

	table, ok := doc.SpecificationsFor("P100")
	require.True(t, ok)
	assert.Equal(t, "65", table["IP"])

	_, ok = doc.SpecificationsFor("P200")
	assert.False(t, ok)
}

func TestProductRecordFieldHelpers(t *testing.T) {
	rec := ProductRecord{
		"name":     "Track Spot",
		"price":    "45.5",
		"quantity": 7.0,
		"images":   []interface{}{"a.jpg", 3.0, "b.jpg"},
	}

	assert.Equal(t, "Track Spot", rec.FieldString("name"))
	assert.Equal(t, 45.5, rec.FieldFloat("price"))
	assert.Equal(t, 7, rec.FieldInt("quantity"))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, rec.FieldStrings("images"))
	assert.Equal(t, "", rec.FieldString("missing"))
	assert.Nil(t, rec.FieldStrings("missing"))
}
