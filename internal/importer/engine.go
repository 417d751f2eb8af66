package importer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/catalog"
	"catalog-import-service/internal/models"
)

// SyncStore is the persistence surface the engine drives. Implemented by
// repository.SyncRepository; mocked in tests.
type SyncStore interface {
	SeedSlugCaches(ctx context.Context) error
	EnsureCategory(ctx context.Context, name string) (*models.Category, error)
	EnsureLightingType(ctx context.Context, name string) (*models.LightingType, error)
	UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpsertSpecification(ctx context.Context, spec *models.ProductSpecification) error
}

// Level identifies a node kind in the brand/category/lighting-type walk
type Level string

const (
	LevelBrand         Level = "brand"
	LevelCategory      Level = "category"
	LevelLightingType  Level = "lightingType"
	LevelProduct       Level = "product"
	LevelSpecification Level = "specification"
)

// ProductState tracks how far one product progressed before finishing or
// being skipped.
type ProductState string

const (
	StateDiscovered       ProductState = "Discovered"
	StateSpecsResolved    ProductState = "SpecsResolved"
	StateNormalized       ProductState = "Normalized"
	StateProductPersisted ProductState = "ProductPersisted"
	StateSpecsPersisted   ProductState = "SpecsPersisted"
	StateDone             ProductState = "Done"
	StateSkipped          ProductState = "Skipped"
)

// Outcome records the result of visiting one node of the catalog tree
type Outcome struct {
	Level   Level
	Key     string
	State   ProductState
	Skipped bool
	Err     error
}

// Summary aggregates one full import run
type Summary struct {
	Brands               int
	Categories           int
	CategoriesSkipped    int
	LightingTypes        int
	LightingTypesSkipped int
	Products             int
	ProductsSkipped      int
	SpecRows             int
	SpecFailures         int
	Duration             time.Duration
	Outcomes             []Outcome
	Metrics              MetricsSnapshot
}

// EngineConfig wires an Engine for one run
type EngineConfig struct {
	Files           *catalog.FileResolver
	Specs           *catalog.SpecificationProcessor
	Store           SyncStore
	Metrics         *Metrics
	Logger          *logrus.Entry
	ChunkSize       int
	PrimaryLanguage string
	Languages       []string
}

// Engine orchestrates the brand → category → lighting-type → product walk.
// Failures are isolated per tree level: an error at one node skips its
// subtree and never its siblings.
type Engine struct {
	files   *catalog.FileResolver
	specs   *catalog.SpecificationProcessor
	store   SyncStore
	batch   *BatchProcessor
	metrics *Metrics
	logger  *logrus.Entry

	primaryLanguage string
	languages       []string

	mu      sync.Mutex
	summary Summary
}

// NewEngine creates an engine for a single import run
func NewEngine(cfg EngineConfig) *Engine {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"ar", "en"}
	}
	primary := cfg.PrimaryLanguage
	if primary == "" {
		primary = languages[0]
	}
	return &Engine{
		files:           cfg.Files,
		specs:           cfg.Specs,
		store:           cfg.Store,
		batch:           NewBatchProcessor(cfg.ChunkSize, cfg.Logger),
		metrics:         metrics,
		logger:          cfg.Logger,
		primaryLanguage: primary,
		languages:       languages,
	}
}

// Run executes the full import. Only a missing/unparseable required file or
// an unreachable store is fatal; everything below brand level is isolated.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	static, err := e.files.Load(catalog.SourceStatic)
	if err != nil {
		return nil, err
	}

	if err := e.store.SeedSlugCaches(ctx); err != nil {
		return nil, err
	}

	overlays := e.loadOverlays()

	for _, brand := range sortedKeys(static.Categories) {
		brandStart := time.Now()
		e.visitBrand(ctx, brand, static.Categories[brand], overlays)
		e.logger.WithFields(logrus.Fields{
			"brand":   brand,
			"elapsed": time.Since(brandStart).Round(time.Millisecond).String(),
		}).Info("brand processed")
	}

	e.mu.Lock()
	summary := e.summary
	e.mu.Unlock()
	summary.Duration = time.Since(start)
	summary.Metrics = e.metrics.Snapshot()
	return &summary, nil
}

func (e *Engine) loadOverlays() map[string]*catalog.Catalog {
	overlays := make(map[string]*catalog.Catalog, len(e.languages))
	for _, language := range e.languages {
		overlay, err := e.files.Load(catalog.SourceKind(language))
		if err != nil {
			e.metrics.Warning()
			e.logger.WithError(err).WithField("language", language).Warn("overlay file unavailable, continuing without it")
			continue
		}
		overlays[language] = overlay
	}
	return overlays
}

func (e *Engine) visitBrand(ctx context.Context, brand string, tree catalog.BrandCatalog, overlays map[string]*catalog.Catalog) {
	e.record(Outcome{Level: LevelBrand, Key: brand})
	e.count(func(s *Summary) { s.Brands++ })

	for _, categoryName := range sortedKeys(tree) {
		e.visitCategory(ctx, brand, categoryName, tree[categoryName], overlays)
	}
}

func (e *Engine) visitCategory(ctx context.Context, brand, categoryName string, group catalog.CategoryGroup, overlays map[string]*catalog.Catalog) {
	cat, err := e.store.EnsureCategory(ctx, categoryName)
	if err != nil {
		e.metrics.Error()
		e.logger.WithError(err).WithFields(logrus.Fields{"brand": brand, "category": categoryName}).Error("skipping category subtree")
		e.record(Outcome{Level: LevelCategory, Key: categoryName, Skipped: true, Err: err})
		e.count(func(s *Summary) { s.CategoriesSkipped++ })
		return
	}
	e.record(Outcome{Level: LevelCategory, Key: categoryName})
	e.count(func(s *Summary) { s.Categories++ })

	for _, lightingTypeName := range sortedKeys(group) {
		e.visitLightingType(ctx, brand, cat, lightingTypeName, group[lightingTypeName], overlays)
	}
}

type productItem struct {
	id     string
	record catalog.ProductRecord
}

func (e *Engine) visitLightingType(ctx context.Context, brand string, cat *models.Category, lightingTypeName string, entries []catalog.ProductEntry, overlays map[string]*catalog.Catalog) {
	lt, err := e.store.EnsureLightingType(ctx, lightingTypeName)
	if err != nil {
		e.metrics.Error()
		e.logger.WithError(err).WithFields(logrus.Fields{"brand": brand, "lightingType": lightingTypeName}).Error("skipping lighting type subtree")
		e.record(Outcome{Level: LevelLightingType, Key: lightingTypeName, Skipped: true, Err: err})
		e.count(func(s *Summary) { s.LightingTypesSkipped++ })
		return
	}
	e.record(Outcome{Level: LevelLightingType, Key: lightingTypeName})
	e.count(func(s *Summary) { s.LightingTypes++ })

	items := make([]productItem, 0, len(entries))
	for _, entry := range entries {
		ids := make([]string, 0, len(entry))
		for id := range entry {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			items = append(items, productItem{id: id, record: entry[id]})
		}
	}

	label := brand + "/" + cat.Name + "/" + lightingTypeName
	err = e.batch.Process(ctx, label, len(items), func(ctx context.Context, index int) error {
		e.processProduct(ctx, brand, cat, lt, items[index], overlays)
		return nil
	})
	if err != nil {
		e.metrics.Error()
		e.logger.WithError(err).WithField("lightingType", lightingTypeName).Error("batch aborted")
	}
}

// processProduct advances one product through the import state machine. All
// errors are item- or field-scoped: they are logged and recorded, never
// propagated into the batch.
func (e *Engine) processProduct(ctx context.Context, brand string, cat *models.Category, lt *models.LightingType, item productItem, overlays map[string]*catalog.Catalog) {
	state := StateDiscovered
	logger := e.logger.WithFields(logrus.Fields{"productId": item.id, "brand": brand})

	// A product missing from every overlay still imports with empty specs.
	primarySpecs := e.overlaySpecs(overlays, e.primaryLanguage, item.id)
	fallbackSpecs := make(map[string]interface{})
	for _, language := range e.languages {
		if language == e.primaryLanguage {
			continue
		}
		fallbackSpecs = catalog.MergeSpecTables(fallbackSpecs, e.overlaySpecs(overlays, language, item.id))
	}
	merged := catalog.MergeSpecTables(primarySpecs, fallbackSpecs)
	state = StateSpecsResolved

	color := e.specs.DetermineColor(merged)
	ip := e.specs.DetermineIP(merged)
	unitCount := e.specs.ExtractUnitCount(item.record, merged)

	name := item.record.FieldString("name")
	if name == "" {
		name = item.id
	}
	images := make(models.JSONArray, 0)
	for _, url := range item.record.FieldStrings("images") {
		images = append(images, url)
	}
	product := &models.Product{
		ProductID:      item.id,
		Name:           name,
		Images:         images,
		Brand:          brand,
		Price:          item.record.FieldFloat("price"),
		PriceIncrease:  item.record.FieldFloat("priceIncrease"),
		Quantity:       item.record.FieldInt("quantity"),
		Discount:       item.record.FieldFloat("discount"),
		CategoryID:     cat.ID,
		LightingTypeID: lt.ID,
		ProductColor:   color,
		ProductIP:      ip,
		HNumber:        unitCount,
		IsActive:       true,
	}
	state = StateNormalized

	persisted, err := e.store.UpsertProduct(ctx, product)
	if err != nil {
		e.metrics.Error()
		logger.WithError(err).Error("skipping product")
		e.record(Outcome{Level: LevelProduct, Key: item.id, State: state, Skipped: true, Err: err})
		e.count(func(s *Summary) { s.ProductsSkipped++ })
		return
	}
	state = StateProductPersisted

	// Per-language specification writes are gathered concurrently; one
	// language failing never blocks another.
	var wg sync.WaitGroup
	for _, language := range e.languages {
		table := e.overlaySpecs(overlays, language, item.id)
		if len(table) == 0 {
			continue
		}
		wg.Add(1)
		go func(language string, table map[string]interface{}) {
			defer wg.Done()
			normalized := e.specs.Process(table, language)
			spec := normalized.Specification(persisted.ID, language)
			if err := e.store.UpsertSpecification(ctx, spec); err != nil {
				e.metrics.Warning()
				logger.WithError(err).WithField("language", language).Warn("skipping specification language")
				e.record(Outcome{Level: LevelSpecification, Key: item.id + "/" + language, Skipped: true, Err: err})
				e.count(func(s *Summary) { s.SpecFailures++ })
				return
			}
			e.record(Outcome{Level: LevelSpecification, Key: item.id + "/" + language})
			e.count(func(s *Summary) { s.SpecRows++ })
		}(language, table)
	}
	wg.Wait()
	state = StateSpecsPersisted
	logger.WithField("state", string(state)).Debug("specification writes settled")

	state = StateDone
	e.metrics.Success()
	e.record(Outcome{Level: LevelProduct, Key: item.id, State: state})
	e.count(func(s *Summary) { s.Products++ })
}

func (e *Engine) overlaySpecs(overlays map[string]*catalog.Catalog, language, productID string) map[string]interface{} {
	overlay, ok := overlays[language]
	if !ok {
		return map[string]interface{}{}
	}
	table, found := overlay.SpecificationsFor(productID)
	if !found {
		return map[string]interface{}{}
	}
	return table
}

func (e *Engine) record(outcome Outcome) {
	e.mu.Lock()
	e.summary.Outcomes = append(e.summary.Outcomes, outcome)
	e.mu.Unlock()
}

func (e *Engine) count(update func(*Summary)) {
	e.mu.Lock()
	update(&e.summary)
	e.mu.Unlock()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
