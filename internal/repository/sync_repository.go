package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-import-service/internal/catalog"
	"catalog-import-service/internal/models"
)

// Slug scope contexts for base entities. Translation rows use dynamic
// contexts of the form "<entity>-<entityId>".
const (
	categoryBaseScope     = "category-base"
	lightingTypeBaseScope = "lightingtype-base"
)

// OpRecorder receives store operation and cache telemetry from the repository
type OpRecorder interface {
	RecordDBOp(operation string)
	RecordCacheHit(name string)
}

type noopRecorder struct{}

func (noopRecorder) RecordDBOp(string)     {}
func (noopRecorder) RecordCacheHit(string) {}

// SyncRepository performs the idempotent get-or-create/upsert operations of
// one import run. Entities are memoized by canonical name for the lifetime
// of the repository; both caches are mutex-guarded because products persist
// inside concurrent batch chunks.
type SyncRepository struct {
	db           *gorm.DB
	slugs        *catalog.SlugGenerator
	translations *catalog.TranslationRegistry
	languages    []string
	recorder     OpRecorder
	logger       *logrus.Entry

	mu                sync.Mutex
	categoryCache     map[string]*models.Category
	lightingTypeCache map[string]*models.LightingType
}

// NewSyncRepository creates a per-run repository
func NewSyncRepository(db *gorm.DB, slugs *catalog.SlugGenerator, translations *catalog.TranslationRegistry, languages []string, recorder OpRecorder, logger *logrus.Entry) *SyncRepository {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &SyncRepository{
		db:                db,
		slugs:             slugs,
		translations:      translations,
		languages:         languages,
		recorder:          recorder,
		logger:            logger,
		categoryCache:     make(map[string]*models.Category),
		lightingTypeCache: make(map[string]*models.LightingType),
	}
}

// SeedSlugCaches marks every slug already persisted by earlier runs as taken
// in its scope, so a rerun never reissues a slug that collides with a live
// row.
func (r *SyncRepository) SeedSlugCaches(ctx context.Context) error {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Select("id", "slug").Find(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed category slugs: %w", err)
	}
	for _, cat := range categories {
		r.slugs.Reserve(cat.Slug, "en", categoryBaseScope)
	}

	var lightingTypes []models.LightingType
	if err := r.db.WithContext(ctx).Select("id", "slug").Find(&lightingTypes).Error; err != nil {
		return fmt.Errorf("failed to seed lighting type slugs: %w", err)
	}
	for _, lt := range lightingTypes {
		r.slugs.Reserve(lt.Slug, "en", lightingTypeBaseScope)
	}

	var categoryTranslations []models.CategoryTranslation
	if err := r.db.WithContext(ctx).Select("category_id", "language", "slug").Find(&categoryTranslations).Error; err != nil {
		return fmt.Errorf("failed to seed category translation slugs: %w", err)
	}
	for _, tr := range categoryTranslations {
		r.slugs.Reserve(tr.Slug, tr.Language, "category-"+tr.CategoryID.String())
	}

	var lightingTypeTranslations []models.LightingTypeTranslation
	if err := r.db.WithContext(ctx).Select("lighting_type_id", "language", "slug").Find(&lightingTypeTranslations).Error; err != nil {
		return fmt.Errorf("failed to seed lighting type translation slugs: %w", err)
	}
	for _, tr := range lightingTypeTranslations {
		r.slugs.Reserve(tr.Slug, tr.Language, "lightingtype-"+tr.LightingTypeID.String())
	}

	r.logger.WithFields(logrus.Fields{
		"categories":    len(categories),
		"lightingTypes": len(lightingTypes),
	}).Info("seeded slug caches from store")
	return nil
}

// EnsureCategory gets or creates the category row plus one translation row
// per supported language, memoized by canonical name. On failure the whole
// sequence is retried exactly once with a hash-based base slug.
func (r *SyncRepository) EnsureCategory(ctx context.Context, name string) (*models.Category, error) {
	r.mu.Lock()
	if cached, ok := r.categoryCache[name]; ok {
		r.recorder.RecordCacheHit("category")
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	cat, err := r.syncCategory(ctx, name, false)
	if err != nil {
		r.logger.WithError(err).WithField("category", name).Warn("category sync failed, retrying with hash slug")
		cat, err = r.syncCategory(ctx, name, true)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure category %q: %w", name, err)
		}
	}

	r.mu.Lock()
	r.categoryCache[name] = cat
	r.mu.Unlock()
	return cat, nil
}

func (r *SyncRepository) syncCategory(ctx context.Context, name string, hashSlug bool) (*models.Category, error) {
	var cat models.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cat = models.Category{
			Name:     name,
			Slug:     r.baseSlug(name, categoryBaseScope, hashSlug),
			IsActive: true,
		}
		if err := r.db.WithContext(ctx).Create(&cat).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	r.recorder.RecordDBOp("category.get_or_create")

	for _, language := range r.languages {
		label := r.translations.CategoryLabel(name, language)
		if err := r.upsertCategoryTranslation(ctx, cat.ID, language, label); err != nil {
			return nil, err
		}
	}
	return &cat, nil
}

func (r *SyncRepository) upsertCategoryTranslation(ctx context.Context, categoryID uuid.UUID, language, label string) error {
	scope := "category-" + categoryID.String()
	var tr models.CategoryTranslation
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND language = ?", categoryID, language).
		First(&tr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slug, slugErr := r.slugs.Unique(label, language, scope)
		if slugErr != nil {
			slug = r.slugs.Hash(label, scope)
		}
		tr = models.CategoryTranslation{
			CategoryID: categoryID,
			Language:   language,
			Name:       label,
			Slug:       slug,
		}
		err = r.db.WithContext(ctx).Create(&tr).Error
	} else if err == nil {
		// Slug stays stable across reruns; only the label refreshes.
		err = r.db.WithContext(ctx).Model(&models.CategoryTranslation{}).
			Where("id = ?", tr.ID).
			Updates(map[string]interface{}{"name": label, "updated_at": time.Now()}).Error
	}
	if err != nil {
		return err
	}
	r.recorder.RecordDBOp("category_translation.upsert")
	return nil
}

// EnsureLightingType mirrors EnsureCategory for lighting types
func (r *SyncRepository) EnsureLightingType(ctx context.Context, name string) (*models.LightingType, error) {
	r.mu.Lock()
	if cached, ok := r.lightingTypeCache[name]; ok {
		r.recorder.RecordCacheHit("lightingType")
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	lt, err := r.syncLightingType(ctx, name, false)
	if err != nil {
		r.logger.WithError(err).WithField("lightingType", name).Warn("lighting type sync failed, retrying with hash slug")
		lt, err = r.syncLightingType(ctx, name, true)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure lighting type %q: %w", name, err)
		}
	}

	r.mu.Lock()
	r.lightingTypeCache[name] = lt
	r.mu.Unlock()
	return lt, nil
}

func (r *SyncRepository) syncLightingType(ctx context.Context, name string, hashSlug bool) (*models.LightingType, error) {
	var lt models.LightingType
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&lt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lt = models.LightingType{
			Name:     name,
			Slug:     r.baseSlug(name, lightingTypeBaseScope, hashSlug),
			IsActive: true,
		}
		if err := r.db.WithContext(ctx).Create(&lt).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	r.recorder.RecordDBOp("lighting_type.get_or_create")

	for _, language := range r.languages {
		label := r.translations.LightingTypeLabel(name, language)
		if err := r.upsertLightingTypeTranslation(ctx, lt.ID, language, label); err != nil {
			return nil, err
		}
	}
	return &lt, nil
}

func (r *SyncRepository) upsertLightingTypeTranslation(ctx context.Context, lightingTypeID uuid.UUID, language, label string) error {
	scope := "lightingtype-" + lightingTypeID.String()
	var tr models.LightingTypeTranslation
	err := r.db.WithContext(ctx).
		Where("lighting_type_id = ? AND language = ?", lightingTypeID, language).
		First(&tr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slug, slugErr := r.slugs.Unique(label, language, scope)
		if slugErr != nil {
			slug = r.slugs.Hash(label, scope)
		}
		tr = models.LightingTypeTranslation{
			LightingTypeID: lightingTypeID,
			Language:       language,
			Name:           label,
			Slug:           slug,
		}
		err = r.db.WithContext(ctx).Create(&tr).Error
	} else if err == nil {
		err = r.db.WithContext(ctx).Model(&models.LightingTypeTranslation{}).
			Where("id = ?", tr.ID).
			Updates(map[string]interface{}{"name": label, "updated_at": time.Now()}).Error
	}
	if err != nil {
		return err
	}
	r.recorder.RecordDBOp("lighting_type_translation.upsert")
	return nil
}

func (r *SyncRepository) baseSlug(name, scope string, hashSlug bool) string {
	if hashSlug {
		return r.slugs.Hash(name, scope)
	}
	slug, err := r.slugs.Unique(name, "en", scope)
	if err != nil {
		return r.slugs.Hash(name, scope)
	}
	return slug
}

// UpsertProduct creates or updates a product keyed by its natural ProductID.
// Nil-able payload fields are coerced to safe defaults before the write.
func (r *SyncRepository) UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.Images == nil {
		product.Images = make(models.JSONArray, 0)
	}
	if product.ProductColor == "" {
		product.ProductColor = models.ColorWarm
	}
	if product.ProductIP == "" {
		product.ProductIP = models.IP20
	}

	var existing models.Product
	err := r.db.WithContext(ctx).Where("product_id = ?", product.ProductID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
			return nil, fmt.Errorf("failed to create product %q: %w", product.ProductID, err)
		}
		r.recorder.RecordDBOp("product.create")
		return product, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up product %q: %w", product.ProductID, err)
	}

	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	updates := map[string]interface{}{
		"name":             product.Name,
		"images":           product.Images,
		"brand":            product.Brand,
		"price":            product.Price,
		"price_increase":   product.PriceIncrease,
		"quantity":         product.Quantity,
		"discount":         product.Discount,
		"category_id":      product.CategoryID,
		"lighting_type_id": product.LightingTypeID,
		"product_color":    product.ProductColor,
		"product_ip":       product.ProductIP,
		"h_number":         product.HNumber,
		"is_active":        product.IsActive,
		"updated_at":       time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product %q: %w", product.ProductID, err)
	}
	r.recorder.RecordDBOp("product.update")
	return product, nil
}

// UpsertSpecification creates or updates the specification row keyed by
// (product, language).
func (r *SyncRepository) UpsertSpecification(ctx context.Context, spec *models.ProductSpecification) error {
	if spec.CustomSpecs == nil {
		spec.CustomSpecs = make(models.JSON)
	}

	var existing models.ProductSpecification
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND language = ?", spec.ProductID, spec.Language).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(spec).Error; err != nil {
			return fmt.Errorf("failed to create specification (%s, %s): %w", spec.ProductID, spec.Language, err)
		}
		r.recorder.RecordDBOp("specification.create")
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to look up specification (%s, %s): %w", spec.ProductID, spec.Language, err)
	}

	spec.ID = existing.ID
	spec.CreatedAt = existing.CreatedAt
	updates := map[string]interface{}{
		"input":               spec.Input,
		"maximum_wattage":     spec.MaximumWattage,
		"brand_of_led":        spec.BrandOfLed,
		"luminous_flux":       spec.LuminousFlux,
		"main_material":       spec.MainMaterial,
		"cri":                 spec.CRI,
		"beam_angle":          spec.BeamAngle,
		"working_temperature": spec.WorkingTemperature,
		"fixture_dimmable":    spec.FixtureDimmable,
		"electrical":          spec.Electrical,
		"power_factor":        spec.PowerFactor,
		"color_temperature":   spec.ColorTemperature,
		"ip":                  spec.IP,
		"energy_saving":       spec.EnergySaving,
		"life_time":           spec.LifeTime,
		"finish":              spec.Finish,
		"lamp_base":           spec.LampBase,
		"bulb":                spec.Bulb,
		"custom_specs":        spec.CustomSpecs,
		"updated_at":          time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&models.ProductSpecification{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update specification (%s, %s): %w", spec.ProductID, spec.Language, err)
	}
	r.recorder.RecordDBOp("specification.update")
	return nil
}
