package diagnostics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-import-service/internal/catalog"
	"catalog-import-service/internal/models"
)

// Checker verifies the run's preconditions: store reachable, required
// tables present, required catalog file resolvable.
type Checker struct {
	db     *gorm.DB
	files  *catalog.FileResolver
	logger *logrus.Entry
}

// NewChecker creates a pre-run health checker
func NewChecker(db *gorm.DB, files *catalog.FileResolver, logger *logrus.Entry) *Checker {
	return &Checker{db: db, files: files, logger: logger}
}

// HealthCheck runs all pre-run checks and returns the first failure. Any
// failure is fatal: no write is attempted afterwards.
func (c *Checker) HealthCheck(ctx context.Context) error {
	var one int
	if err := c.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}

	missing := make([]string, 0)
	for _, table := range models.RequiredTables() {
		if !c.db.Migrator().HasTable(table) {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tables missing: %s", strings.Join(missing, ", "))
	}

	if _, err := c.files.Resolve(catalog.SourceStatic); err != nil {
		return fmt.Errorf("required catalog file: %w", err)
	}

	c.logger.Info("health check passed")
	return nil
}

// Report summarizes the persisted state after a run
type Report struct {
	Categories      int64
	LightingTypes   int64
	Products        int64
	SpecRows        int64
	ProductsByBrand map[string]int64
	SpecsByLanguage map[string]int64
	UnitCountPct    float64
	PriceMin        float64
	PriceMax        float64
	PriceAvg        float64
}

// BuildReport queries the store for the post-run report
func BuildReport(ctx context.Context, db *gorm.DB) (*Report, error) {
	report := &Report{
		ProductsByBrand: make(map[string]int64),
		SpecsByLanguage: make(map[string]int64),
	}

	if err := db.WithContext(ctx).Model(&models.Category{}).Count(&report.Categories).Error; err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	if err := db.WithContext(ctx).Model(&models.LightingType{}).Count(&report.LightingTypes).Error; err != nil {
		return nil, fmt.Errorf("failed to count lighting types: %w", err)
	}
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&report.Products).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.WithContext(ctx).Model(&models.ProductSpecification{}).Count(&report.SpecRows).Error; err != nil {
		return nil, fmt.Errorf("failed to count specifications: %w", err)
	}

	type groupCount struct {
		Key   string
		Count int64
	}
	var brandCounts []groupCount
	if err := db.WithContext(ctx).Model(&models.Product{}).
		Select("brand AS key, COUNT(*) AS count").Group("brand").
		Scan(&brandCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products by brand: %w", err)
	}
	for _, row := range brandCounts {
		report.ProductsByBrand[row.Key] = row.Count
	}

	var languageCounts []groupCount
	if err := db.WithContext(ctx).Model(&models.ProductSpecification{}).
		Select("language AS key, COUNT(*) AS count").Group("language").
		Scan(&languageCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count specifications by language: %w", err)
	}
	for _, row := range languageCounts {
		report.SpecsByLanguage[row.Key] = row.Count
	}

	if report.Products > 0 {
		var withUnitCount int64
		if err := db.WithContext(ctx).Model(&models.Product{}).
			Where("h_number IS NOT NULL").Count(&withUnitCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count unit-count coverage: %w", err)
		}
		report.UnitCountPct = float64(withUnitCount) / float64(report.Products) * 100

		row := db.WithContext(ctx).Model(&models.Product{}).
			Select("COALESCE(MIN(price), 0), COALESCE(MAX(price), 0), COALESCE(AVG(price), 0)").Row()
		if err := row.Scan(&report.PriceMin, &report.PriceMax, &report.PriceAvg); err != nil {
			return nil, fmt.Errorf("failed to compute price statistics: %w", err)
		}
	}

	return report, nil
}

// Log emits the report through the run logger
func (r *Report) Log(logger *logrus.Entry) {
	logger.WithFields(logrus.Fields{
		"categories":    r.Categories,
		"lightingTypes": r.LightingTypes,
		"products":      r.Products,
		"specRows":      r.SpecRows,
		"unitCountPct":  fmt.Sprintf("%.1f%%", r.UnitCountPct),
		"priceMin":      r.PriceMin,
		"priceMax":      r.PriceMax,
		"priceAvg":      fmt.Sprintf("%.2f", r.PriceAvg),
	}).Info("import report")

	for _, brand := range sortedReportKeys(r.ProductsByBrand) {
		logger.WithFields(logrus.Fields{"brand": brand, "products": r.ProductsByBrand[brand]}).Info("brand report")
	}
	for _, language := range sortedReportKeys(r.SpecsByLanguage) {
		logger.WithFields(logrus.Fields{"language": language, "specifications": r.SpecsByLanguage[language]}).Info("language report")
	}
}

func sortedReportKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
