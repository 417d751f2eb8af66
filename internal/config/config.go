package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-import-service/internal/models"
)

type Config struct {
	// Database; DatabaseURL wins over the discrete DB_* variables
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	Environment string

	// Import
	DataDirs        []string
	ChunkSize       int
	PrimaryLanguage string
	Languages       []string
	ReportXLSXPath  string
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	chunkSize, _ := strconv.Atoi(getEnv("IMPORT_CHUNK_SIZE", "50"))

	primary := getEnv("PRIMARY_LANGUAGE", "ar")
	languages := []string{"ar", "en"}
	switch primary {
	case "ar":
		// default precedence
	case "en":
		languages = []string{"en", "ar"}
	default:
		// Unknown primaries are folded in: their overlay file resolves
		// like any other language and the known languages stay as
		// fallbacks for classification.
		languages = append([]string{primary}, languages...)
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      dbPort,
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getEnv("DB_AUTO_MIGRATE", "false") == "true",

		Environment: getEnv("ENVIRONMENT", "development"),

		DataDirs:        splitList(getEnv("IMPORT_DATA_DIRS", "data,.,catalog-data")),
		ChunkSize:       chunkSize,
		PrimaryLanguage: primary,
		Languages:       languages,
		ReportXLSXPath:  getEnv("REPORT_XLSX_PATH", ""),
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
	}

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema is owned by the storefront's migrations; migrating here is a
	// development convenience only.
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(
			&models.Category{},
			&models.CategoryTranslation{},
			&models.LightingType{},
			&models.LightingTypeTranslation{},
			&models.Product{},
			&models.ProductSpecification{},
		); err != nil {
			return nil, fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
