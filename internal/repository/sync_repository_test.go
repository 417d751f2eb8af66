package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"catalog-import-service/internal/catalog"
	"catalog-import-service/internal/models"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

// recorderSpy captures OpRecorder telemetry for assertions
type recorderSpy struct {
	mu   sync.Mutex
	ops  []string
	hits []string
}

var _ OpRecorder = (*recorderSpy)(nil)

func (r *recorderSpy) RecordDBOp(operation string) {
	r.mu.Lock()
	r.ops = append(r.ops, operation)
	r.mu.Unlock()
}

func (r *recorderSpy) RecordCacheHit(name string) {
	r.mu.Lock()
	r.hits = append(r.hits, name)
	r.mu.Unlock()
}

func newMockRepo(t *testing.T, recorder OpRecorder) (*SyncRepository, sqlmock.Sqlmock, *catalog.SlugGenerator) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	slugs := catalog.NewSlugGenerator()
	repo := NewSyncRepository(db, slugs, catalog.NewTranslationRegistry(), []string{"ar", "en"}, recorder, testLogger())
	return repo, mock, slugs
}

func emptyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"})
}

func idRows(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(id.String())
}

func expectTranslationUpserts(mock sqlmock.Sqlmock, table string) {
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT \* FROM "` + table + `"`).WillReturnRows(emptyRows())
		mock.ExpectQuery(`INSERT INTO "` + table + `"`).WillReturnRows(idRows(uuid.New()))
	}
}

func TestEnsureCategoryCreatesAndMemoizes(t *testing.T) {
	recorder := &recorderSpy{}
	repo, mock, _ := newMockRepo(t, recorder)

	catID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "categories"`).WillReturnRows(idRows(catID))
	expectTranslationUpserts(mock, "category_translations")

	cat, err := repo.EnsureCategory(context.Background(), "indoor")
	require.NoError(t, err)
	assert.Equal(t, catID, cat.ID)
	assert.Equal(t, "indoor", cat.Slug)

	// Second lookup is served from the per-run cache, no further SQL
	again, err := repo.EnsureCategory(context.Background(), "indoor")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)
	assert.Contains(t, recorder.hits, "category")

	assert.Contains(t, recorder.ops, "category.get_or_create")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureCategoryRetriesOnceWithHashSlug(t *testing.T) {
	repo, mock, _ := newMockRepo(t, nil)

	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "categories"`).WillReturnError(errors.New("duplicate key value violates unique constraint"))
	// The whole sequence reruns exactly once with a hash-based base slug
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "categories"`).WillReturnRows(idRows(uuid.New()))
	expectTranslationUpserts(mock, "category_translations")

	cat, err := repo.EnsureCategory(context.Background(), "indoor")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cat.Slug, "item-"), "retry slug %q should be hash-based", cat.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureCategoryFailsAfterSecondAttempt(t *testing.T) {
	repo, mock, _ := newMockRepo(t, nil)

	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "categories"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "categories"`).WillReturnError(errors.New("connection reset"))

	_, err := repo.EnsureCategory(context.Background(), "indoor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure category")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureLightingTypeRetriesOnceWithHashSlug(t *testing.T) {
	repo, mock, _ := newMockRepo(t, nil)

	mock.ExpectQuery(`SELECT \* FROM "lighting_types" WHERE name =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "lighting_types"`).WillReturnError(errors.New("duplicate key value violates unique constraint"))
	mock.ExpectQuery(`SELECT \* FROM "lighting_types" WHERE name =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "lighting_types"`).WillReturnRows(idRows(uuid.New()))
	expectTranslationUpserts(mock, "lighting_type_translations")

	lt, err := repo.EnsureLightingType(context.Background(), "spotlight")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(lt.Slug, "item-"), "retry slug %q should be hash-based", lt.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertProductRerunConverges(t *testing.T) {
	recorder := &recorderSpy{}
	repo, mock, _ := newMockRepo(t, recorder)

	productID := uuid.New()
	createdAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	// First run creates the row
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE product_id =`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "products"`).WillReturnRows(idRows(productID))

	first := &models.Product{ProductID: "P100", Name: "Track Spot 12W", Brand: "luxlite", Price: 45.5}
	persisted, err := repo.UpsertProduct(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, productID, persisted.ID)
	assert.Contains(t, recorder.ops, "product.create")

	// Rerun converges onto the same row: same id, original created_at
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE product_id =`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "product_id", "created_at"}).
			AddRow(productID.String(), "P100", createdAt))
	mock.ExpectExec(`UPDATE "products" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	second := &models.Product{ProductID: "P100", Name: "Track Spot 12W v2", Brand: "luxlite", Price: 49.5}
	persisted, err = repo.UpsertProduct(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, productID, persisted.ID)
	assert.True(t, persisted.CreatedAt.Equal(createdAt), "update must preserve the original created_at")
	assert.Contains(t, recorder.ops, "product.update")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSpecificationRerunConverges(t *testing.T) {
	recorder := &recorderSpy{}
	repo, mock, _ := newMockRepo(t, recorder)

	owner := uuid.New()
	specID := uuid.New()
	createdAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "product_specifications"`).WillReturnRows(emptyRows())
	mock.ExpectQuery(`INSERT INTO "product_specifications"`).WillReturnRows(idRows(specID))

	spec := &models.ProductSpecification{ProductID: owner, Language: "ar", MainMaterial: "ألمنيوم"}
	require.NoError(t, repo.UpsertSpecification(context.Background(), spec))
	assert.Contains(t, recorder.ops, "specification.create")

	mock.ExpectQuery(`SELECT \* FROM "product_specifications"`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "created_at"}).AddRow(specID.String(), createdAt))
	mock.ExpectExec(`UPDATE "product_specifications" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	rerun := &models.ProductSpecification{ProductID: owner, Language: "ar", MainMaterial: "نحاس"}
	require.NoError(t, repo.UpsertSpecification(context.Background(), rerun))
	assert.Equal(t, specID, rerun.ID)
	assert.True(t, rerun.CreatedAt.Equal(createdAt), "update must preserve the original created_at")
	assert.Contains(t, recorder.ops, "specification.update")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedSlugCachesReservesPersistedSlugs(t *testing.T) {
	repo, mock, slugs := newMockRepo(t, nil)

	catID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM "categories"`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "slug"}).AddRow(uuid.New().String(), "indoor"))
	mock.ExpectQuery(`SELECT .+ FROM "lighting_types"`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "slug"}).AddRow(uuid.New().String(), "spotlight"))
	mock.ExpectQuery(`SELECT .+ FROM "category_translations"`).WillReturnRows(
		sqlmock.NewRows([]string{"category_id", "language", "slug"}).AddRow(catID.String(), "en", "indoor-lighting"))
	mock.ExpectQuery(`SELECT .+ FROM "lighting_type_translations"`).WillReturnRows(
		sqlmock.NewRows([]string{"lighting_type_id", "language", "slug"}))

	require.NoError(t, repo.SeedSlugCaches(context.Background()))

	// Slugs persisted by earlier runs are taken in their scopes: the next
	// issue for the same base gets the counter suffix instead of colliding.
	slug, err := slugs.Unique("Indoor", "en", "category-base")
	require.NoError(t, err)
	assert.Equal(t, "indoor-1", slug)

	slug, err = slugs.Unique("Spotlight", "en", "lightingtype-base")
	require.NoError(t, err)
	assert.Equal(t, "spotlight-1", slug)

	slug, err = slugs.Unique("Indoor Lighting", "en", "category-"+catID.String())
	require.NoError(t, err)
	assert.Equal(t, "indoor-lighting-1", slug)

	assert.NoError(t, mock.ExpectationsWereMet())
}
