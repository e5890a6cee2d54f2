package storage_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/niksmo/recycled/internal/adapter/storage"
	"github.com/niksmo/recycled/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to TEST_DATABASE_URL, applies migrations and
// returns the pool. The test is skipped when no database is available.
func setupTestDB(t *testing.T) storage.SQLDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	db, err := storage.NewSQLDB(ctx, dsn)
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, storage.Migrate(dsn))
	// second run must be a no-op
	require.NoError(t, storage.Migrate(dsn))

	return db
}

func insertProduct(
	t *testing.T, db *sql.DB, barcode, codes string, price *float64,
) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(t.Context(), `
		INSERT INTO products (
			barcode, product_name, product_description, packaging_type,
			recycling_codes, is_recyclable, product_score, price
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING product_id;`,
		barcode, "name-"+barcode, "description-"+barcode, "bottle",
		codes, true, 75, price,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.ExecContext(ctx, `DELETE FROM recommendations WHERE product_id = $1`, id)
		_, _ = db.ExecContext(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	})
	return id
}

func insertRecommendation(t *testing.T, db *sql.DB, productID, target int64) {
	t.Helper()
	_, err := db.ExecContext(t.Context(),
		`INSERT INTO recommendations (product_id, recommendation) VALUES ($1, $2)`,
		productID, target,
	)
	require.NoError(t, err)
}

func testBarcode(suffix string) string {
	return fmt.Sprintf("test-%d-%s", time.Now().UnixNano(), suffix)
}

func TestProductsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := storage.NewProductsRepository(db)

	t.Run("ReadProductByBarcode", func(t *testing.T) {
		price := 2.49
		barcode := testBarcode("a")
		id := insertProduct(t, db.DB, barcode, "1, 7", &price)

		v, err := repo.ReadProductByBarcode(t.Context(), barcode)
		require.NoError(t, err)

		assert.Equal(t, id, v.ID)
		assert.Equal(t, barcode, v.Barcode)
		assert.Equal(t, "name-"+barcode, v.Name)
		assert.Equal(t, "description-"+barcode, v.Description)
		assert.Equal(t, "bottle", v.PackagingType)
		assert.Equal(t, []string{"1", "7"}, v.RecyclingCodes)
		assert.True(t, v.IsRecyclable)
		assert.Equal(t, 75, v.Score)
		require.NotNil(t, v.Price)
		assert.InDelta(t, price, *v.Price, 0.0001)
	})

	t.Run("ReadProductByBarcodeNotFound", func(t *testing.T) {
		_, err := repo.ReadProductByBarcode(t.Context(), testBarcode("missing"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("ReadProductByIDWithoutPrice", func(t *testing.T) {
		barcode := testBarcode("b")
		id := insertProduct(t, db.DB, barcode, "5", nil)

		v, err := repo.ReadProductByID(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, barcode, v.Barcode)
		assert.Equal(t, []string{"5"}, v.RecyclingCodes)
		assert.Nil(t, v.Price)
	})

	t.Run("ReadProductByIDNotFound", func(t *testing.T) {
		_, err := repo.ReadProductByID(t.Context(), -1)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("ReadRecommendationsInsertionOrder", func(t *testing.T) {
		id := insertProduct(t, db.DB, testBarcode("c"), "", nil)
		r1 := insertProduct(t, db.DB, testBarcode("d"), "", nil)
		r2 := insertProduct(t, db.DB, testBarcode("e"), "", nil)

		insertRecommendation(t, db.DB, id, r2)
		insertRecommendation(t, db.DB, id, -1)
		insertRecommendation(t, db.DB, id, r1)

		vs, err := repo.ReadRecommendations(t.Context(), id)
		require.NoError(t, err)
		require.Len(t, vs, 3)

		assert.Equal(t, r2, vs[0].RecommendedProductID)
		assert.Equal(t, int64(-1), vs[1].RecommendedProductID)
		assert.Equal(t, r1, vs[2].RecommendedProductID)
		for _, v := range vs {
			assert.Equal(t, id, v.ProductID)
		}
	})

	t.Run("ReadRecommendationsEmpty", func(t *testing.T) {
		id := insertProduct(t, db.DB, testBarcode("f"), "", nil)

		vs, err := repo.ReadRecommendations(t.Context(), id)
		require.NoError(t, err)
		assert.NotNil(t, vs)
		assert.Empty(t, vs)
	})
}

func TestProductsRepositoryClosedDB(t *testing.T) {
	setupTestDB(t)

	closed, err := storage.NewSQLDB(t.Context(), os.Getenv("TEST_DATABASE_URL"))
	require.NoError(t, err)
	closed.Close()

	repo := storage.NewProductsRepository(closed)

	_, err = repo.ReadProductByBarcode(t.Context(), "any")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMigrate(t *testing.T) {
	t.Run("InvalidDSN", func(t *testing.T) {
		err := storage.Migrate("postgres://app@localhost:notaport/recycled")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid dsn")
	})

	t.Run("KeywordDSNIsParsed", func(t *testing.T) {
		// nothing listens on port 1, the error must come from connecting
		err := storage.Migrate(
			"host=127.0.0.1 port=1 user=app dbname=recycled connect_timeout=1",
		)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "invalid dsn")
		assert.NotContains(t, err.Error(), "invalid character")
	})

	t.Run("KeywordDSN", func(t *testing.T) {
		setupTestDB(t)

		cfg, err := pgx.ParseConfig(os.Getenv("TEST_DATABASE_URL"))
		require.NoError(t, err)

		dsn := fmt.Sprintf("host='%s' port=%d user='%s' password='%s' dbname='%s'",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
		)
		if cfg.TLSConfig == nil {
			dsn += " sslmode=disable"
		}

		require.NoError(t, storage.Migrate(dsn))
	})
}
