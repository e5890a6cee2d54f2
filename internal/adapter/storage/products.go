package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/niksmo/recycled/internal/core/domain"
	"github.com/niksmo/recycled/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

const selectProduct = `
	SELECT
		product_id, barcode, product_name, product_description,
		packaging_type, recycling_codes, is_recyclable, product_score, price
	FROM products`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) ReadProductByBarcode(
	ctx context.Context, barcode string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProductByBarcode"

	query := selectProduct + ` WHERE barcode = $1;`
	v, err := r.readProduct(ctx, query, barcode)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (r ProductsRepository) ReadProductByID(
	ctx context.Context, id int64,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProductByID"

	query := selectProduct + ` WHERE product_id = $1;`
	v, err := r.readProduct(ctx, query, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// ReadRecommendations returns the product's recommendations in insertion
// order.
func (r ProductsRepository) ReadRecommendations(
	ctx context.Context, productID int64,
) ([]domain.Recommendation, error) {
	const op = "ProductsRepository.ReadRecommendations"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT recommendation_id, product_id, recommendation
		FROM recommendations
		WHERE product_id = $1
		ORDER BY recommendation_id ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}
	defer rows.Close()

	vs := []domain.Recommendation{}
	for rows.Next() {
		var v domain.Recommendation
		err := rows.Scan(&v.ID, &v.ProductID, &v.RecommendedProductID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
		}
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}
	return vs, nil
}

func (r ProductsRepository) readProduct(
	ctx context.Context, query string, arg any,
) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	var (
		v     domain.Product
		codes string
		price sql.NullFloat64
	)
	err := r.sqldb.QueryRowContext(ctx, query, arg).Scan(
		&v.ID, &v.Barcode, &v.Name, &v.Description,
		&v.PackagingType, &codes, &v.IsRecyclable, &v.Score, &price,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	v.RecyclingCodes = domain.ParseRecyclingCodes(codes)
	if price.Valid {
		v.Price = &price.Float64
	}
	return v, nil
}
