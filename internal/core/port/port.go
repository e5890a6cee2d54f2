package port

import (
	"context"

	"github.com/niksmo/recycled/internal/core/domain"
)

type ProductLookuper interface {
	LookupProduct(ctx context.Context, barcode string) (domain.EnrichedProduct, error)
}

type ProductsStorage interface {
	ReadProductByBarcode(ctx context.Context, barcode string) (domain.Product, error)
	ReadProductByID(ctx context.Context, id int64) (domain.Product, error)
	ReadRecommendations(ctx context.Context, productID int64) ([]domain.Recommendation, error)
}

type MaterialsCatalog interface {
	LookupMaterial(code string) (domain.Material, bool)
}

type LookupEventsProducer interface {
	ProduceLookup(context.Context, domain.LookupEvent)
}
