package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/niksmo/recycled/internal/core/domain"
	"github.com/niksmo/recycled/internal/core/port"
	"golang.org/x/sync/errgroup"
)

var _ port.ProductLookuper = (*Service)(nil)

// recommendationsLimit bounds concurrent reads of recommended products
// within one lookup.
const recommendationsLimit = 8

type Service struct {
	productsStorage port.ProductsStorage
	materials       port.MaterialsCatalog
	lookupEvents    port.LookupEventsProducer
	publicURL       string
}

// New returns the lookup service.
//
// The lookupEvents producer is optional and may be nil.
func New(
	productsStorage port.ProductsStorage,
	materials port.MaterialsCatalog,
	lookupEvents port.LookupEventsProducer,
	publicURL string,
) Service {
	return Service{
		productsStorage: productsStorage,
		materials:       materials,
		lookupEvents:    lookupEvents,
		publicURL:       strings.TrimRight(publicURL, "/"),
	}
}

// LookupProduct returns the product with the given barcode enriched with
// its materials and one level of recommended products.
//
// Recommendations pointing to a missing product are skipped. Any other
// storage error fails the whole lookup.
func (s Service) LookupProduct(
	ctx context.Context, barcode string,
) (domain.EnrichedProduct, error) {
	const op = "Service.LookupProduct"

	if err := ctx.Err(); err != nil {
		return domain.EnrichedProduct{}, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.productsStorage.ReadProductByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.emitLookup(ctx, domain.LookupEvent{Barcode: barcode})
		}
		return domain.EnrichedProduct{}, fmt.Errorf("%s: %w", op, err)
	}

	recommendations, err := s.readRecommendations(ctx, product.ID)
	if err != nil {
		return domain.EnrichedProduct{}, fmt.Errorf("%s: %w", op, err)
	}

	v := s.enrich(product)
	v.Recommendations = recommendations

	s.emitLookup(ctx, domain.LookupEvent{
		Barcode:         barcode,
		Found:           true,
		ProductID:       product.ID,
		Materials:       len(v.Materials),
		Recommendations: len(v.Recommendations),
	})

	return v, nil
}

func (s Service) readRecommendations(
	ctx context.Context, productID int64,
) ([]domain.EnrichedProduct, error) {
	const op = "Service.readRecommendations"
	log := slog.With("op", op)

	rows, err := s.productsStorage.ReadRecommendations(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resolved := make([]*domain.Product, len(rows))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(recommendationsLimit)
	for i, row := range rows {
		g.Go(func() error {
			p, err := s.productsStorage.ReadProductByID(
				gCtx, row.RecommendedProductID,
			)
			if err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					log.Debug(
						"skip dangling recommendation",
						"recommendationID", row.ID,
						"recommendedProductID", row.RecommendedProductID,
					)
					return nil
				}
				return err
			}
			resolved[i] = &p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]domain.EnrichedProduct, 0, len(rows))
	for _, p := range resolved {
		if p == nil {
			continue
		}
		out = append(out, s.enrich(*p))
	}
	return out, nil
}

// enrich never expands recommendations, callers attach them.
func (s Service) enrich(p domain.Product) domain.EnrichedProduct {
	return domain.EnrichedProduct{
		Product:         p,
		ImageURL:        s.imageURL(p.Barcode),
		Materials:       s.resolveMaterials(p.RecyclingCodes),
		Recommendations: []domain.EnrichedProduct{},
	}
}

func (s Service) resolveMaterials(codes []string) []*domain.Material {
	ms := make([]*domain.Material, len(codes))
	for i, code := range codes {
		m, ok := s.materials.LookupMaterial(code)
		if !ok {
			continue
		}
		ms[i] = &m
	}
	return ms
}

func (s Service) imageURL(barcode string) string {
	return s.publicURL + "/products/" + url.PathEscape(barcode) + ".png"
}

func (s Service) emitLookup(ctx context.Context, evt domain.LookupEvent) {
	if s.lookupEvents == nil {
		return
	}
	evt.OccurredAt = time.Now()
	s.lookupEvents.ProduceLookup(ctx, evt)
}
