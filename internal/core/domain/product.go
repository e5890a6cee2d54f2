package domain

import (
	"strings"
	"time"
)

type (
	Product struct {
		ID             int64
		Barcode        string
		Name           string
		Description    string
		PackagingType  string
		RecyclingCodes []string
		IsRecyclable   bool
		Score          int
		Price          *float64
	}

	// Recommendation links a product to another product by the
	// recommended product's ID.
	Recommendation struct {
		ID                   int64
		ProductID            int64
		RecommendedProductID int64
	}

	Material struct {
		Code        int
		Type        string
		Examples    []string
		Description string
	}
)

// An EnrichedProduct is a product with its resolved materials and
// recommendations. Materials keeps one entry per recycling code, nil
// for a code without a descriptor.
type EnrichedProduct struct {
	Product
	ImageURL        string
	Materials       []*Material
	Recommendations []EnrichedProduct
}

type LookupEvent struct {
	Barcode         string
	Found           bool
	ProductID       int64
	Materials       int
	Recommendations int
	OccurredAt      time.Time
}

// ParseRecyclingCodes normalizes the stored recycling code value into an
// ordered sequence of code tokens.
//
// Both a single code ("7") and a comma-separated list ("1, 7") are
// accepted. Empty tokens are dropped.
func ParseRecyclingCodes(s string) []string {
	codes := []string{}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		codes = append(codes, tok)
	}
	return codes
}
