package httphandler

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/niksmo/recycled/internal/core/domain"
	"github.com/niksmo/recycled/internal/core/port"
)

const (
	welcomeMessage  = "Welcome to the recycling information API"
	msgNotFound     = "Product with the given barcode does not exist"
	msgLookupFailed = "An error occurred while retrieving the product information"
)

// GET v1/products/{barcode} (200 OK JSON, 404 Not found, 500 Internal server error)

type ProductsHandler struct {
	lookuper port.ProductLookuper
}

func RegisterProducts(mux *http.ServeMux, lookuper port.ProductLookuper) {
	h := ProductsHandler{lookuper}
	mux.HandleFunc("GET /v1/products/{barcode}", h.GetProduct)
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	barcode := r.PathValue("barcode")
	log := slog.With("op", op, "barcode", barcode)

	v, err := h.lookuper.LookupProduct(r.Context(), barcode)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, msgNotFound, http.StatusNotFound)
			log.Info("product not found")
			return
		}
		http.Error(w, msgLookupFailed, http.StatusInternalServerError)
		log.Error("failed to lookup product", "err", err)
		return
	}

	b, err := json.Marshal(h.fromDomain(v))
	if err != nil {
		http.Error(w, msgLookupFailed, http.StatusInternalServerError)
		log.Error("failed to encode product", "err", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Debug("product found", "nRecommendations", len(v.Recommendations))
}

func (h ProductsHandler) fromDomain(v domain.EnrichedProduct) Product {
	p := Product{
		ProductID:          v.ID,
		Barcode:            v.Barcode,
		ProductName:        v.Name,
		ProductDescription: v.Description,
		ProductImage:       v.ImageURL,
		PackagingType:      v.PackagingType,
		IsRecyclable:       v.IsRecyclable,
		ProductScore:       v.Score,
		Price:              v.Price,
	}

	p.Materials = make([]*Material, len(v.Materials))
	for i, m := range v.Materials {
		if m == nil {
			continue
		}
		examples := m.Examples
		if examples == nil {
			examples = []string{}
		}
		p.Materials[i] = &Material{
			Code:        m.Code,
			Type:        m.Type,
			Examples:    examples,
			Description: m.Description,
		}
	}

	p.Recommendations = make([]Product, len(v.Recommendations))
	for i, rec := range v.Recommendations {
		p.Recommendations[i] = h.fromDomain(rec)
	}
	return p
}

// GET / (200 OK text)

func RegisterWelcome(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(welcomeMessage))
	})
}

// RegisterStatic serves files from dir for every path not matched by a
// more specific route. Directories are not listed.
func RegisterStatic(mux *http.ServeMux, dir string) {
	fileSystem := noDirFS{http.Dir(dir)}
	mux.Handle("GET /", http.FileServer(fileSystem))
}

type noDirFS struct {
	fs http.FileSystem
}

func (s noDirFS) Open(name string) (http.File, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// NewRouter returns the API handler with all routes and middleware.
// Static files are not served when staticDir is empty.
func NewRouter(lookuper port.ProductLookuper, staticDir string) http.Handler {
	mux := http.NewServeMux()
	RegisterWelcome(mux)
	RegisterProducts(mux, lookuper)
	if staticDir != "" {
		RegisterStatic(mux, staticDir)
	}
	return LogRequests(AllowCORS(mux))
}
