package materials

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/niksmo/recycled/internal/core/domain"
	"github.com/niksmo/recycled/internal/core/port"
)

//go:embed recycling-codes.json
var defaultDataset []byte

var _ port.MaterialsCatalog = (*Catalog)(nil)

var (
	ErrEmptyDataset  = errors.New("empty recycling codes dataset")
	ErrDuplicateCode = errors.New("duplicate recycling code")
)

type record struct {
	Num         int      `json:"num"`
	Type        string   `json:"type"`
	Examples    []string `json:"examples"`
	Description string   `json:"description"`
}

// A Catalog maps recycling codes to material descriptors.
//
// It is read-only after construction and safe for concurrent use.
type Catalog struct {
	byCode map[int]domain.Material
}

// NewCatalog returns the catalog built from the bundled dataset.
func NewCatalog() (Catalog, error) {
	const op = "materials.NewCatalog"
	c, err := parse(defaultDataset)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("materials catalog loaded", "op", op, "source", "embedded", "nCodes", c.Len())
	return c, nil
}

// LoadCatalog returns the catalog built from the JSON file at path.
func LoadCatalog(path string) (Catalog, error) {
	const op = "materials.LoadCatalog"

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := parse(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	slog.Info("materials catalog loaded", "op", op, "source", path, "nCodes", c.Len())
	return c, nil
}

func parse(data []byte) (Catalog, error) {
	var rs []record
	if err := json.Unmarshal(data, &rs); err != nil {
		return Catalog{}, err
	}

	if len(rs) == 0 {
		return Catalog{}, ErrEmptyDataset
	}

	byCode := make(map[int]domain.Material, len(rs))
	for _, r := range rs {
		if _, ok := byCode[r.Num]; ok {
			return Catalog{}, fmt.Errorf("%w: %d", ErrDuplicateCode, r.Num)
		}
		byCode[r.Num] = domain.Material{
			Code:        r.Num,
			Type:        r.Type,
			Examples:    r.Examples,
			Description: r.Description,
		}
	}
	return Catalog{byCode}, nil
}

// LookupMaterial returns the descriptor for the code token.
// Non-numeric and unknown codes report false.
func (c Catalog) LookupMaterial(code string) (domain.Material, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return domain.Material{}, false
	}

	m, ok := c.byCode[n]
	if !ok {
		return domain.Material{}, false
	}
	m.Examples = slices.Clone(m.Examples)
	return m, true
}

func (c Catalog) Len() int {
	return len(c.byCode)
}
