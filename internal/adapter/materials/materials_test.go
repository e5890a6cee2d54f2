package materials_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/recycled/internal/adapter/materials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	c, err := materials.NewCatalog()
	require.NoError(t, err)
	assert.Positive(t, c.Len())

	t.Run("KnownCode", func(t *testing.T) {
		m, ok := c.LookupMaterial("1")
		require.True(t, ok)
		assert.Equal(t, 1, m.Code)
		assert.Contains(t, m.Type, "PET")
		assert.NotEmpty(t, m.Examples)
		assert.NotEmpty(t, m.Description)
	})

	t.Run("PaddedCode", func(t *testing.T) {
		m, ok := c.LookupMaterial(" 7 ")
		require.True(t, ok)
		assert.Equal(t, 7, m.Code)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		_, ok := c.LookupMaterial("999")
		assert.False(t, ok)
	})

	t.Run("NonNumericCode", func(t *testing.T) {
		_, ok := c.LookupMaterial("PAP")
		assert.False(t, ok)
	})

	t.Run("ExamplesNotShared", func(t *testing.T) {
		m, ok := c.LookupMaterial("2")
		require.True(t, ok)
		m.Examples[0] = "changed"

		m2, ok := c.LookupMaterial("2")
		require.True(t, ok)
		assert.NotEqual(t, "changed", m2.Examples[0])
	})
}

func TestLoadCatalog(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "codes.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("Regular", func(t *testing.T) {
		path := writeFile(t, `[
			{"num": 5, "type": "PP", "examples": ["caps"], "description": "ok"},
			{"num": 90, "type": "Wood", "examples": ["crates"]}
		]`)

		c, err := materials.LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())

		m, ok := c.LookupMaterial("90")
		require.True(t, ok)
		assert.Equal(t, "Wood", m.Type)
		assert.Equal(t, []string{"crates"}, m.Examples)
		assert.Empty(t, m.Description)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := materials.LoadCatalog(filepath.Join(t.TempDir(), "none.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := materials.LoadCatalog(writeFile(t, `{"num": 1`))
		require.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := materials.LoadCatalog(writeFile(t, `[]`))
		require.Error(t, err)
		assert.ErrorIs(t, err, materials.ErrEmptyDataset)
	})

	t.Run("DuplicateCode", func(t *testing.T) {
		_, err := materials.LoadCatalog(writeFile(t, `[
			{"num": 1, "type": "PET"},
			{"num": 1, "type": "PET again"}
		]`))
		require.Error(t, err)
		assert.ErrorIs(t, err, materials.ErrDuplicateCode)
	})
}
