package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

type catalogFile struct {
	Products []yaml.Node `yaml:"products"`
}

// Load reads and validates the catalog YAML at path. Entries that fail
// validation are logged and dropped; a missing or unparsable file is an
// error for the caller to treat as fatal at startup.
func Load(ctx context.Context, logg *logger.Logger, path string) ([]Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(text, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog yaml: %w", err)
	}

	products := make([]Product, 0, len(file.Products))
	for idx, node := range file.Products {
		var product Product
		if err := node.Decode(&product); err != nil {
			logInvalidEntry(ctx, logg, path, idx, &product, err)
			continue
		}
		if err := product.Validate(); err != nil {
			logInvalidEntry(ctx, logg, path, idx, &product, err)
			continue
		}
		product.normalize()
		products = append(products, product)
	}
	return products, nil
}

func logInvalidEntry(ctx context.Context, logg *logger.Logger, path string, idx int, p *Product, err error) {
	if logg == nil {
		return
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"path":  path,
		"index": idx,
		"id":    p.ID,
		"brand": p.Brand,
		"title": p.Title,
		"error": err.Error(),
	})
	logg.Warn(ctx, "dropping invalid catalog entry")
}

// decodeText returns UTF-8 bytes, stripping a BOM and falling back to
// windows-1251 for catalogs exported from older tooling.
func decodeText(raw []byte) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return raw, nil
	}
	return charmap.Windows1251.NewDecoder().Bytes(raw)
}
