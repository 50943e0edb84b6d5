package cid

import "context"

// Catalog reads the CID catalog.
type Catalog interface {
	// FindCategoriesByCodes returns the category of every known code. Codes
	// must already be normalized; unknown codes and codes without a
	// category are absent from the map.
	FindCategoriesByCodes(ctx context.Context, codes []string) (map[string]string, error)
	Search(ctx context.Context, query string, limit int) ([]*Entry, error)
}
