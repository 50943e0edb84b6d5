package cid

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// NormalizeCode is the normalization shared by stored attendance CIDs and
// catalog lookups.
func NormalizeCode(code string) string {
	return validate.NormalizeCID(code)
}

// UniqueCodes normalizes codes and drops blanks and duplicates, keeping the
// first-seen order.
func UniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := NormalizeCode(c)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

type Service struct {
	catalog Catalog
	log     zerolog.Logger
}

func NewService(catalog Catalog, logger zerolog.Logger) *Service {
	return &Service{catalog: catalog, log: logger}
}

func (s *Service) SearchCatalog(ctx context.Context, query string, limit int) result.Result[[]*Entry] {
	items, err := s.search(ctx, query, limit)
	return result.Of(s.log, "cid.search", items, err)
}

func (s *Service) search(ctx context.Context, query string, limit int) ([]*Entry, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, apperr.Validation("q: must have at least 2 characters")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	items, err := s.catalog.Search(ctx, query, limit)
	if items == nil && err == nil {
		items = []*Entry{}
	}
	return items, err
}
