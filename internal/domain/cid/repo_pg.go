package cid

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Catalog {
	return &repoPG{pool: pool}
}

// categoriesSQL matches on the normalized catalog code, so rows stored in
// lower case or with padding still resolve.
const categoriesSQL = `
	SELECT upper(btrim(code)), category FROM cid_catalog
	WHERE upper(btrim(code)) = ANY($1) AND category IS NOT NULL`

func (r *repoPG) FindCategoriesByCodes(ctx context.Context, codes []string) (map[string]string, error) {
	if len(codes) == 0 {
		return map[string]string{}, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, categoriesSQL, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var code, category string
		if err := rows.Scan(&code, &category); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{code, category})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return indexCategories(pairs), nil
}

// indexCategories keys catalog rows by normalized code. The first category
// seen for a code wins.
func indexCategories(pairs [][2]string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		code := NormalizeCode(p[0])
		if _, dup := out[code]; code == "" || dup {
			continue
		}
		out[code] = p[1]
	}
	return out
}

// Search matches a code prefix or a description fragment.
func (r *repoPG) Search(ctx context.Context, query string, limit int) ([]*Entry, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT code, description, category FROM cid_catalog
		WHERE code LIKE $1::text || '%' OR description ILIKE '%' || $2::text || '%'
		ORDER BY code
		LIMIT $3`, NormalizeCode(query), query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Code, &e.Description, &e.Category); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}
