package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConnTimeout = 5 * time.Second
	defaultMaxConns    = 10
)

// Schema creates the catalog tables read by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS taxonomies (
	name  TEXT PRIMARY KEY,
	label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS terms (
	id        BIGINT PRIMARY KEY,
	taxonomy  TEXT   NOT NULL,
	name      TEXT   NOT NULL,
	slug      TEXT   NOT NULL,
	parent_id BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS products (
	id             BIGINT PRIMARY KEY,
	name           TEXT          NOT NULL,
	slug           TEXT          NOT NULL,
	permalink      TEXT          NOT NULL DEFAULT '',
	status         TEXT          NOT NULL DEFAULT 'publish',
	price          NUMERIC(12,2) NOT NULL DEFAULT 0,
	regular_price  NUMERIC(12,2) NOT NULL DEFAULT 0,
	sale_price     NUMERIC(12,2),
	price_html     TEXT          NOT NULL DEFAULT '',
	image_src      TEXT,
	image_srcset   TEXT          NOT NULL DEFAULT '',
	image_alt      TEXT          NOT NULL DEFAULT '',
	average_rating NUMERIC(3,2)  NOT NULL DEFAULT 0,
	rating_count   INTEGER       NOT NULL DEFAULT 0,
	total_sales    INTEGER       NOT NULL DEFAULT 0,
	menu_order     INTEGER       NOT NULL DEFAULT 0,
	in_stock       BOOLEAN       NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ   NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_terms (
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	term_id    BIGINT NOT NULL REFERENCES terms(id) ON DELETE CASCADE,
	PRIMARY KEY (product_id, term_id)
);

CREATE INDEX IF NOT EXISTS product_terms_term_idx ON product_terms (term_id);
CREATE INDEX IF NOT EXISTS products_price_idx ON products (price);
`

// PostgresStore reads the catalog from PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to PostgreSQL and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = defaultMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return store, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates missing catalog tables and indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.pool.Ping(pingCtx)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Find runs the count and page queries concurrently. Both share one WHERE clause.
func (s *PostgresStore) Find(ctx context.Context, q Query) (Page, error) {
	if s == nil || s.pool == nil {
		return Page{}, ErrStoreUnavailable
	}

	where, args := buildWhere(q)
	countSQL := "SELECT COUNT(*) FROM products p WHERE " + where

	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	pageSQL := fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, p.permalink,
		       p.price::float8, p.regular_price::float8, p.sale_price::float8, p.price_html,
		       p.image_src, p.image_srcset, p.image_alt,
		       p.average_rating::float8, p.rating_count, p.in_stock
		FROM products p
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		where, buildOrder(q.Sort), len(args)+1, len(args)+2)

	var (
		total    int64
		products []ProductSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.pool.QueryRow(gctx, countSQL, args...).Scan(&total); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.pool.Query(gctx, pageSQL, pageArgs...)
		if err != nil {
			return fmt.Errorf("query products: %w", err)
		}
		products, err = pgx.CollectRows(rows, scanSummary)
		if err != nil {
			return fmt.Errorf("scan products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	if products == nil {
		products = []ProductSummary{}
	}
	return Page{Products: products, Total: int(total)}, nil
}

func scanSummary(row pgx.CollectableRow) (ProductSummary, error) {
	var (
		p        ProductSummary
		sale     *float64
		imageSrc *string
		srcset   string
		alt      string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Permalink,
		&p.Price.Current, &p.Price.Regular, &sale, &p.Price.Display,
		&imageSrc, &srcset, &alt,
		&p.Rating.Average, &p.Rating.Count, &p.InStock,
	)
	if err != nil {
		return p, err
	}
	p.Price.Sale = sale
	p.OnSale = sale != nil && *sale < p.Price.Regular
	if imageSrc != nil && *imageSrc != "" {
		p.Image = &Image{Src: *imageSrc, Srcset: srcset, Alt: alt}
	}
	return p, nil
}

// buildWhere renders the facet and price predicate as a parameterised clause.
// Placeholders are numbered from $1 in the order of the returned args.
func buildWhere(q Query) (string, []any) {
	conds := []string{"p.status = 'publish'"}
	var args []any

	for _, g := range q.Groups {
		if len(g.TermIDs) == 0 {
			continue
		}
		args = append(args, g.Taxonomy, g.TermIDs)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_terms pt JOIN terms t ON t.id = pt.term_id "+
				"WHERE pt.product_id = p.id AND t.taxonomy = $%d AND pt.term_id = ANY($%d))",
			len(args)-1, len(args)))
	}

	if q.Price.Min != nil {
		args = append(args, *q.Price.Min)
		conds = append(conds, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if q.Price.Max != nil {
		args = append(args, *q.Price.Max)
		conds = append(conds, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

var sortColumns = map[SortKey]string{
	SortPrice:      "p.price",
	SortTotalSales: "p.total_sales",
	SortRating:     "p.average_rating",
	SortCreated:    "p.created_at",
	SortTitle:      "p.name",
	SortMenuOrder:  "p.menu_order",
	SortID:         "p.id",
}

// buildOrder renders the ORDER BY list from whitelisted columns, ending with p.id.
func buildOrder(fields []SortField) string {
	parts := make([]string, 0, len(fields)+1)
	hasID := false
	for _, f := range fields {
		col, ok := sortColumns[f.Key]
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
		if f.Key == SortID {
			hasID = true
		}
	}
	if !hasID {
		parts = append(parts, "p.id ASC")
	}
	return strings.Join(parts, ", ")
}

// Categories returns category terms with the number of published products in each.
func (s *PostgresStore) Categories(ctx context.Context) ([]Term, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	terms, err := s.termsFor(ctx, []string{CategoryTaxonomy})
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return terms[CategoryTaxonomy], nil
}

// Attributes returns every attribute taxonomy with its terms.
func (s *PostgresStore) Attributes(ctx context.Context) ([]Taxonomy, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}

	rows, err := s.pool.Query(ctx, `SELECT name, label FROM taxonomies WHERE name <> $1 ORDER BY name`, CategoryTaxonomy)
	if err != nil {
		return nil, fmt.Errorf("load taxonomies: %w", err)
	}
	taxonomies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Taxonomy, error) {
		var t Taxonomy
		err := row.Scan(&t.Name, &t.Label)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan taxonomies: %w", err)
	}

	names := make([]string, len(taxonomies))
	for i, t := range taxonomies {
		names[i] = t.Name
	}
	terms, err := s.termsFor(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("load attribute terms: %w", err)
	}
	for i := range taxonomies {
		taxonomies[i].Terms = terms[taxonomies[i].Name]
		if taxonomies[i].Terms == nil {
			taxonomies[i].Terms = []Term{}
		}
	}
	return taxonomies, nil
}

func (s *PostgresStore) termsFor(ctx context.Context, taxonomies []string) (map[string][]Term, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.taxonomy, t.name, t.slug, t.parent_id,
		       COUNT(p.id) FILTER (WHERE p.status = 'publish')
		FROM terms t
		LEFT JOIN product_terms pt ON pt.term_id = t.id
		LEFT JOIN products p ON p.id = pt.product_id
		WHERE t.taxonomy = ANY($1)
		GROUP BY t.id, t.taxonomy, t.name, t.slug, t.parent_id
		ORDER BY t.taxonomy, t.name, t.id`, taxonomies)
	if err != nil {
		return nil, err
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Term, error) {
		var t Term
		var count int64
		err := row.Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.ParentID, &count)
		t.Count = int(count)
		return t, err
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]Term, len(taxonomies))
	for _, t := range list {
		out[t.Taxonomy] = append(out[t.Taxonomy], t)
	}
	return out, nil
}

// PriceRange returns the lowest and highest published price.
func (s *PostgresStore) PriceRange(ctx context.Context) (PriceRange, error) {
	if s == nil || s.pool == nil {
		return PriceRange{}, ErrStoreUnavailable
	}
	var r PriceRange
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MIN(price), 0)::float8, COALESCE(MAX(price), 0)::float8
		FROM products WHERE status = 'publish'`).Scan(&r.Min, &r.Max)
	if err != nil {
		return PriceRange{}, fmt.Errorf("load price range: %w", err)
	}
	return r, nil
}

var _ Store = (*PostgresStore)(nil)
