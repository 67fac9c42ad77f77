// internal/core/services/catalog.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/ammerola/preloved-be/internal/core/catalog"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/pkg/config"
	"github.com/ammerola/preloved-be/internal/pkg/metrics"
)

const (
	snapshotKey = "catalog:snapshot"
	facetPrefix = "catalog:facets:"

	batchSize = 100
)

// Config tunes the catalog service
type Config struct {
	PriceBounds     domain.PriceRange
	Locale          language.Tag
	SnapshotTTL     time.Duration
	FacetTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
	MemoLimit       int
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		PriceBounds: domain.DefaultPriceRange,
		Locale:      language.English,
		SnapshotTTL: 5 * time.Minute,
		FacetTTL:    time.Minute,
		MaxPageSize: 200,
		MemoLimit:   100_000,
	}
}

// ConfigFrom applies the non-zero catalog settings over DefaultConfig.
func ConfigFrom(c config.CatalogConfig) (Config, error) {
	out := DefaultConfig()
	if c.PriceMin != 0 || c.PriceMax != 0 {
		out.PriceBounds = domain.PriceRange{Min: c.PriceMin, Max: c.PriceMax}
	}
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return out, fmt.Errorf("catalog locale %q: %w", c.Locale, err)
		}
		out.Locale = tag
	}
	if c.SnapshotTTL > 0 {
		out.SnapshotTTL = c.SnapshotTTL
	}
	if c.FacetTTL > 0 {
		out.FacetTTL = c.FacetTTL
	}
	if c.MaxPageSize > 0 {
		out.MaxPageSize = c.MaxPageSize
	}
	if c.MemoLimit > 0 {
		out.MemoLimit = c.MemoLimit
	}
	out.DefaultPageSize = c.DefaultPageSize
	return out, nil
}

// cachedSnapshot is the shared cache document. LoadedAt is when the items
// were read from the repository, so a process that picks the document up
// late still expires it SnapshotTTL after that read.
type cachedSnapshot struct {
	Items    []*domain.Item `json:"items"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// snapshot is an immutable catalog copy with its own predicate memo, so a
// memo never outlives the items it was computed for.
type snapshot struct {
	items    []*domain.Item
	engine   *catalog.Engine
	memo     *catalog.Memo
	loadedAt time.Time
}

// CatalogService serves browsing over a cached catalog snapshot and
// handles admin writes. All filtering, ranking and counting is delegated
// to the catalog engine.
type CatalogService struct {
	repo    ports.ItemRepository
	cache   ports.Cache
	latest  *catalog.Superseder
	metrics *metrics.Metrics
	config  Config
	logger  *slog.Logger

	mu    sync.RWMutex
	snap  *snapshot
	gen   uint64
	group singleflight.Group
	now   func() time.Time
}

// Statically assert that *CatalogService implements the CatalogService interface.
var _ ports.CatalogService = (*CatalogService)(nil)

// Option configures a CatalogService
type Option func(*CatalogService)

// WithMetrics records projection and snapshot metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *CatalogService) { s.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *CatalogService) { s.now = now }
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo ports.ItemRepository, cache ports.Cache, config Config, logger *slog.Logger, opts ...Option) *CatalogService {
	s := &CatalogService{
		repo:   repo,
		cache:  cache,
		latest: catalog.NewSuperseder(),
		config: config,
		logger: logger.With(slog.String("service", "catalog")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Browse projects the catalog for one browsing request. When the request
// carries a session ID, a newer Browse for the same session supersedes it
// and this call returns catalog.ErrSuperseded.
func (s *CatalogService) Browse(ctx context.Context, req ports.BrowseRequest) (*ports.BrowseResult, error) {
	var ticket *catalog.Ticket
	if req.SessionID != "" {
		ctx, ticket = s.latest.Begin(ctx, req.SessionID)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		if ticket != nil {
			ticket.Done()
		}
		if errors.Is(context.Cause(ctx), catalog.ErrSuperseded) {
			s.metrics.Superseded()
			return nil, catalog.ErrSuperseded
		}
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	q, dropped := s.normalize(ctx, snap, req.Raw)

	start := time.Now()
	res := snap.engine.ProjectQuery(snap.items, q, s.page(req.Page))
	s.metrics.ObserveProjection(string(q.Sort), res.Total, time.Since(start))

	if ticket != nil && !ticket.Done() {
		s.metrics.Superseded()
		s.logger.DebugContext(ctx, "discarding superseded browse result",
			slog.String("session_id", req.SessionID))
		return nil, catalog.ErrSuperseded
	}

	out := &ports.BrowseResult{
		Items:      make([]ports.Listing, len(res.Items)),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
		Sort:       q.Sort,
		Price:      q.Price,
		Ignored:    dropped,
	}
	for i, it := range res.Items {
		out.Items[i] = ports.NewListing(it)
	}
	return out, nil
}

// Facets returns cross-filtered facet counts for the request's query.
func (s *CatalogService) Facets(ctx context.Context, req ports.FacetRequest) (*ports.FacetResult, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	q, _ := s.normalize(ctx, snap, req.Raw)
	dims := req.Dimensions
	if len(dims) == 0 {
		dims = domain.AllDimensions
	}

	key := s.facetKey(q, dims, req.Top)
	var result ports.FacetResult
	err = s.cache.Remember(ctx, key, s.config.FacetTTL, &result, func(context.Context) (any, error) {
		counts := snap.engine.Facets(snap.items, q, dims...)
		r := ports.FacetResult{
			Total:  len(snap.memo.Filter(snap.items, q)),
			Facets: make(map[domain.Dimension]ports.FacetSummary, len(counts)),
		}
		for d, c := range counts {
			values, more := catalog.Top(c, req.Top)
			r.Facets[d] = ports.FacetSummary{Values: values, More: more}
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute facets: %w", err)
	}

	return &result, nil
}

// Showcase returns one tile per subcategory of category, in taxonomy order,
// counted under the default browsing query for that department.
func (s *CatalogService) Showcase(ctx context.Context, category domain.Category) (*ports.ShowcaseResult, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, category)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	q := snap.engine.Normalizer(snap.items).Normalize(domain.RawQuery{RouteCategory: string(category)})
	counts := snap.engine.Facets(snap.items, q, domain.DimSubCategory)[domain.DimSubCategory]

	result := &ports.ShowcaseResult{
		Category: category,
		Total:    len(snap.memo.Filter(snap.items, q)),
	}
	for _, sub := range domain.Taxonomy[category] {
		result.Tiles = append(result.Tiles, catalog.FacetValue{Value: string(sub), Count: counts[string(sub)]})
	}
	return result, nil
}

// GetItem retrieves one item, including unavailable ones.
func (s *CatalogService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return item, nil
}

// SaveItem validates and stores a single item
func (s *CatalogService) SaveItem(ctx context.Context, item *domain.Item) error {
	if err := s.prepare(ctx, item); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.InfoContext(ctx, "saved catalog item",
		slog.String("item_id", item.ID),
		slog.String("category", string(item.Category)),
		slog.String("title", item.Title))

	s.invalidate(ctx)
	return nil
}

// SaveItems validates every item before storing any, then saves in batches.
func (s *CatalogService) SaveItems(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		s.logger.InfoContext(ctx, "no items to save")
		return nil
	}

	for i, item := range items {
		if err := s.prepare(ctx, item); err != nil {
			return fmt.Errorf("item %d (%s): %w", i, item.Title, err)
		}
	}

	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		if err := s.repo.SaveBatch(ctx, items[i:end]); err != nil {
			return fmt.Errorf("failed to save batch %d-%d: %w", i, end, err)
		}
	}

	s.logger.InfoContext(ctx, "saved catalog items",
		slog.Int("count", len(items)))

	s.invalidate(ctx)
	return nil
}

// UpdateItem replaces an existing item, keeping its creation timestamps.
func (s *CatalogService) UpdateItem(ctx context.Context, id string, item *domain.Item) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load item %s: %w", id, err)
	}

	item.ID = id
	item.CreatedAt = existing.CreatedAt
	if item.DateAdded.IsZero() {
		item.DateAdded = existing.DateAdded
	}

	if err := s.prepare(ctx, item); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.InfoContext(ctx, "updated catalog item",
		slog.String("item_id", id))

	s.invalidate(ctx)
	return nil
}

// UpdateStock changes availability without touching the rest of the listing.
func (s *CatalogService) UpdateStock(ctx context.Context, id string, status domain.Status, stockCount int) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status)
	}
	if stockCount < 0 {
		return fmt.Errorf("%w: stock_count cannot be negative", domain.ErrValidation)
	}

	if err := s.repo.UpdateStock(ctx, id, status, stockCount); err != nil {
		return fmt.Errorf("failed to update stock for %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "updated item stock",
		slog.String("item_id", id),
		slog.String("status", string(status)),
		slog.Int("stock_count", stockCount))

	s.invalidate(ctx)
	return nil
}

// DeleteItem soft-deletes an item
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "deleted catalog item",
		slog.String("item_id", id))

	s.invalidate(ctx)
	return nil
}

// Refresh drops every cached copy of the catalog and loads a fresh one.
func (s *CatalogService) Refresh(ctx context.Context) (int, error) {
	s.invalidate(ctx)

	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh catalog: %w", err)
	}

	s.logger.InfoContext(ctx, "catalog snapshot refreshed",
		slog.Int("items", len(snap.items)))
	return len(snap.items), nil
}

// snapshot returns the in-process snapshot, falling back to the shared
// cache and then the repository. Concurrent misses share one load.
func (s *CatalogService) snapshot(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	snap, gen := s.snap, s.gen
	s.mu.RUnlock()
	if snap != nil && s.now().Sub(snap.loadedAt) < s.config.SnapshotTTL {
		return snap, nil
	}

	ch := s.group.DoChan(fmt.Sprintf("%s:%d", snapshotKey, gen), func() (interface{}, error) {
		// detached so one cancelled caller does not fail the others
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return s.load(loadCtx, gen)
	})

	select {
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot), nil
	}
}

// load stores the new snapshot only if no write happened since gen was read.
func (s *CatalogService) load(ctx context.Context, gen uint64) (*snapshot, error) {
	outcome := "hit"
	var doc cachedSnapshot
	var fetchErr error
	err := s.cache.Remember(ctx, snapshotKey, s.config.SnapshotTTL, &doc, func(ctx context.Context) (any, error) {
		outcome = "miss"
		fetched, err := s.repo.ListAll(ctx)
		fetchErr = err
		return cachedSnapshot{Items: fetched, LoadedAt: s.now()}, err
	})
	items := doc.Items

	switch {
	case err == nil:
	case fetchErr != nil:
		s.metrics.SnapshotLoaded("error", 0)
		return nil, fetchErr
	default:
		s.logger.WarnContext(ctx, "snapshot cache unavailable, reading repository",
			slog.String("error", err.Error()))

		items, err = s.repo.ListAll(ctx)
		if err != nil {
			s.metrics.SnapshotLoaded("error", 0)
			return nil, err
		}
		outcome = "miss"
		doc.LoadedAt = time.Time{}
	}

	loadedAt := doc.LoadedAt
	if now := s.now(); loadedAt.IsZero() || loadedAt.After(now) {
		loadedAt = now
	}

	memo := catalog.NewMemo(s.config.MemoLimit)
	snap := &snapshot{
		items: items,
		memo:  memo,
		engine: catalog.NewEngine(
			catalog.WithPriceBounds(s.config.PriceBounds),
			catalog.WithCatalogBounds(),
			catalog.WithLocale(s.config.Locale),
			catalog.WithMemo(memo),
		),
		loadedAt: loadedAt,
	}

	s.mu.Lock()
	if s.gen == gen {
		s.snap = snap
	}
	s.mu.Unlock()

	s.metrics.SnapshotLoaded(outcome, len(items))
	s.logger.DebugContext(ctx, "catalog snapshot loaded",
		slog.String("source", outcome),
		slog.Int("items", len(items)))
	return snap, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	s.mu.Lock()
	s.snap = nil
	s.gen++
	s.mu.Unlock()

	if err := s.cache.Evict(ctx, snapshotKey); err != nil {
		s.logger.WarnContext(ctx, "failed to drop cached snapshot",
			slog.String("error", err.Error()))
	}
	if err := s.cache.EvictPrefix(ctx, facetPrefix); err != nil {
		s.logger.WarnContext(ctx, "failed to drop cached facets",
			slog.String("error", err.Error()))
	}
}

func (s *CatalogService) normalize(ctx context.Context, snap *snapshot, raw domain.RawQuery) (domain.Query, []catalog.Dropped) {
	q, dropped := snap.engine.Normalizer(snap.items).NormalizeReport(raw)
	for _, d := range dropped {
		s.metrics.DroppedFilter(string(d.Dimension))
		s.logger.WarnContext(ctx, "ignoring unknown filter value",
			slog.String("dimension", string(d.Dimension)),
			slog.String("value", d.Value))
	}
	return q, dropped
}

func (s *CatalogService) page(p catalog.Page) catalog.Page {
	if p.Size <= 0 {
		p.Size = s.config.DefaultPageSize
	}
	if s.config.MaxPageSize > 0 && p.Size > s.config.MaxPageSize {
		p.Size = s.config.MaxPageSize
	}
	return p
}

func (s *CatalogService) facetKey(q domain.Query, dims []domain.Dimension, top int) string {
	names := make([]string, len(dims))
	for i, d := range dims {
		names[i] = string(d)
	}
	return fmt.Sprintf("%s%s:%s:%d", facetPrefix, q.Key(), strings.Join(names, ","), top)
}

func (s *CatalogService) prepare(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	item.PrepareForStorage()

	if item.HasPriceAnomaly() {
		pct, _ := item.DiscountPercent()
		s.logger.WarnContext(ctx, "original price below asking price",
			slog.String("item_id", item.ID),
			slog.Int64("price", item.Price),
			slog.Int64("original_price", *item.OriginalPrice),
			slog.String("discount_percent", pct.String()))
	}
	return nil
}
