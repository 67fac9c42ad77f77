// internal/core/services/catalog_service_test.go
package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/preloved-be/internal/core/catalog"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/internal/core/services"
	"github.com/ammerola/preloved-be/internal/pkg/config"
	"github.com/ammerola/preloved-be/test/helpers"
	"github.com/ammerola/preloved-be/test/mocks"
)

type fixture struct {
	repo    *mocks.MockItemRepository
	cache   *mocks.MockCache
	service *services.CatalogService

	mu        sync.Mutex
	cacheKeys []string
}

func testConfig() services.Config {
	cfg := services.DefaultConfig()
	cfg.DefaultPageSize = 24
	cfg.MaxPageSize = 50
	return cfg
}

func newFixture(t *testing.T, cfg services.Config, opts ...services.Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:  mocks.NewMockItemRepository(ctrl),
		cache: mocks.NewMockCache(ctrl),
	}
	f.service = services.NewCatalogService(f.repo, f.cache, cfg, helpers.TestLogger(), opts...)
	return f
}

// passThrough makes Remember behave like an always-missing cache that
// still round-trips values through JSON.
func (f *fixture) passThrough() {
	f.cache.EXPECT().
		Remember(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, key string, _ time.Duration, dest any, fill func(context.Context) (any, error)) error {
			f.mu.Lock()
			f.cacheKeys = append(f.cacheKeys, key)
			f.mu.Unlock()

			v, err := fill(ctx)
			if err != nil {
				return err
			}
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, dest)
		}).
		AnyTimes()
}

func (f *fixture) expectInvalidate() {
	f.cache.EXPECT().Evict(gomock.Any(), "catalog:snapshot").Return(nil)
	f.cache.EXPECT().EvictPrefix(gomock.Any(), "catalog:facets:").Return(nil)
}

func catalogItems() []*domain.Item {
	items := helpers.CreateTestItems(10)
	items[0].Status = domain.StatusSold
	items[0].StockCount = 0
	return items
}

func TestCatalogService_Browse(t *testing.T) {
	tests := []struct {
		name  string
		req   ports.BrowseRequest
		check func(t *testing.T, res *ports.BrowseResult)
	}{
		{
			name: "default_query_lists_available_newest_first",
			req:  ports.BrowseRequest{},
			check: func(t *testing.T, res *ports.BrowseResult) {
				assert.Equal(t, 9, res.Total)
				assert.Equal(t, domain.SortNewest, res.Sort)
				require.NotEmpty(t, res.Items)
				assert.Equal(t, "item-010", res.Items[0].ID)
				for _, l := range res.Items {
					assert.True(t, l.Purchasable)
				}
			},
		},
		{
			name: "route_category_filters",
			req:  ports.BrowseRequest{Raw: domain.RawQuery{RouteCategory: "shoes"}},
			check: func(t *testing.T, res *ports.BrowseResult) {
				assert.Equal(t, 2, res.Total)
				for _, l := range res.Items {
					assert.Equal(t, domain.CategoryShoes, l.Category)
				}
			},
		},
		{
			name: "status_unconstrained_includes_sold",
			req: ports.BrowseRequest{Raw: domain.RawQuery{
				Facets: map[domain.Dimension][]string{domain.DimStatus: {}},
			}},
			check: func(t *testing.T, res *ports.BrowseResult) {
				assert.Equal(t, 10, res.Total)
			},
		},
		{
			name: "unknown_filter_value_is_reported",
			req: ports.BrowseRequest{Raw: domain.RawQuery{
				Facets: map[domain.Dimension][]string{domain.DimSize: {"M", "XXXXL"}},
			}},
			check: func(t *testing.T, res *ports.BrowseResult) {
				require.Len(t, res.Ignored, 1)
				assert.Equal(t, domain.DimSize, res.Ignored[0].Dimension)
				assert.Equal(t, "XXXXL", res.Ignored[0].Value)
				// item-006; item-001 also has M but is sold
				assert.Equal(t, 1, res.Total)
			},
		},
		{
			name: "price_sort_ascending",
			req:  ports.BrowseRequest{Raw: domain.RawQuery{Sort: "price-low"}},
			check: func(t *testing.T, res *ports.BrowseResult) {
				require.Len(t, res.Items, 9)
				for i := 1; i < len(res.Items); i++ {
					assert.LessOrEqual(t, res.Items[i-1].Price, res.Items[i].Price)
				}
			},
		},
		{
			name: "page_size_is_capped",
			req:  ports.BrowseRequest{Page: catalog.Page{Number: 1, Size: 500}},
			check: func(t *testing.T, res *ports.BrowseResult) {
				assert.Equal(t, 50, res.PageSize)
				assert.Equal(t, 1, res.TotalPages)
			},
		},
		{
			name: "second_page",
			req:  ports.BrowseRequest{Page: catalog.Page{Number: 2, Size: 4}},
			check: func(t *testing.T, res *ports.BrowseResult) {
				assert.Equal(t, 2, res.Page)
				assert.Equal(t, 3, res.TotalPages)
				assert.Len(t, res.Items, 4)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig())
			f.passThrough()
			f.repo.EXPECT().ListAll(gomock.Any()).Return(catalogItems(), nil)

			res, err := f.service.Browse(context.Background(), tt.req)

			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestCatalogService_Browse_ReusesSnapshot(t *testing.T) {
	f := newFixture(t, testConfig())
	f.passThrough()
	f.repo.EXPECT().ListAll(gomock.Any()).Return(catalogItems(), nil).Times(1)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.service.Browse(ctx, ports.BrowseRequest{})
		require.NoError(t, err)
	}
}

func TestCatalogService_Browse_SnapshotExpires(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cfg := testConfig()
	cfg.SnapshotTTL = time.Minute
	f := newFixture(t, cfg, services.WithClock(clock))
	f.passThrough()
	f.repo.EXPECT().ListAll(gomock.Any()).Return(catalogItems(), nil).Times(2)

	ctx := context.Background()
	_, err := f.service.Browse(ctx, ports.BrowseRequest{})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = f.service.Browse(ctx, ports.BrowseRequest{})
	require.NoError(t, err)
}

func TestCatalogService_Browse_SharedSnapshotAgeCounts(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cfg := testConfig()
	cfg.SnapshotTTL = time.Minute
	f := newFixture(t, cfg, services.WithClock(clock))

	// another process filled the shared cache 50s ago
	filledAt := now.Add(-50 * time.Second)
	var loads int
	f.cache.EXPECT().
		Remember(gomock.Any(), "catalog:snapshot", time.Minute, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ time.Duration, dest any, _ func(context.Context) (any, error)) error {
			loads++
			data, err := json.Marshal(map[string]any{"items": catalogItems(), "loaded_at": filledAt})
			if err != nil {
				return err
			}
			return json.Unmarshal(data, dest)
		}).
		Times(2)

	ctx := context.Background()
	res, err := f.service.Browse(ctx, ports.BrowseRequest{})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Total)

	// still fresh locally, but a minute past the repository read
	now = now.Add(20 * time.Second)
	_, err = f.service.Browse(ctx, ports.BrowseRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCatalogService_Browse_CacheUnavailable(t *testing.T) {
	f := newFixture(t, testConfig())
	f.cache.EXPECT().
		Remember(gomock.Any(), "catalog:snapshot", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis: connection refused"))
	f.repo.EXPECT().ListAll(gomock.Any()).Return(catalogItems(), nil)

	res, err := f.service.Browse(context.Background(), ports.BrowseRequest{})

	require.NoError(t, err)
	assert.Equal(t, 9, res.Total)
}

func TestCatalogService_Browse_RepositoryError(t *testing.T) {
	f := newFixture(t, testConfig())
	f.passThrough()
	boom := errors.New("database down")
	f.repo.EXPECT().ListAll(gomock.Any()).Return(nil, boom)

	res, err := f.service.Browse(context.Background(), ports.BrowseRequest{})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
}

func TestCatalogService_Browse_Superseded(t *testing.T) {
	f := newFixture(t, testConfig())
	f.passThrough()

	started := make(chan struct{})
	release := make(chan struct{})
	f.repo.EXPECT().ListAll(gomock.Any()).
		DoAndReturn(func(context.Context) ([]*domain.Item, error) {
			close(started)
			<-release
			return catalogItems(), nil
		}).
		Times(1)

	ctx := context.Background()
	type outcome struct {
		res *ports.BrowseResult
		err error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	go func() {
		res, err := f.service.Browse(ctx, ports.BrowseRequest{SessionID: "s1"})
		first <- outcome{res, err}
	}()
	<-started

	go func() {
		res, err := f.service.Browse(ctx, ports.BrowseRequest{
			SessionID: "s1",
			Raw:       domain.RawQuery{RouteCategory: "tops"},
		})
		second <- outcome{res, err}
	}()

	older := <-first
	assert.ErrorIs(t, older.err, catalog.ErrSuperseded)
	assert.Nil(t, older.res)

	close(release)
	newer := <-second
	require.NoError(t, newer.err)
	assert.Equal(t, 2, newer.res.Total)
}

func TestCatalogService_Facets(t *testing.T) {
	f := newFixture(t, testConfig())
	f.passThrough()
	f.repo.EXPECT().ListAll(gomock.Any()).Return(helpers.CreateTestItems(10), nil)

	res, err := f.service.Facets(context.Background(), ports.FacetRequest{
		Raw: domain.RawQuery{
			Facets: map[domain.Dimension][]string{domain.DimCategory: {"shoes"}},
		},
		Dimensions: []domain.Dimension{domain.DimCategory, domain.DimSize},
		Top:        2,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	// the category facet ignores the category selection
	categories := res.Facets[domain.DimCategory]
	require.Len(t, categories.Values, 2)
	assert.Equal(t, catalog.FacetValue{Value: "accessories", Count: 2}, categories.Values[0])
	assert.Equal(t, 3, categories.More)

	sizes := res.Facets[domain.DimSize]
	require.Len(t, sizes.Values, 1)
	assert.Equal(t, catalog.FacetValue{Value: string(domain.SizeEU39), Count: 2}, sizes.Values[0])
	assert.Zero(t, sizes.More)

	var facetKeys []string
	for _, k := range f.cacheKeys {
		if strings.HasPrefix(k, "catalog:facets:") {
			facetKeys = append(facetKeys, k)
		}
	}
	require.Len(t, facetKeys, 1)
	assert.True(t, strings.HasSuffix(facetKeys[0], ":category,size:2"), facetKeys[0])
}

func TestCatalogService_Showcase(t *testing.T) {
	t.Run("unknown_category", func(t *testing.T) {
		f := newFixture(t, testConfig())

		_, err := f.service.Showcase(context.Background(), "furniture")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("tiles_in_taxonomy_order", func(t *testing.T) {
		f := newFixture(t, testConfig())
		f.passThrough()
		f.repo.EXPECT().ListAll(gomock.Any()).Return(helpers.CreateTestItems(10), nil)

		res, err := f.service.Showcase(context.Background(), domain.CategoryShoes)

		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		require.Len(t, res.Tiles, len(domain.Taxonomy[domain.CategoryShoes]))
		for i, sub := range domain.Taxonomy[domain.CategoryShoes] {
			assert.Equal(t, string(sub), res.Tiles[i].Value)
			if sub == domain.SubBoots {
				assert.Equal(t, 2, res.Tiles[i].Count)
			} else {
				assert.Zero(t, res.Tiles[i].Count)
			}
		}
	})
}

func TestCatalogService_SaveItem(t *testing.T) {
	tests := []struct {
		name       string
		item       *domain.Item
		setupMocks func(*fixture)
		wantErr    error
		errorMsg   string
	}{
		{
			name: "successful_save_invalidates_caches",
			item: helpers.CreateTestItem(),
			setupMocks: func(f *fixture) {
				f.repo.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.Item) error {
						assert.NotEmpty(t, item.ID)
						assert.False(t, item.CreatedAt.IsZero())
						return nil
					})
				f.expectInvalidate()
			},
		},
		{
			name: "validation_fails_for_missing_title",
			item: helpers.CreateTestItem(func(i *domain.Item) {
				i.Title = ""
			}),
			setupMocks: func(*fixture) {},
			wantErr:    domain.ErrValidation,
			errorMsg:   "title is required",
		},
		{
			name: "validation_fails_for_mismatched_subcategory",
			item: helpers.CreateTestItem(func(i *domain.Item) {
				i.SubCategory = domain.SubSneakers
			}),
			setupMocks: func(*fixture) {},
			wantErr:    domain.ErrValidation,
		},
		{
			name: "anomalous_discount_is_saved",
			item: helpers.CreateTestItem(func(i *domain.Item) {
				orig := int64(50)
				i.OriginalPrice = &orig
			}),
			setupMocks: func(f *fixture) {
				f.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
				f.expectInvalidate()
			},
		},
		{
			name: "repository_save_error",
			item: helpers.CreateTestItem(),
			setupMocks: func(f *fixture) {
				f.repo.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					Return(errors.New("database connection failed"))
			},
			errorMsg: "database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig())
			tt.setupMocks(f)

			err := f.service.SaveItem(context.Background(), tt.item)

			if tt.wantErr == nil && tt.errorMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errorMsg != "" {
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestCatalogService_SaveItems(t *testing.T) {
	t.Run("empty_is_noop", func(t *testing.T) {
		f := newFixture(t, testConfig())
		require.NoError(t, f.service.SaveItems(context.Background(), nil))
	})

	t.Run("saves_in_batches", func(t *testing.T) {
		f := newFixture(t, testConfig())
		var sizes []int
		f.repo.EXPECT().
			SaveBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, items []*domain.Item) error {
				sizes = append(sizes, len(items))
				return nil
			}).
			Times(3)
		f.expectInvalidate()

		require.NoError(t, f.service.SaveItems(context.Background(), helpers.CreateTestItems(250)))
		assert.Equal(t, []int{100, 100, 50}, sizes)
	})

	t.Run("one_invalid_item_saves_nothing", func(t *testing.T) {
		f := newFixture(t, testConfig())
		items := helpers.CreateTestItems(5)
		items[3].Price = -10

		err := f.service.SaveItems(context.Background(), items)

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Contains(t, err.Error(), "item 3")
	})

	t.Run("batch_error_is_returned", func(t *testing.T) {
		f := newFixture(t, testConfig())
		f.repo.EXPECT().SaveBatch(gomock.Any(), gomock.Any()).Return(errors.New("deadlock detected"))

		err := f.service.SaveItems(context.Background(), helpers.CreateTestItems(5))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "deadlock detected")
	})
}

func TestCatalogService_UpdateItem(t *testing.T) {
	created := time.Date(2023, 11, 5, 9, 0, 0, 0, time.UTC)

	t.Run("keeps_creation_timestamps", func(t *testing.T) {
		f := newFixture(t, testConfig())
		existing := helpers.CreateTestItem(func(i *domain.Item) {
			i.ID = "coat-1"
			i.CreatedAt = created
			i.DateAdded = created
		})
		f.repo.EXPECT().FindByID(gomock.Any(), "coat-1").Return(existing, nil)
		f.repo.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, item *domain.Item) error {
				assert.Equal(t, "coat-1", item.ID)
				assert.Equal(t, created, item.CreatedAt)
				assert.Equal(t, created, item.DateAdded)
				assert.Equal(t, int64(80), item.Price)
				return nil
			})
		f.expectInvalidate()

		update := helpers.CreateTestItem(func(i *domain.Item) {
			i.Price = 80
			i.DateAdded = time.Time{}
			i.CreatedAt = time.Time{}
		})
		require.NoError(t, f.service.UpdateItem(context.Background(), "coat-1", update))
	})

	t.Run("missing_item", func(t *testing.T) {
		f := newFixture(t, testConfig())
		f.repo.EXPECT().FindByID(gomock.Any(), "nope").Return(nil, domain.ErrItemNotFound)

		err := f.service.UpdateItem(context.Background(), "nope", helpers.CreateTestItem())
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})
}

func TestCatalogService_UpdateStock(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.Status
		stock      int
		setupMocks func(*fixture)
		wantErr    error
	}{
		{
			name:   "marks_sold",
			status: domain.StatusSold,
			stock:  0,
			setupMocks: func(f *fixture) {
				f.repo.EXPECT().UpdateStock(gomock.Any(), "coat-1", domain.StatusSold, 0).Return(nil)
				f.expectInvalidate()
			},
		},
		{
			name:       "invalid_status",
			status:     "Lost",
			setupMocks: func(*fixture) {},
			wantErr:    domain.ErrValidation,
		},
		{
			name:       "negative_stock",
			status:     domain.StatusAvailable,
			stock:      -1,
			setupMocks: func(*fixture) {},
			wantErr:    domain.ErrValidation,
		},
		{
			name:   "missing_item",
			status: domain.StatusReserved,
			stock:  1,
			setupMocks: func(f *fixture) {
				f.repo.EXPECT().UpdateStock(gomock.Any(), "coat-1", domain.StatusReserved, 1).Return(domain.ErrItemNotFound)
			},
			wantErr: domain.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig())
			tt.setupMocks(f)

			err := f.service.UpdateStock(context.Background(), "coat-1", tt.status, tt.stock)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCatalogService_DeleteItem(t *testing.T) {
	f := newFixture(t, testConfig())
	f.repo.EXPECT().SoftDelete(gomock.Any(), "coat-1").Return(nil)
	f.expectInvalidate()
	require.NoError(t, f.service.DeleteItem(context.Background(), "coat-1"))

	f.repo.EXPECT().SoftDelete(gomock.Any(), "coat-2").Return(domain.ErrItemNotFound)
	assert.ErrorIs(t, f.service.DeleteItem(context.Background(), "coat-2"), domain.ErrItemNotFound)
}

func TestCatalogService_WriteReloadsSnapshot(t *testing.T) {
	f := newFixture(t, testConfig())
	f.passThrough()

	items := catalogItems()
	f.repo.EXPECT().ListAll(gomock.Any()).Return(items, nil)
	ctx := context.Background()

	res, err := f.service.Browse(ctx, ports.BrowseRequest{})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Total)

	f.repo.EXPECT().UpdateStock(gomock.Any(), "item-002", domain.StatusSold, 0).Return(nil)
	f.expectInvalidate()
	require.NoError(t, f.service.UpdateStock(ctx, "item-002", domain.StatusSold, 0))

	items[1].Status = domain.StatusSold
	f.repo.EXPECT().ListAll(gomock.Any()).Return(items, nil)

	res, err = f.service.Browse(ctx, ports.BrowseRequest{})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Total)
}

func TestCatalogService_Refresh(t *testing.T) {
	f := newFixture(t, testConfig())
	f.passThrough()
	f.expectInvalidate()
	f.repo.EXPECT().ListAll(gomock.Any()).Return(helpers.CreateTestItems(7), nil)

	n, err := f.service.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestCatalogService_GetItem(t *testing.T) {
	f := newFixture(t, testConfig())
	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = "coat-1" })
	f.repo.EXPECT().FindByID(gomock.Any(), "coat-1").Return(item, nil)
	f.repo.EXPECT().FindByID(gomock.Any(), "gone").Return(nil, domain.ErrItemNotFound)

	got, err := f.service.GetItem(context.Background(), "coat-1")
	require.NoError(t, err)
	assert.Equal(t, item, got)

	_, err = f.service.GetItem(context.Background(), "gone")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestConfigFrom(t *testing.T) {
	t.Run("zero_settings_keep_defaults", func(t *testing.T) {
		got, err := services.ConfigFrom(config.CatalogConfig{})
		require.NoError(t, err)
		assert.Equal(t, services.DefaultConfig(), got)
	})

	t.Run("overrides", func(t *testing.T) {
		got, err := services.ConfigFrom(config.CatalogConfig{
			PriceMin:        5,
			PriceMax:        900,
			DefaultPageSize: 24,
			MaxPageSize:     48,
			SnapshotTTL:     time.Minute,
			Locale:          "fr",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PriceRange{Min: 5, Max: 900}, got.PriceBounds)
		assert.Equal(t, 24, got.DefaultPageSize)
		assert.Equal(t, 48, got.MaxPageSize)
		assert.Equal(t, time.Minute, got.SnapshotTTL)
		assert.Equal(t, "fr", got.Locale.String())
		assert.Equal(t, services.DefaultConfig().FacetTTL, got.FacetTTL)
	})

	t.Run("bad_locale", func(t *testing.T) {
		_, err := services.ConfigFrom(config.CatalogConfig{Locale: "not a locale!"})
		assert.ErrorContains(t, err, "catalog locale")
	})
}
