// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/test/helpers"
)

var (
	benchBrands   = []string{"Zara", "Mango", "COS", "Arket", "Levi's", "Ganni", "Whistles", "Barbour"}
	benchMaterial = []domain.Material{domain.MaterialCotton, domain.MaterialWool, domain.MaterialDenim, domain.MaterialSilk, domain.MaterialLeather}
)

// benchmarkCatalog builds n items covering every department so facet and
// filter work is spread the way a real storefront is.
func benchmarkCatalog(n int) []*domain.Item {
	items := make([]*domain.Item, n)
	for i := range items {
		category := domain.AllCategories[i%len(domain.AllCategories)]
		subs := domain.Taxonomy[category]
		items[i] = helpers.CreateTestItem(func(item *domain.Item) {
			item.ID = fmt.Sprintf("bench-%06d", i)
			item.Title = fmt.Sprintf("%s item %d", benchBrands[i%len(benchBrands)], i)
			item.Brand = benchBrands[i%len(benchBrands)]
			item.Category = category
			item.SubCategory = subs[i%len(subs)]
			item.Sizes = []domain.Size{domain.AllSizes[i%len(domain.AllSizes)]}
			item.Materials = []domain.Material{benchMaterial[i%len(benchMaterial)]}
			item.Condition = domain.AllConditions[i%len(domain.AllConditions)]
			item.Price = int64(5 + (i*37)%500)
			item.StockCount = i % 4
			if i%9 == 0 {
				item.Status = domain.StatusSold
			}
			item.Description = "Pre-loved " + string(item.SubCategory)
		})
	}
	return items
}

// memoryRepository is an in-memory ports.ItemRepository for service benchmarks.
type memoryRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
}

func newMemoryRepository(items []*domain.Item) *memoryRepository {
	r := &memoryRepository{items: make(map[string]*domain.Item, len(items))}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return r
}

func (r *memoryRepository) Save(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *memoryRepository) SaveBatch(ctx context.Context, items []*domain.Item) error {
	for _, item := range items {
		_ = r.Save(ctx, item)
	}
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

func (r *memoryRepository) ListAll(_ context.Context) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b *domain.Item) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *memoryRepository) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Item, error) {
	all, _ := r.ListAll(ctx)
	return slices.DeleteFunc(all, func(item *domain.Item) bool { return item.Category != category }), nil
}

func (r *memoryRepository) UpdateStock(_ context.Context, id string, status domain.Status, stockCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	item.Status = status
	item.StockCount = stockCount
	return nil
}

func (r *memoryRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}
