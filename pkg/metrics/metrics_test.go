package metrics_test

import (
	"context"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/catalog-filter/internal/testutil"
	"github.com/Sternrassler/catalog-filter/pkg/cache"
	"github.com/Sternrassler/catalog-filter/pkg/events"
	"github.com/Sternrassler/catalog-filter/pkg/metrics"
	"github.com/Sternrassler/catalog-filter/pkg/search"
)

func TestRegistry(t *testing.T) {
	if metrics.Registry == nil {
		t.Error("Registry should not be nil")
	}

	if metrics.Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

// TestNamesAreRegistered exercises every metric once and checks the documented
// names against the default gatherer.
func TestNamesAreRegistered(t *testing.T) {
	ctx := context.Background()
	c := cache.New(cache.NewMemoryStorage(), cache.DefaultOptions())
	service := search.New(testutil.NewCatalog(), c, search.DefaultConfig(), zerolog.Nop())

	service.Products(ctx, nil)
	service.Products(ctx, nil)
	service.Flush(ctx)
	search.New(testutil.FailingStore{}, nil, search.DefaultConfig(), zerolog.Nop()).Products(ctx, nil)
	cache.CacheErrors.WithLabelValues("get").Add(0)
	events.EventsProcessed.WithLabelValues("flushed").Add(0)

	families, err := metrics.Gatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var gathered []string
	for _, f := range families {
		gathered = append(gathered, f.GetName())
	}

	for _, name := range metrics.Names {
		if !slices.Contains(gathered, name) {
			t.Errorf("metric %s is documented but not registered", name)
		}
	}
}
