package resolver

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/domain"
)

func TestCacheHitAndMiss(t *testing.T) {
	cache := NewCache(16, 0)
	schemaID := uuid.New()

	if _, hit := cache.Get(schemaID, "ref:price"); hit {
		t.Fatal("expected miss on empty cache")
	}

	resolved := domain.ResolvedField{FieldID: "f1", FieldKey: "price", Confidence: domain.ConfidenceExactKey}
	cache.Set(schemaID, "ref:price", &resolved)

	cached, hit := cache.Get(schemaID, "ref:price")
	if !hit {
		t.Fatal("expected hit after set")
	}
	if cached == nil || cached.FieldKey != "price" {
		t.Errorf("cached entry wrong: %+v", cached)
	}
}

// A stored nil is a hit carrying "resolves to nothing", distinct from a miss.
func TestCacheNegativeEntry(t *testing.T) {
	cache := NewCache(16, 0)
	schemaID := uuid.New()

	cache.Set(schemaID, "ref:ghost", nil)

	cached, hit := cache.Get(schemaID, "ref:ghost")
	if !hit {
		t.Fatal("expected hit for stored negative entry")
	}
	if cached != nil {
		t.Errorf("negative entry should be nil, got %+v", cached)
	}
}

func TestCacheReturnsClone(t *testing.T) {
	cache := NewCache(16, 0)
	schemaID := uuid.New()

	resolved := domain.ResolvedField{FieldID: "f1", FieldKey: "price"}
	cache.Set(schemaID, "ref:price", &resolved)

	first, _ := cache.Get(schemaID, "ref:price")
	first.FieldKey = "mutated"

	second, _ := cache.Get(schemaID, "ref:price")
	if second.FieldKey != "price" {
		t.Errorf("cache leaked a mutable reference: %+v", second)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewCache(16, 20*time.Millisecond)
	schemaID := uuid.New()

	cache.Set(schemaID, "ref:price", &domain.ResolvedField{FieldKey: "price"})
	if _, hit := cache.Get(schemaID, "ref:price"); !hit {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)
	if _, hit := cache.Get(schemaID, "ref:price"); hit {
		t.Error("expected miss after TTL expiry")
	}
}

func TestCacheClearSchema(t *testing.T) {
	cache := NewCache(16, 0)
	keep := uuid.New()
	evict := uuid.New()

	cache.Set(keep, "ref:price", &domain.ResolvedField{FieldKey: "price"})
	cache.Set(evict, "ref:price", &domain.ResolvedField{FieldKey: "price"})
	cache.Set(evict, "alias:email", nil)

	cache.ClearSchema(evict)

	if _, hit := cache.Get(evict, "ref:price"); hit {
		t.Error("expected eviction of cleared schema's positive entry")
	}
	if _, hit := cache.Get(evict, "alias:email"); hit {
		t.Error("expected eviction of cleared schema's negative entry")
	}
	if _, hit := cache.Get(keep, "ref:price"); !hit {
		t.Error("clearing one schema must not evict another's entries")
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(16, 0)
	cache.Set(uuid.New(), "ref:a", nil)
	cache.Set(uuid.New(), "ref:b", nil)

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", cache.Len())
	}
}
