package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gocql/gocql"
)

func TestManager_HydratesOnFirstAccess(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Veste", 20.0, 3)
	f.lines["alice"] = map[gocql.UUID]int{itemID: 2}

	m := NewManager(f.gateway())
	s, err := m.Store(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Entries()) != 1 || s.Entries()[0].Quantity != 2 {
		t.Errorf("store should be hydrated from persisted lines, got %+v", s.Entries())
	}
}

func TestManager_ReturnsSameStoreForSameIdentity(t *testing.T) {
	f := newFakeGateway()
	m := NewManager(f.gateway())
	ctx := context.Background()

	a, err := m.Store(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Store(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same identity must share one store")
	}
}

func TestManager_IdentitiesAreIsolated(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Sac", 15.0, 4)
	m := NewManager(f.gateway())
	ctx := context.Background()

	a, err := m.Store(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.AddToCart(ctx, itemID); err != nil {
		t.Fatal(err)
	}

	b, err := m.Store(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Entries()) != 0 {
		t.Error("a fresh identity must start with an empty cart")
	}
}

func TestManager_DropForcesRehydration(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Chapeau", 9.0, 4)
	m := NewManager(f.gateway())
	ctx := context.Background()

	s, err := m.Store(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(ctx, itemID); err != nil {
		t.Fatal(err)
	}

	m.Drop("alice")

	again, err := m.Store(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if again == s {
		t.Error("drop must discard the previous store")
	}
	if len(again.Entries()) != 1 {
		t.Error("rehydration must rebuild state from persisted lines")
	}
}

func TestManager_EvictsIdleStores(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Echarpe", 7.0, 2)
	m := NewManager(f.gateway())
	ctx := context.Background()

	s, err := m.Store(ctx, "anon-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(ctx, itemID); err != nil {
		t.Fatal(err)
	}

	m.mu.Lock()
	m.stores["anon-1"].lastSeen = time.Now().Add(-storeIdleTTL - time.Minute)
	m.mu.Unlock()

	// N'importe quel accès déclenche le balayage
	if _, err := m.Store(ctx, "anon-2"); err != nil {
		t.Fatal(err)
	}

	m.mu.Lock()
	_, kept := m.stores["anon-1"]
	total := len(m.stores)
	m.mu.Unlock()

	if kept {
		t.Error("an idle store must be evicted")
	}
	if total != 1 {
		t.Errorf("retained stores = %d, want 1", total)
	}

	// L'éviction ne perd rien : les lignes en base réhydratent le miroir
	again, err := m.Store(ctx, "anon-1")
	if err != nil {
		t.Fatal(err)
	}
	if again == s {
		t.Error("eviction must discard the previous store")
	}
	if len(again.Entries()) != 1 || again.Entries()[0].Quantity != 1 {
		t.Errorf("rehydration must rebuild state from persisted lines, got %+v", again.Entries())
	}
}

func TestManager_BoundsStoreCount(t *testing.T) {
	f := newFakeGateway()
	m := NewManager(f.gateway())
	ctx := context.Background()

	// Des identités anonymes arbitraires ne coûtent rien à fabriquer côté
	// client : le Manager doit rester borné quoi qu'il arrive
	for i := 0; i < maxStores+256; i++ {
		if _, err := m.Store(ctx, fmt.Sprintf("anon-%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	m.mu.Lock()
	total := len(m.stores)
	m.mu.Unlock()

	if total > maxStores {
		t.Errorf("retained stores = %d, cap %d exceeded", total, maxStores)
	}

	// Les identités les plus récentes restent servies par le même store
	last := fmt.Sprintf("anon-%d", maxStores+255)
	m.mu.Lock()
	_, kept := m.stores[last]
	m.mu.Unlock()
	if !kept {
		t.Error("the most recent identity must survive cap eviction")
	}
}
