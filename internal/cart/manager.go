package cart

import (
	"context"
	"sync"
	"time"
)

const (
	// Un miroir inactif est abandonné : les identités anonymes se créent à
	// volonté (cookie anon_id), le Manager ne peut pas les retenir toutes
	storeIdleTTL = 30 * time.Minute
	// Plafond dur, au cas où le TTL ne suffit pas
	maxStores = 4096
)

type storeEntry struct {
	store    *Store
	lastSeen time.Time
}

// Manager tient un Store par identité active. Le store est créé et hydraté
// au premier accès, puis partagé par toutes les requêtes de cette identité.
// Drop est appelé à la déconnexion ou au changement d'identité : un store
// n'est jamais réutilisé d'une identité à l'autre. Les miroirs inactifs
// sont évincés ; les lignes en base restent la référence et le prochain
// accès réhydrate.
type Manager struct {
	gw     Gateway
	mu     sync.Mutex
	stores map[string]*storeEntry
}

func NewManager(gw Gateway) *Manager {
	return &Manager{
		gw:     gw,
		stores: make(map[string]*storeEntry),
	}
}

// Store renvoie le panier de l'identité, en l'hydratant depuis la base au
// premier accès.
func (m *Manager) Store(ctx context.Context, identity string) (*Store, error) {
	m.mu.Lock()
	m.evictLocked()
	e, ok := m.stores[identity]
	if !ok {
		e = &storeEntry{store: NewStore(identity, m.gw)}
		m.stores[identity] = e
	}
	e.lastSeen = time.Now()
	m.mu.Unlock()

	if !ok {
		if err := e.store.FetchCart(ctx); err != nil {
			m.Drop(identity)
			return nil, err
		}
	}
	return e.store, nil
}

// evictLocked abandonne les miroirs inactifs depuis storeIdleTTL, puis les
// plus anciens tant que le plafond est dépassé.
func (m *Manager) evictLocked() {
	cutoff := time.Now().Add(-storeIdleTTL)
	for identity, e := range m.stores {
		if e.lastSeen.Before(cutoff) {
			delete(m.stores, identity)
		}
	}

	for len(m.stores) >= maxStores {
		oldest := ""
		var oldestSeen time.Time
		for identity, e := range m.stores {
			if oldest == "" || e.lastSeen.Before(oldestSeen) {
				oldest = identity
				oldestSeen = e.lastSeen
			}
		}
		delete(m.stores, oldest)
	}
}

// Drop abandonne le miroir local d'une identité. Les lignes en base restent
// intactes et seront rechargées au prochain accès.
func (m *Manager) Drop(identity string) {
	m.mu.Lock()
	delete(m.stores, identity)
	m.mu.Unlock()
}
