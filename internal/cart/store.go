package cart

import (
	"context"
	"fmt"
	"sync"

	"friperie_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ItemReader lit les données articles faisant autorité. Le stock est relu
// juste avant chaque mutation : il est partagé entre tous les acheteurs et
// peut changer entre l'affichage et l'action.
type ItemReader interface {
	Get(ctx context.Context, itemID gocql.UUID) (models.Item, error)
	Stock(ctx context.Context, itemID gocql.UUID) (int, error)
}

// LineStore persiste les lignes de panier, partitionnées par identité.
type LineStore interface {
	Lines(ctx context.Context, identity string) ([]models.CartLine, error)
	Insert(ctx context.Context, line models.CartLine) error
	UpdateQuantity(ctx context.Context, identity string, itemID gocql.UUID, quantity int) error
	Delete(ctx context.Context, identity string, itemID gocql.UUID) error
	DeleteAll(ctx context.Context, identity string) error
}

// StockReserver décrémente le stock de façon conditionnelle et atomique.
// Reserve renvoie false (sans erreur) si le stock est insuffisant.
type StockReserver interface {
	Reserve(ctx context.Context, itemID gocql.UUID, quantity int) (bool, error)
	Release(ctx context.Context, itemID gocql.UUID, quantity int) error
}

// PurchaseStore persiste les enregistrements d'achat. Delete sert aux
// suppressions compensatoires quand une ligne sœur échoue.
type PurchaseStore interface {
	Insert(ctx context.Context, p models.Purchase) error
	Delete(ctx context.Context, purchaseID gocql.UUID) error
}

// Gateway regroupe les accès au stockage distant dont le panier a besoin.
type Gateway struct {
	Items     ItemReader
	Lines     LineStore
	Stock     StockReserver
	Purchases PurchaseStore
}

// Store maintient le miroir local du panier d'une identité (user_id
// authentifié ou anon_id durable). Les lignes en base font autorité ;
// l'état local n'est qu'un cache d'affichage, mis à jour uniquement après
// confirmation de l'écriture distante.
type Store struct {
	identity string
	gw       Gateway

	mu    sync.Mutex
	state []models.CartEntry
}

func NewStore(identity string, gw Gateway) *Store {
	return &Store{identity: identity, gw: gw}
}

func (s *Store) Identity() string {
	return s.identity
}

// FetchCart relit toutes les lignes de l'identité, jointes aux articles,
// et remplace l'état local en bloc. Tout état optimiste non synchronisé est
// écrasé — acceptable car les écritures sont toujours distantes d'abord.
func (s *Store) FetchCart(ctx context.Context) error {
	lines, err := s.gw.Lines.Lines(ctx, s.identity)
	if err != nil {
		return fmt.Errorf("lecture panier: %w", err)
	}

	entries := make([]models.CartEntry, 0, len(lines))
	for _, line := range lines {
		item, err := s.gw.Items.Get(ctx, line.ItemID)
		if err != nil {
			// Article supprimé entre-temps : la ligne est ignorée à l'affichage
			continue
		}
		entries = append(entries, models.CartEntry{Item: item, Quantity: line.Quantity})
	}

	s.mu.Lock()
	s.state = entries
	s.mu.Unlock()
	return nil
}

// Entries renvoie une copie de l'état local courant.
func (s *Store) Entries() []models.CartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartEntry, len(s.state))
	copy(out, s.state)
	return out
}

// Subtotal calcule la somme prix × quantité des lignes courantes.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, e := range s.state {
		total += e.Price * float64(e.Quantity)
	}
	return total
}

// TotalItems renvoie le nombre total d'unités dans le panier.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, e := range s.state {
		n += e.Quantity
	}
	return n
}

// AddToCart ajoute une unité d'un article. Le stock faisant autorité est relu
// avant la mutation ; si une ligne existe déjà la quantité est incrémentée.
func (s *Store) AddToCart(ctx context.Context, itemID gocql.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.gw.Items.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("article introuvable: %w", err)
	}
	if item.Stock <= 0 {
		return ErrOutOfStock
	}

	if idx := s.indexOf(itemID); idx >= 0 {
		existing := s.state[idx].Quantity
		if existing+1 > item.Stock {
			return ErrInsufficientStock
		}
		return s.updateQuantityLocked(ctx, itemID, existing+1)
	}

	line := models.CartLine{UserID: s.identity, ItemID: itemID, Quantity: 1}
	if err := s.gw.Lines.Insert(ctx, line); err != nil {
		// Pas d'insertion optimiste : l'état local reste tel quel
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	s.state = append(s.state, models.CartEntry{Item: item, Quantity: 1})
	return nil
}

// UpdateQuantity fixe la quantité d'une ligne après revalidation du stock.
func (s *Store) UpdateQuantity(ctx context.Context, itemID gocql.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateQuantityLocked(ctx, itemID, quantity)
}

func (s *Store) updateQuantityLocked(ctx context.Context, itemID gocql.UUID, quantity int) error {
	stock, err := s.gw.Items.Stock(ctx, itemID)
	if err != nil {
		return fmt.Errorf("lecture stock: %w", err)
	}
	if quantity > stock {
		return ErrInsufficientStock
	}

	if err := s.gw.Lines.UpdateQuantity(ctx, s.identity, itemID, quantity); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	if idx := s.indexOf(itemID); idx >= 0 {
		s.state[idx].Quantity = quantity
	}
	return nil
}

// Remove supprime une ligne. Supprimer une ligne absente n'est pas une erreur.
func (s *Store) Remove(ctx context.Context, itemID gocql.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gw.Lines.Delete(ctx, s.identity, itemID); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	if idx := s.indexOf(itemID); idx >= 0 {
		s.state = append(s.state[:idx], s.state[idx+1:]...)
	}
	return nil
}

// Clear vide le panier, en base puis localement.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	if err := s.gw.Lines.DeleteAll(ctx, s.identity); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	s.state = nil
	return nil
}

func (s *Store) indexOf(itemID gocql.UUID) int {
	for i, e := range s.state {
		if e.ID == itemID {
			return i
		}
	}
	return -1
}
