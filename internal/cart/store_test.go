package cart

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"friperie_back_end/internal/models"

	"github.com/gocql/gocql"
)

// fakeGateway implémente les quatre ports du panier en mémoire, avec des
// erreurs injectables pour simuler les échecs d'écriture distante.
type fakeGateway struct {
	mu sync.Mutex

	items     map[gocql.UUID]models.Item
	lines     map[string]map[gocql.UUID]int // identité → article → quantité
	purchases map[gocql.UUID]models.Purchase

	insertLineErr     error
	updateLineErr     error
	deleteLineErr     error
	purchaseErr       map[gocql.UUID]error // article → erreur d'insertion d'achat
	purchaseDeleteErr error
	releaseErr        map[gocql.UUID]error // article → erreur de rendu de stock

	stockReads int
	lineWrites int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		items:       make(map[gocql.UUID]models.Item),
		lines:       make(map[string]map[gocql.UUID]int),
		purchases:   make(map[gocql.UUID]models.Purchase),
		purchaseErr: make(map[gocql.UUID]error),
		releaseErr:  make(map[gocql.UUID]error),
	}
}

func (f *fakeGateway) gateway() Gateway {
	return Gateway{Items: f, Lines: f, Stock: f, Purchases: fakePurchases{f}}
}

func (f *fakeGateway) addItem(title string, price float64, stock int) gocql.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := gocql.TimeUUID()
	f.items[id] = models.Item{ID: id, Title: title, Price: price, Stock: stock, IsPublished: true}
	return id
}

func (f *fakeGateway) Get(ctx context.Context, itemID gocql.UUID) (models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return models.Item{}, gocql.ErrNotFound
	}
	return item, nil
}

func (f *fakeGateway) Stock(ctx context.Context, itemID gocql.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockReads++
	item, ok := f.items[itemID]
	if !ok {
		return 0, gocql.ErrNotFound
	}
	return item.Stock, nil
}

func (f *fakeGateway) Lines(ctx context.Context, identity string) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CartLine
	for itemID, qty := range f.lines[identity] {
		out = append(out, models.CartLine{UserID: identity, ItemID: itemID, Quantity: qty})
	}
	return out, nil
}

func (f *fakeGateway) Insert(ctx context.Context, line models.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lineWrites++
	if f.insertLineErr != nil {
		return f.insertLineErr
	}
	if f.lines[line.UserID] == nil {
		f.lines[line.UserID] = make(map[gocql.UUID]int)
	}
	f.lines[line.UserID][line.ItemID] = line.Quantity
	return nil
}

func (f *fakeGateway) UpdateQuantity(ctx context.Context, identity string, itemID gocql.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lineWrites++
	if f.updateLineErr != nil {
		return f.updateLineErr
	}
	if f.lines[identity] == nil {
		f.lines[identity] = make(map[gocql.UUID]int)
	}
	f.lines[identity][itemID] = quantity
	return nil
}

func (f *fakeGateway) Delete(ctx context.Context, identity string, itemID gocql.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lineWrites++
	if f.deleteLineErr != nil {
		return f.deleteLineErr
	}
	delete(f.lines[identity], itemID)
	return nil
}

func (f *fakeGateway) DeleteAll(ctx context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lineWrites++
	if f.deleteLineErr != nil {
		return f.deleteLineErr
	}
	delete(f.lines, identity)
	return nil
}

func (f *fakeGateway) Reserve(ctx context.Context, itemID gocql.UUID, quantity int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return false, gocql.ErrNotFound
	}
	if item.Stock < quantity {
		return false, nil
	}
	item.Stock -= quantity
	f.items[itemID] = item
	return true, nil
}

func (f *fakeGateway) Release(ctx context.Context, itemID gocql.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.releaseErr[itemID]; err != nil {
		return err
	}
	item := f.items[itemID]
	item.Stock += quantity
	f.items[itemID] = item
	return nil
}

// fakePurchases porte les achats dans un type dédié : LineStore et
// PurchaseStore déclarent tous deux Insert et Delete avec des signatures
// différentes.
type fakePurchases struct{ f *fakeGateway }

func (p fakePurchases) Insert(ctx context.Context, purchase models.Purchase) error {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if err := p.f.purchaseErr[purchase.ItemID]; err != nil {
		return err
	}
	p.f.purchases[purchase.ID] = purchase
	return nil
}

func (p fakePurchases) Delete(ctx context.Context, purchaseID gocql.UUID) error {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.purchaseDeleteErr != nil {
		return p.f.purchaseDeleteErr
	}
	delete(p.f.purchases, purchaseID)
	return nil
}

const testIdentity = "user-1"

func newTestStore(f *fakeGateway) *Store {
	return NewStore(testIdentity, f.gateway())
}

func TestAddToCart_CreatesLineWithQuantityOne(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Veste en jean", 25.0, 3)
	s := newTestStore(f)

	if err := s.AddToCart(context.Background(), itemID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 || entries[0].Quantity != 1 {
		t.Fatalf("expected one entry with quantity 1, got %+v", entries)
	}
	if f.lines[testIdentity][itemID] != 1 {
		t.Errorf("expected remote line quantity 1, got %d", f.lines[testIdentity][itemID])
	}
}

func TestAddToCart_OutOfStock(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Pull en laine", 12.0, 0)
	s := newTestStore(f)

	err := s.AddToCart(context.Background(), itemID)
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Error("cart state should be unchanged")
	}
	if len(f.lines[testIdentity]) != 0 {
		t.Error("no remote line should have been created")
	}
}

func TestAddToCart_StockOne_SecondAddFails(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Robe d'été", 18.5, 1)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, itemID); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	err := s.AddToCart(ctx, itemID)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := s.Entries()[0].Quantity; got != 1 {
		t.Errorf("quantity must remain 1, got %d", got)
	}
}

func TestAddToCart_ExistingLineIncrementsQuantity(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Chemise", 9.99, 5)
	s := newTestStore(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.AddToCart(ctx, itemID); err != nil {
			t.Fatalf("add %d failed: %v", i+1, err)
		}
	}

	if got := s.Entries()[0].Quantity; got != 3 {
		t.Errorf("expected quantity 3, got %d", got)
	}
	if f.lines[testIdentity][itemID] != 3 {
		t.Errorf("expected remote quantity 3, got %d", f.lines[testIdentity][itemID])
	}
}

func TestUpdateQuantity_BelowOne_NoRemoteCall(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Jupe", 14.0, 4)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, itemID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	readsBefore := f.stockReads
	writesBefore := f.lineWrites

	err := s.UpdateQuantity(ctx, itemID, 0)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if f.stockReads != readsBefore || f.lineWrites != writesBefore {
		t.Error("no remote read or write should have been issued")
	}
}

func TestUpdateQuantity_ExceedsStock(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Manteau", 40.0, 2)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, itemID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	err := s.UpdateQuantity(ctx, itemID, 3)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := s.Entries()[0].Quantity; got != 1 {
		t.Errorf("quantity must keep its prior value 1, got %d", got)
	}
}

func TestUpdateQuantity_RemoteFailureLeavesStateUntouched(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Écharpe", 6.0, 10)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, itemID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	f.updateLineErr = errors.New("timeout scylla")
	err := s.UpdateQuantity(ctx, itemID, 4)
	if !errors.Is(err, ErrRemoteWrite) {
		t.Fatalf("expected ErrRemoteWrite, got %v", err)
	}
	if got := s.Entries()[0].Quantity; got != 1 {
		t.Errorf("local quantity must stay at last known-good value, got %d", got)
	}
}

func TestRemove_AbsentLineIsIdempotent(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Bonnet", 5.0, 2)
	s := newTestStore(f)

	if err := s.Remove(context.Background(), itemID); err != nil {
		t.Fatalf("removing an absent line must not fail: %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Error("cart state should be unchanged")
	}
}

func TestRemove_DeletesLineLocallyAndRemotely(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Baskets", 30.0, 2)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, itemID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.Remove(ctx, itemID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if len(s.Entries()) != 0 {
		t.Error("entry should be gone locally")
	}
	if len(f.lines[testIdentity]) != 0 {
		t.Error("remote line should be gone")
	}
}

func TestClear_ThenFetch_YieldsEmptyCart(t *testing.T) {
	f := newFakeGateway()
	a := f.addItem("T-shirt", 8.0, 5)
	b := f.addItem("Short", 11.0, 5)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(ctx, b); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := s.FetchCart(ctx); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Errorf("expected empty cart, got %d entries", len(s.Entries()))
	}
}

func TestFetchCart_IsIdempotent(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Gilet", 22.0, 3)
	f.lines[testIdentity] = map[gocql.UUID]int{itemID: 2}
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.FetchCart(ctx); err != nil {
		t.Fatal(err)
	}
	first := s.Entries()

	if err := s.FetchCart(ctx); err != nil {
		t.Fatal(err)
	}
	second := s.Entries()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two fetches without mutation must agree: %+v vs %+v", first, second)
	}
}

func TestFetchCart_SkipsVanishedItems(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Ceinture", 7.0, 1)
	f.lines[testIdentity] = map[gocql.UUID]int{itemID: 1, gocql.TimeUUID(): 1}
	s := newTestStore(f)

	if err := s.FetchCart(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Entries()) != 1 {
		t.Errorf("vanished item should be dropped from the view, got %d entries", len(s.Entries()))
	}
}

func TestSubtotal(t *testing.T) {
	f := newFakeGateway()
	a := f.addItem("Jean", 10.00, 5)
	b := f.addItem("Foulard", 5.50, 5)
	f.lines[testIdentity] = map[gocql.UUID]int{a: 2, b: 1}
	s := newTestStore(f)

	if err := s.FetchCart(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Subtotal(); got != 25.50 {
		t.Errorf("expected subtotal 25.50, got %.2f", got)
	}
	if got := s.TotalItems(); got != 3 {
		t.Errorf("expected 3 units, got %d", got)
	}
}

func TestQuantityNeverExceedsStock(t *testing.T) {
	f := newFakeGateway()
	itemID := f.addItem("Blouson", 55.0, 3)
	s := newTestStore(f)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_ = s.AddToCart(ctx, itemID)
	}

	if got := s.Entries()[0].Quantity; got > 3 {
		t.Errorf("quantity %d exceeds stock 3", got)
	}
}
