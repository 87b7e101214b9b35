package cart

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
)

var testShipping = Shipping{
	Name:    "Claire Dupont",
	Address: "12 rue des Lilas, Bruxelles",
	Phone:   "+32470000000",
}

func TestCheckout_Success(t *testing.T) {
	f := newFakeGateway()
	a := f.addItem("Jean", 10.00, 5)
	b := f.addItem("Foulard", 5.50, 5)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateQuantity(ctx, a, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(ctx, b); err != nil {
		t.Fatal(err)
	}

	handoff, err := s.Checkout(ctx, testShipping, "+32471111111")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if handoff.Subtotal != 25.50 {
		t.Errorf("expected subtotal 25.50, got %.2f", handoff.Subtotal)
	}
	if !strings.Contains(handoff.Message, "$25.50") {
		t.Errorf("summary should carry the two-decimal subtotal: %q", handoff.Message)
	}
	if !strings.Contains(handoff.Message, "Jean (x2)") {
		t.Errorf("summary should itemize lines: %q", handoff.Message)
	}
	if !strings.Contains(handoff.Message, testShipping.Name) {
		t.Error("summary should carry the shipping name")
	}
	if !strings.HasPrefix(handoff.Link, "https://wa.me/32471111111?text=") {
		t.Errorf("unexpected handoff link: %q", handoff.Link)
	}
	if len(handoff.QRCode) == 0 {
		t.Error("expected a QR code for the handoff link")
	}

	if len(s.Entries()) != 0 {
		t.Error("cart should be cleared after a fully successful checkout")
	}
	if len(f.lines[testIdentity]) != 0 {
		t.Error("remote cart lines should be deleted")
	}
	if len(f.purchases) != 2 {
		t.Errorf("expected 2 purchase records, got %d", len(f.purchases))
	}
	if f.items[a].Stock != 3 || f.items[b].Stock != 4 {
		t.Errorf("stock should be decremented: got %d and %d", f.items[a].Stock, f.items[b].Stock)
	}
}

func TestCheckout_SecondLineFailure_NothingCommitted(t *testing.T) {
	f := newFakeGateway()
	a := f.addItem("Jean", 10.00, 5)
	b := f.addItem("Foulard", 5.50, 5)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(ctx, b); err != nil {
		t.Fatal(err)
	}

	f.purchaseErr[b] = errors.New("insert refusé")

	_, err := s.Checkout(ctx, testShipping, "+32471111111")
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}

	if len(s.Entries()) != 2 {
		t.Error("cart must not be cleared when a line fails")
	}
	if len(f.lines[testIdentity]) != 2 {
		t.Error("remote cart lines must survive a failed checkout")
	}
	if len(f.purchases) != 0 {
		t.Errorf("sibling purchase rows should be compensated, %d left", len(f.purchases))
	}
	if f.items[a].Stock != 5 || f.items[b].Stock != 5 {
		t.Errorf("reserved stock should be released: got %d and %d", f.items[a].Stock, f.items[b].Stock)
	}
}

func TestCheckout_CompensationFailuresAreLoggedAndNonBlocking(t *testing.T) {
	f := newFakeGateway()
	a := f.addItem("Jean", 10.00, 5)
	b := f.addItem("Foulard", 5.50, 5)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(ctx, b); err != nil {
		t.Fatal(err)
	}

	// L'achat de b échoue, puis la compensation elle-même échoue à moitié :
	// suppression d'achat refusée, rendu de stock refusé pour a
	f.purchaseErr[b] = errors.New("insert refusé")
	f.purchaseDeleteErr = errors.New("delete refusé")
	f.releaseErr[a] = errors.New("release refusé")

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	_, err := s.Checkout(ctx, testShipping, "+32471111111")
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}

	if len(s.Entries()) != 2 {
		t.Error("cart must not be cleared when a line fails")
	}
	// La compensation de b doit être tentée malgré l'échec de celle de a
	if f.items[b].Stock != 5 {
		t.Errorf("stock of the second item should still be released, got %d", f.items[b].Stock)
	}
	// L'achat de a n'a pas pu être supprimé : la ligne orpheline reste
	if len(f.purchases) != 1 {
		t.Errorf("expected 1 orphan purchase row, got %d", len(f.purchases))
	}

	out := logs.String()
	if !strings.Contains(out, "non compensé") {
		t.Errorf("failed purchase compensation should be logged, got: %s", out)
	}
	if !strings.Contains(out, "Stock non rendu") {
		t.Errorf("failed stock release should be logged, got: %s", out)
	}
}

func TestCheckout_InsufficientStockAtReservation(t *testing.T) {
	f := newFakeGateway()
	a := f.addItem("Jean", 10.00, 2)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateQuantity(ctx, a, 2); err != nil {
		t.Fatal(err)
	}

	// Un autre acheteur passe avant nous
	item := f.items[a]
	item.Stock = 1
	f.items[a] = item

	_, err := s.Checkout(ctx, testShipping, "+32471111111")
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}
	if f.items[a].Stock != 1 {
		t.Errorf("stock must be untouched after a refused reservation, got %d", f.items[a].Stock)
	}
	if len(s.Entries()) != 1 {
		t.Error("cart must stay intact")
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFakeGateway()
	s := newTestStore(f)

	_, err := s.Checkout(context.Background(), testShipping, "+32471111111")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_MissingShippingFields(t *testing.T) {
	f := newFakeGateway()
	a := f.addItem("Jean", 10.00, 5)
	s := newTestStore(f)
	ctx := context.Background()

	if err := s.AddToCart(ctx, a); err != nil {
		t.Fatal(err)
	}

	for _, shipping := range []Shipping{
		{Name: "", Address: "adresse", Phone: "tel"},
		{Name: "nom", Address: "  ", Phone: "tel"},
		{Name: "nom", Address: "adresse", Phone: ""},
	} {
		_, err := s.Checkout(ctx, shipping, "+32471111111")
		if !errors.Is(err, ErrMissingShipping) {
			t.Errorf("shipping %+v: expected ErrMissingShipping, got %v", shipping, err)
		}
	}
	if len(f.purchases) != 0 {
		t.Error("no purchase may be written with incomplete shipping")
	}
}

func TestHandoffLink_StripsPlusAndEscapesText(t *testing.T) {
	link := handoffLink("+32470123456", "commande: 2 x jean")
	if !strings.HasPrefix(link, "https://wa.me/32470123456?text=") {
		t.Errorf("unexpected link: %q", link)
	}
	if strings.Contains(link, " ") {
		t.Errorf("message must be URL-escaped: %q", link)
	}
}
