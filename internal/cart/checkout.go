package cart

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"friperie_back_end/internal/models"

	"github.com/gocql/gocql"
	qrcode "github.com/skip2/go-qrcode"
)

// Shipping regroupe les champs de livraison saisis par l'acheteur.
type Shipping struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
}

// Handoff est le résultat d'une commande : le récapitulatif texte, le lien
// WhatsApp pré-rempli vers le vendeur et son QR code PNG.
type Handoff struct {
	Message  string  `json:"message"`
	Link     string  `json:"link"`
	QRCode   []byte  `json:"qr_code,omitempty"`
	Subtotal float64 `json:"subtotal"`
}

// Checkout convertit le panier courant en enregistrements d'achat durables.
//
// Le stock est réservé ligne par ligne par décrément conditionnel atomique,
// puis les achats sont insérés en parallèle. Si quoi que ce soit échoue, les
// réservations sont relâchées, les achats déjà écrits sont supprimés et le
// panier reste intact. Le panier n'est vidé qu'après succès complet.
func (s *Store) Checkout(ctx context.Context, shipping Shipping, whatsappNumber string) (*Handoff, error) {
	if strings.TrimSpace(shipping.Name) == "" ||
		strings.TrimSpace(shipping.Address) == "" ||
		strings.TrimSpace(shipping.Phone) == "" {
		return nil, ErrMissingShipping
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state) == 0 {
		return nil, ErrEmptyCart
	}

	// 1. Réserver le stock, ligne par ligne
	var reserved []models.CartEntry
	for _, e := range s.state {
		ok, err := s.gw.Stock.Reserve(ctx, e.ID, e.Quantity)
		if err != nil || !ok {
			s.releaseReservations(ctx, reserved)
			if err != nil {
				return nil, fmt.Errorf("%w: réservation stock %s: %v", ErrCheckoutFailed, e.Title, err)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrCheckoutFailed, e.Title, ErrInsufficientStock)
		}
		reserved = append(reserved, e)
	}

	// 2. Insérer les achats en parallèle
	purchases := make([]models.Purchase, len(s.state))
	errs := make([]error, len(s.state))
	var wg sync.WaitGroup
	for i, e := range s.state {
		purchases[i] = models.Purchase{
			ID:        gocql.TimeUUID(),
			UserID:    s.identity,
			ItemID:    e.ID,
			Quantity:  e.Quantity,
			UnitPrice: e.Price,
			CreatedAt: time.Now(),
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.gw.Purchases.Insert(ctx, purchases[i])
		}(i)
	}
	wg.Wait()

	var failed error
	for _, err := range errs {
		if err != nil {
			failed = err
			break
		}
	}
	if failed != nil {
		// Compensation : on supprime les achats déjà écrits et on rend le stock
		for i, err := range errs {
			if err == nil {
				if derr := s.gw.Purchases.Delete(ctx, purchases[i].ID); derr != nil {
					log.Printf("⚠️ Achat %s non compensé après échec de commande: %v", purchases[i].ID, derr)
				}
			}
		}
		s.releaseReservations(ctx, reserved)
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, failed)
	}

	subtotal := 0.0
	for _, e := range s.state {
		subtotal += e.Price * float64(e.Quantity)
	}
	message := buildSummary(s.state, subtotal, shipping)

	// 3. Vider le panier, puis construire la remise en main propre WhatsApp
	if err := s.clearLocked(ctx); err != nil {
		// Les achats sont déjà enregistrés : on continue malgré tout
		log.Printf("⚠️ Panier non vidé après commande de %s: %v", s.identity, err)
	}

	link := handoffLink(whatsappNumber, message)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		// Le QR est un confort, pas une garantie
		png = nil
	}

	return &Handoff{
		Message:  message,
		Link:     link,
		QRCode:   png,
		Subtotal: subtotal,
	}, nil
}

func (s *Store) releaseReservations(ctx context.Context, reserved []models.CartEntry) {
	for _, e := range reserved {
		if err := s.gw.Stock.Release(ctx, e.ID, e.Quantity); err != nil {
			log.Printf("⚠️ Stock non rendu pour %s (x%d): %v", e.ID, e.Quantity, err)
		}
	}
}

// buildSummary construit le récapitulatif texte : lignes détaillées,
// sous-total à deux décimales, champs de livraison.
func buildSummary(entries []models.CartEntry, subtotal float64, shipping Shipping) string {
	var b strings.Builder
	b.WriteString("Bonjour ! Je souhaite passer une commande :\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s (x%d) => $%.2f\n", e.Title, e.Quantity, e.Price*float64(e.Quantity))
	}
	fmt.Fprintf(&b, "\nSous-total : $%.2f\n", subtotal)
	b.WriteString("\nDétails de livraison :\n")
	fmt.Fprintf(&b, "Nom : %s\n", shipping.Name)
	fmt.Fprintf(&b, "Adresse : %s\n", shipping.Address)
	fmt.Fprintf(&b, "Téléphone : %s", shipping.Phone)
	return b.String()
}

// handoffLink fabrique le deep link WhatsApp pré-rempli vers le vendeur.
func handoffLink(number, message string) string {
	number = strings.TrimPrefix(number, "+")
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(message)
}
