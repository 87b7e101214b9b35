package models

import (
	"github.com/gocql/gocql"
)

// CartLine est une ligne de panier persistée : (identité, article, quantité).
// L'identité peut être un user_id authentifié ou un anon_id durable.
type CartLine struct {
	UserID   string     `json:"user_id" db:"user_id"`
	ItemID   gocql.UUID `json:"item_id" db:"item_id"`
	Quantity int        `json:"quantity" db:"quantity"`
}

// CartEntry est la vue panier renvoyée au client : l'article fusionné
// avec la quantité de sa ligne.
type CartEntry struct {
	Item
	Quantity int `json:"quantity"`
}

type Cart struct {
	UserID     string      `json:"user_id"`
	Items      []CartEntry `json:"items"`
	Subtotal   float64     `json:"subtotal"`
	TotalItems int         `json:"total_items"`
}
